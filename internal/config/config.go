package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPath names the environment variable that overrides the config location.
const EnvPath = "KIWOOM_CONFIG"

// DefaultPath is used when EnvPath is unset.
const DefaultPath = "configs/config.yaml"

// ResolvePath returns the config path from the environment or the default.
func ResolvePath() string {
	if p := strings.TrimSpace(os.Getenv(EnvPath)); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads path and its includes, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	files, err := resolveConfigIncludes(path)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigType("yaml")
	for _, file := range files {
		if err := mergeConfigFile(v, file); err != nil {
			return nil, fmt.Errorf("reading config file failed (%s): %w", file, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	setKeys := make(keySet)
	collectSettingsKeys(v.AllSettings(), setKeys)
	cfg.applyDefaults(setKeys)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigFile overlays one file on v. Later files win key by key.
func mergeConfigFile(v *viper.Viper, path string) error {
	file := viper.New()
	file.SetConfigFile(path)
	if err := file.ReadInConfig(); err != nil {
		return err
	}
	return v.MergeConfigMap(file.AllSettings())
}

// resolveConfigIncludes returns path and everything it includes in merge
// order: includes first (depth first, each file once), the including file
// last so it overrides them.
func resolveConfigIncludes(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	r := includeResolver{loaded: make(map[string]bool), visiting: make(map[string]bool)}
	if err := r.walk(root); err != nil {
		return nil, err
	}
	return r.order, nil
}

type includeResolver struct {
	loaded   map[string]bool
	visiting map[string]bool
	order    []string
}

func (r *includeResolver) walk(path string) error {
	path = filepath.Clean(path)
	if r.visiting[path] {
		return fmt.Errorf("include cycle detected: %s", path)
	}
	if r.loaded[path] {
		return nil
	}
	r.visiting[path] = true
	includes, err := parseIncludeList(path)
	if err != nil {
		return fmt.Errorf("parsing include failed (%s): %w", path, err)
	}
	for _, inc := range includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(path), inc)
		}
		if err := r.walk(inc); err != nil {
			return err
		}
	}
	delete(r.visiting, path)
	r.loaded[path] = true
	r.order = append(r.order, path)
	return nil
}

// parseIncludeList reads the include key of one file. It accepts a single
// path or a list of paths; blank entries are skipped.
func parseIncludeList(path string) ([]string, error) {
	file := viper.New()
	file.SetConfigFile(path)
	if err := file.ReadInConfig(); err != nil {
		return nil, err
	}
	var raw []any
	switch val := file.Get("include").(type) {
	case nil:
		return nil, nil
	case string:
		raw = []any{val}
	case []any:
		raw = val
	default:
		return nil, fmt.Errorf("include must be a path or a list of paths, got %T", val)
	}
	out := make([]string, 0, len(raw))
	for i, item := range raw {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("include[%d] must be a string, got %T", i, item)
		}
		if str = strings.TrimSpace(str); str != "" {
			out = append(out, str)
		}
	}
	return out, nil
}

// collectSettingsKeys marks every leaf key present in the merged settings,
// so defaults only fill keys the files leave out. Lists are leaves.
func collectSettingsKeys(settings map[string]any, dest keySet) {
	if dest == nil {
		return
	}
	markKeys("", settings, dest)
}

func markKeys(prefix string, node any, dest keySet) {
	section, ok := node.(map[string]any)
	if !ok {
		if prefix != "" {
			dest.mark(prefix)
		}
		return
	}
	for k, v := range section {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		markKeys(key, v, dest)
	}
}

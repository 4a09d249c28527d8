package config

import (
	"strings"
	"time"

	"kiwoom/internal/openapi"
)

// Config is the root of the kiwoom configuration file.
type Config struct {
	App      AppConfig      `toml:"app"`
	Control  ControlConfig  `toml:"control"`
	Dispatch DispatchConfig `toml:"dispatch"`
	Journal  StoreConfig    `toml:"journal"`
	CallLog  StoreConfig    `toml:"calllog"`
	Request  RequestConfig  `toml:"request"`
	HTTP     HTTPConfig     `toml:"http"`
}

type AppConfig struct {
	Env           string `toml:"env"`
	LogLevel      string `toml:"log_level"`
	LogPath       string `toml:"log_path"`
	NativeDump    bool   `toml:"native_dump"`
	NativeLogPath string `toml:"native_log_path"`
}

// ControlConfig selects and configures the driver behind the API.
type ControlConfig struct {
	Driver    string `toml:"driver"`
	ProgID    string `toml:"prog_id"`
	AutoLogin int    `toml:"auto_login"`
	Script    string `toml:"script"`
	// Replay names an event journal whose entries the sim driver re-delivers.
	Replay string `toml:"replay"`
	// EventIID and EventDispIDs bypass type-info discovery on the native driver.
	EventIID     string           `toml:"event_iid"`
	EventDispIDs map[string]int32 `toml:"event_dispids"`
}

// DispIDs returns the configured DISPID overrides keyed by DISPID. Config
// keys arrive lowercased, so names are matched case-insensitively.
func (c ControlConfig) DispIDs() map[int32]string {
	if len(c.EventDispIDs) == 0 {
		return nil
	}
	out := make(map[int32]string, len(c.EventDispIDs))
	for name, id := range c.EventDispIDs {
		if ev, ok := canonicalEvent(name); ok {
			out[id] = string(ev)
		}
	}
	return out
}

func canonicalEvent(name string) (openapi.EventName, bool) {
	name = strings.TrimSpace(name)
	for _, ev := range openapi.Events() {
		if strings.EqualFold(string(ev), name) {
			return ev, true
		}
	}
	return "", false
}

type DispatchConfig struct {
	Policy string `toml:"policy"`
}

// StoreConfig is shared by the event journal and the call log.
type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type RequestConfig struct {
	ScreenBase             int `toml:"screen_base"`
	ScreenSpan             int `toml:"screen_span"`
	TimeoutSeconds         int `toml:"timeout_seconds"`
	BreakerThreshold       int `toml:"breaker_threshold"`
	BreakerCooldownSeconds int `toml:"breaker_cooldown_seconds"`
}

func (r RequestConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

func (r RequestConfig) BreakerCooldown() time.Duration {
	return time.Duration(r.BreakerCooldownSeconds) * time.Second
}

type HTTPConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

const (
	DriverOCX = "ocx"
	DriverSim = "sim"
)

// keySet tracks the field paths explicitly set in the config files.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

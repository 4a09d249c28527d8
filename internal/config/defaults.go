package config

import (
	"strings"
)

const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppLogPath       = "logs/kiwoom.log"
	defaultNativeLogPath    = "logs/kiwoom-native.log"
	defaultControlDriver    = DriverOCX
	defaultProgID           = "KFOPENAPI.KFOpenAPICtrl.1"
	defaultAutoLogin        = 1
	defaultDispatchPolicy   = "abort"
	defaultJournalPath      = "data/journal.db"
	defaultCallLogPath      = "data/calls.db"
	defaultScreenBase       = 1000
	defaultScreenSpan       = 200
	defaultRequestTimeout   = 10
	defaultBreakerThreshold = 3
	defaultBreakerCooldown  = 20
	defaultHTTPAddr         = "127.0.0.1:9991"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Control.applyDefaults(keys)
	c.Dispatch.applyDefaults(keys)
	c.Journal.applyDefaults(keys, "journal", defaultJournalPath)
	c.CallLog.applyDefaults(keys, "calllog", defaultCallLogPath)
	c.Request.applyDefaults(keys)
	c.HTTP.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
		stringFieldDefault("app.native_log_path", &a.NativeLogPath, defaultNativeLogPath),
	)
}

func (c *ControlConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("control.driver", &c.Driver, defaultControlDriver),
		stringFieldDefault("control.prog_id", &c.ProgID, defaultProgID),
		intFieldDefault("control.auto_login", &c.AutoLogin, defaultAutoLogin),
	)
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
}

func (d *DispatchConfig) applyDefaults(keys keySet) {
	if d == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("dispatch.policy", &d.Policy, defaultDispatchPolicy),
	)
	d.Policy = strings.ToLower(strings.TrimSpace(d.Policy))
}

func (s *StoreConfig) applyDefaults(keys keySet, section, path string) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault(section+".path", &s.Path, path),
	)
}

func (r *RequestConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		positiveIntDefault("request.screen_base", &r.ScreenBase, defaultScreenBase),
		positiveIntDefault("request.screen_span", &r.ScreenSpan, defaultScreenSpan),
		positiveIntDefault("request.timeout_seconds", &r.TimeoutSeconds, defaultRequestTimeout),
		positiveIntDefault("request.breaker_threshold", &r.BreakerThreshold, defaultBreakerThreshold),
		positiveIntDefault("request.breaker_cooldown_seconds", &r.BreakerCooldownSeconds, defaultBreakerCooldown),
	)
}

func (h *HTTPConfig) applyDefaults(keys keySet) {
	if h == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("http.addr", &h.Addr, defaultHTTPAddr),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

// intFieldDefault applies def only when the key is absent, so an explicit
// zero survives.
func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func positiveIntDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"kiwoom/internal/openapi"
)

func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Control.validate(); err != nil {
		return err
	}
	if _, err := openapi.ParsePolicy(c.Dispatch.Policy); err != nil {
		return fmt.Errorf("dispatch.policy: %w", err)
	}
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) == "" {
		return fmt.Errorf("journal.path cannot be empty when journal is enabled")
	}
	if replay := strings.TrimSpace(c.Control.Replay); replay != "" && c.Journal.Enabled && sameFile(replay, c.Journal.Path) {
		return fmt.Errorf("control.replay cannot be the live journal %s", c.Journal.Path)
	}
	if c.CallLog.Enabled && strings.TrimSpace(c.CallLog.Path) == "" {
		return fmt.Errorf("calllog.path cannot be empty when calllog is enabled")
	}
	if err := c.Request.validate(); err != nil {
		return err
	}
	if c.HTTP.Enabled && strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("http.addr cannot be empty when http is enabled")
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level %q is not one of debug, info, warn, error", a.LogLevel)
	}
	if a.NativeDump && strings.TrimSpace(a.NativeLogPath) == "" {
		return fmt.Errorf("app.native_log_path cannot be empty when native_dump is on")
	}
	return nil
}

func (c *ControlConfig) validate() error {
	switch c.Driver {
	case DriverOCX:
		if strings.TrimSpace(c.ProgID) == "" {
			return fmt.Errorf("control.prog_id cannot be empty for the ocx driver")
		}
	case DriverSim:
	default:
		return fmt.Errorf("control.driver must be %q or %q, got %q", DriverOCX, DriverSim, c.Driver)
	}
	if c.Driver != DriverSim && (strings.TrimSpace(c.Script) != "" || strings.TrimSpace(c.Replay) != "") {
		return fmt.Errorf("control.script and control.replay need the %q driver", DriverSim)
	}
	if c.AutoLogin != 0 && c.AutoLogin != 1 {
		return fmt.Errorf("control.auto_login must be 0 or 1")
	}
	if (c.EventIID == "") != (len(c.EventDispIDs) == 0) {
		return fmt.Errorf("control.event_iid and control.event_dispids must be set together")
	}
	for name := range c.EventDispIDs {
		if _, ok := canonicalEvent(name); !ok {
			return fmt.Errorf("control.event_dispids: unknown event %q", name)
		}
	}
	return nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(strings.TrimSpace(a))
	absB, errB := filepath.Abs(strings.TrimSpace(b))
	return errA == nil && errB == nil && absA == absB
}

func (r *RequestConfig) validate() error {
	if r.ScreenBase+r.ScreenSpan > 10000 {
		return fmt.Errorf("request screen range %d+%d exceeds four-digit screen numbers", r.ScreenBase, r.ScreenSpan)
	}
	return nil
}

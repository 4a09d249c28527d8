package app

import (
	"fmt"
	"strings"

	"kiwoom/internal/config"
	"kiwoom/internal/logger"
	"kiwoom/internal/openapi"
)

type StartupSummary struct {
	Env        string
	Driver     string
	ProgID     string
	Policy     string
	LogLevel   string
	NativeDump bool
	Journal    string
	CallLog    string
	Replay     string
	HTTP       string
	Screens    string
	Registry   openapi.RegistrySnapshot
}

func newStartupSummary(cfg *config.Config, app *App) *StartupSummary {
	s := &StartupSummary{
		Env:        cfg.App.Env,
		Driver:     cfg.Control.Driver,
		ProgID:     cfg.Control.ProgID,
		Policy:     app.api.Policy().String(),
		LogLevel:   logger.Level(),
		NativeDump: cfg.App.NativeDump,
		Journal:    "-",
		CallLog:    "-",
		Replay:     "-",
		HTTP:       "-",
		Screens:    fmt.Sprintf("%04d-%04d", cfg.Request.ScreenBase, cfg.Request.ScreenBase+cfg.Request.ScreenSpan-1),
		Registry:   app.api.Registry().Snapshot(),
	}
	if cfg.Control.Driver == config.DriverSim {
		s.ProgID = "-"
	}
	if app.journal != nil {
		s.Journal = cfg.Journal.Path
	}
	if app.calls != nil {
		s.CallLog = cfg.CallLog.Path
	}
	if app.replay != nil {
		s.Replay = cfg.Control.Replay
	}
	if app.http != nil {
		s.HTTP = app.http.Addr()
	}
	return s
}

func (s *StartupSummary) String() string {
	var b strings.Builder
	line := strings.Repeat("=", 60)
	b.WriteString(line + "\n")
	b.WriteString("STARTUP SUMMARY\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(&b, "  env:          %s\n", s.Env)
	fmt.Fprintf(&b, "  driver:       %s (%s)\n", s.Driver, s.ProgID)
	fmt.Fprintf(&b, "  policy:       %s\n", s.Policy)
	fmt.Fprintf(&b, "  log level:    %s (native dump %v)\n", s.LogLevel, s.NativeDump)
	fmt.Fprintf(&b, "  journal:      %s\n", s.Journal)
	fmt.Fprintf(&b, "  call log:     %s\n", s.CallLog)
	fmt.Fprintf(&b, "  replay:       %s\n", s.Replay)
	fmt.Fprintf(&b, "  http:         %s\n", s.HTTP)
	fmt.Fprintf(&b, "  screens:      %s\n", s.Screens)
	b.WriteString("  handlers:\n")
	for _, ev := range openapi.Events() {
		fmt.Fprintf(&b, "    %-20s %d (%d keys)\n", ev, s.Registry.Total(ev), len(s.Registry.Keys(ev)))
	}
	b.WriteString(line)
	return b.String()
}

func (s *StartupSummary) Print() {
	logger.InfoBlock(s.String())
}

package app

import (
	"context"
	"fmt"
	"strings"

	"kiwoom/internal/calllog"
	"kiwoom/internal/config"
	"kiwoom/internal/control/ocx"
	"kiwoom/internal/control/sim"
	"kiwoom/internal/handlers"
	"kiwoom/internal/journal"
	"kiwoom/internal/logger"
	"kiwoom/internal/openapi"
	"kiwoom/internal/request"
	bridgehttp "kiwoom/internal/transport/http/bridge"
)

type AppBuilder struct {
	cfg      *config.Config
	registry *openapi.Registry

	controlFn func(config.ControlConfig) (openapi.Control, driver, error)
	httpFn    func(bridgehttp.ServerConfig) (*bridgehttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

// WithRegistry makes the app register its handlers on reg instead of the
// process-wide default registry.
func WithRegistry(reg *openapi.Registry) AppBuilderOption {
	return func(b *AppBuilder) { b.registry = reg }
}

// WithControl replaces driver construction.
func WithControl(fn func(config.ControlConfig) (openapi.Control, driver, error)) AppBuilderOption {
	return func(b *AppBuilder) { b.controlFn = fn }
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:       cfg,
		registry:  openapi.DefaultRegistry,
		controlFn: buildControl,
		httpFn:    bridgehttp.NewServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func buildControl(cfg config.ControlConfig) (openapi.Control, driver, error) {
	switch cfg.Driver {
	case config.DriverSim:
		c := sim.New(sim.WithLoginResult())
		return c, c, nil
	case config.DriverOCX:
		c, err := ocx.New(ocx.Options{
			ProgID:       cfg.ProgID,
			EventIID:     cfg.EventIID,
			EventDispIDs: cfg.DispIDs(),
		})
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	default:
		return nil, nil, fmt.Errorf("unknown control driver %q", cfg.Driver)
	}
}

func (b *AppBuilder) Build(ctx context.Context) (app *App, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := b.cfg
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	app = &App{cfg: cfg, session: handlers.NewSession()}
	defer func() {
		if err != nil {
			_ = app.Close()
			app = nil
		}
	}()

	policy, err := openapi.ParsePolicy(cfg.Dispatch.Policy)
	if err != nil {
		return nil, err
	}
	opts := []openapi.Option{openapi.WithRegistry(b.registry), openapi.WithPolicy(policy)}

	if cfg.Journal.Enabled {
		if app.journal, err = journal.Open(cfg.Journal.Path); err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		opts = append(opts, openapi.WithObserver(app.journal))
	}
	if cfg.CallLog.Enabled {
		if app.calls, err = calllog.Open(cfg.CallLog.Path); err != nil {
			return nil, fmt.Errorf("open call log: %w", err)
		}
		opts = append(opts, openapi.WithCallObserver(app.calls))
	}

	if err := handlers.RegisterCoreHandlers(b.registry, app.session); err != nil {
		return nil, err
	}

	ctrl, drv, err := b.controlFn(cfg.Control)
	if err != nil {
		return nil, fmt.Errorf("create %s control: %w", cfg.Control.Driver, err)
	}
	app.driver = drv
	if s, ok := ctrl.(*sim.Control); ok {
		app.sim = s
		if path := strings.TrimSpace(cfg.Control.Script); path != "" {
			if app.script, err = sim.LoadScript(path); err != nil {
				_ = ctrl.Close()
				return nil, err
			}
			app.script.Apply(s)
		}
		if path := strings.TrimSpace(cfg.Control.Replay); path != "" {
			if app.replay, err = journal.Open(path); err != nil {
				_ = ctrl.Close()
				return nil, fmt.Errorf("open replay journal: %w", err)
			}
		}
	}

	if app.api, err = openapi.New(ctrl, opts...); err != nil {
		_ = ctrl.Close()
		return nil, err
	}

	if app.requests, err = request.New(app.api, request.Options{
		ScreenBase:       cfg.Request.ScreenBase,
		ScreenSpan:       cfg.Request.ScreenSpan,
		Timeout:          cfg.Request.Timeout(),
		BreakerThreshold: cfg.Request.BreakerThreshold,
		BreakerCooldown:  cfg.Request.BreakerCooldown(),
	}); err != nil {
		return nil, err
	}

	if cfg.HTTP.Enabled {
		srvCfg := bridgehttp.ServerConfig{
			Addr:      cfg.HTTP.Addr,
			API:       app.api,
			AutoLogin: cfg.Control.AutoLogin,
			Requests:  app.requests,
		}
		if app.journal != nil {
			srvCfg.Journal = app.journal
		}
		if app.calls != nil {
			srvCfg.Calls = app.calls
		}
		if app.http, err = b.httpFn(srvCfg); err != nil {
			return nil, err
		}
	}

	app.Summary = newStartupSummary(cfg, app)
	logger.Debugf("app built with %s driver", cfg.Control.Driver)
	return app, nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"kiwoom/internal/calllog"
	"kiwoom/internal/config"
	"kiwoom/internal/control/sim"
	"kiwoom/internal/handlers"
	"kiwoom/internal/journal"
	"kiwoom/internal/logger"
	"kiwoom/internal/openapi"
	"kiwoom/internal/request"
	bridgehttp "kiwoom/internal/transport/http/bridge"
)

const loginTimeout = 2 * time.Minute

// driver is the part of a control the app runs: both the native and the
// simulated control deliver events from Run until ctx is done.
type driver interface {
	Run(ctx context.Context) error
}

// App wires the control, the API and the optional stores and HTTP bridge.
type App struct {
	cfg      *config.Config
	api      *openapi.API
	driver   driver
	sim      *sim.Control
	script   *sim.Script
	replay   *journal.Store
	session  *handlers.Session
	requests *request.Requester
	journal  *journal.Store
	calls    *calllog.Store
	http     *bridgehttp.Server
	Summary  *StartupSummary
}

// NewApp builds the application from cfg without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run drives the control, serves HTTP and performs the configured login
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.api == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Summary != nil {
		a.Summary.Print()
	}
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("control: %w", err)
		}
		return nil
	})

	if a.http != nil {
		group.Go(func() error {
			if err := a.http.Start(ctx); err != nil {
				return fmt.Errorf("bridge http server error: %w", err)
			}
			return nil
		})
	}

	if a.sim != nil && a.script != nil {
		group.Go(func() error {
			if err := a.script.Play(ctx, a.sim); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("sim script: %w", err)
			}
			return nil
		})
	}

	if a.sim != nil && a.replay != nil {
		group.Go(func() error {
			return a.replayJournal(ctx)
		})
	}

	if a.cfg.Control.AutoLogin == 1 {
		group.Go(func() error {
			return a.login(ctx)
		})
	}

	err := group.Wait()
	if cerr := a.Close(); cerr != nil {
		logger.Warnf("app close: %v", cerr)
	}
	return err
}

// login opens the login dialog and logs the result. A failed login is not
// fatal: the HTTP bridge can retry it.
func (a *App) login(ctx context.Context) error {
	code, err := a.api.CommConnect(a.cfg.Control.AutoLogin)
	if err != nil {
		return fmt.Errorf("CommConnect: %w", err)
	}
	if err := openapi.CheckCode(openapi.MethodCommConnect, code); err != nil {
		logger.Errorf("%v", err)
		return nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()
	if err := a.session.Wait(waitCtx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		logger.Warnf("login not completed: %v", err)
	}
	return nil
}

// replayJournal re-delivers every journaled event through the sim queue.
func (a *App) replayJournal(ctx context.Context) error {
	n, err := a.replay.Replay(ctx, journal.Query{}, func(ev openapi.EventName, args ...any) error {
		return a.sim.EnqueueContext(ctx, ev, args...)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("replay %s: %w", a.cfg.Control.Replay, err)
	}
	logger.Infof("replayed %d journaled events", n)
	return nil
}

// Reload applies the hot-reloadable settings of cfg.
func (a *App) Reload(cfg *config.Config) {
	if a == nil || cfg == nil {
		return
	}
	if cfg.App.LogLevel != logger.Level() {
		logger.SetLevel(cfg.App.LogLevel)
		logger.Infof("log level set to %s", logger.Level())
	}
	p, err := openapi.ParsePolicy(cfg.Dispatch.Policy)
	if err != nil {
		logger.Warnf("ignoring dispatch policy: %v", err)
		return
	}
	a.api.SetPolicy(p)
}

// Close releases the control and the stores.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.api != nil {
		errs = append(errs, a.api.Close())
	}
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}
	if a.calls != nil {
		errs = append(errs, a.calls.Close())
	}
	if a.replay != nil {
		errs = append(errs, a.replay.Close())
	}
	return errors.Join(errs...)
}

func (a *App) API() *openapi.API { return a.api }

func (a *App) Requests() *request.Requester { return a.requests }

// Session exposes the login tracker.
func (a *App) Session() *handlers.Session { return a.session }

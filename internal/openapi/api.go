package openapi

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"kiwoom/internal/logger"
)

// API owns one control instance. It forwards every native event to the
// handlers of its registry and every outbound call to the control.
type API struct {
	ctrl          Control
	registry      *Registry
	policy        atomic.Int32
	observers     []Observer
	callObservers []CallObserver
	closeOnce     sync.Once
}

// Option customizes New.
type Option func(*API)

// WithRegistry injects the registry dispatched against instead of DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(a *API) {
		if r != nil {
			a.registry = r
		}
	}
}

func WithPolicy(p Policy) Option {
	return func(a *API) { a.policy.Store(int32(p)) }
}

// WithObserver adds a dispatch observer.
func WithObserver(o Observer) Option {
	return func(a *API) {
		if o != nil {
			a.observers = append(a.observers, o)
		}
	}
}

// WithCallObserver adds an outbound call observer.
func WithCallObserver(o CallObserver) Option {
	return func(a *API) {
		if o != nil {
			a.callObservers = append(a.callObservers, o)
		}
	}
}

// New wraps ctrl and installs one listener per supported event.
func New(ctrl Control, opts ...Option) (*API, error) {
	if ctrl == nil {
		return nil, ErrNilControl
	}
	a := &API{ctrl: ctrl, registry: DefaultRegistry}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	for _, event := range eventNames {
		if err := ctrl.Connect(event, a.trigger(event)); err != nil {
			return nil, fmt.Errorf("connect %s: %w", event, err)
		}
	}
	logger.Debugf("openapi: %d events connected, policy=%s", len(eventNames), a.Policy())
	return a, nil
}

func (a *API) Registry() *Registry { return a.registry }

// Control exposes the wrapped control.
func (a *API) Control() Control { return a.ctrl }

func (a *API) Policy() Policy { return Policy(a.policy.Load()) }

// SetPolicy switches the handler failure policy for subsequent cycles.
func (a *API) SetPolicy(p Policy) {
	if prev := Policy(a.policy.Swap(int32(p))); prev != p {
		logger.Infof("openapi: dispatch policy %s -> %s", prev, p)
	}
}

// Close releases the control. Further calls are no-ops.
func (a *API) Close() error {
	var err error
	a.closeOnce.Do(func() {
		err = a.ctrl.Close()
	})
	return err
}

// CallRecord describes one forwarded call.
type CallRecord struct {
	Method   Method
	Args     []any
	Result   any
	Err      error
	Started  time.Time
	Duration time.Duration
}

// CallObserver is notified after every forwarded call.
type CallObserver interface {
	ObserveCall(rec CallRecord)
}

// CallObserverFunc adapts a function to CallObserver.
type CallObserverFunc func(CallRecord)

func (f CallObserverFunc) ObserveCall(rec CallRecord) { f(rec) }

func (a *API) called(m Method, start time.Time, result any, err error, args ...any) {
	rec := CallRecord{
		Method:   m,
		Args:     args,
		Result:   result,
		Err:      err,
		Started:  start,
		Duration: time.Since(start),
	}
	logger.LogNativeCall(m.Signature(), args, result, rec.Duration, err)
	for _, o := range a.callObservers {
		o.ObserveCall(rec)
	}
}

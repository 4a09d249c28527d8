package openapi

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"kiwoom/internal/logger"
)

// Policy decides what happens when a handler fails during a dispatch cycle.
type Policy int32

const (
	// PolicyAbort stops at the first failing handler and returns its error.
	// Panics are not recovered.
	PolicyAbort Policy = iota
	// PolicyIsolate recovers each handler, logs the failure and keeps going.
	// The cycle returns every failure joined.
	PolicyIsolate
)

func (p Policy) String() string {
	switch p {
	case PolicyAbort:
		return "abort"
	case PolicyIsolate:
		return "isolate"
	default:
		return fmt.Sprintf("policy(%d)", int32(p))
	}
}

// ParsePolicy accepts "abort" or "isolate". Empty means abort.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return PolicyAbort, nil
	case "isolate":
		return PolicyIsolate, nil
	default:
		return PolicyAbort, fmt.Errorf("openapi: unknown dispatch policy %q", s)
	}
}

// DispatchRecord describes one completed dispatch cycle.
type DispatchRecord struct {
	Event    EventName
	Key      string
	Args     []any
	Handlers int
	Err      error
	Started  time.Time
	Duration time.Duration
}

// Observer is notified after every dispatch cycle, including failed ones.
type Observer interface {
	ObserveDispatch(rec DispatchRecord)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(DispatchRecord)

func (f ObserverFunc) ObserveDispatch(rec DispatchRecord) { f(rec) }

// trigger builds the listener installed on the control for event.
func (a *API) trigger(event EventName) Listener {
	return func(args ...any) error {
		return a.Dispatch(event, args...)
	}
}

// Dispatch runs the handlers registered for event, selected by args where
// the event is keyed, in registration order. An unknown OnReceiveTrData key
// runs nothing and is not an error.
func (a *API) Dispatch(event EventName, args ...any) (err error) {
	rec := DispatchRecord{Event: event, Args: args, Started: time.Now()}
	defer func() {
		if r := recover(); r != nil {
			rec.Err = fmt.Errorf("panic: %v", r)
			a.observe(&rec)
			panic(r)
		}
		rec.Err = err
		a.observe(&rec)
	}()

	key, handlers, err := a.registry.Handlers(event, args)
	rec.Key = key
	if err != nil {
		return err
	}
	rec.Handlers = len(handlers)
	if len(handlers) == 0 {
		return nil
	}
	if a.Policy() == PolicyIsolate {
		return a.runIsolated(event, key, handlers, args)
	}
	for i, h := range handlers {
		if herr := h(a, args...); herr != nil {
			return &HandlerError{Event: event, Key: key, Index: i, Err: herr}
		}
	}
	return nil
}

func (a *API) runIsolated(event EventName, key string, handlers []Handler, args []any) error {
	var errs []error
	for i, h := range handlers {
		if herr := a.safeInvoke(h, args); herr != nil {
			wrapped := &HandlerError{Event: event, Key: key, Index: i, Err: herr}
			logger.Errorf("%v", wrapped)
			errs = append(errs, wrapped)
		}
	}
	return errors.Join(errs...)
}

func (a *API) safeInvoke(h Handler, args []any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debugf("handler panic stack:\n%s", debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(a, args...)
}

func (a *API) observe(rec *DispatchRecord) {
	rec.Duration = time.Since(rec.Started)
	logger.LogNativeEvent(string(rec.Event), rec.Args, rec.Handlers, rec.Duration, rec.Err)
	for _, o := range a.observers {
		o.ObserveDispatch(*rec)
	}
}

// Package sim is an in-process stand-in for the vendor control. It records
// every call with its vendor signature, answers from a result table and
// delivers events either synchronously (Fire) or through a queue drained by
// Run or Flush, the way the native message pump would.
package sim

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"kiwoom/internal/logger"
	"kiwoom/internal/openapi"
	"kiwoom/internal/pkg/convert"
)

// Call is one recorded invocation.
type Call struct {
	Method    openapi.Method
	Signature string
	Args      []any
}

type queued struct {
	event openapi.EventName
	args  []any
}

// TrResponder builds the OnReceiveTrData arguments for a CommRqData call.
// Returning nil suppresses the event.
type TrResponder func(rqName, trCode, prevNext, screenNo string, inputs map[string]string) []any

// Control implements openapi.Control without the native module.
type Control struct {
	mu         sync.Mutex
	listeners  map[openapi.EventName]openapi.Listener
	calls      []Call
	results    map[openapi.Method]any
	commData   map[string]string
	inputs     map[string]string
	responders map[string]TrResponder
	connected  bool
	closed     bool
	autoLogin  bool

	queue chan queued
}

// Option configures a simulated control.
type Option func(*Control)

// WithLoginResult makes CommConnect queue OnEventConnect(0) and flip the connect state.
func WithLoginResult() Option {
	return func(c *Control) { c.autoLogin = true }
}

// WithQueueSize bounds the number of undelivered events.
func WithQueueSize(n int) Option {
	return func(c *Control) {
		if n > 0 {
			c.queue = make(chan queued, n)
		}
	}
}

func New(opts ...Option) *Control {
	c := &Control{
		listeners:  make(map[openapi.EventName]openapi.Listener),
		results:    make(map[openapi.Method]any),
		commData:   make(map[string]string),
		inputs:     make(map[string]string),
		responders: make(map[string]TrResponder),
		queue:      make(chan queued, 1024),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

var _ openapi.Control = (*Control)(nil)

// Connect stores the listener for event, replacing any previous one.
func (c *Control) Connect(event openapi.EventName, fn openapi.Listener) error {
	if !event.Valid() {
		return fmt.Errorf("%w: %q", openapi.ErrUnknownEvent, event)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[event] = fn
	return nil
}

func (c *Control) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.connected = false
	return nil
}

func (c *Control) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Fire delivers an event synchronously and returns the listener's error.
func (c *Control) Fire(event openapi.EventName, args ...any) error {
	c.mu.Lock()
	fn := c.listeners[event]
	c.mu.Unlock()
	if fn == nil {
		return fmt.Errorf("sim: no listener for %s", event)
	}
	return fn(args...)
}

// Enqueue schedules an event for Run or Flush.
func (c *Control) Enqueue(event openapi.EventName, args ...any) error {
	select {
	case c.queue <- queued{event: event, args: args}:
		return nil
	default:
		return fmt.Errorf("sim: event queue full, dropping %s", event)
	}
}

// EnqueueContext is Enqueue that waits for queue space until ctx is done.
func (c *Control) EnqueueContext(ctx context.Context, event openapi.EventName, args ...any) error {
	select {
	case c.queue <- queued{event: event, args: args}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush delivers every queued event on the calling goroutine, including
// events queued by handlers while flushing. It returns the number delivered.
func (c *Control) Flush() int {
	n := 0
	for {
		select {
		case q := <-c.queue:
			c.deliver(q)
			n++
		default:
			return n
		}
	}
}

// Run delivers queued events until ctx is done.
func (c *Control) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case q := <-c.queue:
			c.deliver(q)
		}
	}
}

func (c *Control) deliver(q queued) {
	if err := c.Fire(q.event, q.args...); err != nil {
		logger.Warnf("sim: %s dispatch failed: %v", q.event, err)
	}
}

// SetResult fixes the value returned by m.
func (c *Control) SetResult(m openapi.Method, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[m] = v
}

// SetCommData fixes the value GetCommData returns for one field of one row.
func (c *Control) SetCommData(trCode, rqName string, index int, field, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commData[commKey(trCode, rqName, index, field)] = value
}

// Respond installs the OnReceiveTrData builder for trCode.
func (c *Control) Respond(trCode string, fn TrResponder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responders[trCode] = fn
}

// Calls returns a copy of the recorded calls.
func (c *Control) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// CallsTo returns the recorded calls of one method.
func (c *Control) CallsTo(m openapi.Method) []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Call
	for _, call := range c.calls {
		if call.Method == m {
			out = append(out, call)
		}
	}
	return out
}

func commKey(trCode, rqName string, index int, field string) string {
	return strings.Join([]string{trCode, rqName, strconv.Itoa(index), strings.TrimSpace(field)}, "|")
}

func (c *Control) record(m openapi.Method, args ...any) {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Method: m, Signature: m.Signature(), Args: args})
	c.mu.Unlock()
}

func (c *Control) stringResult(m openapi.Method) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return convert.String(c.results[m])
}

func (c *Control) intResult(m openapi.Method, def int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.results[m]
	if !ok {
		return def
	}
	n, err := convert.ParseInt(v)
	if err != nil {
		return def
	}
	return n
}

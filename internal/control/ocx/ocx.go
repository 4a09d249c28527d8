// Package ocx drives the vendor ActiveX control through COM automation.
//
// The control is hosted in an ATL container window on a dedicated goroutine
// locked to its OS thread, which initializes a single-threaded apartment and
// pumps window messages. Events fire on that thread and reach the listeners
// synchronously. Calls made from any other goroutine are marshalled onto it.
// Only Windows builds can create the control; elsewhere New returns
// openapi.ErrUnsupported.
package ocx

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"kiwoom/internal/openapi"
	"kiwoom/internal/pkg/convert"
)

// DefaultProgID is the registered ProgID of the global futures control.
const DefaultProgID = "KFOPENAPI.KFOpenAPICtrl.1"

var errClosed = errors.New("ocx: control closed")

// Options configures the native control.
type Options struct {
	ProgID string
	// EventIID and EventDispIDs override the event interface discovered from
	// the control's type information. Both must be set to take effect.
	EventIID     string
	EventDispIDs map[int32]string
}

func (o Options) progID() string {
	if id := strings.TrimSpace(o.ProgID); id != "" {
		return id
	}
	return DefaultProgID
}

// Control implements openapi.Control on top of the native module.
type Control struct {
	opts Options

	mu        sync.RWMutex
	listeners map[openapi.EventName]openapi.Listener

	native *native
}

var _ openapi.Control = (*Control)(nil)

func newControl(opts Options) *Control {
	return &Control{
		opts:      opts,
		listeners: make(map[openapi.EventName]openapi.Listener),
	}
}

// Connect installs the listener for event.
func (c *Control) Connect(event openapi.EventName, fn openapi.Listener) error {
	if !event.Valid() {
		return fmt.Errorf("%w: %q", openapi.ErrUnknownEvent, event)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[event] = fn
	return nil
}

// fire hands one native event to its listener. Events without a listener are dropped.
func (c *Control) fire(event openapi.EventName, args []any) error {
	c.mu.RLock()
	fn := c.listeners[event]
	c.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(args...)
}

// coerceArgs checks args against the method signature and converts "int"
// parameters to int32 so they marshal as VT_I4.
func coerceArgs(m openapi.Method, args []any) ([]any, error) {
	params := m.Params()
	if m.Signature() == "" {
		return nil, fmt.Errorf("ocx: unknown method %q", m)
	}
	if len(params) != len(args) {
		return nil, fmt.Errorf("ocx: %s expects %d arguments, got %d", m.Signature(), len(params), len(args))
	}
	out := make([]any, len(args))
	for i, p := range params {
		switch p {
		case "int":
			n, ok := convert.Int(args[i])
			if !ok {
				return nil, fmt.Errorf("ocx: %s argument #%d: want int, got %T", m.Signature(), i, args[i])
			}
			out[i] = int32(n)
		case "str":
			s, ok := args[i].(string)
			if !ok {
				return nil, fmt.Errorf("ocx: %s argument #%d: want string, got %T", m.Signature(), i, args[i])
			}
			out[i] = s
		default:
			return nil, fmt.Errorf("ocx: %s: unsupported parameter type %q", m.Signature(), p)
		}
	}
	return out, nil
}

// normalizeValue flattens the integer widths COM hands back into int.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case int8, int16, int32, int64, uint8, uint16, uint32:
		i, _ := convert.Int(n)
		return i
	default:
		return v
	}
}

func asString(v any, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return convert.String(v), nil
}

func asInt(v any, err error) (int, error) {
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	n, ok := convert.Int(v)
	if !ok {
		return 0, fmt.Errorf("ocx: expected integer result, got %T", v)
	}
	return n, nil
}

package openapi

import (
	"fmt"
	"sort"
	"sync"
)

// Handler reacts to one native event. It receives the API that owns the
// control followed by the event's positional arguments, unmodified.
type Handler func(api *API, args ...any) error

// Registry maps each event to its handler collection.
//
// OnReceiveTrData handlers are grouped by an arbitrary request key and
// OnReceiveRealData handlers by RealType; the other events keep one flat
// list. Insertion order is invocation order and nothing is deduplicated.
// There is no removal.
type Registry struct {
	mu       sync.RWMutex
	trData   map[string][]Handler
	realData map[RealType][]Handler
	flat     map[EventName][]Handler
}

// DefaultRegistry is shared by every API built without WithRegistry.
var DefaultRegistry = NewRegistry()

func NewRegistry() *Registry {
	r := &Registry{
		trData:   make(map[string][]Handler),
		realData: make(map[RealType][]Handler, len(realTypes)),
		flat:     make(map[EventName][]Handler, len(eventNames)),
	}
	for _, rt := range realTypes {
		r.realData[rt] = nil
	}
	for _, e := range eventNames {
		if !e.keyed() {
			r.flat[e] = nil
		}
	}
	return r
}

// Register appends h to the collection selected by event and key.
// key is the request key for OnReceiveTrData, a RealType for
// OnReceiveRealData and ignored otherwise.
func (r *Registry) Register(event EventName, key string, h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	if !event.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	switch event {
	case OnReceiveTrData:
		r.trData[key] = append(r.trData[key], h)
	case OnReceiveRealData:
		rt := RealType(key)
		if _, ok := r.realData[rt]; !ok {
			return fmt.Errorf("%w: <%s> is registered", ErrUnknownRealType, key)
		}
		r.realData[rt] = append(r.realData[rt], h)
	default:
		r.flat[event] = append(r.flat[event], h)
	}
	return nil
}

// RegisterOption narrows a registration made through On.
type RegisterOption func(*registration)

type registration struct {
	key string
}

// WithKey selects the OnReceiveTrData request key.
func WithKey(key string) RegisterOption {
	return func(r *registration) { r.key = key }
}

// WithScreen is WithKey under the control's naming: the first
// OnReceiveTrData argument is the screen number the request was sent on.
func WithScreen(screen string) RegisterOption {
	return WithKey(screen)
}

// WithRealType selects the OnReceiveRealData category.
func WithRealType(rt RealType) RegisterOption {
	return func(r *registration) { r.key = string(rt) }
}

// On returns a function that registers a handler and hands it back
// unchanged, so handlers can be declared as
//
//	var onLogin = reg.On(openapi.OnEventConnect)(func(api *openapi.API, args ...any) error { ... })
//
// It panics if the registration is rejected. Use Register to get the error.
func (r *Registry) On(event EventName, opts ...RegisterOption) func(Handler) Handler {
	var reg registration
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}
	return func(h Handler) Handler {
		if err := r.Register(event, reg.key, h); err != nil {
			panic(err)
		}
		return h
	}
}

// Handlers resolves the collection a dispatch of event with args would run.
// The returned slice is a copy.
func (r *Registry) Handlers(event EventName, args []any) (string, []Handler, error) {
	if !event.Valid() {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch event {
	case OnReceiveTrData:
		key, err := selectorArg(event, args, 0)
		if err != nil {
			return "", nil, err
		}
		return key, cloneHandlers(r.trData[key]), nil
	case OnReceiveRealData:
		key, err := selectorArg(event, args, 1)
		if err != nil {
			return "", nil, err
		}
		list, ok := r.realData[RealType(key)]
		if !ok {
			return key, nil, fmt.Errorf("%w: %q", ErrUnknownRealType, key)
		}
		return key, cloneHandlers(list), nil
	default:
		return "", cloneHandlers(r.flat[event]), nil
	}
}

func selectorArg(event EventName, args []any, idx int) (string, error) {
	if len(args) <= idx {
		return "", fmt.Errorf("%w: %s needs argument #%d, got %d", ErrMissingKey, event, idx, len(args))
	}
	switch v := args[idx].(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func cloneHandlers(src []Handler) []Handler {
	if len(src) == 0 {
		return nil
	}
	return append([]Handler(nil), src...)
}

// RegistrySnapshot counts registered handlers. Keyed events report one
// entry per key; flat events report under the empty key.
type RegistrySnapshot map[EventName]map[string]int

// Snapshot returns handler counts for diagnostics.
func (r *Registry) Snapshot() RegistrySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(RegistrySnapshot, len(eventNames))
	tr := make(map[string]int, len(r.trData))
	for key, list := range r.trData {
		tr[key] = len(list)
	}
	out[OnReceiveTrData] = tr
	rd := make(map[string]int, len(r.realData))
	for rt, list := range r.realData {
		rd[string(rt)] = len(list)
	}
	out[OnReceiveRealData] = rd
	for e, list := range r.flat {
		out[e] = map[string]int{"": len(list)}
	}
	return out
}

// Total returns the number of handlers registered for event across all keys.
func (s RegistrySnapshot) Total(event EventName) int {
	n := 0
	for _, c := range s[event] {
		n += c
	}
	return n
}

// Keys lists the keys known for event in sorted order.
func (s RegistrySnapshot) Keys(event EventName) []string {
	keys := make([]string, 0, len(s[event]))
	for k := range s[event] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register adds h to DefaultRegistry.
func Register(event EventName, key string, h Handler) error {
	return DefaultRegistry.Register(event, key, h)
}

// On registers on DefaultRegistry. See Registry.On.
func On(event EventName, opts ...RegisterOption) func(Handler) Handler {
	return DefaultRegistry.On(event, opts...)
}

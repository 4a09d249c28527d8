// Package request runs TR queries: it fills the input values, sends
// CommRqData on a pooled screen number and waits for the matching
// OnReceiveTrData event.
package request

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kiwoom/internal/logger"
	"kiwoom/internal/openapi"
	"kiwoom/internal/pkg/circuit"
	"kiwoom/internal/pkg/convert"
)

// ErrThrottled is returned while the overload breaker is open.
var ErrThrottled = errors.New("request: query overload breaker open")

// Input is one SetInputValue pair. Order is preserved.
type Input struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Request describes one TR query.
type Request struct {
	RQName   string  `json:"rq_name"`
	TRCode   string  `json:"tr_code"`
	PrevNext string  `json:"prev_next,omitempty"`
	Inputs   []Input `json:"inputs,omitempty"`
}

// Response carries the OnReceiveTrData arguments and whatever the collector
// read while the event was being dispatched.
type Response struct {
	ID         string `json:"id"`
	ScreenNo   string `json:"screen_no"`
	RQName     string `json:"rq_name"`
	TRCode     string `json:"tr_code"`
	RecordName string `json:"record_name"`
	PrevNext   string `json:"prev_next"`
	Data       any    `json:"data,omitempty"`
}

// HasNext reports whether the server has a continuation page.
func (r Response) HasNext() bool { return strings.TrimSpace(r.PrevNext) == "2" }

// Collector reads TR data inside the event handler, the only point at
// which GetCommData returns the response being delivered.
type Collector func(api *openapi.API, resp Response) (any, error)

// Options configures a Requester.
type Options struct {
	ScreenBase       int
	ScreenSpan       int
	Timeout          time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

type waiter struct {
	id      string
	rqName  string
	collect Collector
	done    chan result
}

type result struct {
	resp Response
	err  error
}

// Requester runs concurrent requests on distinct screens. Only the
// input/send sequence is serialized, since input values are global to the
// control until CommRqData consumes them.
type Requester struct {
	api     *openapi.API
	sendMu  sync.Mutex
	screens *ScreenPool
	timeout time.Duration
	breaker *circuit.CircuitBreaker

	mu      sync.Mutex
	waiting map[string]*waiter
}

// New registers one OnReceiveTrData handler per pooled screen on the API's
// registry.
func New(api *openapi.API, opts Options) (*Requester, error) {
	if api == nil {
		return nil, fmt.Errorf("request: nil api")
	}
	pool, err := NewScreenPool(opts.ScreenBase, opts.ScreenSpan)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.BreakerThreshold <= 0 {
		opts.BreakerThreshold = 3
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 20 * time.Second
	}
	r := &Requester{
		api:     api,
		screens: pool,
		timeout: opts.Timeout,
		breaker: circuit.NewCircuitBreaker("CommRqData", opts.BreakerThreshold, opts.BreakerCooldown),
		waiting: make(map[string]*waiter),
	}
	for _, screen := range pool.Screens() {
		if err := api.Registry().Register(openapi.OnReceiveTrData, screen, r.onTrData); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Breaker exposes the overload breaker state.
func (r *Requester) Breaker() circuit.State { return r.breaker.State() }

// Do sends req and waits for its response. It must not be called from an
// event handler: the response is delivered on the same thread.
func (r *Requester) Do(ctx context.Context, req Request, collect Collector) (Response, error) {
	if strings.TrimSpace(req.TRCode) == "" {
		return Response{}, fmt.Errorf("request: tr code is required")
	}
	if !r.breaker.Allow() {
		return Response{}, fmt.Errorf("%w until %s", ErrThrottled, r.breaker.RetryAt().Format(time.TimeOnly))
	}
	screen, err := r.screens.Acquire()
	if err != nil {
		return Response{}, err
	}
	defer r.screens.Release(screen)

	id := uuid.NewString()
	if req.RQName == "" {
		req.RQName = "rq-" + id[:8]
	}
	w := &waiter{id: id, rqName: req.RQName, collect: collect, done: make(chan result, 1)}
	r.mu.Lock()
	r.waiting[screen] = w
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.waiting, screen)
		r.mu.Unlock()
	}()

	code, err := r.send(req, screen)
	if err != nil {
		return Response{}, err
	}
	if err := openapi.CheckCode(openapi.MethodCommRqData, code); err != nil {
		if code == openapi.CodeQueryOverload {
			r.breaker.RecordFailure()
		}
		return Response{}, err
	}
	r.breaker.RecordSuccess()
	logger.Debugf("request %s: %s %s sent on screen %s", id, req.TRCode, req.RQName, screen)

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()
	select {
	case res := <-w.done:
		return res.resp, res.err
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-timer.C:
		return Response{}, fmt.Errorf("request: %s %s on screen %s timed out after %s", req.TRCode, req.RQName, screen, r.timeout)
	}
}

func (r *Requester) send(req Request, screen string) (int, error) {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	for _, in := range req.Inputs {
		if err := r.api.SetInputValue(in.Field, in.Value); err != nil {
			return 0, err
		}
	}
	return r.api.CommRqData(req.RQName, req.TRCode, req.PrevNext, screen)
}

// DoAll follows continuation pages until the server reports no more data
// or fn returns an error.
func (r *Requester) DoAll(ctx context.Context, req Request, collect Collector, fn func(Response) error) error {
	for {
		resp, err := r.Do(ctx, req, collect)
		if err != nil {
			return err
		}
		if err := fn(resp); err != nil {
			return err
		}
		if !resp.HasNext() {
			return nil
		}
		req.PrevNext = resp.PrevNext
	}
}

// onTrData completes the waiter for the event's screen. Responses whose
// RQName does not match belong to someone else and are ignored.
func (r *Requester) onTrData(api *openapi.API, args ...any) error {
	resp := parseTrData(args)
	r.mu.Lock()
	w := r.waiting[resp.ScreenNo]
	r.mu.Unlock()
	if w == nil || (resp.RQName != "" && resp.RQName != w.rqName) {
		return nil
	}
	resp.ID = w.id
	var err error
	if w.collect != nil {
		resp.Data, err = w.collect(api, resp)
	}
	select {
	case w.done <- result{resp: resp, err: err}:
	default:
	}
	return nil
}

func parseTrData(args []any) Response {
	get := func(i int) string { return convert.StringAt(args, i) }
	return Response{
		ScreenNo:   get(0),
		RQName:     get(1),
		TRCode:     get(2),
		RecordName: get(3),
		PrevNext:   get(4),
	}
}

// Rows is a Collector helper that reads fields for every repeated row.
func Rows(fields ...string) Collector {
	return func(api *openapi.API, resp Response) (any, error) {
		n, err := api.GetRepeatCnt(resp.TRCode, resp.RecordName)
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			n = 1
		}
		rows := make([]map[string]string, 0, n)
		for i := 0; i < n; i++ {
			row := make(map[string]string, len(fields))
			for _, f := range fields {
				v, err := api.GetCommData(resp.TRCode, resp.RQName, i, f)
				if err != nil {
					return nil, err
				}
				row[f] = strings.TrimSpace(v)
			}
			rows = append(rows, row)
		}
		return rows, nil
	}
}

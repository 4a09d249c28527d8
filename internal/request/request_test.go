package request

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiwoom/internal/control/sim"
	"kiwoom/internal/openapi"
	"kiwoom/internal/pkg/circuit"
)

func setup(t *testing.T, opts Options) (*sim.Control, *openapi.API, *Requester) {
	t.Helper()
	ctrl := sim.New()
	api, err := openapi.New(ctrl, openapi.WithRegistry(openapi.NewRegistry()))
	require.NoError(t, err)
	if opts.ScreenSpan == 0 {
		opts.ScreenBase, opts.ScreenSpan = 2000, 4
	}
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Second
	}
	r, err := New(api, opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = ctrl.Run(ctx) }()
	return ctrl, api, r
}

func TestDoSendsInputsAndCollects(t *testing.T) {
	ctrl, api, r := setup(t, Options{})
	ctrl.Respond("opc10001", func(rqName, trCode, prevNext, screenNo string, inputs map[string]string) []any {
		assert.Equal(t, "6EH25", inputs["종목코드"])
		return []any{screenNo, rqName, trCode, "해외선물기본", "0"}
	})
	ctrl.SetCommData("opc10001", "기본", 0, "현재가", " 1.0845 ")

	resp, err := r.Do(context.Background(), Request{
		RQName: "기본",
		TRCode: "opc10001",
		Inputs: []Input{{Field: "종목코드", Value: "6EH25"}},
	}, Rows("현재가"))
	require.NoError(t, err)

	assert.Equal(t, "2000", resp.ScreenNo)
	assert.Equal(t, "해외선물기본", resp.RecordName)
	assert.False(t, resp.HasNext())
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, []map[string]string{{"현재가": "1.0845"}}, resp.Data)
	assert.Equal(t, 0, r.screens.InUse())

	sent := ctrl.CallsTo(openapi.MethodCommRqData)
	require.Len(t, sent, 1)
	assert.Equal(t, []any{"기본", "opc10001", "", "2000"}, sent[0].Args)
	assert.Equal(t, 4, api.Registry().Snapshot().Total(openapi.OnReceiveTrData))
}

func TestDoGeneratesRQName(t *testing.T) {
	_, _, r := setup(t, Options{})
	resp, err := r.Do(context.Background(), Request{TRCode: "opc10001"}, nil)
	require.NoError(t, err)
	assert.Regexp(t, `^rq-[0-9a-f]{8}$`, resp.RQName)
}

func TestDoAllFollowsContinuation(t *testing.T) {
	ctrl, _, r := setup(t, Options{})
	pages := 0
	ctrl.Respond("opc10002", func(rqName, trCode, prevNext, screenNo string, _ map[string]string) []any {
		pages++
		next := "2"
		if pages == 3 {
			next = ""
		}
		return []any{screenNo, rqName, trCode, "체결", next}
	})
	var seen int
	err := r.DoAll(context.Background(), Request{RQName: "틱", TRCode: "opc10002"}, nil, func(Response) error {
		seen++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, seen)

	prev := []string{}
	for _, c := range ctrl.CallsTo(openapi.MethodCommRqData) {
		prev = append(prev, c.Args[2].(string))
	}
	assert.Equal(t, []string{"", "2", "2"}, prev)
}

func TestOverloadTripsBreaker(t *testing.T) {
	ctrl, _, r := setup(t, Options{BreakerThreshold: 2, BreakerCooldown: time.Minute})
	ctrl.SetResult(openapi.MethodCommRqData, openapi.CodeQueryOverload)

	for i := 0; i < 2; i++ {
		_, err := r.Do(context.Background(), Request{TRCode: "opc10001"}, nil)
		assert.True(t, openapi.IsCode(err, openapi.CodeQueryOverload))
	}
	assert.Equal(t, circuit.StateOpen, r.Breaker())

	_, err := r.Do(context.Background(), Request{TRCode: "opc10001"}, nil)
	assert.ErrorIs(t, err, ErrThrottled)
	assert.Len(t, ctrl.CallsTo(openapi.MethodCommRqData), 2)
}

func TestTimeoutAndCancel(t *testing.T) {
	ctrl, _, r := setup(t, Options{Timeout: 50 * time.Millisecond})
	ctrl.Respond("silent", func(string, string, string, string, map[string]string) []any { return nil })

	_, err := r.Do(context.Background(), Request{TRCode: "silent"}, nil)
	assert.ErrorContains(t, err, "timed out")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Do(ctx, Request{TRCode: "silent"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollectorErrorIsReturned(t *testing.T) {
	_, _, r := setup(t, Options{})
	_, err := r.Do(context.Background(), Request{TRCode: "opc10001"}, func(*openapi.API, Response) (any, error) {
		return nil, errors.New("bad record")
	})
	assert.ErrorContains(t, err, "bad record")
}

func TestScreenPool(t *testing.T) {
	_, err := NewScreenPool(9990, 20)
	assert.Error(t, err)

	p, err := NewScreenPool(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001", "0002"}, p.Screens())

	a, err := p.Acquire()
	require.NoError(t, err)
	b, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "0001", a)
	assert.Equal(t, "0002", b)
	_, err = p.Acquire()
	assert.ErrorIs(t, err, ErrNoScreen)

	p.Release(a)
	c, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "0001", c)
}

func TestTrDataForOtherRequestIsIgnored(t *testing.T) {
	_, api, r := setup(t, Options{})
	w := &waiter{rqName: "mine", done: make(chan result, 1)}
	r.waiting["2001"] = w
	require.NoError(t, api.Dispatch(openapi.OnReceiveTrData, "2001", "theirs", "opc10001", "", "0"))
	assert.Empty(t, w.done)
}

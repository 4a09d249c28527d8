package openapi_test

import (
	"errors"
	"testing"

	"kiwoom/internal/control/sim"
	"kiwoom/internal/openapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invocation struct {
	name string
	api  *openapi.API
	args []any
}

type recorder struct {
	calls []invocation
}

func (r *recorder) handler(name string) openapi.Handler {
	return func(api *openapi.API, args ...any) error {
		r.calls = append(r.calls, invocation{name: name, api: api, args: args})
		return nil
	}
}

func (r *recorder) names() []string {
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.name)
	}
	return out
}

func newAPI(t *testing.T, opts ...openapi.Option) (*openapi.API, *sim.Control, *openapi.Registry) {
	t.Helper()
	ctrl := sim.New()
	reg := openapi.NewRegistry()
	api, err := openapi.New(ctrl, append([]openapi.Option{openapi.WithRegistry(reg)}, opts...)...)
	require.NoError(t, err)
	return api, ctrl, reg
}

func TestNewRejectsNilControl(t *testing.T) {
	_, err := openapi.New(nil)
	assert.ErrorIs(t, err, openapi.ErrNilControl)
}

func TestTrDataSelectsByFirstArgument(t *testing.T) {
	api, ctrl, reg := newAPI(t)
	rec := &recorder{}
	require.NoError(t, reg.Register(openapi.OnReceiveTrData, "RQ1", rec.handler("H1")))
	require.NoError(t, reg.Register(openapi.OnReceiveTrData, "RQ2", rec.handler("H2")))

	require.NoError(t, ctrl.Fire(openapi.OnReceiveTrData, "RQ1", "extra"))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, "H1", rec.calls[0].name)
	assert.Same(t, api, rec.calls[0].api)
	assert.Equal(t, []any{"RQ1", "extra"}, rec.calls[0].args)
}

func TestRealDataSelectsBySecondArgument(t *testing.T) {
	api, ctrl, reg := newAPI(t)
	rec := &recorder{}
	require.NoError(t, reg.Register(openapi.OnReceiveRealData, string(openapi.RealFutureTick), rec.handler("H3")))

	require.NoError(t, ctrl.Fire(openapi.OnReceiveRealData, "code123", "해외선물시세", "tickdata"))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, "H3", rec.calls[0].name)
	assert.Same(t, api, rec.calls[0].api)
	assert.Equal(t, []any{"code123", "해외선물시세", "tickdata"}, rec.calls[0].args)
}

func TestSelectorsAreNotSwapped(t *testing.T) {
	_, ctrl, reg := newAPI(t)
	rec := &recorder{}
	require.NoError(t, reg.Register(openapi.OnReceiveTrData, "first", rec.handler("tr-first")))
	require.NoError(t, reg.Register(openapi.OnReceiveTrData, "해외옵션호가", rec.handler("tr-second")))
	require.NoError(t, reg.Register(openapi.OnReceiveRealData, "해외옵션호가", rec.handler("real-second")))

	require.NoError(t, ctrl.Fire(openapi.OnReceiveTrData, "first", "해외옵션호가"))
	require.NoError(t, ctrl.Fire(openapi.OnReceiveRealData, "first", "해외옵션호가"))

	assert.Equal(t, []string{"tr-first", "real-second"}, rec.names())
}

func TestHandlersRunInRegistrationOrderAndRepeat(t *testing.T) {
	_, ctrl, reg := newAPI(t)
	rec := &recorder{}
	a, b := rec.handler("A"), rec.handler("B")
	for _, h := range []openapi.Handler{a, b, a} {
		require.NoError(t, reg.Register(openapi.OnReceiveMsg, "", h))
	}

	require.NoError(t, ctrl.Fire(openapi.OnReceiveMsg, "1000", "RQ1", "opc10001", "조회완료"))
	assert.Equal(t, []string{"A", "B", "A"}, rec.names())
	for _, c := range rec.calls {
		assert.Equal(t, []any{"1000", "RQ1", "opc10001", "조회완료"}, c.args)
	}
}

func TestUnknownTrKeyIsSilent(t *testing.T) {
	api, _, reg := newAPI(t)
	rec := &recorder{}
	require.NoError(t, reg.Register(openapi.OnReceiveTrData, "RQ1", rec.handler("H1")))

	assert.NoError(t, api.Dispatch(openapi.OnReceiveTrData, "never-registered", "x"))
	assert.Empty(t, rec.calls)
}

func TestDispatchErrors(t *testing.T) {
	api, _, _ := newAPI(t)
	assert.ErrorIs(t, api.Dispatch("OnBogus"), openapi.ErrUnknownEvent)
	assert.ErrorIs(t, api.Dispatch(openapi.OnReceiveRealData, "code", "국내주식체결"), openapi.ErrUnknownRealType)
	assert.ErrorIs(t, api.Dispatch(openapi.OnReceiveTrData), openapi.ErrMissingKey)
}

func TestAbortPolicyStopsAtFirstFailure(t *testing.T) {
	_, ctrl, reg := newAPI(t)
	rec := &recorder{}
	boom := errors.New("boom")
	require.NoError(t, reg.Register(openapi.OnReceiveChejanData, "", rec.handler("before")))
	require.NoError(t, reg.Register(openapi.OnReceiveChejanData, "", func(*openapi.API, ...any) error { return boom }))
	require.NoError(t, reg.Register(openapi.OnReceiveChejanData, "", rec.handler("after")))

	err := ctrl.Fire(openapi.OnReceiveChejanData, "0", 3, "9201;9203;9205")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var he *openapi.HandlerError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, 1, he.Index)
	assert.Equal(t, []string{"before"}, rec.names())
}

func TestAbortPolicyPropagatesPanics(t *testing.T) {
	api, _, reg := newAPI(t)
	require.NoError(t, reg.Register(openapi.OnEventConnect, "", func(*openapi.API, ...any) error { panic("kaboom") }))
	assert.PanicsWithValue(t, "kaboom", func() {
		_ = api.Dispatch(openapi.OnEventConnect, 0)
	})
}

func TestIsolatePolicyContinues(t *testing.T) {
	api, ctrl, reg := newAPI(t, openapi.WithPolicy(openapi.PolicyIsolate))
	rec := &recorder{}
	boom := errors.New("boom")
	require.NoError(t, reg.Register(openapi.OnEventConnect, "", func(*openapi.API, ...any) error { panic("kaboom") }))
	require.NoError(t, reg.Register(openapi.OnEventConnect, "", func(*openapi.API, ...any) error { return boom }))
	require.NoError(t, reg.Register(openapi.OnEventConnect, "", rec.handler("survivor")))

	err := ctrl.Fire(openapi.OnEventConnect, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "panic: kaboom")
	assert.Equal(t, []string{"survivor"}, rec.names())

	api.SetPolicy(openapi.PolicyAbort)
	assert.Equal(t, openapi.PolicyAbort, api.Policy())
}

func TestObserversSeeEveryCycle(t *testing.T) {
	var records []openapi.DispatchRecord
	obs := openapi.ObserverFunc(func(rec openapi.DispatchRecord) { records = append(records, rec) })
	api, _, reg := newAPI(t, openapi.WithObserver(obs))
	rec := &recorder{}
	require.NoError(t, reg.Register(openapi.OnReceiveTrData, "RQ1", rec.handler("H1")))

	require.NoError(t, api.Dispatch(openapi.OnReceiveTrData, "RQ1"))
	require.NoError(t, api.Dispatch(openapi.OnReceiveTrData, "RQ9"))
	require.Error(t, api.Dispatch(openapi.OnReceiveRealData, "x", "bad"))

	require.Len(t, records, 3)
	assert.Equal(t, "RQ1", records[0].Key)
	assert.Equal(t, 1, records[0].Handlers)
	assert.Equal(t, 0, records[1].Handlers)
	assert.NoError(t, records[1].Err)
	assert.ErrorIs(t, records[2].Err, openapi.ErrUnknownRealType)
}

func TestHandlerMayRegisterDuringDispatch(t *testing.T) {
	api, _, reg := newAPI(t)
	rec := &recorder{}
	require.NoError(t, reg.Register(openapi.OnReceiveMsg, "", func(a *openapi.API, args ...any) error {
		return a.Registry().Register(openapi.OnReceiveMsg, "", rec.handler("late"))
	}))
	require.NoError(t, api.Dispatch(openapi.OnReceiveMsg))
	assert.Empty(t, rec.calls, "new handlers apply from the next cycle")
	require.NoError(t, api.Dispatch(openapi.OnReceiveMsg))
	assert.Equal(t, []string{"late"}, rec.names())
}

func TestDefaultRegistryIsShared(t *testing.T) {
	first, err := openapi.New(sim.New())
	require.NoError(t, err)
	second, err := openapi.New(sim.New())
	require.NoError(t, err)
	assert.Same(t, first.Registry(), second.Registry())
	assert.Same(t, openapi.DefaultRegistry, first.Registry())
}

func TestForwardingPassesArgumentsAndCodes(t *testing.T) {
	var calls []openapi.CallRecord
	api, ctrl, _ := newAPI(t, openapi.WithCallObserver(openapi.CallObserverFunc(func(rec openapi.CallRecord) {
		calls = append(calls, rec)
	})))
	ctrl.SetResult(openapi.MethodSendOrder, openapi.CodeOrderOverload)
	ctrl.SetResult(openapi.MethodGetLoginInfo, "5550001234;")

	ret, err := api.SendOrder("주문", "2000", "5550001234", 2, "6EH25", 1, "1.0845", "", "2", "")
	require.NoError(t, err)
	assert.Equal(t, openapi.CodeOrderOverload, ret)

	info, err := api.GetLoginInfo("ACCNO")
	require.NoError(t, err)
	assert.Equal(t, "5550001234;", info)
	require.NoError(t, api.SetInputValue("종목코드", "6EH25"))

	sent := ctrl.CallsTo(openapi.MethodSendOrder)
	require.Len(t, sent, 1)
	assert.Equal(t, []any{"주문", "2000", "5550001234", 2, "6EH25", 1, "1.0845", "", "2", ""}, sent[0].Args)
	assert.Equal(t, "SendOrder(str, str, str, int, str, int, str, str, str, str)", sent[0].Signature)

	require.Len(t, calls, 3)
	assert.Equal(t, openapi.MethodSendOrder, calls[0].Method)
	assert.Equal(t, openapi.CodeOrderOverload, calls[0].Result)
	assert.Equal(t, openapi.MethodGetLoginInfo, calls[1].Method)
	assert.Equal(t, []any{"ACCNO"}, calls[1].Args)
	assert.Nil(t, calls[2].Result)
}

func TestCloseIsIdempotent(t *testing.T) {
	api, ctrl, _ := newAPI(t)
	require.NoError(t, api.Close())
	require.NoError(t, api.Close())
	assert.True(t, ctrl.Closed())
}

package bridgehttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"kiwoom/internal/calllog"
	"kiwoom/internal/control/sim"
	"kiwoom/internal/journal"
	"kiwoom/internal/openapi"
	"kiwoom/internal/request"
)

type MockRequester struct {
	mock.Mock
}

func (m *MockRequester) Do(ctx context.Context, req request.Request, collect request.Collector) (request.Response, error) {
	args := m.Called(ctx, req, collect != nil)
	return args.Get(0).(request.Response), args.Error(1)
}

type fixture struct {
	ctrl    *sim.Control
	api     *openapi.API
	journal *journal.Store
	calls   *calllog.Store
	req     *MockRequester
	srv     *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	j, err := journal.Open(filepath.Join(dir, "journal.db"))
	require.NoError(t, err)
	cl, err := calllog.Open(filepath.Join(dir, "calls.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = j.Close()
		_ = cl.Close()
	})

	ctrl := sim.New(sim.WithLoginResult())
	api, err := openapi.New(ctrl,
		openapi.WithRegistry(openapi.NewRegistry()),
		openapi.WithObserver(j),
		openapi.WithCallObserver(cl),
	)
	require.NoError(t, err)

	req := new(MockRequester)
	srv, err := NewServer(ServerConfig{API: api, AutoLogin: 1, Journal: j, Calls: cl, Requests: req})
	require.NoError(t, err)
	return &fixture{ctrl: ctrl, api: api, journal: j, calls: cl, req: req, srv: srv}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, gjson.Result) {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, r)
	return w.Code, gjson.Parse(w.Body.String())
}

func TestNewServerRequiresAPI(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}

func TestHealthAndState(t *testing.T) {
	f := newFixture(t)
	code, body := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Get("status").String())

	code, body = f.do(t, http.MethodGet, "/api/state", "")
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, body.Get("connected").Bool())
	assert.Equal(t, "abort", body.Get("policy").String())
}

func TestConnectFiresLoginEvent(t *testing.T) {
	f := newFixture(t)
	var connected []any
	require.NoError(t, f.api.Registry().Register(openapi.OnEventConnect, "", func(_ *openapi.API, args ...any) error {
		connected = args
		return nil
	}))

	code, body := f.do(t, http.MethodPost, "/api/connect", "")
	assert.Equal(t, http.StatusAccepted, code)
	assert.EqualValues(t, 0, body.Get("code").Int())
	assert.Equal(t, 1, f.ctrl.Flush())
	assert.Equal(t, []any{openapi.CodeOK}, connected)

	_, body = f.do(t, http.MethodGet, "/api/state", "")
	assert.True(t, body.Get("connected").Bool())

	calls := f.ctrl.CallsTo(openapi.MethodCommConnect)
	require.Len(t, calls, 1)
	assert.Equal(t, []any{1}, calls[0].Args)
}

func TestConnectFailureCode(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetResult(openapi.MethodCommConnect, -100)
	code, body := f.do(t, http.MethodPost, "/api/connect", `{"auto_login":0}`)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.EqualValues(t, -100, body.Get("code").Int())
	assert.Contains(t, body.Get("error").String(), openapi.ErrorMessages["-100"])
}

func TestErrorLookup(t *testing.T) {
	f := newFixture(t)
	code, body := f.do(t, http.MethodGet, "/api/errors/-200", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, openapi.ErrorMessages["-200"], body.Get("message").String())

	code, _ = f.do(t, http.MethodGet, "/api/errors/42", "")
	assert.Equal(t, http.StatusNotFound, code)

	_, body = f.do(t, http.MethodGet, "/api/errors", "")
	assert.Equal(t, len(openapi.ErrorMessages), len(body.Get("errors").Map()))
}

func TestRegistryAndMethods(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.api.Registry().Register(openapi.OnReceiveTrData, "RQ1", func(*openapi.API, ...any) error { return nil }))

	_, body := f.do(t, http.MethodGet, "/api/registry", "")
	assert.EqualValues(t, 1, body.Get("registry.OnReceiveTrData.RQ1").Int())

	_, body = f.do(t, http.MethodGet, "/api/methods", "")
	methods := body.Get("methods").Array()
	assert.Len(t, methods, len(openapi.Methods()))
	sig := body.Get(`methods.#(name=="CommRqData").signature`).String()
	assert.Equal(t, "CommRqData(str,str,str,str)", sig)
}

func TestPolicySwitch(t *testing.T) {
	f := newFixture(t)
	code, body := f.do(t, http.MethodPut, "/api/policy", `{"policy":"isolate"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "isolate", body.Get("policy").String())
	assert.Equal(t, openapi.PolicyIsolate, f.api.Policy())

	code, _ = f.do(t, http.MethodPut, "/api/policy", `{"policy":"retry"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestEventsAndCalls(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Fire(openapi.OnReceiveMsg, "1000", "RQ1", "opc10001", "조회완료"))
	require.NoError(t, f.ctrl.Fire(openapi.OnReceiveTrData, "1000", "RQ1", "opc10001", "", "0"))
	_, err := f.api.GetLoginInfo("ACCNO")
	require.NoError(t, err)

	code, body := f.do(t, http.MethodGet, "/api/events?event=OnReceiveTrData", "")
	assert.Equal(t, http.StatusOK, code)
	events := body.Get("events").Array()
	require.Len(t, events, 1)
	assert.Equal(t, "1000", events[0].Get("key").String())

	code, _ = f.do(t, http.MethodGet, "/api/events?event=OnNothing", "")
	assert.Equal(t, http.StatusBadRequest, code)

	_, body = f.do(t, http.MethodGet, "/api/calls?method=GetLoginInfo", "")
	calls := body.Get("calls").Array()
	require.Len(t, calls, 1)
	assert.Equal(t, "GetLoginInfo(str)", calls[0].Get("signature").String())
	assert.Equal(t, "ACCNO", calls[0].Get("args.0").String())
}

func TestOrderSubmission(t *testing.T) {
	f := newFixture(t)
	code, body := f.do(t, http.MethodPost, "/api/orders", `{"account":"5550001234","code":"6EH25","side":"buy","qty":1,"price":"1.0845"}`)
	assert.Equal(t, http.StatusAccepted, code)
	assert.EqualValues(t, 2, body.Get("order.OrderType").Int())
	require.Len(t, f.ctrl.CallsTo(openapi.MethodSendOrder), 1)

	code, _ = f.do(t, http.MethodPost, "/api/orders", `{"code":"6EH25"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	f.ctrl.SetResult(openapi.MethodSendOrder, openapi.CodeOrderOverload)
	code, body = f.do(t, http.MethodPost, "/api/orders", `{"account":"5550001234","code":"6EH25","side":"sell","qty":1,"price_type":"market"}`)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.EqualValues(t, openapi.CodeOrderOverload, body.Get("code").Int())
}

func TestRequestRoute(t *testing.T) {
	f := newFixture(t)
	want := request.Request{RQName: "기본", TRCode: "opc10001", Inputs: []request.Input{{Field: "종목코드", Value: "6EH25"}}}
	f.req.On("Do", mock.Anything, want, true).Return(request.Response{ID: "x", ScreenNo: "1000", TRCode: "opc10001"}, nil).Once()
	f.req.On("Do", mock.Anything, request.Request{TRCode: "busy"}, false).Return(request.Response{}, request.ErrThrottled).Once()

	code, body := f.do(t, http.MethodPost, "/api/requests",
		`{"rq_name":"기본","tr_code":"opc10001","inputs":[{"field":"종목코드","value":"6EH25"}],"fields":["현재가"]}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1000", body.Get("response.screen_no").String())

	code, _ = f.do(t, http.MethodPost, "/api/requests", `{"tr_code":"busy"}`)
	assert.Equal(t, http.StatusTooManyRequests, code)
	f.req.AssertExpectations(t)
}

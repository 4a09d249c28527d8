package handlers

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiwoom/internal/control/sim"
	"kiwoom/internal/logger"
	"kiwoom/internal/openapi"
)

func newAPI(t *testing.T) (*sim.Control, *openapi.API, *Session) {
	t.Helper()
	reg := openapi.NewRegistry()
	session := NewSession()
	require.NoError(t, RegisterCoreHandlers(reg, session))
	ctrl := sim.New(sim.WithLoginResult())
	api, err := openapi.New(ctrl, openapi.WithRegistry(reg))
	require.NoError(t, err)
	return ctrl, api, session
}

func TestRegisterCoreHandlers(t *testing.T) {
	reg := openapi.NewRegistry()
	require.NoError(t, RegisterCoreHandlers(reg, nil))
	snap := reg.Snapshot()
	assert.Equal(t, 1, snap.Total(openapi.OnEventConnect))
	assert.Equal(t, 1, snap.Total(openapi.OnReceiveMsg))
	assert.Equal(t, 1, snap.Total(openapi.OnReceiveChejanData))
	assert.Zero(t, snap.Total(openapi.OnReceiveTrData))

	assert.Error(t, RegisterCoreHandlers(nil, nil))
}

func TestSessionWaitsForLogin(t *testing.T) {
	ctrl, api, session := newAPI(t)
	_, err := api.CommConnect(1)
	require.NoError(t, err)

	go ctrl.Flush()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, session.Wait(ctx))
}

func TestSessionReportsFailure(t *testing.T) {
	ctrl, _, session := newAPI(t)
	require.NoError(t, ctrl.Fire(openapi.OnEventConnect, -106))
	err := session.Wait(context.Background())
	assert.True(t, openapi.IsCode(err, -106))

	session.Reset()
	require.NoError(t, ctrl.Fire(openapi.OnEventConnect, "0"))
	assert.NoError(t, session.Wait(context.Background()))
}

func TestFailedLoginLogsVendorMessage(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })

	ctrl, _, session := newAPI(t)
	require.NoError(t, ctrl.Fire(openapi.OnEventConnect, -100))
	assert.True(t, openapi.IsCode(session.Wait(context.Background()), -100))
	assert.Contains(t, buf.String(), "login failed: -100 "+openapi.ErrorMessages["-100"])
}

func TestSessionWaitHonoursContext(t *testing.T) {
	session := NewSession()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, session.Wait(ctx), context.Canceled)
}

func TestConnectRejectsBadArgument(t *testing.T) {
	ctrl, _, _ := newAPI(t)
	assert.Error(t, ctrl.Fire(openapi.OnEventConnect))
	assert.Error(t, ctrl.Fire(openapi.OnEventConnect, 1.5))
}

func TestChejanReadsFIDsAtDebug(t *testing.T) {
	ctrl, _, _ := newAPI(t)
	prev := logger.Level()
	logger.SetLevel("debug")
	t.Cleanup(func() { logger.SetLevel(prev) })

	require.NoError(t, ctrl.Fire(openapi.OnReceiveChejanData, "1", "3", "9201;9203; 9001;bad"))
	calls := ctrl.CallsTo(openapi.MethodGetChejanData)
	require.Len(t, calls, 3)
	assert.Equal(t, []any{9001}, calls[2].Args)
}

func TestMessageHandler(t *testing.T) {
	ctrl, _, _ := newAPI(t)
	assert.NoError(t, ctrl.Fire(openapi.OnReceiveMsg, "1000", "RQ1", "opc10001", "조회가 완료되었습니다"))
}

package app

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiwoom/internal/config"
	"kiwoom/internal/journal"
	"kiwoom/internal/openapi"
)

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestBuildAndRunWithSimulatedControl(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "script.yaml")
	require.NoError(t, os.WriteFile(script, []byte(`
results:
  GetLoginInfo: "5550001234;"
events:
  - event: OnReceiveMsg
    args: ["0000", "", "", "hello"]
`), 0o644))

	cfg := loadConfig(t, `
control:
  driver: sim
  auto_login: 1
  script: `+script+`
dispatch:
  policy: isolate
journal:
  enabled: true
  path: `+filepath.Join(dir, "journal.db")+`
calllog:
  enabled: true
  path: `+filepath.Join(dir, "calls.db")+`
`)
	reg := openapi.NewRegistry()
	app, err := NewAppBuilder(cfg, WithRegistry(reg)).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, openapi.PolicyIsolate, app.API().Policy())
	assert.Equal(t, 1, app.Summary.Registry.Total(openapi.OnEventConnect))
	assert.Contains(t, app.Summary.String(), "driver:       sim")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, app.Session().Wait(waitCtx))

	acc, err := app.API().GetLoginInfo("ACCNO")
	require.NoError(t, err)
	assert.Equal(t, "5550001234;", acc)

	assert.Eventually(t, func() bool {
		entries, err := app.journal.List(context.Background(), journal.Query{Event: openapi.OnReceiveMsg})
		return err == nil && len(entries) == 1
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestRunReplaysJournal(t *testing.T) {
	dir := t.TempDir()
	recorded := filepath.Join(dir, "recorded.db")
	src, err := journal.Open(recorded)
	require.NoError(t, err)
	for _, price := range []string{"1.0831", "1.0832"} {
		_, err := src.Append(context.Background(), openapi.DispatchRecord{
			Event:   openapi.OnReceiveRealData,
			Key:     string(openapi.RealFutureTick),
			Args:    []any{"6EH25", string(openapi.RealFutureTick), price},
			Started: time.Now(),
		})
		require.NoError(t, err)
	}
	require.NoError(t, src.Close())

	cfg := loadConfig(t, "control:\n  driver: sim\n  auto_login: 0\n  replay: "+recorded+"\n")
	reg := openapi.NewRegistry()
	var seen atomic.Int32
	require.NoError(t, reg.Register(openapi.OnReceiveRealData, string(openapi.RealFutureTick), func(*openapi.API, ...any) error {
		seen.Add(1)
		return nil
	}))
	app, err := NewAppBuilder(cfg, WithRegistry(reg)).Build(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	assert.Eventually(t, func() bool { return seen.Load() == 2 }, 2*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestReloadAppliesPolicy(t *testing.T) {
	cfg := loadConfig(t, "control:\n  driver: sim\n  auto_login: 0\n")
	app, err := NewAppBuilder(cfg, WithRegistry(openapi.NewRegistry())).Build(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	assert.Equal(t, openapi.PolicyAbort, app.API().Policy())

	next := *cfg
	next.Dispatch.Policy = "isolate"
	app.Reload(&next)
	assert.Equal(t, openapi.PolicyIsolate, app.API().Policy())

	next.Dispatch.Policy = "bogus"
	app.Reload(&next)
	assert.Equal(t, openapi.PolicyIsolate, app.API().Policy(), "invalid policy is ignored")
}

func TestBuildFailsForMissingScript(t *testing.T) {
	cfg := loadConfig(t, "control:\n  driver: sim\n  script: /nonexistent/script.yaml\n")
	_, err := NewAppBuilder(cfg, WithRegistry(openapi.NewRegistry())).Build(context.Background())
	assert.Error(t, err)
}

func TestNewAppRejectsNilConfig(t *testing.T) {
	_, err := NewApp(nil)
	assert.Error(t, err)
}

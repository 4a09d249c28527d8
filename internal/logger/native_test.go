package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNativeDumpDisabledByDefault(t *testing.T) {
	SetNativeWriter(nil)
	assert.False(t, NativeDumpEnabled())
	LogNativeEvent("OnReceiveMsg", []any{"1000"}, 0, 0, nil)
}

func TestLogNativeEventAndCall(t *testing.T) {
	var buf bytes.Buffer
	SetNativeWriter(&buf)
	defer SetNativeWriter(nil)

	LogNativeEvent("OnReceiveTrData", []any{"1000", "RQ1", 3}, 2, time.Millisecond, errors.New("boom"))
	LogNativeCall("CommRqData(str,str,str,str)", []any{"RQ1", "opc10001", "", "1000"}, 0, time.Millisecond, nil)

	out := buf.String()
	assert.Contains(t, out, `[EVENT][OnReceiveTrData] ("1000", "RQ1", 3) handlers=2`)
	assert.Contains(t, out, `err="boom"`)
	assert.Contains(t, out, `[CALL][CommRqData(str,str,str,str)] ("RQ1", "opc10001", "", "1000") -> 0`)
}

func TestLogNativeTruncatesLongArgs(t *testing.T) {
	var buf bytes.Buffer
	SetNativeWriter(&buf)
	defer SetNativeWriter(nil)

	LogNativeEvent("OnReceiveRealData", []any{"6EH25", strings.Repeat("x", 2*maxNativeArg)}, 1, 0, nil)

	out := buf.String()
	assert.Contains(t, out, strings.Repeat("x", maxNativeArg)+`..."`)
	assert.NotContains(t, out, strings.Repeat("x", maxNativeArg+1))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	SetLevel("warning")
	assert.Equal(t, "warn", Level())
	SetLevel("nonsense")
	assert.Equal(t, "info", Level())
}

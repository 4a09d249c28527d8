package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"kiwoom/internal/pkg/text"
)

// maxNativeArg caps each string argument written to the native dump.
const maxNativeArg = 512

var (
	nativeMu  sync.Mutex
	nativeLog *log.Logger
)

// SetNativeWriter enables the raw native traffic dump. Passing nil disables it.
func SetNativeWriter(w io.Writer) {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	if w == nil {
		nativeLog = nil
		return
	}
	nativeLog = log.New(w, "", log.LstdFlags|log.Lmicroseconds)
}

// NativeDumpEnabled reports whether a native writer is installed.
func NativeDumpEnabled() bool {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	return nativeLog != nil
}

func nativeWriter() *log.Logger {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	return nativeLog
}

// LogNativeEvent records one event fired by the control.
func LogNativeEvent(event string, args []any, handlers int, dur time.Duration, err error) {
	l := nativeWriter()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[EVENT][")
	b.WriteString(event)
	b.WriteString("] ")
	writeArgs(&b, args)
	fmt.Fprintf(&b, " handlers=%d dur=%s", handlers, dur)
	if err != nil {
		fmt.Fprintf(&b, " err=%q", err.Error())
	}
	l.Print(b.String())
}

// LogNativeCall records one outbound call with its vendor signature.
func LogNativeCall(signature string, args []any, result any, dur time.Duration, err error) {
	l := nativeWriter()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[CALL][")
	b.WriteString(signature)
	b.WriteString("] ")
	writeArgs(&b, args)
	if result != nil {
		fmt.Fprintf(&b, " -> %v", result)
	}
	fmt.Fprintf(&b, " dur=%s", dur)
	if err != nil {
		fmt.Fprintf(&b, " err=%q", err.Error())
	}
	l.Print(b.String())
}

func writeArgs(b *strings.Builder, args []any) {
	b.WriteString("(")
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		if s, ok := arg.(string); ok {
			fmt.Fprintf(b, "%q", text.Truncate(s, maxNativeArg))
			continue
		}
		fmt.Fprintf(b, "%v", arg)
	}
	b.WriteString(")")
}

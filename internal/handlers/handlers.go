// Package handlers holds the logging handlers every deployment installs.
package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"kiwoom/internal/logger"
	"kiwoom/internal/openapi"
	"kiwoom/internal/pkg/convert"
)

// Session follows OnEventConnect so callers can wait for the login result.
type Session struct {
	mu      sync.Mutex
	done    chan struct{}
	code    int
	settled bool
}

func NewSession() *Session {
	return &Session{done: make(chan struct{})}
}

// Reset arms the session for another login attempt.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settled {
		s.done = make(chan struct{})
		s.settled = false
	}
}

func (s *Session) settle(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
	if !s.settled {
		s.settled = true
		close(s.done)
	}
}

// Wait blocks until the next OnEventConnect and returns its code as an error.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	code := s.code
	s.mu.Unlock()
	return openapi.CheckCode(openapi.MethodCommConnect, code)
}

// RegisterCoreHandlers installs the connect, message and chejan handlers on reg.
func RegisterCoreHandlers(reg *openapi.Registry, session *Session) error {
	if reg == nil {
		return fmt.Errorf("handlers: nil registry")
	}
	if session == nil {
		session = NewSession()
	}
	regs := []struct {
		event openapi.EventName
		h     openapi.Handler
	}{
		{openapi.OnEventConnect, onEventConnect(session)},
		{openapi.OnReceiveMsg, onReceiveMsg},
		{openapi.OnReceiveChejanData, onReceiveChejanData},
	}
	for _, r := range regs {
		if err := reg.Register(r.event, "", r.h); err != nil {
			return err
		}
	}
	return nil
}

func onEventConnect(session *Session) openapi.Handler {
	return func(_ *openapi.API, args ...any) error {
		code, err := convert.IntAt(args, 0)
		if err != nil {
			return fmt.Errorf("OnEventConnect: %w", err)
		}
		if code == openapi.CodeOK {
			logger.Infof("login succeeded")
		} else {
			logger.Errorf("login failed: %d %s", code, (&openapi.CodeError{Code: code}).Message())
		}
		session.settle(code)
		return nil
	}
}

// onReceiveMsg logs (screen, rqName, trCode, message).
func onReceiveMsg(_ *openapi.API, args ...any) error {
	logger.Infof("server message screen=%s rq=%s tr=%s: %s",
		convert.StringAt(args, 0), convert.StringAt(args, 1), convert.StringAt(args, 2), convert.StringAt(args, 3))
	return nil
}

// onReceiveChejanData reads each FID of the notification while it is
// current and logs them at debug level.
func onReceiveChejanData(api *openapi.API, args ...any) error {
	gubun := convert.StringAt(args, 0)
	fids := parseFIDs(convert.StringAt(args, 2))
	logger.Infof("chejan gubun=%s items=%s fids=%d", gubun, convert.StringAt(args, 1), len(fids))
	if !logger.DebugEnabled() {
		return nil
	}
	for _, fid := range fids {
		v, err := api.GetChejanData(fid)
		if err != nil {
			return err
		}
		logger.Debugf("chejan gubun=%s fid=%d value=%q", gubun, fid, strings.TrimSpace(v))
	}
	return nil
}

func parseFIDs(list string) []int {
	var out []int
	for _, part := range strings.Split(list, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

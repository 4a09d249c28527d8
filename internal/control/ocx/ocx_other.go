//go:build !windows

package ocx

import (
	"context"

	"kiwoom/internal/openapi"
)

type native struct{}

// New always fails outside Windows.
func New(Options) (*Control, error) {
	return nil, openapi.ErrUnsupported
}

func (c *Control) invoke(m openapi.Method, args ...any) (any, error) {
	if _, err := coerceArgs(m, args); err != nil {
		return nil, err
	}
	return nil, openapi.ErrUnsupported
}

func (c *Control) Run(context.Context) error { return openapi.ErrUnsupported }

func (c *Control) Close() error { return nil }

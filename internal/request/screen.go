package request

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoScreen is returned when every screen number in the pool is in use.
var ErrNoScreen = errors.New("request: no free screen number")

// ScreenPool hands out four-digit screen numbers from [base, base+span).
type ScreenPool struct {
	mu    sync.Mutex
	base  int
	span  int
	next  int
	inUse map[string]bool
}

func NewScreenPool(base, span int) (*ScreenPool, error) {
	if base < 0 || span <= 0 || base+span > 10000 {
		return nil, fmt.Errorf("request: invalid screen range %d+%d", base, span)
	}
	return &ScreenPool{base: base, span: span, inUse: make(map[string]bool, span)}, nil
}

// Screens lists every screen number of the pool.
func (p *ScreenPool) Screens() []string {
	out := make([]string, p.span)
	for i := range out {
		out[i] = screenNo(p.base + i)
	}
	return out
}

// Acquire returns the next free screen, scanning round-robin.
func (p *ScreenPool) Acquire() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < p.span; i++ {
		n := p.base + (p.next+i)%p.span
		s := screenNo(n)
		if !p.inUse[s] {
			p.inUse[s] = true
			p.next = (n - p.base + 1) % p.span
			return s, nil
		}
	}
	return "", ErrNoScreen
}

func (p *ScreenPool) Release(screen string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inUse, screen)
}

// InUse reports how many screens are currently held.
func (p *ScreenPool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inUse)
}

func screenNo(n int) string { return fmt.Sprintf("%04d", n) }

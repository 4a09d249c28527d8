//go:build windows

package ocx

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"golang.org/x/sys/windows"

	"kiwoom/internal/logger"
	"kiwoom/internal/openapi"
)

type native struct {
	threadID uint32
	hwnd     uintptr
	unk      *ole.IUnknown
	disp     *ole.IDispatch
	point    *ole.IConnectionPoint
	cookie   uint32
	sink     *eventSink

	calls     chan func()
	done      chan struct{}
	err       error
	closeOnce sync.Once
}

// New hosts the control on a dedicated STA thread and returns once it is
// ready to accept calls. The thread keeps running until Close or until the
// context passed to Run is cancelled.
func New(opts Options) (*Control, error) {
	c := newControl(opts)
	c.native = &native{
		calls: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	ready := make(chan error, 1)
	go c.pump(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	logger.Infof("ocx: %s hosted on thread %d", c.opts.progID(), c.native.threadID)
	return c, nil
}

func (c *Control) pump(ready chan<- error) {
	n := c.native
	defer close(n.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		ready <- fmt.Errorf("ocx: CoInitializeEx: %w", err)
		return
	}
	defer ole.CoUninitialize()

	n.threadID = windows.GetCurrentThreadId()
	if err := n.attach(c); err != nil {
		n.detach()
		ready <- err
		return
	}
	ready <- nil

	n.err = pumpMessages(n.drain)
	n.drain()
	n.detach()
}

func (n *native) attach(c *Control) error {
	hwnd, unk, err := createHost(c.opts.progID())
	if err != nil {
		return err
	}
	n.hwnd, n.unk = hwnd, unk

	disp, err := unk.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("ocx: control has no IDispatch: %w", err)
	}
	n.disp = disp

	iid, members, err := eventMembers(c.opts, unk)
	if err != nil {
		return err
	}
	container, err := unk.QueryInterface(ole.IID_IConnectionPointContainer)
	if err != nil {
		return fmt.Errorf("ocx: control exposes no connection points: %w", err)
	}
	defer container.Release()
	cpc := (*ole.IConnectionPointContainer)(unsafe.Pointer(container))
	var point *ole.IConnectionPoint
	if err := cpc.FindConnectionPoint(iid, &point); err != nil {
		return fmt.Errorf("ocx: find connection point %s: %w", iid, err)
	}
	n.point = point

	n.sink = newEventSink(iid, members, c.fire)
	cookie, err := point.Advise(n.sink.unknown())
	if err != nil {
		return fmt.Errorf("ocx: advise event sink: %w", err)
	}
	n.cookie = cookie
	logger.Debugf("ocx: advised %s (cookie %d)", n.sink, cookie)
	return nil
}

func eventMembers(opts Options, unk *ole.IUnknown) (*ole.GUID, map[int32]string, error) {
	if opts.EventIID != "" && len(opts.EventDispIDs) > 0 {
		iid := ole.NewGUID(opts.EventIID)
		if iid == nil {
			return nil, nil, fmt.Errorf("ocx: invalid event interface id %q", opts.EventIID)
		}
		return iid, opts.EventDispIDs, nil
	}
	return eventInterface(unk)
}

func (n *native) detach() {
	if n.point != nil {
		if n.cookie != 0 {
			if err := n.point.Unadvise(n.cookie); err != nil {
				logger.Warnf("ocx: unadvise: %v", err)
			}
		}
		n.point.Release()
		n.point = nil
	}
	if n.sink != nil {
		n.sink.forget()
	}
	if n.disp != nil {
		n.disp.Release()
		n.disp = nil
	}
	if n.unk != nil {
		n.unk.Release()
		n.unk = nil
	}
	destroyHost(n.hwnd)
	n.hwnd = 0
}

func (n *native) drain() {
	for {
		select {
		case fn := <-n.calls:
			fn()
		default:
			return
		}
	}
}

func (n *native) call(m openapi.Method, params []any) (any, error) {
	v, err := oleutil.CallMethod(n.disp, m.Native(), params...)
	if err != nil {
		return nil, fmt.Errorf("ocx: %s: %w", m.Signature(), err)
	}
	defer v.Clear()
	return normalizeValue(v.Value()), nil
}

func (c *Control) invoke(m openapi.Method, args ...any) (any, error) {
	params, err := coerceArgs(m, args)
	if err != nil {
		return nil, err
	}
	n := c.native
	if windows.GetCurrentThreadId() == n.threadID {
		return n.call(m, params)
	}

	type result struct {
		v   any
		err error
	}
	out := make(chan result, 1)
	fn := func() {
		v, err := n.call(m, params)
		out <- result{v, err}
	}
	select {
	case n.calls <- fn:
	case <-n.done:
		return nil, errClosed
	}
	if err := postThread(n.threadID, wmApp); err != nil {
		return nil, err
	}
	select {
	case r := <-out:
		return r.v, r.err
	case <-n.done:
		return nil, errClosed
	}
}

// Run blocks until ctx is cancelled or the message loop exits.
func (c *Control) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		if err := c.Close(); err != nil {
			return err
		}
		return ctx.Err()
	case <-c.native.done:
		return c.native.err
	}
}

// Close stops the message loop and releases the control.
func (c *Control) Close() error {
	n := c.native
	var err error
	n.closeOnce.Do(func() {
		select {
		case <-n.done:
			return
		default:
		}
		err = postThread(n.threadID, wmQuit)
	})
	if err != nil {
		return err
	}
	if windows.GetCurrentThreadId() != n.threadID {
		<-n.done
	}
	return n.err
}

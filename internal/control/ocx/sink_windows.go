//go:build windows

package ocx

import (
	"fmt"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"

	"kiwoom/internal/logger"
	"kiwoom/internal/openapi"
)

const (
	sOK            = 0
	eNoInterface   = 0x80004002
	eNotImpl       = 0x80004001
	dispEException = 0x80020009
)

type sinkVtbl struct {
	queryInterface   uintptr
	addRef           uintptr
	release          uintptr
	getTypeInfoCount uintptr
	getTypeInfo      uintptr
	getIDsOfNames    uintptr
	invoke           uintptr
}

type dispParams struct {
	args      uintptr
	namedArgs uintptr
	cArgs     uint32
	cNamed    uint32
}

// eventSink is a minimal IDispatch implementation advised on the control's
// source interface. Its first field must stay the vtable pointer.
type eventSink struct {
	vtbl  *sinkVtbl
	ref   int32
	iid   ole.GUID
	names map[int32]openapi.EventName
	fire  func(openapi.EventName, []any) error
}

var (
	sinkVtableOnce sync.Once
	sinkVtable     *sinkVtbl
	sinks          sync.Map
)

func newEventSink(iid *ole.GUID, members map[int32]string, fire func(openapi.EventName, []any) error) *eventSink {
	sinkVtableOnce.Do(func() {
		sinkVtable = &sinkVtbl{
			queryInterface:   syscall.NewCallback(sinkQueryInterface),
			addRef:           syscall.NewCallback(sinkAddRef),
			release:          syscall.NewCallback(sinkRelease),
			getTypeInfoCount: syscall.NewCallback(sinkGetTypeInfoCount),
			getTypeInfo:      syscall.NewCallback(sinkNotImpl3),
			getIDsOfNames:    syscall.NewCallback(sinkNotImpl6),
			invoke:           syscall.NewCallback(sinkInvoke),
		}
	})
	names := make(map[int32]openapi.EventName)
	for id, member := range members {
		if ev := openapi.EventName(member); ev.Valid() {
			names[id] = ev
		}
	}
	s := &eventSink{vtbl: sinkVtable, ref: 1, iid: *iid, names: names, fire: fire}
	sinks.Store(s.ptr(), s)
	return s
}

func (s *eventSink) ptr() uintptr { return uintptr(unsafe.Pointer(s)) }

func (s *eventSink) unknown() *ole.IUnknown { return (*ole.IUnknown)(unsafe.Pointer(s)) }

func (s *eventSink) forget() { sinks.Delete(s.ptr()) }

func lookupSink(this uintptr) *eventSink {
	v, ok := sinks.Load(this)
	if !ok {
		return nil
	}
	return v.(*eventSink)
}

func sinkQueryInterface(this uintptr, riid *ole.GUID, out *uintptr) uintptr {
	s := lookupSink(this)
	if s == nil || out == nil {
		return eNoInterface
	}
	if ole.IsEqualGUID(riid, ole.IID_IUnknown) || ole.IsEqualGUID(riid, ole.IID_IDispatch) || ole.IsEqualGUID(riid, &s.iid) {
		*out = this
		atomic.AddInt32(&s.ref, 1)
		return sOK
	}
	*out = 0
	return eNoInterface
}

func sinkAddRef(this uintptr) uintptr {
	if s := lookupSink(this); s != nil {
		return uintptr(atomic.AddInt32(&s.ref, 1))
	}
	return 1
}

func sinkRelease(this uintptr) uintptr {
	if s := lookupSink(this); s != nil {
		return uintptr(atomic.AddInt32(&s.ref, -1))
	}
	return 0
}

func sinkGetTypeInfoCount(this uintptr, count *uint32) uintptr {
	if count != nil {
		*count = 0
	}
	return sOK
}

func sinkNotImpl3(this, a, b, c uintptr) uintptr { return eNotImpl }

func sinkNotImpl6(this, a, b, c, d, e uintptr) uintptr { return eNotImpl }

func sinkInvoke(this uintptr, dispID uintptr, riid *ole.GUID, lcid uintptr, flags uintptr, params *dispParams, result *ole.VARIANT, excepInfo uintptr, argErr uintptr) (hr uintptr) {
	s := lookupSink(this)
	if s == nil {
		return sOK
	}
	event, ok := s.names[int32(dispID)]
	if !ok || params == nil {
		return sOK
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("ocx: %s handler panicked at the native boundary: %v", event, r)
			hr = dispEException
		}
	}()
	args := eventArgs(params)
	if err := s.fire(event, args); err != nil {
		logger.Errorf("ocx: %s: %v", event, err)
		return dispEException
	}
	return sOK
}

// eventArgs converts DISPPARAMS into positional Go values. COM passes
// arguments in reverse order.
func eventArgs(p *dispParams) []any {
	n := int(p.cArgs)
	args := make([]any, n)
	size := unsafe.Sizeof(ole.VARIANT{})
	for i := 0; i < n; i++ {
		v := (*ole.VARIANT)(unsafe.Pointer(p.args + uintptr(n-1-i)*size))
		args[i] = normalizeValue(v.Value())
	}
	return args
}

func (s *eventSink) String() string {
	return fmt.Sprintf("eventSink{%s, %d events}", s.iid.String(), len(s.names))
}

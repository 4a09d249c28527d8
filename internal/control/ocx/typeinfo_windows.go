//go:build windows

package ocx

import (
	"fmt"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

var iidProvideClassInfo = ole.NewGUID("{B196B283-BAB4-101A-B69C-00AA00341D07}")

// ITypeInfo vtable slots.
const (
	tiGetTypeAttr          = 3
	tiGetFuncDesc          = 5
	tiGetNames             = 7
	tiGetRefTypeOfImplType = 8
	tiGetImplTypeFlags     = 9
	tiGetRefTypeInfo       = 14
	tiReleaseTypeAttr      = 19
	tiReleaseFuncDesc      = 20

	pciGetClassInfo = 3
	unkRelease      = 2

	implTypeFlagDefault = 0x1
	implTypeFlagSource  = 0x2
)

// typeAttr mirrors the leading fields of TYPEATTR.
type typeAttr struct {
	guid             ole.GUID
	lcid             uint32
	reserved         uint32
	memidConstructor int32
	memidDestructor  int32
	schema           *uint16
	cbSizeInstance   uint32
	typeKind         int32
	cFuncs           uint16
	cVars            uint16
	cImplTypes       uint16
}

func comCall(obj unsafe.Pointer, slot int, args ...uintptr) uintptr {
	vtbl := *(*unsafe.Pointer)(obj)
	fn := *(*uintptr)(unsafe.Add(vtbl, uintptr(slot)*unsafe.Sizeof(uintptr(0))))
	r, _, _ := syscall.SyscallN(fn, append([]uintptr{uintptr(obj)}, args...)...)
	return r
}

func hresult(op string, hr uintptr) error {
	if hr == 0 {
		return nil
	}
	return fmt.Errorf("ocx: %s: %w", op, ole.NewError(hr))
}

// eventInterface finds the default source interface of the hosted control
// and maps its DISPIDs to member names.
func eventInterface(unk *ole.IUnknown) (*ole.GUID, map[int32]string, error) {
	pci, err := unk.QueryInterface(iidProvideClassInfo)
	if err != nil {
		return nil, nil, fmt.Errorf("ocx: control does not expose class info: %w", err)
	}
	defer pci.Release()

	var class unsafe.Pointer
	if err := hresult("GetClassInfo", comCall(unsafe.Pointer(pci), pciGetClassInfo, uintptr(unsafe.Pointer(&class)))); err != nil {
		return nil, nil, err
	}
	defer comCall(class, unkRelease)

	var attr *typeAttr
	if err := hresult("GetTypeAttr", comCall(class, tiGetTypeAttr, uintptr(unsafe.Pointer(&attr)))); err != nil {
		return nil, nil, err
	}
	impls := int(attr.cImplTypes)
	comCall(class, tiReleaseTypeAttr, uintptr(unsafe.Pointer(attr)))

	for i := 0; i < impls; i++ {
		var flags int32
		if comCall(class, tiGetImplTypeFlags, uintptr(i), uintptr(unsafe.Pointer(&flags))) != 0 {
			continue
		}
		if flags&(implTypeFlagDefault|implTypeFlagSource) != implTypeFlagDefault|implTypeFlagSource {
			continue
		}
		var href uint32
		if err := hresult("GetRefTypeOfImplType", comCall(class, tiGetRefTypeOfImplType, uintptr(i), uintptr(unsafe.Pointer(&href)))); err != nil {
			return nil, nil, err
		}
		var src unsafe.Pointer
		if err := hresult("GetRefTypeInfo", comCall(class, tiGetRefTypeInfo, uintptr(href), uintptr(unsafe.Pointer(&src)))); err != nil {
			return nil, nil, err
		}
		defer comCall(src, unkRelease)
		return describeInterface(src)
	}
	return nil, nil, fmt.Errorf("ocx: control has no default source interface")
}

func describeInterface(ti unsafe.Pointer) (*ole.GUID, map[int32]string, error) {
	var attr *typeAttr
	if err := hresult("GetTypeAttr", comCall(ti, tiGetTypeAttr, uintptr(unsafe.Pointer(&attr)))); err != nil {
		return nil, nil, err
	}
	iid := attr.guid
	funcs := int(attr.cFuncs)
	comCall(ti, tiReleaseTypeAttr, uintptr(unsafe.Pointer(attr)))

	names := make(map[int32]string, funcs)
	for i := 0; i < funcs; i++ {
		var desc unsafe.Pointer
		if comCall(ti, tiGetFuncDesc, uintptr(i), uintptr(unsafe.Pointer(&desc))) != 0 {
			continue
		}
		memid := *(*int32)(desc)
		var (
			bstr  *uint16
			count uint32
		)
		if comCall(ti, tiGetNames, uintptr(memid), uintptr(unsafe.Pointer(&bstr)), 1, uintptr(unsafe.Pointer(&count))) == 0 && count > 0 {
			names[memid] = ole.BstrToString(bstr)
			ole.SysFreeString((*int16)(unsafe.Pointer(bstr)))
		}
		comCall(ti, tiReleaseFuncDesc, uintptr(desc))
	}
	return &iid, names, nil
}

//go:build windows

package ocx

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	atl    = windows.NewLazySystemDLL("atl.dll")

	procCreateWindowExW    = user32.NewProc("CreateWindowExW")
	procDestroyWindow      = user32.NewProc("DestroyWindow")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procTranslateMessage   = user32.NewProc("TranslateMessage")
	procDispatchMessageW   = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")

	procAtlAxWinInit    = atl.NewProc("AtlAxWinInit")
	procAtlAxGetControl = atl.NewProc("AtlAxGetControl")
)

const (
	wmQuit   = 0x0012
	wmApp    = 0x8000
	wsPopup  = 0x80000000
	axWindow = "AtlAxWin"
)

type point struct {
	x, y int32
}

type winMsg struct {
	hwnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

// createHost creates a hidden ATL container window for progID and returns
// the hosted control's IUnknown.
func createHost(progID string) (uintptr, *ole.IUnknown, error) {
	if r, _, err := procAtlAxWinInit.Call(); r == 0 {
		return 0, nil, fmt.Errorf("ocx: AtlAxWinInit: %w", err)
	}
	class, err := syscall.UTF16PtrFromString(axWindow)
	if err != nil {
		return 0, nil, err
	}
	title, err := syscall.UTF16PtrFromString(progID)
	if err != nil {
		return 0, nil, err
	}
	hwnd, _, callErr := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(class)),
		uintptr(unsafe.Pointer(title)),
		wsPopup,
		0, 0, 0, 0,
		0, 0, 0, 0,
	)
	if hwnd == 0 {
		return 0, nil, fmt.Errorf("ocx: create host window for %s: %w", progID, callErr)
	}
	var unk *ole.IUnknown
	if hr, _, _ := procAtlAxGetControl.Call(hwnd, uintptr(unsafe.Pointer(&unk))); hr != 0 || unk == nil {
		procDestroyWindow.Call(hwnd)
		return 0, nil, fmt.Errorf("ocx: %s is not registered or failed to load: %w", progID, ole.NewError(hr))
	}
	return hwnd, unk, nil
}

func destroyHost(hwnd uintptr) {
	if hwnd != 0 {
		procDestroyWindow.Call(hwnd)
	}
}

// pumpMessages runs the thread message loop until WM_QUIT. wake is called
// for every thread message posted with wmApp.
func pumpMessages(wake func()) error {
	var m winMsg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			return errors.New("ocx: GetMessage failed")
		case 0:
			return nil
		}
		if m.hwnd == 0 && m.message == wmApp {
			wake()
			continue
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func postThread(threadID uint32, message uint32) error {
	if r, _, err := procPostThreadMessageW.Call(uintptr(threadID), uintptr(message), 0, 0); r == 0 {
		return fmt.Errorf("ocx: PostThreadMessage: %w", err)
	}
	return nil
}

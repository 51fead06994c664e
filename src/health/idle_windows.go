//go:build windows

package health

import (
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	kernel32         = windows.NewLazySystemDLL("kernel32.dll")
	procLastInput    = user32.NewProc("GetLastInputInfo")
	procGetTickCount = kernel32.NewProc("GetTickCount")
)

type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

// SystemIdle asks Windows how long ago the user last touched any input device.
func SystemIdle() (time.Duration, bool) {
	if procLastInput.Find() != nil || procGetTickCount.Find() != nil {
		return 0, false
	}
	info := lastInputInfo{cbSize: uint32(unsafe.Sizeof(lastInputInfo{}))}
	ret, _, _ := procLastInput.Call(uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return 0, false
	}
	now, _, _ := procGetTickCount.Call()
	// both are 32-bit tick counts; unsigned subtraction survives wraparound
	return time.Duration(uint32(now)-info.dwTime) * time.Millisecond, true
}

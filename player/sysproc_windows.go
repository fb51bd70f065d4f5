//go:build windows

package player

import "syscall"

// CREATE_NO_WINDOW
const createNoWindow = 0x08000000

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: createNoWindow}
}

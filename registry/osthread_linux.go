//go:build linux

package registry

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// setOSThreadName publishes name for the current OS thread, visible in
// /proc/<pid>/task/<tid>/comm. The kernel keeps 15 bytes.
func setOSThreadName(name string) {
	b := []byte(name)
	if len(b) > 15 {
		b = b[:15]
	}
	b = append(b, 0)
	_ = unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&b[0])), 0, 0, 0)
}

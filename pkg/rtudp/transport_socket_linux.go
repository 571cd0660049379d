//go:build linux

package rtudp

import (
	"errors"
	"runtime"
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddrControl sets SO_REUSEADDR on the socket before bind/connect.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	var controlErr error
	err := c.Control(func(fd uintptr) {
		controlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return controlErr
}

// isPlatformTransientSendErr reports EAGAIN/ENOBUFS, the Linux-specific
// transient send conditions that should count as a drop rather than fatal.
func isPlatformTransientSendErr(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	return errno == unix.EAGAIN || errno == unix.ENOBUFS || errno == unix.EWOULDBLOCK
}

// pinToCPU pins the calling goroutine's backing OS thread to cpu. It must
// be called from the goroutine that should be pinned.
func pinToCPU(cpu int) error {
	if cpu < 0 {
		return nil
	}
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}

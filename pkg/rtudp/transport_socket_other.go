//go:build !linux

package rtudp

import "syscall"

// reuseAddrControl is a no-op outside Linux; SO_REUSEADDR tuning is a
// Linux-specific enhancement.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	return nil
}

func isPlatformTransientSendErr(err error) bool {
	return false
}

// pinToCPU is unsupported outside Linux; the cpu option is accepted but
// ignored here, as a best-effort hint.
func pinToCPU(cpu int) error {
	return nil
}

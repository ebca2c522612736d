//go:build unix

package udp

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// control 在 bind 之前设置 SO_BROADCAST
func control(broadcast bool) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		if !broadcast {
			return nil
		}
		var serr error
		if err := c.Control(func(fd uintptr) {
			serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
		}); err != nil {
			return err
		}
		return serr
	}
}

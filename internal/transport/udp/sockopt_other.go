//go:build !unix

package udp

import "syscall"

// Go 运行时在这些平台上默认为 UDP 套接字开启广播
func control(bool) func(network, address string, c syscall.RawConn) error {
	return nil
}

//go:build unix

package udp

import (
	"errors"
	"net/netip"

	"golang.org/x/sys/unix"
)

// tryRead 通过 RawConn 直接 recvfrom；回调总是返回 true，不进入运行时网络轮询等待
func (t *Transport) tryRead(buf []byte) (int, netip.AddrPort, bool, error) {
	var (
		n    int
		from unix.Sockaddr
		rerr error
	)
	err := t.raw.Read(func(fd uintptr) bool {
		n, from, rerr = unix.Recvfrom(int(fd), buf, 0)
		return true
	})
	if err != nil {
		return 0, netip.AddrPort{}, false, err
	}
	if rerr != nil {
		if errors.Is(rerr, unix.EAGAIN) || errors.Is(rerr, unix.EWOULDBLOCK) || errors.Is(rerr, unix.EINTR) {
			return 0, netip.AddrPort{}, false, nil
		}
		return 0, netip.AddrPort{}, false, rerr
	}
	return n, sockaddrToAddrPort(from), true, nil
}

func sockaddrToAddrPort(sa unix.Sockaddr) netip.AddrPort {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(a.Addr), uint16(a.Port))
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(a.Addr), uint16(a.Port))
	default:
		return netip.AddrPort{}
	}
}

//go:build !unix

package udp

import (
	"errors"
	"net"
	"net/netip"
	"time"
)

// pollGrace 非 unix 平台没有 RawConn recvfrom，用极短读超时近似非阻塞
const pollGrace = 100 * time.Microsecond

func (t *Transport) tryRead(buf []byte) (int, netip.AddrPort, bool, error) {
	_ = t.conn.SetReadDeadline(time.Now().Add(pollGrace))
	n, from, err := t.conn.ReadFromUDPAddrPort(buf)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return 0, netip.AddrPort{}, false, nil
		}
		return 0, netip.AddrPort{}, false, err
	}
	return n, from, true, nil
}

package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

var (
	ErrInvalidAddress = errors.New("udp: invalid address")
	ErrBindFailed     = errors.New("udp: bind failed")
	ErrShortWrite     = errors.New("udp: short write")
	ErrClosed         = errors.New("udp: transport closed")
)

const (
	defaultWriteTimeout = 50 * time.Millisecond
	defaultMaxDatagram  = 2048
)

// Options 传输参数
type Options struct {
	Broadcast    bool          // 允许向广播地址发送
	LocalAddr    string        // 本地绑定地址，空为任意地址的临时端口
	WriteTimeout time.Duration // 单次发送上限
	MaxDatagram  int           // 接收缓冲大小
}

// Datagram 收到的一个数据报
type Datagram struct {
	Data []byte
	From netip.AddrPort
}

// Transport 面向单一远端的非阻塞 UDP 端点
// 发送与接收都不会阻塞调用方的轮询循环
type Transport struct {
	conn   *net.UDPConn
	raw    syscall.RawConn
	remote netip.AddrPort
	opts   Options
	buf    []byte

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// Open 绑定本地端口并指向 remoteIP:remotePort
func Open(remoteIP string, remotePort int, opts Options) (*Transport, error) {
	ip, err := netip.ParseAddr(remoteIP)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, remoteIP)
	}
	if remotePort < 1 || remotePort > 65535 {
		return nil, fmt.Errorf("%w: port %d", ErrInvalidAddress, remotePort)
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.MaxDatagram <= 0 {
		opts.MaxDatagram = defaultMaxDatagram
	}
	local := opts.LocalAddr
	if local == "" {
		local = ":0"
	}

	lc := net.ListenConfig{Control: control(opts.Broadcast)}
	pc, err := lc.ListenPacket(context.Background(), "udp", local)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBindFailed, local, err)
	}
	conn := pc.(*net.UDPConn)
	raw, err := conn.SyscallConn()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrBindFailed, err)
	}

	return &Transport{
		conn:   conn,
		raw:    raw,
		remote: netip.AddrPortFrom(ip.Unmap(), uint16(remotePort)),
		opts:   opts,
		buf:    make([]byte, opts.MaxDatagram),
	}, nil
}

// Send 单次发送；写入字节数不足视为失败
func (t *Transport) Send(b []byte) error {
	if t.closed.Load() {
		return ErrClosed
	}
	_ = t.conn.SetWriteDeadline(time.Now().Add(t.opts.WriteTimeout))
	n, err := t.conn.WriteToUDPAddrPort(b, t.remote)
	if err != nil {
		if t.closed.Load() {
			return ErrClosed
		}
		return fmt.Errorf("udp send to %s: %w", t.remote, err)
	}
	if n != len(b) {
		return fmt.Errorf("%w: %d/%d", ErrShortWrite, n, len(b))
	}
	return nil
}

// TryReceive 非阻塞读取一个数据报；没有待读数据时返回 ok=false
// 调用方应循环调用直到 ok=false 以排空接收队列
func (t *Transport) TryReceive() (Datagram, bool, error) {
	if t.closed.Load() {
		return Datagram{}, false, ErrClosed
	}
	n, from, ok, err := t.tryRead(t.buf)
	if err != nil {
		if t.closed.Load() {
			return Datagram{}, false, ErrClosed
		}
		return Datagram{}, false, fmt.Errorf("udp receive: %w", err)
	}
	if !ok {
		return Datagram{}, false, nil
	}
	return Datagram{
		Data: append([]byte(nil), t.buf[:n]...),
		From: netip.AddrPortFrom(from.Addr().Unmap(), from.Port()),
	}, true, nil
}

// Close 关闭套接字，可重复调用
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

func (t *Transport) Closed() bool { return t.closed.Load() }

func (t *Transport) LocalAddr() netip.AddrPort {
	if a, ok := t.conn.LocalAddr().(*net.UDPAddr); ok {
		ap := a.AddrPort()
		return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
	}
	return netip.AddrPort{}
}

func (t *Transport) RemoteAddr() netip.AddrPort { return t.remote }

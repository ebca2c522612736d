package device

import "fmt"

// State 会话状态
// Uninitialized → Connecting → Connected → (Disconnected | TimedOut)
// TimedOut 在收到下一帧合法数据后回到 Connected
type State int32

const (
	StateUninitialized State = iota
	StateConnecting
	StateConnected
	StateTimedOut
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateTimedOut:
		return "timed_out"
	case StateDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

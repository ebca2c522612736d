package firmware

import (
	"go.uber.org/zap"

	"github.com/taoyao-code/lbe-link/internal/protocol/wire"
)

// Sender 节点上行输出（固件中为 UDP.write）
type Sender interface {
	Send(b []byte) error
}

// SenderFunc 函数适配
type SenderFunc func(b []byte) error

func (f SenderFunc) Send(b []byte) error { return f(b) }

// NodeStats 节点计数
type NodeStats struct {
	Handled  uint64
	Ignored  uint64
	Rejected uint64
}

// Node 参考固件模板：布尔命令驱动数字输出，整型/浮点命令设置模拟输出，
// 字符串命令写日志，未知类型忽略
type Node struct {
	out     Sender
	log     *zap.Logger
	builder Builder
	pkt     Packet

	digital [256]bool
	analog  [256]float32

	// OnString 收到字符串命令时回调（可选）
	OnString func(channel uint8, s string)

	stats NodeStats
}

func NewNode(out Sender, log *zap.Logger) *Node {
	if log == nil {
		log = zap.NewNop()
	}
	return &Node{out: out, log: log.Named("firmware")}
}

// Handle 处理一个入站数据报
func (n *Node) Handle(data []byte) Result {
	r := Parse(data, &n.pkt)
	switch r {
	case OK:
	case UnknownType:
		n.stats.Ignored++
		n.log.Debug("unknown type ignored", zap.Uint8("type", n.pkt.Type), zap.Uint8("channel", n.pkt.Channel))
		return r
	default:
		n.stats.Rejected++
		n.log.Debug("packet rejected", zap.String("reason", r.String()))
		return r
	}

	ch := n.pkt.Channel
	switch n.pkt.Type {
	case TypeBool:
		n.digital[ch] = n.pkt.Bool()
	case TypeInt32:
		n.analog[ch] = float32(n.pkt.Int32())
	case TypeFloat:
		n.analog[ch] = n.pkt.Float()
	case TypeString:
		s := string(n.pkt.Value)
		n.log.Info("string command", zap.Uint8("channel", ch), zap.String("value", s))
		if n.OnString != nil {
			n.OnString(ch, s)
		}
	default:
		n.stats.Ignored++
		return r
	}
	n.stats.Handled++
	return r
}

// DigitalOutput 当前数字输出
func (n *Node) DigitalOutput(channel uint8) bool { return n.digital[channel] }

// AnalogOutput 当前模拟输出
func (n *Node) AnalogOutput(channel uint8) float32 { return n.analog[channel] }

func (n *Node) Stats() NodeStats { return n.stats }

// EmitDigital 上报数字传感器
func (n *Node) EmitDigital(channel uint8, v bool) error {
	return n.out.Send(n.builder.Bool(channel, v))
}

// EmitAnalog 上报模拟传感器
func (n *Node) EmitAnalog(channel uint8, v float32) error {
	return n.out.Send(n.builder.Float(channel, v))
}

// EmitButton 上报按键事件
func (n *Node) EmitButton(e wire.ButtonEvent) error {
	return n.out.Send(n.builder.Struct(wire.ChannelButtonEvents, e.MarshalWire()))
}

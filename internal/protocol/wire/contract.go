package wire

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/taoyao-code/lbe-link/internal/protocol/frame"
	"gopkg.in/yaml.v3"
)

// 约定通道
const (
	ChannelPlaySessionActive uint8 = 9
	ChannelTilt              uint8 = 100
	// ChannelButtonEvents 历史上使用 310，通道字段仅 1 字节，线上实际为 310&0xFF
	ChannelButtonEvents uint8 = 310 & 0xFF
)

var ErrContractViolation = errors.New("wire: channel contract violation")

// Contract 通道 -> 帧类型约定；未登记的通道不做限制
type Contract struct {
	types map[uint8]frame.Type
	sizes map[uint8]int
}

type contractFile struct {
	Channels map[int]contractEntry `yaml:"channels"`
}

type contractEntry struct {
	Type string `yaml:"type"`
	Size int    `yaml:"size"` // 仅 struct
}

func NewContract() *Contract {
	return &Contract{types: make(map[uint8]frame.Type), sizes: make(map[uint8]int)}
}

// DefaultContract 返回内置通道约定
func DefaultContract() *Contract {
	c := NewContract()
	c.Set(ChannelPlaySessionActive, frame.TypeBool, 0)
	c.Set(ChannelTilt, frame.TypeStruct, TiltStateSize)
	c.Set(ChannelButtonEvents, frame.TypeStruct, ButtonEventSize)
	return c
}

// LoadContract 从 YAML 文件读取通道约定
//
//	channels:
//	  9:   {type: bool}
//	  100: {type: struct, size: 13}
func LoadContract(path string) (*Contract, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contract: %w", err)
	}
	var f contractFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("unmarshal contract: %w", err)
	}
	c := NewContract()
	for ch, e := range f.Channels {
		if ch < 0 || ch > 255 {
			return nil, fmt.Errorf("contract: channel %d out of range", ch)
		}
		t, err := parseType(e.Type)
		if err != nil {
			return nil, fmt.Errorf("contract: channel %d: %w", ch, err)
		}
		if t == frame.TypeStruct && (e.Size <= 0 || e.Size > frame.MaxValueSize) {
			return nil, fmt.Errorf("contract: channel %d: struct size %d", ch, e.Size)
		}
		c.Set(uint8(ch), t, e.Size)
	}
	return c, nil
}

func parseType(s string) (frame.Type, error) {
	for t := frame.TypeBool; t <= frame.TypeStruct; t++ {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown type %q", s)
}

// Set 登记通道类型；size 仅对 struct 有意义
func (c *Contract) Set(channel uint8, t frame.Type, size int) {
	c.types[channel] = t
	if t == frame.TypeStruct && size > 0 {
		c.sizes[channel] = size
	} else {
		delete(c.sizes, channel)
	}
}

// Check 校验通道与类型是否符合约定
func (c *Contract) Check(channel uint8, t frame.Type) error {
	if c == nil {
		return nil
	}
	want, ok := c.types[channel]
	if !ok || want == t {
		return nil
	}
	return fmt.Errorf("%w: channel %d expects %s, got %s", ErrContractViolation, channel, want, t)
}

// CheckValue 在类型之外再校验 struct 长度
func (c *Contract) CheckValue(channel uint8, t frame.Type, value []byte) error {
	if err := c.Check(channel, t); err != nil {
		return err
	}
	if c == nil || t != frame.TypeStruct {
		return nil
	}
	if n, ok := c.sizes[channel]; ok && n != len(value) {
		return fmt.Errorf("%w: channel %d struct wants %d bytes, got %d", ErrContractViolation, channel, n, len(value))
	}
	return nil
}

// StructSize 实现 frame.StructSizer，供串口流切帧使用
func (c *Contract) StructSize(channel uint8) (int, bool) {
	if c == nil {
		return 0, false
	}
	n, ok := c.sizes[channel]
	return n, ok
}

// Len 已登记通道数
func (c *Contract) Len() int {
	if c == nil {
		return 0
	}
	return len(c.types)
}

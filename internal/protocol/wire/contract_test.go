package wire

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taoyao-code/lbe-link/internal/protocol/frame"
)

func TestChannelButtonEvents_Truncated(t *testing.T) {
	assert.Equal(t, uint8(54), ChannelButtonEvents)
}

func TestDefaultContract(t *testing.T) {
	c := DefaultContract()
	assert.Equal(t, 3, c.Len())

	tests := []struct {
		name    string
		channel uint8
		typ     frame.Type
		ok      bool
	}{
		{"会话激活为布尔", ChannelPlaySessionActive, frame.TypeBool, true},
		{"会话激活收到浮点", ChannelPlaySessionActive, frame.TypeFloat, false},
		{"姿态为结构体", ChannelTilt, frame.TypeStruct, true},
		{"姿态收到字节", ChannelTilt, frame.TypeBytes, false},
		{"未登记通道放行", 2, frame.TypeFloat, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Check(tt.channel, tt.typ)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrContractViolation)
			}
		})
	}

	assert.NoError(t, c.CheckValue(ChannelTilt, frame.TypeStruct, TiltState{}.MarshalWire()))
	assert.ErrorIs(t, c.CheckValue(ChannelTilt, frame.TypeStruct, []byte{1, 2}), ErrContractViolation)

	n, ok := c.StructSize(ChannelButtonEvents)
	assert.True(t, ok)
	assert.Equal(t, ButtonEventSize, n)
}

func TestNilContract_AllowsAll(t *testing.T) {
	var c *Contract
	assert.NoError(t, c.Check(9, frame.TypeFloat))
	assert.NoError(t, c.CheckValue(100, frame.TypeStruct, []byte{1}))
	_, ok := c.StructSize(100)
	assert.False(t, ok)
}

func TestLoadContract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contract.yaml")
	content := `channels:
  2: {type: float}
  9: {type: bool}
  120: {type: struct, size: 6}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := LoadContract(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	assert.NoError(t, c.Check(2, frame.TypeFloat))
	assert.ErrorIs(t, c.Check(2, frame.TypeInt32), ErrContractViolation)
	n, ok := c.StructSize(120)
	assert.True(t, ok)
	assert.Equal(t, 6, n)
}

func TestLoadContract_Errors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad_type.yaml": "channels:\n  1: {type: double}\n",
		"range.yaml":    "channels:\n  300: {type: bool}\n",
		"no_size.yaml":  "channels:\n  5: {type: struct}\n",
		"not_yaml.yaml": "channels: [",
	}
	for name, content := range cases {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		_, err := LoadContract(p)
		assert.Error(t, err, name)
	}
	_, err := LoadContract(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

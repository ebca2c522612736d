package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamDecoder_SplitsAndResyncs(t *testing.T) {
	sizer := func(ch uint8) (int, bool) {
		if ch == 54 {
			return 11, true
		}
		return 0, false
	}
	d := NewStreamDecoder(sizer)

	b1, _ := EncodeBool(9, true)
	b2, _ := EncodeString(3, "abc")
	b3, _ := EncodeStruct(54, []byte{1, 2, 1, 0xEF, 0xBE, 0xAD, 0xDE, 0, 0, 0, 0})
	b4, _ := EncodeFloat(2, 1.5)

	stream := []byte{0x00, 0x13, 0x37} // 噪声
	stream = append(stream, b1...)
	stream = append(stream, b2...)
	stream = append(stream, b3...)
	stream = append(stream, b4...)

	// 逐字节喂入，模拟串口分片
	var got []*Frame
	for _, b := range stream {
		got = append(got, d.Feed([]byte{b})...)
	}
	require.Len(t, got, 4)
	assert.Equal(t, TypeBool, got[0].Type)
	assert.Equal(t, "abc", string(got[1].Payload))
	assert.Equal(t, uint8(54), got[2].Channel)
	assert.Len(t, got[2].Payload, 11)
	assert.Equal(t, TypeFloat, got[3].Type)
	assert.Equal(t, 3, d.Dropped())
}

func TestStreamDecoder_CorruptFrameSkipped(t *testing.T) {
	d := NewStreamDecoder(nil)
	bad, _ := EncodeInt32(1, 7)
	bad[4] ^= 0xFF
	good, _ := EncodeInt32(1, 8)

	got := d.Feed(append(bad, good...))
	require.Len(t, got, 1)
	v, err := got[0].Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(8), v)
}

func TestStreamDecoder_UnknownStructSkipped(t *testing.T) {
	d := NewStreamDecoder(nil)
	st, _ := EncodeStruct(100, []byte{1, 2, 3})
	b, _ := EncodeBool(1, false)

	got := d.Feed(append(st, b...))
	require.Len(t, got, 1)
	assert.Equal(t, TypeBool, got[0].Type)
}

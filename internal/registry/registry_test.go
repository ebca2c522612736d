package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taoyao-code/lbe-link/internal/protocol/frame"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestRegistry_UpdateLatest(t *testing.T) {
	clk := &fakeClock{t: time.Unix(100, 0)}
	r := NewWithClock(clk.Now)

	_, ok := r.Latest(2, KindFloat)
	assert.False(t, ok, "nothing received yet")

	r.Update(2, KindFloat, frame.FloatValue(3.5))
	v, ok := r.Latest(2, KindFloat)
	require.True(t, ok)
	assert.Equal(t, float32(3.5), v.Float())
	assert.Equal(t, clk.t, v.Updated)
}

func TestRegistry_KindsDoNotCollide(t *testing.T) {
	r := New()
	r.Update(7, KindBytes, []byte{1, 2, 3})
	r.Update(7, KindString, []byte("abc"))
	r.Update(7, KindStruct, []byte{9, 9})

	b, ok := r.Latest(7, KindBytes)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, b.Raw)
	s, ok := r.Latest(7, KindString)
	require.True(t, ok)
	assert.Equal(t, "abc", s.Text())
	assert.Equal(t, 3, r.Len())
}

// 乱序到达时缓存反映最后处理的值，不按时间戳重排
func TestRegistry_OutOfOrderArrival(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	r := NewWithClock(clk.Now)

	v1 := frame.Int32Value(1)
	v2 := frame.Int32Value(2)

	r.Update(5, KindInt32, v1)
	clk.t = clk.t.Add(time.Millisecond)
	r.Update(5, KindInt32, v2)
	clk.t = clk.t.Add(time.Millisecond)
	r.Update(5, KindInt32, v1)

	got, ok := r.Latest(5, KindInt32)
	require.True(t, ok)
	assert.Equal(t, int32(1), got.Int32())
}

func TestRegistry_CopiesInput(t *testing.T) {
	r := New()
	buf := []byte{1, 2}
	r.Update(1, KindBytes, buf)
	buf[0] = 0xFF
	v, _ := r.Latest(1, KindBytes)
	assert.Equal(t, byte(1), v.Raw[0])
}

// 订阅者或读取方修改拿到的字节不得污染缓存与其他订阅者
func TestRegistry_ReadersGetCopies(t *testing.T) {
	r := New()
	var second []byte
	r.SubscribeAll(func(_ uint8, v Value) { v.Raw[0] = 'X' })
	r.SubscribeAll(func(_ uint8, v Value) { second = v.Raw })

	r.Update(4, KindBytes, []byte("abc"))
	assert.Equal(t, []byte("abc"), second)

	v, ok := r.Latest(4, KindBytes)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), v.Raw)
	v.Raw[1] = 'Y'

	again, _ := r.Latest(4, KindBytes)
	assert.Equal(t, []byte("abc"), again.Raw)
	r.Snapshot()[0].Raw[2] = 'Z'
	again, _ = r.Latest(4, KindBytes)
	assert.Equal(t, []byte("abc"), again.Raw)
}

func TestRegistry_Subscribe(t *testing.T) {
	r := New()
	var got []int32
	var all int
	cancel := r.Subscribe(3, KindInt32, func(ch uint8, v Value) {
		assert.Equal(t, uint8(3), ch)
		got = append(got, v.Int32())
	})
	cancelAll := r.SubscribeAll(func(uint8, Value) { all++ })

	r.Update(3, KindInt32, frame.Int32Value(10))
	r.Update(3, KindFloat, frame.FloatValue(1))
	r.Update(4, KindInt32, frame.Int32Value(11))
	assert.Equal(t, []int32{10}, got)
	assert.Equal(t, 3, all)

	cancel()
	cancel()
	cancelAll()
	r.Update(3, KindInt32, frame.Int32Value(12))
	assert.Equal(t, []int32{10}, got)
	assert.Equal(t, 3, all)
}

func TestRegistry_HandlerMayReenter(t *testing.T) {
	r := New()
	r.Subscribe(1, KindBool, func(uint8, Value) {
		// 回调在锁外执行，可再次读写
		_, ok := r.Latest(1, KindBool)
		assert.True(t, ok)
		r.Update(2, KindBool, frame.BoolValue(true))
	})
	r.Update(1, KindBool, frame.BoolValue(true))
	v, ok := r.Latest(2, KindBool)
	require.True(t, ok)
	assert.True(t, v.Bool())
}

func TestRegistry_ClearAndSnapshot(t *testing.T) {
	r := New()
	r.Update(9, KindBool, frame.BoolValue(true))
	r.Update(2, KindString, []byte("x"))
	r.Update(2, KindFloat, frame.FloatValue(2))

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, uint8(2), snap[0].Channel)
	assert.Equal(t, KindFloat, snap[0].Kind)
	assert.Equal(t, KindString, snap[1].Kind)
	assert.Equal(t, uint8(9), snap[2].Channel)
	assert.Equal(t, true, snap[2].Display())

	called := false
	r.SubscribeAll(func(uint8, Value) { called = true })
	r.Clear()
	assert.Equal(t, 0, r.Len())
	r.Update(1, KindBool, frame.BoolValue(false))
	assert.True(t, called, "subscriptions survive Clear")
}

func TestKindOf(t *testing.T) {
	k, ok := KindOf(frame.TypeStruct)
	assert.True(t, ok)
	assert.Equal(t, KindStruct, k)
	assert.Equal(t, "struct", k.String())
	_, ok = KindOf(frame.Type(9))
	assert.False(t, ok)
}

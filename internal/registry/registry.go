package registry

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/taoyao-code/lbe-link/internal/protocol/frame"
)

// Kind 缓存值种类，与帧类型一一对应
type Kind uint8

const (
	KindBool Kind = iota
	KindInt32
	KindFloat
	KindString
	KindBytes
	KindStruct
)

func (k Kind) String() string { return frame.Type(k).String() }

// KindOf 帧类型 -> 值种类
func KindOf(t frame.Type) (Kind, bool) {
	if !t.Valid() {
		return 0, false
	}
	return Kind(t), true
}

// Value 通道最近一次收到的值
type Value struct {
	Kind    Kind
	Raw     []byte
	Updated time.Time
}

// clone 调用方拿到的都是独立副本，修改不影响缓存
func (v Value) clone() Value {
	v.Raw = append([]byte(nil), v.Raw...)
	return v
}

func (v Value) Bool() bool { return len(v.Raw) == 1 && v.Raw[0] != 0 }

func (v Value) Int32() int32 {
	if len(v.Raw) != 4 {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(v.Raw))
}

func (v Value) Float() float32 {
	if len(v.Raw) != 4 {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(v.Raw))
}

func (v Value) Text() string { return string(v.Raw) }

// Display 状态接口展示用
func (v Value) Display() any {
	switch v.Kind {
	case KindBool:
		return v.Bool()
	case KindInt32:
		return v.Int32()
	case KindFloat:
		return v.Float()
	case KindString:
		return v.Text()
	default:
		return fmt.Sprintf("%x", v.Raw)
	}
}

// Entry 快照条目
type Entry struct {
	Channel uint8
	Value
}

// Handler 值更新回调
type Handler func(channel uint8, v Value)

type key struct {
	channel uint8
	kind    Kind
}

type subscriber struct {
	id int
	fn Handler
}

// Registry 按 (通道, 种类) 缓存最近值并分发订阅
// 顺序以到达为准，不按时间戳重排
type Registry struct {
	mu     sync.RWMutex
	values map[key]Value
	subs   map[key][]subscriber
	all    []subscriber
	nextID int
	now    func() time.Time
}

func New() *Registry {
	return NewWithClock(time.Now)
}

// NewWithClock 使用指定时钟打时间戳
func NewWithClock(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		values: make(map[key]Value),
		subs:   make(map[key][]subscriber),
		now:    now,
	}
}

// Update 覆盖缓存值并同步调用订阅者（锁外调用）
func (r *Registry) Update(channel uint8, kind Kind, raw []byte) Value {
	k := key{channel, kind}
	v := Value{Kind: kind, Raw: append([]byte(nil), raw...), Updated: r.now()}

	r.mu.Lock()
	r.values[k] = v
	handlers := make([]Handler, 0, len(r.subs[k])+len(r.all))
	for _, s := range r.subs[k] {
		handlers = append(handlers, s.fn)
	}
	for _, s := range r.all {
		handlers = append(handlers, s.fn)
	}
	r.mu.Unlock()

	for _, fn := range handlers {
		fn(channel, v.clone())
	}
	return v.clone()
}

// Latest 轮询读取最近值
func (r *Registry) Latest(channel uint8, kind Kind) (Value, bool) {
	r.mu.RLock()
	v, ok := r.values[key{channel, kind}]
	r.mu.RUnlock()
	if !ok {
		return Value{}, false
	}
	return v.clone(), true
}

// Subscribe 订阅指定 (通道, 种类)，返回取消函数
func (r *Registry) Subscribe(channel uint8, kind Kind, fn Handler) (cancel func()) {
	k := key{channel, kind}
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subs[k] = append(r.subs[k], subscriber{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.subs[k] = without(r.subs[k], id)
			if len(r.subs[k]) == 0 {
				delete(r.subs, k)
			}
			r.mu.Unlock()
		})
	}
}

// SubscribeAll 订阅所有更新
func (r *Registry) SubscribeAll(fn Handler) (cancel func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.all = append(r.all, subscriber{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.all = without(r.all, id)
			r.mu.Unlock()
		})
	}
}

func without(list []subscriber, id int) []subscriber {
	out := list[:0:0]
	for _, s := range list {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// Clear 清空缓存值，订阅保留
func (r *Registry) Clear() {
	r.mu.Lock()
	r.values = make(map[key]Value)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}

// Snapshot 按通道、种类排序的全部缓存值
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.values))
	for k, v := range r.values {
		out = append(out, Entry{Channel: k.channel, Value: v.clone()})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Channel != out[j].Channel {
			return out[i].Channel < out[j].Channel
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

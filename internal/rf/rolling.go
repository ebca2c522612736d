package rf

import "sync"

// RollingCodes 按按键记录最近接受的滚动码
// 只接受 (last, last+window] 内的码；学习模式下接受任意码并记为新基准
type RollingCodes struct {
	mu       sync.Mutex
	window   uint32
	last     map[uint8]uint32
	learning bool
}

func NewRollingCodes(window uint32) *RollingCodes {
	if window == 0 {
		window = 16
	}
	return &RollingCodes{window: window, last: make(map[uint8]uint32)}
}

func (r *RollingCodes) SetLearning(enabled bool) {
	r.mu.Lock()
	r.learning = enabled
	r.mu.Unlock()
}

func (r *RollingCodes) Learning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.learning
}

// Validate 校验并在通过时推进基准
func (r *RollingCodes) Validate(button uint8, code uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	last, known := r.last[button]
	if r.learning {
		r.last[button] = code
		return true
	}
	if !known {
		return false
	}
	// 无符号差值自然处理 32 位回绕
	if d := code - last; d == 0 || d > r.window {
		return false
	}
	r.last[button] = code
	return true
}

// Learned 已学习的按键数
func (r *RollingCodes) Learned() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.last)
}

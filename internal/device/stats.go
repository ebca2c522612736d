package device

import "time"

// Stats 会话累计计数
type Stats struct {
	FramesSent     uint64            `json:"frames_sent"`
	FramesReceived uint64            `json:"frames_received"`
	FramesDropped  uint64            `json:"frames_dropped"`
	SendErrors     uint64            `json:"send_errors"`
	BytesSent      uint64            `json:"bytes_sent"`
	BytesReceived  uint64            `json:"bytes_received"`
	Drops          map[string]uint64 `json:"drops"`
	LastRx         time.Time         `json:"last_rx"`
}

// Stats 返回计数快照
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.stats
	out.Drops = make(map[string]uint64, len(s.stats.Drops))
	for k, v := range s.stats.Drops {
		out.Drops[k] = v
	}
	return out
}

// ChannelValue 状态接口中的通道值
type ChannelValue struct {
	Channel uint8     `json:"channel"`
	Kind    string    `json:"kind"`
	Value   any       `json:"value"`
	Updated time.Time `json:"updated"`
}

// Status 状态接口视图
type Status struct {
	Name      string         `json:"name"`
	SessionID string         `json:"session_id"`
	State     string         `json:"state"`
	Connected bool           `json:"connected"`
	Remote    string         `json:"remote"`
	Local     string         `json:"local,omitempty"`
	Security  string         `json:"security"`
	Stats     Stats          `json:"stats"`
	Channels  []ChannelValue `json:"channels,omitempty"`
}

// Status 汇总会话状态；withChannels 为 true 时附带通道缓存
func (s *Session) Status(withChannels bool) Status {
	st := Status{
		Name:      s.cfg.Name,
		SessionID: s.id,
		Security:  s.cfg.SecurityLevel,
		Stats:     s.Stats(),
	}
	state := s.State()
	st.State = state.String()
	st.Connected = state == StateConnected
	st.Remote = s.cfg.RemoteAddress
	if local := s.LocalAddr(); local.IsValid() {
		st.Local = local.String()
	}
	if withChannels {
		for _, e := range s.reg.Snapshot() {
			st.Channels = append(st.Channels, ChannelValue{
				Channel: e.Channel,
				Kind:    e.Kind.String(),
				Value:   e.Display(),
				Updated: e.Updated,
			})
		}
	}
	return st
}

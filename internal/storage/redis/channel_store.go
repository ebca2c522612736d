package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChannelRecord 一个通道值的镜像记录
type ChannelRecord struct {
	Device  string    `json:"device"`
	Channel uint8     `json:"channel"`
	Kind    string    `json:"kind"`
	Value   any       `json:"value"`
	Raw     []byte    `json:"raw"`
	Updated time.Time `json:"updated"`
}

// Field 哈希字段名：{channel}:{kind}
func (r ChannelRecord) Field() string {
	return fmt.Sprintf("%d:%s", r.Channel, r.Kind)
}

// Redis Key设计
//
//	{prefix}{device}  -> Hash[{channel}:{kind}] = ChannelRecord JSON
//	{prefix}updates   -> Pub/Sub 通道，发布每条 ChannelRecord
const updatesSuffix = "updates"

// ChannelStore 通道值镜像存储
type ChannelStore struct {
	client redis.UniversalClient
	prefix string
}

func NewChannelStore(client redis.UniversalClient, prefix string) *ChannelStore {
	if prefix == "" {
		prefix = "lbe:device:"
	}
	return &ChannelStore{client: client, prefix: prefix}
}

func (s *ChannelStore) deviceKey(device string) string { return s.prefix + device }

// UpdatesChannel 发布订阅通道名
func (s *ChannelStore) UpdatesChannel() string { return s.prefix + updatesSuffix }

// SubscribeUpdates 订阅全部设备的通道更新
func (s *ChannelStore) SubscribeUpdates(ctx context.Context) *redis.PubSub {
	return s.client.Subscribe(ctx, s.UpdatesChannel())
}

// Write 写入哈希并发布更新
func (s *ChannelStore) Write(ctx context.Context, rec ChannelRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal channel record: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.deviceKey(rec.Device), rec.Field(), b)
	pipe.Publish(ctx, s.UpdatesChannel(), b)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror channel %s/%s: %w", rec.Device, rec.Field(), err)
	}
	return nil
}

// ReadDevice 读取某设备全部镜像记录
func (s *ChannelStore) ReadDevice(ctx context.Context, device string) ([]ChannelRecord, error) {
	m, err := s.client.HGetAll(ctx, s.deviceKey(device)).Result()
	if err != nil {
		return nil, fmt.Errorf("read device %s: %w", device, err)
	}
	out := make([]ChannelRecord, 0, len(m))
	for _, v := range m {
		var rec ChannelRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// ClearDevice 删除设备镜像（会话断开时）
func (s *ChannelStore) ClearDevice(ctx context.Context, device string) error {
	return s.client.Del(ctx, s.deviceKey(device)).Err()
}

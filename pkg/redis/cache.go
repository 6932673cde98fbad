package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
)

// Cache keeps JSON values under "<prefix>:cache:<key>". Payloads past
// compressAbove bytes are stored zstd-compressed (full SPX chains run to MBs).
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a cache helper on client
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// TTLs
const (
	TTLSnapshot  = 15 * time.Minute // CBOE delayed quotes (15분 지연)
	TTLReference = 24 * time.Hour   // 심볼/인덱스 디렉토리
)

// SnapshotKey is the key of a ticker snapshot
func SnapshotKey(symbol string) string {
	return "snapshot:" + strings.ToUpper(symbol)
}

// ReferenceKey is the key of a reference directory
func ReferenceKey(name string) string {
	return "reference:" + name
}

func (c *Cache) key(key string) string {
	return c.prefix + ":cache:" + key
}

// Get decodes the value under key into dest; found is false on a miss
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := decodePayload(data, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key for ttl
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := encodePayload(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.setRaw(ctx, key, data, ttl)
}

func (c *Cache) setRaw(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.client.Redis().Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.key(key)).Err()
}

// GetOrSet fills dest from the cache, or from fn on a miss (storing the result).
// dest always goes through the encoded form so hits and misses decode alike.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	found, err := c.Get(ctx, key, dest)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	value, err := fn()
	if err != nil {
		return err
	}
	data, err := encodePayload(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}

	if c.client.Enabled() {
		// 저장 실패해도 값은 반환
		_ = c.setRaw(ctx, key, data, ttl)
	}
	return decodePayload(data, dest)
}

// 페이로드 첫 바이트: 'z' = zstd(JSON), 'j' = JSON
const (
	frameJSON     byte = 'j'
	frameZstd     byte = 'z'
	compressAbove      = 4 << 10
)

// EncodeAll / DecodeAll은 동시 호출 가능
var (
	payloadEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	payloadDecoder, _ = zstd.NewReader(nil)
)

func encodePayload(value interface{}) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if len(raw) <= compressAbove {
		return append([]byte{frameJSON}, raw...), nil
	}
	return payloadEncoder.EncodeAll(raw, []byte{frameZstd}), nil
}

func decodePayload(data []byte, dest interface{}) error {
	if len(data) == 0 {
		return errors.New("empty payload")
	}

	raw := data[1:]
	switch data[0] {
	case frameJSON:
	case frameZstd:
		var err error
		if raw, err = payloadDecoder.DecodeAll(raw, nil); err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
	default:
		// 헤더 없는 JSON
		raw = data
	}
	return json.Unmarshal(raw, dest)
}

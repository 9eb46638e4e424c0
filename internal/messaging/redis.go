package messaging

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gate-service/internal/logger"
	"gate-service/internal/types"

	"github.com/redis/go-redis/v9"
)

// Published state hashes. Each hash is also the notification channel for its fields.
const (
	GateHash   = "gate"
	SenderHash = "sender"
)

// RedisClient is the node's view of redis: the persistent key-value namespace, state
// publishing and OTA signalling.
type RedisClient struct {
	client    *redis.Client
	logger    *logger.Logger
	node      string
	namespace string
	ctx       context.Context
	cancel    context.CancelFunc

	mu      sync.Mutex
	pending map[string]uint32
}

// NewRedisClient creates a client for node ("gate" or "sender") storing counters in the
// namespace hash.
func NewRedisClient(host string, port int, node, namespace string, l *logger.Logger) *RedisClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", host, port),
			DB:   0,
		}),
		logger:    l,
		node:      node,
		namespace: namespace,
		ctx:       ctx,
		cancel:    cancel,
		pending:   make(map[string]uint32),
	}
}

func (r *RedisClient) Connect() error {
	r.logger.Infof("Attempting to connect to Redis at %s", r.client.Options().Addr)

	if err := r.client.Ping(r.ctx).Err(); err != nil {
		return fmt.Errorf("Redis connection failed: %w", err)
	}
	r.logger.Infof("Successfully connected to Redis")
	return nil
}

// Client exposes the underlying connection for the radio bridge.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}

// GetUint32 reads key from the namespace hash. A missing field reports found=false.
func (r *RedisClient) GetUint32(key string) (uint32, bool, error) {
	value, err := r.client.HGet(r.ctx, r.namespace, key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read %s/%s: %w", r.namespace, key, err)
	}
	v, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, false, fmt.Errorf("invalid value %q for %s/%s: %w", value, r.namespace, key, err)
	}
	return uint32(v), true, nil
}

// SetUint32 stages a write; nothing reaches redis until Commit.
func (r *RedisClient) SetUint32(key string, value uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[key] = value
	return nil
}

// Commit writes all staged values in one pipeline.
func (r *RedisClient) Commit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for key, value := range r.pending {
		pipe.HSet(r.ctx, r.namespace, key, strconv.FormatUint(uint64(value), 10))
	}
	if _, err := pipe.Exec(r.ctx); err != nil {
		return fmt.Errorf("failed to commit %s: %w", r.namespace, err)
	}
	r.pending = make(map[string]uint32)
	return nil
}

// publishHashSet is a helper that atomically updates a hash field and publishes a notification
func (r *RedisClient) publishHashSet(hash, field string, value interface{}, channel, payload string) error {
	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, hash, field, value)
	pipe.Publish(r.ctx, channel, payload)
	_, err := pipe.Exec(r.ctx)
	return err
}

func (r *RedisClient) publishState(hash, state string) error {
	timestamp := time.Now().Format(time.RFC3339)

	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, hash, "state", state)
	pipe.HSet(r.ctx, hash, "state:timestamp", timestamp)
	pipe.Publish(r.ctx, hash, "state")
	if _, err := pipe.Exec(r.ctx); err != nil {
		r.logger.Warnf("Failed to publish %s state: %v", hash, err)
		return err
	}
	r.logger.Debugf("Published %s state %s at %s", hash, state, timestamp)
	return nil
}

func (r *RedisClient) PublishGateState(state types.GateState) error {
	return r.publishState(GateHash, string(state))
}

func (r *RedisClient) PublishSenderState(state types.SenderState) error {
	return r.publishState(SenderHash, string(state))
}

// SetOtaMode records the node's OTA mode and asks the updater to start or stop.
func (r *RedisClient) SetOtaMode(enabled bool) error {
	value, command := "off", "stop"
	if enabled {
		value, command = "on", "start"
	}

	if err := r.publishHashSet(r.node, "ota", value, r.node, "ota"); err != nil {
		r.logger.Warnf("Failed to set OTA mode: %v", err)
		return err
	}
	return r.SendCommand(r.node+":ota", command)
}

func (r *RedisClient) SendCommand(channel, command string) error {
	err := r.client.LPush(r.ctx, channel, command).Err()
	if err != nil {
		r.logger.Warnf("Failed to send command '%s' to channel '%s': %v", command, channel, err)
		return err
	}
	r.logger.Infof("Sent command '%s' to channel '%s'", command, channel)
	return nil
}

// GetHash returns every field of hash.
func (r *RedisClient) GetHash(hash string) (map[string]string, error) {
	values, err := r.client.HGetAll(r.ctx, hash).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", hash, err)
	}
	return values, nil
}

func (r *RedisClient) Close() error {
	r.logger.Infof("Closing Redis client")
	r.cancel()
	return r.client.Close()
}

package radio

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"gate-service/internal/clock"
	"gate-service/internal/logger"

	"github.com/redis/go-redis/v9"
)

// RedisBridge talks to the radio dongle daemon through redis.
//
//	radio:<node>:rx   channel, payload "<rssi> <hex>"
//	radio:<node>:ack  channel, payload "ok" or "fail"
//	radio:<node>:tx   list, entries "<mac> <hex>"
type RedisBridge struct {
	client *redis.Client
	node   string
	clock  clock.Clock
	logger *logger.Logger

	mu        sync.RWMutex
	onReceive func(Frame)
	onAck     func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRedisBridge(client *redis.Client, node string, clk clock.Clock, l *logger.Logger) *RedisBridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisBridge{
		client: client,
		node:   node,
		clock:  clk,
		logger: l,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (b *RedisBridge) rxChannel() string  { return fmt.Sprintf("radio:%s:rx", b.node) }
func (b *RedisBridge) ackChannel() string { return fmt.Sprintf("radio:%s:ack", b.node) }
func (b *RedisBridge) txKey() string      { return fmt.Sprintf("radio:%s:tx", b.node) }

func (b *RedisBridge) OnReceive(handler func(Frame)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onReceive = handler
}

func (b *RedisBridge) OnSendAck(handler func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onAck = handler
}

// Start subscribes to the node's rx and ack channels.
func (b *RedisBridge) Start() error {
	pubsub := b.client.Subscribe(b.ctx, b.rxChannel(), b.ackChannel())
	if _, err := pubsub.Receive(b.ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("failed to subscribe to radio channels: %w", err)
	}
	b.logger.Infof("Subscribed to %s, %s", b.rxChannel(), b.ackChannel())

	b.wg.Add(1)
	go b.listen(pubsub)
	return nil
}

func (b *RedisBridge) listen(pubsub *redis.PubSub) {
	defer b.wg.Done()
	defer pubsub.Close()

	channel := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-channel:
			if !ok {
				b.logger.Errorf("Radio channel closed unexpectedly")
				return
			}
			b.handleMessage(msg.Channel, msg.Payload)
		}
	}
}

func (b *RedisBridge) handleMessage(channel, payload string) {
	switch channel {
	case b.rxChannel():
		rssi, data, err := ParseRxPayload(payload)
		if err != nil {
			b.logger.Debugf("Dropping malformed radio frame %q: %v", payload, err)
			return
		}
		b.mu.RLock()
		handler := b.onReceive
		b.mu.RUnlock()
		if handler != nil {
			handler(Frame{Data: data, RSSI: rssi, Timestamp: b.clock.Now()})
		}

	case b.ackChannel():
		if payload != "ok" {
			b.logger.Debugf("Send not acknowledged: %s", payload)
			return
		}
		b.mu.RLock()
		handler := b.onAck
		b.mu.RUnlock()
		if handler != nil {
			handler()
		}
	}
}

// Send queues data for transmission by the dongle.
func (b *RedisBridge) Send(dest net.HardwareAddr, data []byte) error {
	entry := FormatTxEntry(dest, data)
	if err := b.client.LPush(b.ctx, b.txKey(), entry).Err(); err != nil {
		return fmt.Errorf("failed to queue radio frame: %w", err)
	}
	return nil
}

func (b *RedisBridge) Close() error {
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		b.logger.Warnf("Timeout waiting for radio listener to stop")
	}
	return nil
}

// ParseRxPayload splits "<rssi> <hex>". RSSI may be given as signed dBm; it is kept as the
// raw byte the radio reports.
func ParseRxPayload(payload string) (uint8, []byte, error) {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return 0, nil, fmt.Errorf("expected 2 fields, got %d", len(fields))
	}
	rssi, err := strconv.ParseInt(fields[0], 10, 16)
	if err != nil || rssi < -128 || rssi > 255 {
		return 0, nil, fmt.Errorf("invalid rssi %q", fields[0])
	}
	data, err := hex.DecodeString(fields[1])
	if err != nil {
		return 0, nil, fmt.Errorf("invalid frame data: %w", err)
	}
	return uint8(rssi), data, nil
}

func FormatTxEntry(dest net.HardwareAddr, data []byte) string {
	return dest.String() + " " + hex.EncodeToString(data)
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	applog "github.com/jwebster45206/deadtown/internal/logger"
	core "github.com/jwebster45206/deadtown/pkg/events"
)

// DefaultBufferSize is how many messages may wait for Redis before new ones
// are dropped.
const DefaultBufferSize = 256

const publishTimeout = 5 * time.Second

// Message is the wire form of a core event on the Redis channel.
type Message struct {
	Type   core.Topic      `json:"type"`
	GameID string          `json:"game_id"`
	Seq    uint64          `json:"seq"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Channel returns the Redis channel carrying a game's events.
func Channel(gameID uuid.UUID) string {
	return fmt.Sprintf("game-events:%s", gameID.String())
}

type outbound struct {
	channel string
	msg     Message
}

// Broadcaster mirrors session events to Redis Pub/Sub for SSE distribution.
// Core handlers only enqueue; Run does the network I/O, so a slow or absent
// Redis never stalls a tick.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
	queue       chan outbound
	dropped     atomic.Uint64
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, bufferSize int, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = applog.Discard()
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
		queue:       make(chan outbound, bufferSize),
	}
}

// Attach subscribes a forwarder for gameID to every presentation topic on ch.
// The returned handler can be passed to ch.UnsubscribeAll.
func (b *Broadcaster) Attach(gameID uuid.UUID, ch *core.Channel) core.Handler {
	f := &forwarder{b: b, gameID: gameID, channel: Channel(gameID)}
	ch.SubscribeAll(f, core.PresentationTopics...)
	return f
}

// Dropped reports how many messages were discarded because the queue was full.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Run publishes queued messages until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	b.logger.Info("Event broadcaster started")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Event broadcaster stopped", "pending", len(b.queue))
			return
		case out := <-b.queue:
			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			_ = b.Publish(pubCtx, out.channel, out.msg)
			cancel()
		}
	}
}

// Publish sends one message to a Redis channel immediately.
func (b *Broadcaster) Publish(ctx context.Context, channel string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "type", msg.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", msg.Type,
		"seq", msg.Seq,
	)
	return nil
}

func (b *Broadcaster) enqueue(out outbound) {
	select {
	case b.queue <- out:
	default:
		b.dropped.Add(1)
		b.logger.Warn("Broadcast queue full, event dropped", "channel", out.channel, "event_type", out.msg.Type)
	}
}

// forwarder is the per-session core handler.
type forwarder struct {
	b       *Broadcaster
	gameID  uuid.UUID
	channel string
	seq     uint64
}

func (f *forwarder) HandleEvent(ev core.Event) {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		f.b.logger.Error("Failed to marshal event payload", "error", err, "type", ev.Topic)
		return
	}
	f.seq++
	f.b.enqueue(outbound{
		channel: f.channel,
		msg: Message{
			Type:   ev.Topic,
			GameID: f.gameID.String(),
			Seq:    f.seq,
			Data:   data,
		},
	})
}

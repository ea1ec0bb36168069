package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"CryptoScorer/internal/model"
)

// Event is the payload published for every evaluation.
type Event struct {
	Pair      string              `json:"pair"`
	Timestamp int64               `json:"timestamp"`
	Price     float64             `json:"price"`
	Score     float64             `json:"score"`
	Live      bool                `json:"includes_live"`
	Factors   []model.FactorScore `json:"factors"`
	Order     *model.Order        `json:"order,omitempty"`
}

// NewEvent builds an Event from a signal and the order it produced, if any.
func NewEvent(pair string, sig *model.Signal, order *model.Order) Event {
	return Event{
		Pair:      pair,
		Timestamp: sig.Timestamp,
		Price:     sig.Price,
		Score:     sig.Score,
		Live:      sig.IncludesLive,
		Factors:   sig.Factors,
		Order:     order,
	}
}

// Publisher fans evaluation events out to other consumers.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NoopPublisher drops every event; used when Redis is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// RedisPublisher publishes events as JSON on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *goredis.Client
	channel string
}

// NewRedisPublisher connects to Redis and pings the server.
func NewRedisPublisher(addr, password string, db int, channel string) (*RedisPublisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[INFO] redis publisher connected to %s (channel=%s)", addr, channel)
	return &RedisPublisher{client: client, channel: channel}, nil
}

func (r *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (r *RedisPublisher) Close() error {
	return r.client.Close()
}

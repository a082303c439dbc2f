// Package relay mirrors every lot snapshot into Redis so other services
// can subscribe to lot changes without holding a websocket.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
	"github.com/redis/go-redis/v9"
)

// Relay publishes snapshots to a Redis channel and keeps the latest one
// under a key. Publish never blocks; when Redis falls behind only the
// newest pending snapshot is kept.
type Relay struct {
	client  *redis.Client
	channel string
	key     string
	pending chan []byte
}

func New(client *redis.Client, channel, key string) *Relay {
	return &Relay{
		client:  client,
		channel: channel,
		key:     key,
		pending: make(chan []byte, 1),
	}
}

// Dial connects to addr and checks the connection.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Publish queues snap for the writer loop. It satisfies lot.Publisher.
func (r *Relay) Publish(snap lot.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("relay: marshal error: %v", err)
		return
	}
	for {
		select {
		case r.pending <- data:
			return
		default:
		}
		// Replace the stale pending snapshot.
		select {
		case <-r.pending:
		default:
		}
	}
}

// Run writes queued snapshots until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-r.pending:
			if err := r.write(ctx, data); err != nil && ctx.Err() == nil {
				log.Printf("relay: %v", err)
			}
		}
	}
}

func (r *Relay) write(ctx context.Context, data []byte) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key, data, 0)
		pipe.Publish(ctx, r.channel, data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Latest reads the last snapshot written to Redis.
func (r *Relay) Latest(ctx context.Context) (lot.Snapshot, error) {
	var snap lot.Snapshot
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		return snap, fmt.Errorf("get %s: %w", r.key, err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode %s: %w", r.key, err)
	}
	return snap, nil
}

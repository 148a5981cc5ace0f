package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/civicworks/sitelore-backend/internal/platform/logger"
)

type SyncEventKind string

const (
	SyncUpsert SyncEventKind = "upsert"
	SyncDelete SyncEventKind = "delete"
)

// SyncEvent asks the vector-sync worker to refresh or prune the retrieval
// index for one project type. Delivery is at-least-once with no ordering
// guarantee; consumers must tolerate duplicates.
type SyncEvent struct {
	Kind        SyncEventKind `json:"kind"`
	ProjectType string        `json:"project_type"`
	LessonIDs   []string      `json:"lesson_ids,omitempty"`
}

// SyncBus decouples the merge engine from the vector index: producers
// publish and return immediately, the forwarder processes independently.
type SyncBus interface {
	Publish(ctx context.Context, ev SyncEvent) error
	StartForwarder(ctx context.Context, onEvent func(ev SyncEvent)) error
	Close() error
}

type syncBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewSyncBus(log *logger.Logger) (SyncBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_SYNC_CHANNEL"))
	if ch == "" {
		ch = "vector-sync"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &syncBus{
		log:     log.With("service", "RedisSyncBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *syncBus) Publish(ctx context.Context, ev SyncEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("sync bus not initialized")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal sync event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish sync event: %w", err)
	}
	return nil
}

// StartForwarder subscribes and dispatches events until ctx is done. It
// reconnects on subscription errors instead of giving up.
func (b *syncBus) StartForwarder(ctx context.Context, onEvent func(ev SyncEvent)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("sync bus not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent required")
	}

	go func() {
		for {
			if ctx.Err() != nil {
				return
			}
			sub := b.rdb.Subscribe(ctx, b.channel)
			ch := sub.Channel()
			b.log.Info("Sync forwarder subscribed", "channel", b.channel)

		recv:
			for {
				select {
				case <-ctx.Done():
					_ = sub.Close()
					return
				case msg, ok := <-ch:
					if !ok {
						break recv
					}
					var ev SyncEvent
					if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
						b.log.Warn("Dropping malformed sync event", "error", err)
						continue
					}
					onEvent(ev)
				}
			}
			_ = sub.Close()
			b.log.Warn("Sync subscription lost; resubscribing")
			time.Sleep(time.Second)
		}
	}()
	return nil
}

func (b *syncBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

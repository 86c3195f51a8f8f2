package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is one line of the recent-contacts log.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"createdAt"`
}

// Log is a bounded append-only record of recent submissions, kept for operators only.
type Log interface {
	Record(ctx context.Context, e Entry) error
	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]Entry, error)
}

// Ring is an in-process Log holding the newest cap entries.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 100
	}
	return &Ring{entries: make([]Entry, capacity)}
}

func (r *Ring) Record(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

func (r *Ring) Recent(_ context.Context, n int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	size := r.next
	if r.full {
		size = len(r.entries)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]Entry, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, r.entries[(r.next-i+len(r.entries))%len(r.entries)])
	}
	return out, nil
}

// RedisLog keeps the log in a capped Redis list so every API replica sees the same entries.
type RedisLog struct {
	client   *redis.Client
	key      string
	capacity int64
}

func NewRedisLog(client *redis.Client, key string, capacity int) *RedisLog {
	if key == "" {
		key = "campus:contacts:recent"
	}
	if capacity <= 0 {
		capacity = 100
	}
	return &RedisLog{client: client, key: key, capacity: int64(capacity)}
}

func (l *RedisLog) Record(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	pipe := l.client.TxPipeline()
	pipe.LPush(ctx, l.key, payload)
	pipe.LTrim(ctx, l.key, 0, l.capacity-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record contact: %w", err)
	}
	return nil
}

func (l *RedisLog) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 || int64(n) > l.capacity {
		n = int(l.capacity)
	}
	raw, err := l.client.LRange(ctx, l.key, 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("recent contacts: %w", err)
	}
	out := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

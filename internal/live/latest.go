package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	"github.com/redis/go-redis/v9"
)

// LatestStore keeps the last live reading per sensor so new clients can
// render current values before the next event arrives.
type LatestStore interface {
	Put(ctx context.Context, reading models.LiveReading) error
	All(ctx context.Context) (map[string]models.LiveReading, error)
}

// MemoryStore is the in-process LatestStore used when redis is not configured.
type MemoryStore struct {
	mu     sync.RWMutex
	latest map[string]models.LiveReading
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{latest: make(map[string]models.LiveReading)}
}

func (m *MemoryStore) Put(_ context.Context, reading models.LiveReading) error {
	m.mu.Lock()
	m.latest[reading.SensorID] = reading
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) All(_ context.Context) (map[string]models.LiveReading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]models.LiveReading, len(m.latest))
	for k, v := range m.latest {
		out[k] = v
	}
	return out, nil
}

const latestKey = "clima:latest"

// RedisStore keeps latest readings in one redis hash keyed by sensor id,
// so several service instances share the same view.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: latestKey}
}

func (r *RedisStore) Put(ctx context.Context, reading models.LiveReading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.key, reading.SensorID, data).Err()
}

func (r *RedisStore) All(ctx context.Context) (map[string]models.LiveReading, error) {
	raw, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.LiveReading, len(raw))
	for id, v := range raw {
		var reading models.LiveReading
		if err := json.Unmarshal([]byte(v), &reading); err != nil {
			return nil, fmt.Errorf("corrupt latest reading for %s: %w", id, err)
		}
		out[id] = reading
	}
	return out, nil
}

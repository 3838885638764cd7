package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/seepananikhil/PennyWhales/pkg/models"
)

const (
	stateKey       = "scan:state"
	resultsKey     = "scan:results"
	resultsChannel = "scan.results"
)

// Compile-time checks
var (
	_ StateStore   = (*RedisStore)(nil)
	_ ResultsStore = (*RedisStore)(nil)
)

// RedisStore shares scan state and the latest results snapshot across
// scanner instances. Saving results also publishes the payload so live
// dashboards pick up new runs without polling.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) LoadState(ctx context.Context) (models.ScanState, error) {
	payload, err := r.client.Get(ctx, stateKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.ScanState{}, nil
		}
		return models.ScanState{}, fmt.Errorf("loading scan state from redis: %w", err)
	}

	var state models.ScanState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return models.ScanState{}, fmt.Errorf("decoding scan state: %w", err)
	}
	return state, nil
}

func (r *RedisStore) SaveState(ctx context.Context, state models.ScanState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding scan state: %w", err)
	}
	if err := r.client.Set(ctx, stateKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("saving scan state to redis: %w", err)
	}
	return nil
}

func (r *RedisStore) SaveResults(ctx context.Context, results *models.ScanResults) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encoding scan results: %w", err)
	}

	// Atomic SET + PUBLISH so subscribers never see a key lagging the
	// notification.
	pipe := r.client.Pipeline()
	pipe.Set(ctx, resultsKey, payload, 0)
	pipe.Publish(ctx, resultsChannel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving scan results to redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Package redisstore keeps import runs in Redis so any server instance can
// serve run lookups and retries.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/service/shipimport"
)

// DefaultRunTTL is how long a run stays retryable.
const DefaultRunTTL = shipimport.DefaultRunTTL

const runKeyPrefix = "import:run:"

// RunStore implements shipimport.RunStore as JSON values with a TTL.
type RunStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRunStore creates a store. A zero ttl means DefaultRunTTL.
func NewRunStore(client *redis.Client, ttl time.Duration) *RunStore {
	if ttl <= 0 {
		ttl = DefaultRunTTL
	}
	return &RunStore{client: client, ttl: ttl}
}

func runKey(id string) string { return runKeyPrefix + id }

func (s *RunStore) Save(ctx context.Context, run *domain.ImportRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", run.ID, err)
	}
	if err := s.client.Set(ctx, runKey(run.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *RunStore) Get(ctx context.Context, id string) (*domain.ImportRun, error) {
	data, err := s.client.Get(ctx, runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shipimport.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	var run domain.ImportRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

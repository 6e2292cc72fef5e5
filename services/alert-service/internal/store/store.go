// Package store persists per-user state documents with optimistic versioning.
//
// Every backend stores the full UserState as JSON next to its version. Put succeeds only
// when the caller's state.Version equals the stored version (0 for a user that has never
// been written) and bumps state.Version on success.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Backend is a user-state store that owns a connection.
type Backend interface {
	Get(ctx context.Context, userID string) (*models.UserState, error)
	Put(ctx context.Context, state *models.UserState) error
	NotificationLedger
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend     string
	PostgresDSN string
	RedisAddr   string
	RedisPrefix string
}

// Open connects the configured backend.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendPostgres:
		db, err := NewDB(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	case BackendRedis:
		return NewRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// encode validates state and serializes it as it will look after the write, that is
// with the next version.
func encode(state *models.UserState) ([]byte, error) {
	if state == nil {
		return nil, apperr.Validation("state is required")
	}
	if err := state.Validate(); err != nil {
		return nil, apperr.Validation("%v", err)
	}
	next := *state
	next.Version = state.Version + 1
	data, err := json.Marshal(&next)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user state: %w", err)
	}
	return data, nil
}

func decode(data []byte, version int64) (*models.UserState, error) {
	var state models.UserState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user state: %w", err)
	}
	state.Version = version
	return &state, nil
}

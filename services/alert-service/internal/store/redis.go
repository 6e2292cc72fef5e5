package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/afikmenashe/travel-alerting/pkg/shared"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// DefaultRedisPrefix namespaces user-state keys.
const DefaultRedisPrefix = "travel:user_state:"

// casScript writes the state only when the stored version equals ARGV[1].
// It returns {1, new_version} on success and {0, stored_version} on conflict.
var casScript = redis.NewScript(`
local current = tonumber(redis.call('HGET', KEYS[1], 'version') or '0')
if current ~= tonumber(ARGV[1]) then
	return {0, current}
end
redis.call('HSET', KEYS[1], 'version', ARGV[2], 'state', ARGV[3])
return {1, tonumber(ARGV[2])}
`)

// Redis stores each user's state in a hash holding the version and the JSON document.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis at addr.
func NewRedis(ctx context.Context, addr, prefix string) (*Redis, error) {
	client, err := shared.ConnectRedis(ctx, addr)
	if err != nil {
		return nil, err
	}
	return NewRedisWithClient(client, prefix), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(userID string) string {
	return r.prefix + userID
}

// Get loads the user's state.
func (r *Redis) Get(ctx context.Context, userID string) (*models.UserState, error) {
	fields, err := r.client.HGetAll(ctx, r.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}
	data, ok := fields["state"]
	if !ok {
		return nil, apperr.NotFound("user", userID)
	}
	version, err := strconv.ParseInt(fields["version"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse version for user %s: %w", userID, err)
	}
	return decode([]byte(data), version)
}

// Put writes state atomically if its version is current.
func (r *Redis) Put(ctx context.Context, state *models.UserState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}
	next := state.Version + 1

	res, err := casScript.Run(ctx, r.client, []string{r.key(state.UserID)}, state.Version, next, data).Int64Slice()
	if err != nil {
		return fmt.Errorf("failed to put user state: %w", err)
	}
	if len(res) != 2 {
		return fmt.Errorf("unexpected compare-and-set reply %v", res)
	}
	if res[0] == 0 {
		return &apperr.ConflictError{UserID: state.UserID, ExpectedVersion: state.Version, ActualVersion: res[1]}
	}
	state.Version = next
	return nil
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

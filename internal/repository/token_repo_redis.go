package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staffingauth/internal/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var redisCreateScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 1 then
  return 0
end
redis.call("HSET", key,
  "id", ARGV[1],
  "user_id", ARGV[2],
  "email", ARGV[3],
  "purpose", ARGV[4],
  "issued_at", ARGV[5],
  "expires_at", ARGV[6],
  "consumed_at", "")
redis.call("PEXPIREAT", key, ARGV[7])
return 1
`)

// Sets consumed_at only while it is still empty. Returns 1 on success.
var redisConsumeScript = redis.NewScript(`
local key = KEYS[1]
local id = ARGV[1]
local consumed_at = ARGV[2]

if redis.call("EXISTS", key) == 0 then
  return 0
end
if redis.call("HGET", key, "id") ~= id then
  return 0
end
local current = redis.call("HGET", key, "consumed_at")
if current and current ~= "" then
  return 0
end
redis.call("HSET", key, "consumed_at", consumed_at)
return 1
`)

var redisReleaseScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("HGET", key, "id") ~= ARGV[1] then
  return 0
end
redis.call("HSET", key, "consumed_at", "")
return 1
`)

var ErrDuplicateToken = errors.New("token hash already exists")

type RedisTokenRepository struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedisTokenRepository stores one hash per token. Keys outlive expires_at by
// retention so that late redemptions still report expiry.
func NewRedisTokenRepository(client redis.UniversalClient, prefix string, retention time.Duration) *RedisTokenRepository {
	if prefix == "" {
		prefix = "tok"
	}
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &RedisTokenRepository{client: client, prefix: prefix, retention: retention}
}

func (r *RedisTokenRepository) key(tokenHash string) string {
	return fmt.Sprintf("%s:%s", r.prefix, tokenHash)
}

func (r *RedisTokenRepository) Create(ctx context.Context, t *entity.Token) error {
	if r.client == nil {
		return errors.New("redis client is nil")
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	created, err := redisCreateScript.Run(ctx, r.client, []string{r.key(t.TokenHash)},
		t.ID.String(),
		t.UserID.String(),
		t.Email,
		string(t.Purpose),
		formatRedisTime(t.IssuedAt),
		formatRedisTime(t.ExpiresAt),
		t.ExpiresAt.Add(r.retention).UnixMilli(),
	).Int64()
	if err != nil {
		return err
	}
	if created != 1 {
		return ErrDuplicateToken
	}
	return nil
}

func (r *RedisTokenRepository) FindActive(
	ctx context.Context,
	tokenHash string,
	purpose entity.TokenPurpose,
) (*entity.Token, error) {
	if r.client == nil {
		return nil, errors.New("redis client is nil")
	}
	values, err := r.client.HGetAll(ctx, r.key(tokenHash)).Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 || values["consumed_at"] != "" {
		return nil, nil
	}
	if entity.TokenPurpose(values["purpose"]) != purpose {
		return nil, nil
	}
	return decodeRedisToken(tokenHash, values)
}

// Consume matches on both hash and id so a recreated key cannot be consumed
// through a stale read.
func (r *RedisTokenRepository) Consume(ctx context.Context, t *entity.Token, now time.Time) (bool, error) {
	if r.client == nil {
		return false, errors.New("redis client is nil")
	}
	n, err := redisConsumeScript.Run(ctx, r.client, []string{r.key(t.TokenHash)}, t.ID.String(), formatRedisTime(now)).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisTokenRepository) Release(ctx context.Context, t *entity.Token) error {
	if r.client == nil {
		return errors.New("redis client is nil")
	}
	return redisReleaseScript.Run(ctx, r.client, []string{r.key(t.TokenHash)}, t.ID.String()).Err()
}

// DeleteExpired is a no-op: keys expire on their own.
func (r *RedisTokenRepository) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func decodeRedisToken(tokenHash string, values map[string]string) (*entity.Token, error) {
	id, err := uuid.Parse(values["id"])
	if err != nil {
		return nil, fmt.Errorf("decode token id: %w", err)
	}
	userID, err := uuid.Parse(values["user_id"])
	if err != nil {
		return nil, fmt.Errorf("decode token user_id: %w", err)
	}
	issuedAt, err := parseRedisTime(values["issued_at"])
	if err != nil {
		return nil, fmt.Errorf("decode token issued_at: %w", err)
	}
	expiresAt, err := parseRedisTime(values["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("decode token expires_at: %w", err)
	}
	return &entity.Token{
		ID:        id,
		UserID:    userID,
		TokenHash: tokenHash,
		Email:     values["email"],
		Purpose:   entity.TokenPurpose(values["purpose"]),
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

func formatRedisTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseRedisTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}

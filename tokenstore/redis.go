package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisFieldAccess  = "access"
	redisFieldRefresh = "refresh"
)

// RedisPersister stores credentials in a single Redis hash.
//
// Key layout: "<prefix>:tokens:<owner>". A zero ttl keeps the key forever.
type RedisPersister struct {
	redis redis.UniversalClient
	key   string
	ttl   time.Duration
}

// NewRedisPersister creates a persister for one credential owner (usually a
// device or user id).
func NewRedisPersister(client redis.UniversalClient, prefix, owner string, ttl time.Duration) (*RedisPersister, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, errors.New("redis token owner required")
	}
	if ttl < 0 {
		return nil, errors.New("redis token ttl must be >= 0")
	}
	if prefix == "" {
		prefix = "gac"
	}
	return &RedisPersister{
		redis: client,
		key:   prefix + ":tokens:" + owner,
		ttl:   ttl,
	}, nil
}

// Key returns the hash key used for storage.
func (p *RedisPersister) Key() string { return p.key }

func (p *RedisPersister) Load(ctx context.Context) (Credentials, error) {
	vals, err := p.redis.HGetAll(ctx, p.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("redis load tokens: %w", err)
	}
	return Credentials{
		AccessToken:  vals[redisFieldAccess],
		RefreshToken: vals[redisFieldRefresh],
	}, nil
}

func (p *RedisPersister) Save(ctx context.Context, creds Credentials) error {
	_, err := p.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, p.key)
		fields := make(map[string]any, 2)
		if creds.AccessToken != "" {
			fields[redisFieldAccess] = creds.AccessToken
		}
		if creds.RefreshToken != "" {
			fields[redisFieldRefresh] = creds.RefreshToken
		}
		if len(fields) == 0 {
			return nil
		}
		pipe.HSet(ctx, p.key, fields)
		if p.ttl > 0 {
			pipe.Expire(ctx, p.key, p.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save tokens: %w", err)
	}
	return nil
}

func (p *RedisPersister) Clear(ctx context.Context) error {
	if err := p.redis.Del(ctx, p.key).Err(); err != nil {
		return fmt.Errorf("redis clear tokens: %w", err)
	}
	return nil
}

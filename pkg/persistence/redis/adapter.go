// Package redis provides a Redis-backed persistence adapter for deployments
// that already run a shared cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hhszzzz/Graduation-Design/pkg/persistence"
)

type Config struct {
	Address     string
	Username    string
	Password    string
	Database    int
	Namespace   string
	DialTimeout time.Duration
}

type Adapter struct {
	client    *redis.Client
	namespace string
}

var _ persistence.Store = (*Adapter)(nil)

func NewAdapter(config Config) (*Adapter, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("redis adapter: address is required")
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        config.Address,
		Username:    config.Username,
		Password:    config.Password,
		DB:          config.Database,
		DialTimeout: config.DialTimeout,
	})

	return &Adapter{
		client:    client,
		namespace: config.Namespace,
	}, nil
}

// NewAdapterFromClient wraps an existing client. The caller keeps ownership
// of the client's lifecycle.
func NewAdapterFromClient(client *redis.Client, namespace string) *Adapter {
	return &Adapter{
		client:    client,
		namespace: namespace,
	}
}

func (a *Adapter) Close() error {
	return a.client.Close()
}

func (a *Adapter) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := a.client.Get(ctx, a.namespaced(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis adapter: get %s: %w", key, err)
	}
	return value, true, nil
}

func (a *Adapter) Set(ctx context.Context, key string, value string) error {
	if err := a.client.Set(ctx, a.namespaced(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis adapter: set %s: %w", key, err)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, key string) error {
	if err := a.client.Del(ctx, a.namespaced(key)).Err(); err != nil {
		return fmt.Errorf("redis adapter: delete %s: %w", key, err)
	}
	return nil
}

func (a *Adapter) namespaced(key string) string {
	if a.namespace == "" {
		return key
	}
	return a.namespace + ":" + key
}

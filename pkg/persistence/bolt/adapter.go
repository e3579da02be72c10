// Package bolt provides a file-backed persistence adapter on BBolt, the
// closest server-side analogue of the browser's local storage: one small
// file, no external service.
package bolt

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/hhszzzz/Graduation-Design/pkg/persistence"
)

const defaultBucket = "newsclient"

type Config struct {
	Path        string
	Bucket      string
	OpenTimeout time.Duration
}

type Adapter struct {
	db     *bbolt.DB
	bucket []byte
}

var _ persistence.Store = (*Adapter)(nil)

// NewAdapter opens the database file at config.Path and ensures the bucket
// exists. The caller owns Close.
func NewAdapter(config Config) (*Adapter, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("bolt adapter: path is required")
	}
	if config.Bucket == "" {
		config.Bucket = defaultBucket
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = time.Second
	}

	db, err := bbolt.Open(config.Path, 0600, &bbolt.Options{Timeout: config.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("bolt adapter: open %s: %w", config.Path, err)
	}

	bucket := []byte(config.Bucket)
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt adapter: ensure bucket %s: %w", config.Bucket, err)
	}

	return &Adapter{db: db, bucket: bucket}, nil
}

func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	var found bool
	err := a.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(a.bucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		value = string(data)
		found = true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("bolt adapter: get %s: %w", key, err)
	}
	return value, found, nil
}

func (a *Adapter) Set(ctx context.Context, key string, value string) error {
	err := a.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(a.bucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("bolt adapter: set %s: %w", key, err)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, key string) error {
	err := a.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(a.bucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("bolt adapter: delete %s: %w", key, err)
	}
	return nil
}

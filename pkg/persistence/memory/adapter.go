package memory

import (
	"context"
	"sync"

	"github.com/hhszzzz/Graduation-Design/pkg/persistence"
)

// Adapter is an in-process store. State does not survive a restart, which
// matches a fresh browser profile.
type Adapter struct {
	mu      sync.RWMutex
	entries map[string]string
}

var _ persistence.Store = (*Adapter)(nil)

func NewAdapter() *Adapter {
	return &Adapter{
		entries: map[string]string{},
	}
}

func (a *Adapter) Get(ctx context.Context, key string) (string, bool, error) {
	a.mu.RLock()
	value, ok := a.entries[key]
	a.mu.RUnlock()
	return value, ok, nil
}

func (a *Adapter) Set(ctx context.Context, key string, value string) error {
	a.mu.Lock()
	a.entries[key] = value
	a.mu.Unlock()
	return nil
}

func (a *Adapter) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	delete(a.entries, key)
	a.mu.Unlock()
	return nil
}

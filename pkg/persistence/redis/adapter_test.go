package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/hhszzzz/Graduation-Design/pkg/persistence"
	"github.com/hhszzzz/Graduation-Design/pkg/persistence/testsuite"
)

func newTestAdapter(t *testing.T, namespace string) *Adapter {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	adapter, err := NewAdapter(Config{Address: mr.Addr(), Namespace: namespace})
	if err != nil {
		t.Fatalf("redis adapter: %v", err)
	}
	t.Cleanup(func() {
		_ = adapter.Close()
	})
	return adapter
}

func TestAdapterConformance(t *testing.T) {
	testsuite.Run(t, func(t *testing.T) persistence.Store {
		return newTestAdapter(t, "newsclient")
	})
}

func TestAdapterNamespacesKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	adapter, err := NewAdapter(Config{Address: mr.Addr(), Namespace: "ns"})
	if err != nil {
		t.Fatalf("redis adapter: %v", err)
	}
	defer adapter.Close()

	if err := adapter.Set(context.Background(), persistence.CredentialKey, "Bearer abc"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	stored, err := mr.Get("ns:" + persistence.CredentialKey)
	if err != nil {
		t.Fatalf("expected namespaced key: %v", err)
	}
	if stored != "Bearer abc" {
		t.Fatalf("unexpected stored value %q", stored)
	}
}

func TestAdapterRequiresAddress(t *testing.T) {
	if _, err := NewAdapter(Config{}); err == nil {
		t.Fatal("expected error for missing address")
	}
}

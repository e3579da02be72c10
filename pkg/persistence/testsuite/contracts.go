// Package testsuite holds the conformance checks every persistence adapter
// must pass. Adapter test files call Run with a factory for their backend.
package testsuite

import (
	"context"
	"testing"

	"github.com/hhszzzz/Graduation-Design/pkg/persistence"
)

// Factory builds a fresh, empty store for one subtest.
type Factory func(t *testing.T) persistence.Store

func Run(t *testing.T, factory Factory) {
	t.Helper()

	t.Run("AbsentRead", func(t *testing.T) {
		store := factory(t)
		value, ok, err := store.Get(context.Background(), persistence.CredentialKey)
		if err != nil {
			t.Fatalf("get absent key failed: %v", err)
		}
		if ok || value != "" {
			t.Fatalf("expected absence, got %q (present=%v)", value, ok)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()

		if err := store.Set(ctx, persistence.CredentialKey, "Bearer abc123"); err != nil {
			t.Fatalf("set failed: %v", err)
		}

		value, ok, err := store.Get(ctx, persistence.CredentialKey)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !ok || value != "Bearer abc123" {
			t.Fatalf("unexpected value %q (present=%v)", value, ok)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()

		if err := store.Set(ctx, persistence.CredentialKey, "Bearer old"); err != nil {
			t.Fatalf("first set failed: %v", err)
		}
		if err := store.Set(ctx, persistence.CredentialKey, "Bearer new"); err != nil {
			t.Fatalf("second set failed: %v", err)
		}

		value, _, err := store.Get(ctx, persistence.CredentialKey)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if value != "Bearer new" {
			t.Fatalf("expected overwrite, got %q", value)
		}
	})

	t.Run("DeleteIdempotent", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()

		if err := store.Set(ctx, persistence.CredentialKey, "Bearer abc123"); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		if err := store.Delete(ctx, persistence.CredentialKey); err != nil {
			t.Fatalf("first delete failed: %v", err)
		}
		if err := store.Delete(ctx, persistence.CredentialKey); err != nil {
			t.Fatalf("second delete failed: %v", err)
		}

		_, ok, err := store.Get(ctx, persistence.CredentialKey)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if ok {
			t.Fatal("expected key to be gone")
		}
	})
}

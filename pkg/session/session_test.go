package session_test

import (
	"context"
	"testing"

	"github.com/hhszzzz/Graduation-Design/pkg/envelope"
	"github.com/hhszzzz/Graduation-Design/pkg/errors"
	"github.com/hhszzzz/Graduation-Design/pkg/persistence"
	"github.com/hhszzzz/Graduation-Design/pkg/persistence/memory"
	"github.com/hhszzzz/Graduation-Design/pkg/pipeline"
	"github.com/hhszzzz/Graduation-Design/pkg/session"
)

type fakeDoer struct {
	do func(ctx context.Context, req *pipeline.Request) (envelope.Envelope, error)
}

func (f *fakeDoer) Do(ctx context.Context, req *pipeline.Request) (envelope.Envelope, error) {
	return f.do(ctx, req)
}

func newTestStore(t *testing.T, kv persistence.Store, doer session.Doer) *session.Store {
	t.Helper()
	store, err := session.NewStore(session.Config{Persistence: kv})
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	if doer != nil {
		if err := store.Bind(doer); err != nil {
			t.Fatalf("bind: %v", err)
		}
	}
	return store
}

func TestLoginCommitsAssembledToken(t *testing.T) {
	kv := memory.NewAdapter()
	doer := &fakeDoer{
		do: func(ctx context.Context, req *pipeline.Request) (envelope.Envelope, error) {
			return envelope.Envelope{
				Code:    envelope.CodeSuccess,
				Message: "OK",
				Data: map[string]any{
					"userId":    float64(7),
					"username":  "a",
					"token":     "abc123",
					"tokenHead": "Bearer",
				},
			}, nil
		},
	}
	store := newTestStore(t, kv, doer)

	ctx := context.Background()
	if _, err := store.Login(ctx, session.Credentials{Username: "a", Password: "b"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if got := store.Credential(); got != "Bearer abc123" {
		t.Fatalf("unexpected committed credential %q", got)
	}
	if !store.IsAuthenticated() {
		t.Fatal("expected authenticated session")
	}

	persisted, ok, err := kv.Get(ctx, persistence.CredentialKey)
	if err != nil || !ok {
		t.Fatalf("expected persisted credential, got present=%v err=%v", ok, err)
	}
	if persisted != "Bearer abc123" {
		t.Fatalf("unexpected persisted credential %q", persisted)
	}
}

func TestLoginRejectsMalformedToken(t *testing.T) {
	kv := memory.NewAdapter()
	doer := &fakeDoer{
		do: func(ctx context.Context, req *pipeline.Request) (envelope.Envelope, error) {
			return envelope.Envelope{
				Code: envelope.CodeSuccess,
				Data: map[string]any{"token": "not a valid token!"},
			}, nil
		},
	}
	store := newTestStore(t, kv, doer)

	_, err := store.Login(context.Background(), session.Credentials{Username: "a", Password: "b"})
	if !errors.IsCode(err, errors.CodeInvalidCredentialFormat) {
		t.Fatalf("expected credential format failure, got %v", err)
	}
	if store.IsAuthenticated() {
		t.Fatal("malformed token must not be committed")
	}
	if _, ok, _ := kv.Get(context.Background(), persistence.CredentialKey); ok {
		t.Fatal("malformed token must never be persisted")
	}
}

func TestFetchProfileSuccess(t *testing.T) {
	doer := &fakeDoer{
		do: func(ctx context.Context, req *pipeline.Request) (envelope.Envelope, error) {
			return envelope.Envelope{
				Code: envelope.CodeSuccess,
				Data: map[string]any{"id": float64(7), "username": "a", "avatar": "x.png"},
			}, nil
		},
	}
	store := newTestStore(t, memory.NewAdapter(), doer)

	profile, err := store.FetchProfile(context.Background())
	if err != nil {
		t.Fatalf("fetch profile failed: %v", err)
	}
	if profile.ID != 7 || profile.Username != "a" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if got := store.Profile(); got == nil || got.Username != "a" {
		t.Fatalf("expected stored profile, got %+v", got)
	}
}

func TestFetchProfileFailureClearsSession(t *testing.T) {
	kv := memory.NewAdapter()
	doer := &fakeDoer{
		do: func(ctx context.Context, req *pipeline.Request) (envelope.Envelope, error) {
			return envelope.Envelope{}, errors.New(errors.CodeServerRejected, "boom")
		},
	}
	store := newTestStore(t, kv, doer)

	ctx := context.Background()
	if err := store.SetCredential(ctx, "abc123"); err != nil {
		t.Fatalf("set credential: %v", err)
	}
	store.SetProfile(&session.Profile{ID: 7, Username: "a"})

	if _, err := store.FetchProfile(ctx); err == nil {
		t.Fatal("expected the failure to be re-raised")
	}

	if store.IsAuthenticated() {
		t.Fatal("expected isAuthenticated to be false")
	}
	if store.Profile() != nil {
		t.Fatal("expected profile to be cleared")
	}
	if _, ok, _ := kv.Get(ctx, persistence.CredentialKey); ok {
		t.Fatal("expected persisted credential to be purged")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	store := newTestStore(t, memory.NewAdapter(), nil)
	ctx := context.Background()

	if err := store.SetCredential(ctx, "abc123"); err != nil {
		t.Fatalf("set credential: %v", err)
	}

	store.Logout(ctx)
	first := store.IsAuthenticated()
	store.Logout(ctx)

	if first || store.IsAuthenticated() {
		t.Fatal("expected logged-out state after both calls")
	}
	if store.Profile() != nil {
		t.Fatal("expected no profile")
	}
}

func TestRestoreLoadsValidCredential(t *testing.T) {
	kv := memory.NewAdapter()
	ctx := context.Background()
	if err := kv.Set(ctx, persistence.CredentialKey, "Bearer abc123"); err != nil {
		t.Fatalf("seed persisted credential: %v", err)
	}

	store := newTestStore(t, kv, nil)
	if err := store.Restore(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if store.Credential() != "Bearer abc123" {
		t.Fatalf("unexpected restored credential %q", store.Credential())
	}
}

func TestRestorePurgesInvalidCredential(t *testing.T) {
	kv := memory.NewAdapter()
	ctx := context.Background()
	if err := kv.Set(ctx, persistence.CredentialKey, "corrupted value!"); err != nil {
		t.Fatalf("seed persisted credential: %v", err)
	}

	store := newTestStore(t, kv, nil)
	if err := store.Restore(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if store.IsAuthenticated() {
		t.Fatal("invalid stored value must not be loaded into state")
	}
	if _, ok, _ := kv.Get(ctx, persistence.CredentialKey); ok {
		t.Fatal("invalid stored value must be purged")
	}
}

func TestInvalidateIsGuardedPerEpoch(t *testing.T) {
	redirects := 0
	store, err := session.NewStore(session.Config{
		Persistence: memory.NewAdapter(),
		Reauthenticator: session.ReauthenticatorFunc(func(origin string) {
			redirects++
		}),
	})
	if err != nil {
		t.Fatalf("session store: %v", err)
	}

	ctx := context.Background()
	if err := store.SetCredential(ctx, "abc123"); err != nil {
		t.Fatalf("set credential: %v", err)
	}

	if !store.Invalidate(ctx, "/home") {
		t.Fatal("first invalidation must run")
	}
	if store.Invalidate(ctx, "/home") {
		t.Fatal("second invalidation in the same epoch must be a no-op")
	}
	if redirects != 1 {
		t.Fatalf("expected one redirect, got %d", redirects)
	}

	// A committed credential opens a new epoch.
	if err := store.SetCredential(ctx, "def456"); err != nil {
		t.Fatalf("set credential: %v", err)
	}
	if !store.Invalidate(ctx, "/about") {
		t.Fatal("invalidation must run again in a new epoch")
	}
	if redirects != 2 {
		t.Fatalf("expected two redirects, got %d", redirects)
	}
}

func TestAssembleToken(t *testing.T) {
	cases := []struct {
		token, head, want string
	}{
		{"abc123", "Bearer", "Bearer abc123"},
		{"Bearer abc123", "Bearer", "Bearer abc123"},
		{"abc123", "", "abc123"},
	}
	for _, tc := range cases {
		if got := session.AssembleToken(tc.token, tc.head); got != tc.want {
			t.Fatalf("AssembleToken(%q, %q) = %q, want %q", tc.token, tc.head, got, tc.want)
		}
	}
}

// Package session owns the authoritative in-process session state: the
// credential, the authenticated flag, and the user profile. No other
// component mutates that state directly. The store also keeps the externally
// persisted credential copy in sync and guards invalidation so concurrent
// authentication failures collapse into a single clear-and-redirect.
package session

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/go-logr/logr"

	"github.com/hhszzzz/Graduation-Design/pkg/credential"
	"github.com/hhszzzz/Graduation-Design/pkg/envelope"
	"github.com/hhszzzz/Graduation-Design/pkg/errors"
	"github.com/hhszzzz/Graduation-Design/pkg/persistence"
	"github.com/hhszzzz/Graduation-Design/pkg/pipeline"
)

const (
	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"
	profilePath  = "/api/auth/info"
)

// Profile is the authenticated user as returned by the profile endpoint. It
// never outlives the credential it was fetched under.
type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// LoginResult is the payload of a successful login. The backend may split
// the credential into a raw token and a scheme-prefix head.
type LoginResult struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
	Token     string `json:"token"`
	TokenHead string `json:"tokenHead"`
}

// Doer executes a request through the pipeline. Bound after construction
// because the pipeline itself is built against this store.
type Doer interface {
	Do(ctx context.Context, req *pipeline.Request) (envelope.Envelope, error)
}

// Reauthenticator is told to send the user back through login. Origin is the
// route that triggered the invalidation, preserved for post-login return.
type Reauthenticator interface {
	Reauthenticate(origin string)
}

// ReauthenticatorFunc adapts a function to the Reauthenticator interface.
type ReauthenticatorFunc func(origin string)

func (f ReauthenticatorFunc) Reauthenticate(origin string) { f(origin) }

type Config struct {
	Persistence     persistence.Store
	Reauthenticator Reauthenticator
	Logger          logr.Logger

	// Key overrides the persisted credential key. Defaults to
	// persistence.CredentialKey.
	Key string
}

type Store struct {
	mu           sync.RWMutex
	credential   string
	profile      *Profile
	invalidating bool

	doer        Doer
	persistence persistence.Store
	reauth      Reauthenticator
	logger      logr.Logger
	key         string
}

var (
	_ pipeline.CredentialSource = (*Store)(nil)
	_ pipeline.Invalidator      = (*Store)(nil)
)

func NewStore(config Config) (*Store, error) {
	if config.Persistence == nil {
		return nil, errors.New(errors.CodeInvalidArgument, "session store: persistence is required")
	}

	logger := config.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}

	key := config.Key
	if key == "" {
		key = persistence.CredentialKey
	}

	return &Store{
		persistence: config.Persistence,
		reauth:      config.Reauthenticator,
		logger:      logger,
		key:         key,
	}, nil
}

// Bind attaches the request pipeline the store's actions execute through.
// One-time wiring performed by the client during initialization.
func (s *Store) Bind(doer Doer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doer != nil {
		return errors.New(errors.CodeInvalidArgument, "session store: pipeline already bound")
	}
	if doer == nil {
		return errors.New(errors.CodeInvalidArgument, "session store: doer is required")
	}
	s.doer = doer
	return nil
}

// Restore reads the externally persisted credential once at startup. An
// invalid stored value is purged immediately rather than loaded into state.
func (s *Store) Restore(ctx context.Context) error {
	stored, ok, err := s.persistence.Get(ctx, s.key)
	if err != nil {
		return errors.Wrap(errors.CodeStoreUnavailable, "read persisted credential", err)
	}
	if !ok {
		return nil
	}

	normalized, err := credential.Normalize(stored)
	if err != nil {
		s.logger.V(1).Info("purging invalid persisted credential")
		if deleteErr := s.persistence.Delete(ctx, s.key); deleteErr != nil {
			return errors.Wrap(errors.CodeStoreUnavailable, "purge invalid persisted credential", deleteErr)
		}
		return nil
	}

	s.mu.Lock()
	s.credential = normalized
	s.mu.Unlock()
	return nil
}

// Credential returns the currently held credential, or the empty string when
// there is no session.
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// IsAuthenticated is always exactly "credential present".
func (s *Store) IsAuthenticated() bool {
	return s.Credential() != ""
}

// Profile returns a copy of the fetched user profile, or nil before a
// successful fetch.
func (s *Store) Profile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	copied := *s.profile
	return &copied
}

// SetCredential validates and commits a credential. A value that fails
// structural validation is never committed or persisted. Committing a
// credential opens a new invalidation epoch.
func (s *Store) SetCredential(ctx context.Context, raw string) error {
	normalized, err := credential.Normalize(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.credential = normalized
	s.invalidating = false
	s.mu.Unlock()

	if err := s.persistence.Set(ctx, s.key, normalized); err != nil {
		return errors.Wrap(errors.CodeStoreUnavailable, "persist credential", err)
	}
	return nil
}

func (s *Store) SetProfile(profile *Profile) {
	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
}

// ClearSession drops the credential and profile and purges the persisted
// copy. Idempotent: clearing an already-cleared session is a no-op.
func (s *Store) ClearSession(ctx context.Context) {
	s.mu.Lock()
	s.credential = ""
	s.profile = nil
	s.mu.Unlock()

	if err := s.persistence.Delete(ctx, s.key); err != nil {
		s.logger.Error(err, "failed to purge persisted credential")
	}
}

// PurgeCredential is the pipeline's hook for dropping a credential that
// failed validation while building a request.
func (s *Store) PurgeCredential(ctx context.Context) {
	s.ClearSession(ctx)
}

// Invalidate clears the session in response to an authentication failure and
// triggers reauthentication, at most once per epoch: concurrent detections
// collapse into a single clear-and-redirect. Returns whether this call
// performed the invalidation.
func (s *Store) Invalidate(ctx context.Context, origin string) bool {
	s.mu.Lock()
	if s.invalidating {
		s.mu.Unlock()
		return false
	}
	s.invalidating = true
	s.credential = ""
	s.profile = nil
	reauth := s.reauth
	s.mu.Unlock()

	if err := s.persistence.Delete(ctx, s.key); err != nil {
		s.logger.Error(err, "failed to purge persisted credential")
	}

	if reauth != nil {
		reauth.Reauthenticate(origin)
	}
	return true
}

// Login authenticates against the backend and commits the returned
// credential. A token that fails validation is not committed and the call
// reports a credential-format failure even though the backend accepted it.
func (s *Store) Login(ctx context.Context, creds Credentials) (envelope.Envelope, error) {
	doer, err := s.requireDoer()
	if err != nil {
		return envelope.Envelope{}, err
	}

	env, err := doer.Do(ctx, &pipeline.Request{
		Method: http.MethodPost,
		Path:   loginPath,
		Body:   creds,
	})
	if err != nil {
		return envelope.Envelope{}, err
	}

	var result LoginResult
	if err := envelope.Decode(env, &result); err != nil {
		return envelope.Envelope{}, err
	}

	if err := s.SetCredential(ctx, AssembleToken(result.Token, result.TokenHead)); err != nil {
		return envelope.Envelope{}, err
	}
	return env, nil
}

func (s *Store) Register(ctx context.Context, fields Registration) (envelope.Envelope, error) {
	doer, err := s.requireDoer()
	if err != nil {
		return envelope.Envelope{}, err
	}

	return doer.Do(ctx, &pipeline.Request{
		Method: http.MethodPost,
		Path:   registerPath,
		Body:   fields,
	})
}

// FetchProfile loads the authenticated user. Any failure is treated as proof
// the credential is no longer valid: the whole session is cleared and the
// failure re-raised to the caller.
func (s *Store) FetchProfile(ctx context.Context) (*Profile, error) {
	doer, err := s.requireDoer()
	if err != nil {
		return nil, err
	}

	env, err := doer.Do(ctx, &pipeline.Request{
		Method: http.MethodGet,
		Path:   profilePath,
	})
	if err != nil {
		s.ClearSession(ctx)
		return nil, err
	}

	var profile Profile
	if err := envelope.Decode(env, &profile); err != nil {
		s.ClearSession(ctx)
		return nil, err
	}

	s.SetProfile(&profile)
	return &profile, nil
}

// Logout clears the session. Safe to call repeatedly.
func (s *Store) Logout(ctx context.Context) {
	s.ClearSession(ctx)
}

func (s *Store) requireDoer() (Doer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doer == nil {
		return nil, errors.New(errors.CodeInvalidArgument, "session store: no pipeline bound")
	}
	return s.doer, nil
}

// AssembleToken joins a server-supplied scheme-prefix head with the raw token
// unless the token already carries it.
func AssembleToken(token, tokenHead string) string {
	if tokenHead == "" || strings.HasPrefix(token, tokenHead) {
		return token
	}
	return strings.TrimSpace(tokenHead) + " " + token
}

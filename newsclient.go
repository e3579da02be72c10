// Package newsclient is a resilient client for the news platform API. It
// keeps a bearer credential valid or purged, normalizes the backend's
// inconsistently shaped responses into one canonical envelope, and keeps the
// application's view of "am I logged in" consistent with the credential even
// while requests execute concurrently.
package newsclient

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/hhszzzz/Graduation-Design/pkg/envelope"
	"github.com/hhszzzz/Graduation-Design/pkg/errors"
	"github.com/hhszzzz/Graduation-Design/pkg/persistence"
	"github.com/hhszzzz/Graduation-Design/pkg/pipeline"
	"github.com/hhszzzz/Graduation-Design/pkg/session"
)

type Config struct {
	// Transport overrides the default net/http transport built from
	// Runtime.HTTP.
	Transport pipeline.Transport

	// Persistence overrides the backend selected by Runtime.Persistence.
	Persistence persistence.Store

	// Notifier receives the single user-facing message emitted for each
	// server rejection or network failure. Optional.
	Notifier pipeline.Notifier

	// Reauthenticator is told to send the user back through login after an
	// authentication failure invalidates the session. Optional.
	Reauthenticator session.Reauthenticator

	Logger  logr.Logger
	Runtime RuntimeConfig
}

type Client struct {
	session       *session.Store
	pipeline      *pipeline.Pipeline
	logger        logr.Logger
	closeResource func() error
}

// New builds a client, restores any persisted credential, and wires the
// session store and request pipeline together.
func New(config Config) (*Client, error) {
	ctx := context.Background()

	closeResource, resolved, err := config.initialize(ctx)
	if err != nil {
		return nil, err
	}

	store, err := session.NewStore(session.Config{
		Persistence:     resolved.Persistence,
		Reauthenticator: resolved.Reauthenticator,
		Logger:          resolved.Logger,
	})
	if err != nil {
		_ = closeResource()
		return nil, err
	}

	pipe, err := pipeline.New(pipeline.Config{
		Transport:   resolved.Transport,
		Credentials: store,
		Sessions:    store,
		Notifier:    resolved.Notifier,
		Logger:      resolved.Logger,
	})
	if err != nil {
		_ = closeResource()
		return nil, err
	}

	if err := store.Bind(pipe); err != nil {
		_ = closeResource()
		return nil, err
	}

	if err := store.Restore(ctx); err != nil {
		_ = closeResource()
		return nil, err
	}

	return &Client{
		session:       store,
		pipeline:      pipe,
		logger:        resolved.Logger,
		closeResource: closeResource,
	}, nil
}

// Session exposes the session store for reactive observers: navigation logic
// reads IsAuthenticated and Profile from here.
func (c *Client) Session() *session.Store {
	return c.session
}

func (c *Client) Login(ctx context.Context, creds session.Credentials) (envelope.Envelope, error) {
	if c == nil || c.session == nil {
		return envelope.Envelope{}, errors.New(errors.CodeInvalidArgument, "client is not initialized")
	}
	return c.session.Login(ctx, creds)
}

func (c *Client) Register(ctx context.Context, fields session.Registration) (envelope.Envelope, error) {
	if c == nil || c.session == nil {
		return envelope.Envelope{}, errors.New(errors.CodeInvalidArgument, "client is not initialized")
	}
	return c.session.Register(ctx, fields)
}

func (c *Client) FetchProfile(ctx context.Context) (*session.Profile, error) {
	if c == nil || c.session == nil {
		return nil, errors.New(errors.CodeInvalidArgument, "client is not initialized")
	}
	return c.session.FetchProfile(ctx)
}

func (c *Client) Logout(ctx context.Context) {
	if c == nil || c.session == nil {
		return
	}
	c.session.Logout(ctx)
}

func (c *Client) Close() error {
	if c == nil || c.closeResource == nil {
		return nil
	}

	err := c.closeResource()
	if err != nil {
		return errors.Wrap(errors.CodeUnknown, "failed to close client resources", err)
	}
	c.closeResource = nil
	return nil
}

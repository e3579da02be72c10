// Package pipeline is the interceptor chain every outbound call passes
// through: credential attachment on the way out, envelope normalization and
// failure classification on the way back, and session invalidation when the
// backend reports the credential is no longer valid.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/hhszzzz/Graduation-Design/pkg/credential"
	"github.com/hhszzzz/Graduation-Design/pkg/envelope"
	"github.com/hhszzzz/Graduation-Design/pkg/errors"
)

// Request describes one outbound call. Origin names the route or operation
// that initiated the call; it is echoed to the reauthentication hook when the
// call triggers session invalidation so the user can be returned there after
// logging back in.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Origin string

	// Authorization is populated by the pipeline; transports send it verbatim.
	Authorization string
}

// RawResponse is what the transport hands back for a 2xx answer, and what a
// TransportError carries when the server responded with anything else.
type RawResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// TransportError is a failed send. Response is set when the server did
// respond (non-2xx), and nil when the request never reached a server.
type TransportError struct {
	Err      error
	Response *RawResponse
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Response != nil {
		return fmt.Sprintf("server responded with status %d", e.Response.Status)
	}
	return "transport error"
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Transport performs the byte-level network I/O. It is a black box to the
// pipeline: structured response in, structured response or error out.
type Transport interface {
	Send(ctx context.Context, req *Request) (*RawResponse, error)
}

// CredentialSource is the slice of the session store the pipeline reads while
// building a request.
type CredentialSource interface {
	Credential() string
	PurgeCredential(ctx context.Context)
}

// Invalidator clears the session in response to an authentication failure.
// Implementations must be idempotent: the return value reports whether this
// call performed the invalidation or found one already done.
type Invalidator interface {
	Invalidate(ctx context.Context, origin string) bool
}

// Notifier surfaces a user-facing message. The pipeline emits exactly one
// notification per failing call, and none for authentication failures, which
// are handled by redirecting instead.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

type Config struct {
	Transport   Transport
	Credentials CredentialSource
	Sessions    Invalidator
	Notifier    Notifier
	Logger      logr.Logger
}

type Pipeline struct {
	transport   Transport
	credentials CredentialSource
	sessions    Invalidator
	notifier    Notifier
	logger      logr.Logger
}

func New(config Config) (*Pipeline, error) {
	if config.Transport == nil {
		return nil, errors.ErrMissingTransport
	}

	logger := config.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}

	return &Pipeline{
		transport:   config.Transport,
		credentials: config.Credentials,
		sessions:    config.Sessions,
		notifier:    config.Notifier,
		logger:      logger,
	}, nil
}

// Do runs one request through the full chain. On success the normalized
// envelope is returned; on failure the classified error is returned after its
// recovery action (notification or invalidation) has executed. Callers always
// receive the rejection — the side effect never substitutes for it.
func (p *Pipeline) Do(ctx context.Context, req *Request) (envelope.Envelope, error) {
	if req == nil {
		return envelope.Envelope{}, errors.New(errors.CodeInvalidArgument, "request is required")
	}

	requestID := uuid.NewString()
	logger := p.logger.WithValues("request_id", requestID, "method", req.Method, "path", req.Path)

	send := *req
	send.Authorization = p.buildAuthorization(ctx, logger)

	raw, err := p.transport.Send(ctx, &send)
	if err != nil {
		return p.classifyTransportFailure(ctx, logger, req, err)
	}

	env, err := envelope.Normalize(raw.Body, raw.Header.Get("Content-Type"))
	if err != nil {
		// Malformed bodies are an integration fault, not a user-actionable
		// event: propagate without a notification.
		logger.V(1).Info("response body has no safe interpretation", "status", raw.Status)
		return envelope.Envelope{}, err
	}

	if env.Code != envelope.CodeSuccess {
		return p.classifyEnvelopeFailure(ctx, logger, req, env, raw)
	}

	return env, nil
}

func (p *Pipeline) buildAuthorization(ctx context.Context, logger logr.Logger) string {
	if p.credentials == nil {
		return ""
	}

	stored := p.credentials.Credential()
	if stored == "" {
		return ""
	}

	normalized, err := credential.Normalize(stored)
	if err != nil {
		// The stored value is corrupted. Purge it and proceed headerless:
		// the server will reject on its own if auth was required.
		logger.V(1).Info("purging malformed stored credential")
		p.credentials.PurgeCredential(ctx)
		return ""
	}

	return credential.AttachHeader(normalized)
}

func (p *Pipeline) invalidate(ctx context.Context, logger logr.Logger, origin string) {
	if p.sessions == nil {
		return
	}
	if p.sessions.Invalidate(ctx, origin) {
		logger.V(1).Info("session invalidated", "origin", origin)
	}
}

func (p *Pipeline) notify(message string) {
	if p.notifier == nil {
		return
	}
	p.notifier.Notify(message)
}

package pipeline_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/hhszzzz/Graduation-Design/pkg/pipeline"
)

// corruptSource simulates a stored value that rotted outside the session
// store's control.
type corruptSource struct {
	value  string
	purged bool
}

func (c *corruptSource) Credential() string { return c.value }

func (c *corruptSource) PurgeCredential(ctx context.Context) {
	c.purged = true
	c.value = ""
}

func TestDoPurgesCorruptedCredentialAndProceeds(t *testing.T) {
	var seenAuth string
	transport := &fakeTransport{
		send: func(ctx context.Context, req *pipeline.Request) (*pipeline.RawResponse, error) {
			seenAuth = req.Authorization
			return jsonResponse(200, `{"code":200,"message":"OK","data":{}}`), nil
		},
	}

	source := &corruptSource{value: "not a valid token!"}
	pipe, err := pipeline.New(pipeline.Config{
		Transport:   transport,
		Credentials: source,
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	if _, err := pipe.Do(context.Background(), &pipeline.Request{Method: http.MethodGet, Path: "/api/news/list"}); err != nil {
		t.Fatalf("request must proceed headerless: %v", err)
	}
	if !source.purged {
		t.Fatal("expected the corrupted credential to be purged")
	}
	if seenAuth != "" {
		t.Fatalf("corrupted credential must never reach the wire, got %q", seenAuth)
	}
}

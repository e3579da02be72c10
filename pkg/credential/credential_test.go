package credential

import (
	"testing"

	"github.com/hhszzzz/Graduation-Design/pkg/errors"
)

func TestNormalizeBareToken(t *testing.T) {
	got, err := Normalize("abc123.DEF-_")
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if got != "Bearer abc123.DEF-_" {
		t.Fatalf("unexpected normalized credential %q", got)
	}
}

func TestNormalizePrefixedToken(t *testing.T) {
	got, err := Normalize("Bearer abc123")
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if got != "Bearer abc123" {
		t.Fatalf("unexpected normalized credential %q", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	first, err := Normalize("eyJhbGciOiJIUzI1NiJ9.payload.sig")
	if err != nil {
		t.Fatalf("first normalize failed: %v", err)
	}

	second, err := Normalize(first)
	if err != nil {
		t.Fatalf("second normalize failed: %v", err)
	}
	if second != first {
		t.Fatalf("normalize is not stable: %q != %q", second, first)
	}

	if AttachHeader(second) != first {
		t.Fatalf("attach header changed a normalized credential: %q", AttachHeader(second))
	}
}

func TestNormalizeRejectsInvalidInput(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"Bearer ",
		"abc 123",
		"token!",
		"令牌",
		"abc\n123",
	}

	for _, input := range inputs {
		if _, err := Normalize(input); err == nil {
			t.Fatalf("expected %q to be rejected", input)
		} else if !errors.IsCode(err, errors.CodeInvalidCredentialFormat) {
			t.Fatalf("expected invalid credential format for %q, got %v", input, err)
		}
		if Valid(input) {
			t.Fatalf("expected %q to be invalid", input)
		}
	}
}

func TestAttachHeaderIdempotent(t *testing.T) {
	if got := AttachHeader("abc123"); got != "Bearer abc123" {
		t.Fatalf("unexpected header %q", got)
	}
	if got := AttachHeader("Bearer abc123"); got != "Bearer abc123" {
		t.Fatalf("unexpected header %q", got)
	}
	if got := AttachHeader(""); got != "" {
		t.Fatalf("expected empty header for empty credential, got %q", got)
	}
}

func TestTokenStripsPrefix(t *testing.T) {
	if got := Token("Bearer abc123"); got != "abc123" {
		t.Fatalf("unexpected token %q", got)
	}
	if got := Token("abc123"); got != "abc123" {
		t.Fatalf("unexpected token %q", got)
	}
}

// Package credential validates and normalizes the bearer credential attached
// to outgoing requests. Validation is pure: callers decide whether to purge
// stored state when a value fails.
package credential

import (
	"regexp"
	"strings"

	"github.com/hhszzzz/Graduation-Design/pkg/errors"
)

// Scheme is the canonical header scheme marker.
const Scheme = "Bearer"

const schemePrefix = Scheme + " "

// tokenPattern is the structural pattern a stored token must satisfy after
// stripping the scheme prefix. Anything else is treated as corrupted and must
// never reach the wire.
var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9\-_.]+$`)

// Normalize strips an optional scheme prefix, checks the remaining token
// against the structural pattern, and returns the canonical
// "Bearer <token>" form. Empty and pattern-mismatched input is rejected
// with CodeInvalidCredentialFormat.
func Normalize(raw string) (string, error) {
	token := Token(raw)
	if token == "" {
		return "", errors.New(errors.CodeInvalidCredentialFormat, "credential is empty")
	}
	if !tokenPattern.MatchString(token) {
		return "", errors.New(errors.CodeInvalidCredentialFormat, "credential fails structural validation")
	}
	return schemePrefix + token, nil
}

// Token returns the bare token with any scheme prefix removed.
func Token(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), schemePrefix))
}

// AttachHeader returns the exact Authorization header value for a credential,
// idempotent regardless of whether the value already carries the prefix.
func AttachHeader(cred string) string {
	cred = strings.TrimSpace(cred)
	if cred == "" {
		return ""
	}
	if strings.HasPrefix(cred, schemePrefix) {
		return cred
	}
	return schemePrefix + cred
}

// Valid reports whether raw would survive Normalize.
func Valid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}

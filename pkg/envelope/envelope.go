// Package envelope normalizes arbitrary backend response bodies into the
// canonical {code, message, data} shape. The backend is inconsistent: it may
// answer with a proper envelope, bare JSON data, a JSON array, or a rendered
// HTML page. Normalize is total over those shapes — every input maps to a
// well-formed envelope or a malformed-response failure, never anything else.
package envelope

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/hhszzzz/Graduation-Design/pkg/errors"
)

// CodeSuccess is the application-level success sentinel. An envelope with any
// other code is a logical failure even when the transport reported HTTP 200.
const CodeSuccess = 200

// SalvageMinLength is the length past which a non-JSON string body is assumed
// to be useful page content rather than noise.
const SalvageMinLength = 500

// Envelope is the canonical response shape produced by Normalize. Data holds
// the decoded payload: a map, a slice, or a string for salvaged page content.
type Envelope struct {
	Code    int
	Message string
	Data    any
}

// Normalize classifies a raw body into an Envelope.
//
// Decision table, in order:
//  1. empty body                         -> malformed response
//  2. text/html or text/plain content    -> success, body string as data
//  3. JSON array                         -> success, array as data
//  4. JSON object with a "code" field    -> envelope taken as-is
//  5. JSON object without a "code" field -> success, whole object as data
//  6. JSON string, markup-like or long   -> success, string as data
//  7. non-JSON text, markup-like or long -> success, string as data
//  8. anything else                      -> malformed response
func Normalize(body []byte, contentType string) (Envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Envelope{}, malformed(body, "empty response body")
	}

	if isTextContentType(contentType) {
		return Envelope{Code: CodeSuccess, Data: string(body)}, nil
	}

	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return salvageString(string(body))
	}

	switch value := decoded.(type) {
	case []any:
		return Envelope{Code: CodeSuccess, Data: value}, nil
	case map[string]any:
		rawCode, ok := value["code"]
		if !ok {
			return Envelope{Code: CodeSuccess, Data: value}, nil
		}
		code, ok := asInt(rawCode)
		if !ok {
			return Envelope{}, malformed(body, "envelope code is not numeric")
		}
		message, _ := value["message"].(string)
		return Envelope{Code: code, Message: message, Data: value["data"]}, nil
	case string:
		env, err := salvageString(value)
		if err != nil {
			return Envelope{}, malformed(body, "unsalvageable string response")
		}
		return env, nil
	default:
		return Envelope{}, malformed(body, "response shape has no safe interpretation")
	}
}

// Salvageable reports whether a string body qualifies for the HTML-tolerance
// rule: it looks like markup, or it is long enough to be page content.
func Salvageable(s string) bool {
	return LooksLikeMarkup(s) || len(s) > SalvageMinLength
}

// LooksLikeMarkup reports whether s contains a document or HTML marker.
func LooksLikeMarkup(s string) bool {
	lowered := strings.ToLower(s)
	return strings.Contains(lowered, "<html") || strings.Contains(lowered, "<!doctype")
}

// Decode re-marshals an envelope's data into a typed value.
func Decode(env Envelope, out any) error {
	raw, err := json.Marshal(env.Data)
	if err != nil {
		return errors.Wrap(errors.CodeMalformedResponse, "encode envelope data", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(errors.CodeMalformedResponse, "decode envelope data", err)
	}
	return nil
}

func salvageString(s string) (Envelope, error) {
	if Salvageable(s) {
		return Envelope{Code: CodeSuccess, Data: s}, nil
	}
	return Envelope{}, malformed([]byte(s), "unsalvageable string response")
}

func isTextContentType(contentType string) bool {
	lowered := strings.ToLower(contentType)
	return strings.Contains(lowered, "text/html") || strings.Contains(lowered, "text/plain")
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(parsed), true
	default:
		return 0, false
	}
}

func malformed(body []byte, message string) *errors.Error {
	return &errors.Error{
		Code:    errors.CodeMalformedResponse,
		Message: message,
		Raw:     body,
	}
}

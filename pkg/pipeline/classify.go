package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-logr/logr"

	"github.com/hhszzzz/Graduation-Design/pkg/envelope"
	"github.com/hhszzzz/Graduation-Design/pkg/errors"
)

const (
	genericServerMessage  = "system error"
	genericNetworkMessage = "network error, please check your connection"

	// errorSalvageMinLength is the threshold past which a text body carried
	// by an error response is treated as useful page content.
	errorSalvageMinLength = 200
)

// classifyTransportFailure turns a transport-level error into a classified
// failure and executes its recovery action. Transport status wins over any
// embedded envelope code the error body may carry.
func (p *Pipeline) classifyTransportFailure(ctx context.Context, logger logr.Logger, req *Request, sendErr error) (envelope.Envelope, error) {
	var terr *TransportError
	if !stderrors.As(sendErr, &terr) || terr.Response == nil {
		logger.V(1).Info("request never reached the server", "error", sendErr.Error())
		p.notify(genericNetworkMessage)
		return envelope.Envelope{}, &errors.Error{
			Code:    errors.CodeNetworkUnavailable,
			Message: genericNetworkMessage,
			Err:     sendErr,
		}
	}

	resp := terr.Response
	body := string(resp.Body)

	if salvageableErrorBody(body, resp.Header.Get("Content-Type")) {
		logger.V(1).Info("salvaged page content from error response", "status", resp.Status, "length", len(body))
		return envelope.Envelope{Code: envelope.CodeSuccess, Data: body}, nil
	}

	if resp.Status == http.StatusUnauthorized {
		p.invalidate(ctx, logger, req.Origin)
		return envelope.Envelope{}, &errors.Error{
			Code:       errors.CodeUnauthorized,
			Message:    "authentication required",
			HTTPStatus: resp.Status,
			Raw:        resp.Body,
			Err:        sendErr,
		}
	}

	message := embeddedMessage(resp)
	if message == "" {
		message = fmt.Sprintf("request failed (%d)", resp.Status)
	}
	p.notify(message)
	return envelope.Envelope{}, &errors.Error{
		Code:       errors.CodeServerRejected,
		Message:    message,
		HTTPStatus: resp.Status,
		Raw:        resp.Body,
		Err:        sendErr,
	}
}

// classifyEnvelopeFailure handles an application-level failure: the transport
// reported success but the envelope code is not the success sentinel.
func (p *Pipeline) classifyEnvelopeFailure(ctx context.Context, logger logr.Logger, req *Request, env envelope.Envelope, raw *RawResponse) (envelope.Envelope, error) {
	if env.Code == http.StatusUnauthorized {
		p.invalidate(ctx, logger, req.Origin)
		return envelope.Envelope{}, &errors.Error{
			Code:    errors.CodeUnauthorized,
			Message: "authentication required",
			Raw:     raw.Body,
		}
	}

	message := env.Message
	if message == "" {
		message = genericServerMessage
	}
	p.notify(message)
	return envelope.Envelope{}, &errors.Error{
		Code:    errors.CodeServerRejected,
		Message: message,
		Raw:     raw.Body,
	}
}

func salvageableErrorBody(body string, contentType string) bool {
	if len(body) <= errorSalvageMinLength {
		return false
	}
	if envelope.LooksLikeMarkup(body) {
		return true
	}
	lowered := strings.ToLower(contentType)
	return strings.Contains(lowered, "text/html") || strings.Contains(lowered, "text/plain")
}

// embeddedMessage pulls the backend's message out of an error body when the
// body happens to be a well-formed envelope.
func embeddedMessage(resp *RawResponse) string {
	env, err := envelope.Normalize(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return env.Message
}

package newsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hhszzzz/Graduation-Design/pkg/envelope"
	"github.com/hhszzzz/Graduation-Design/pkg/errors"
	"github.com/hhszzzz/Graduation-Design/pkg/pipeline"
)

const (
	newsDetailPath  = "/api/news/detail/%d"
	newsContentPath = "/api/news/crawl_content"
)

// GetNewsDetail fetches a news article. The detail endpoint is served by a
// crawler-backed service that answers in several shapes: a structured
// article, the article nested under "data" or "response.data", or rendered
// page content as a bare string. Each accepted shape is handled explicitly;
// rejected responses that still carry article data are salvaged.
func (c *Client) GetNewsDetail(ctx context.Context, id int64, newsType string) (NewsDetail, error) {
	path := fmt.Sprintf(newsDetailPath, id)

	query := url.Values{}
	if newsType != "" {
		query.Set("type", newsType)
	}

	env, err := c.pipeline.Do(ctx, &pipeline.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
		Origin: path,
	})
	if err != nil {
		return salvageNewsDetail(id, err)
	}
	return extractNewsDetail(id, env)
}

// GetNewsContent fetches the rendered content behind an article link. The
// crawl endpoint often answers with raw HTML, sometimes wrapped in an
// envelope, sometimes as an error response that still carries the page.
func (c *Client) GetNewsContent(ctx context.Context, link string) (string, error) {
	if link == "" {
		return "", errors.New(errors.CodeInvalidArgument, "news content url is required")
	}

	env, err := c.pipeline.Do(ctx, &pipeline.Request{
		Method: http.MethodPost,
		Path:   newsContentPath,
		Body:   map[string]string{"url": link},
		Origin: newsContentPath,
	})
	if err != nil {
		return salvageNewsContent(err)
	}
	return extractNewsContent(env)
}

func extractNewsDetail(id int64, env envelope.Envelope) (NewsDetail, error) {
	switch data := env.Data.(type) {
	case string:
		return NewsDetail{ID: id, Content: data}, nil
	case map[string]any:
		if nested, ok := nestedObject(data); ok {
			data = nested
		}
		var detail NewsDetail
		if err := decodeObject(data, &detail); err != nil {
			return NewsDetail{}, errors.Wrap(errors.CodeMalformedResponse, "news detail has an unrecognized shape", err)
		}
		if detail.ID == 0 {
			detail.ID = id
		}
		return detail, nil
	case nil:
		return NewsDetail{}, errors.New(errors.CodeMalformedResponse, "news detail response carried no data")
	default:
		var detail NewsDetail
		if err := envelope.Decode(env, &detail); err != nil {
			return NewsDetail{}, errors.Wrap(errors.CodeMalformedResponse, "news detail has an unrecognized shape", err)
		}
		if detail.ID == 0 {
			detail.ID = id
		}
		return detail, nil
	}
}

// nestedObject unwraps the article when it arrives under "data" or under
// "response.data" instead of at the top level. A top-level "id" means the
// object already is the article.
func nestedObject(data map[string]any) (map[string]any, bool) {
	if _, ok := data["id"]; ok {
		return nil, false
	}
	if inner, ok := data["data"].(map[string]any); ok {
		return inner, true
	}
	if response, ok := data["response"].(map[string]any); ok {
		if inner, ok := response["data"].(map[string]any); ok {
			return inner, true
		}
	}
	return nil, false
}

// salvageNewsDetail recovers article data carried by a rejected response.
func salvageNewsDetail(id int64, cause error) (NewsDetail, error) {
	raw := rejectedBody(cause)
	if len(raw) == 0 {
		return NewsDetail{}, cause
	}

	var object map[string]any
	if err := json.Unmarshal(raw, &object); err == nil {
		if inner, ok := object["data"].(map[string]any); ok {
			var detail NewsDetail
			if err := decodeObject(inner, &detail); err == nil {
				if detail.ID == 0 {
					detail.ID = id
				}
				return detail, nil
			}
		}
		return NewsDetail{}, cause
	}

	if body := string(raw); envelope.Salvageable(body) {
		return NewsDetail{ID: id, Content: body}, nil
	}
	return NewsDetail{}, cause
}

func extractNewsContent(env envelope.Envelope) (string, error) {
	switch data := env.Data.(type) {
	case string:
		if data == "" {
			return "", errors.New(errors.CodeMalformedResponse, "news content response was empty")
		}
		return data, nil
	case map[string]any:
		if content, ok := data["data"].(string); ok {
			return content, nil
		}
		if content, ok := data["content"].(string); ok {
			return content, nil
		}
		encoded, err := json.Marshal(data)
		if err != nil {
			return "", errors.Wrap(errors.CodeMalformedResponse, "news content has an unrecognized shape", err)
		}
		return string(encoded), nil
	case nil:
		return "", errors.New(errors.CodeMalformedResponse, "news content response carried no data")
	default:
		encoded, err := json.Marshal(data)
		if err != nil {
			return "", errors.Wrap(errors.CodeMalformedResponse, "news content has an unrecognized shape", err)
		}
		return string(encoded), nil
	}
}

// salvageNewsContent extracts page content from a rejected response when the
// body is markup or long enough to be the rendered page.
func salvageNewsContent(cause error) (string, error) {
	raw := rejectedBody(cause)
	if len(raw) == 0 {
		return "", cause
	}

	body := string(raw)
	if envelope.Salvageable(body) {
		return body, nil
	}

	var object map[string]any
	if err := json.Unmarshal(raw, &object); err == nil {
		if content, ok := object["data"].(string); ok {
			return content, nil
		}
	}
	return "", cause
}

// rejectedBody pulls the raw response body out of a classified failure.
// Network failures have no body; those are never salvageable.
func rejectedBody(cause error) []byte {
	failure := errors.AsError(cause)
	if failure == nil {
		return nil
	}
	return failure.Raw
}

func decodeObject(data map[string]any, out any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, out)
}

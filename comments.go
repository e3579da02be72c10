package newsclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hhszzzz/Graduation-Design/pkg/envelope"
	"github.com/hhszzzz/Graduation-Design/pkg/errors"
	"github.com/hhszzzz/Graduation-Design/pkg/pipeline"
)

const (
	commentListPath  = "/api/comments/list"
	commentAddPath   = "/api/comments/add"
	commentReplyPath = "/api/comments/replies/%d"
	commentLikePath  = "/api/comments/like/%d"
)

// GetComments fetches one page of top-level comments for an article. The
// backend answers with either a page object or a bare comment array; both
// shapes land in the returned CommentPage.
func (c *Client) GetComments(ctx context.Context, query CommentQuery) (CommentPage, error) {
	env, err := c.pipeline.Do(ctx, &pipeline.Request{
		Method: http.MethodGet,
		Path:   commentListPath,
		Query:  query.values(),
		Origin: commentListPath,
	})
	if err != nil {
		return CommentPage{}, err
	}
	return decodeCommentPage(env)
}

// GetReplies fetches the reply thread under one comment.
func (c *Client) GetReplies(ctx context.Context, parentID int64) ([]Comment, error) {
	path := fmt.Sprintf(commentReplyPath, parentID)

	env, err := c.pipeline.Do(ctx, &pipeline.Request{
		Method: http.MethodGet,
		Path:   path,
		Origin: path,
	})
	if err != nil {
		return nil, err
	}

	var replies []Comment
	if err := envelope.Decode(env, &replies); err != nil {
		return nil, err
	}
	return replies, nil
}

// AddComment posts a new comment or reply and returns the stored entry.
func (c *Client) AddComment(ctx context.Context, comment NewComment) (*Comment, error) {
	if comment.Content == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "comment content is required")
	}

	env, err := c.pipeline.Do(ctx, &pipeline.Request{
		Method: http.MethodPost,
		Path:   commentAddPath,
		Body:   comment,
		Origin: commentAddPath,
	})
	if err != nil {
		return nil, err
	}

	var stored Comment
	if err := envelope.Decode(env, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// LikeComment toggles the caller's like on a comment and returns the new
// like count.
func (c *Client) LikeComment(ctx context.Context, commentID int64) (int, error) {
	path := fmt.Sprintf(commentLikePath, commentID)

	env, err := c.pipeline.Do(ctx, &pipeline.Request{
		Method: http.MethodPost,
		Path:   path,
		Origin: path,
	})
	if err != nil {
		return 0, err
	}

	var count int
	if err := envelope.Decode(env, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func decodeCommentPage(env envelope.Envelope) (CommentPage, error) {
	switch env.Data.(type) {
	case []any:
		var list []Comment
		if err := envelope.Decode(env, &list); err != nil {
			return CommentPage{}, err
		}
		return CommentPage{Total: int64(len(list)), List: list}, nil
	case nil:
		return CommentPage{}, nil
	default:
		var page CommentPage
		if err := envelope.Decode(env, &page); err != nil {
			return CommentPage{}, errors.Wrap(errors.CodeMalformedResponse, "comment listing has an unrecognized shape", err)
		}
		return page, nil
	}
}

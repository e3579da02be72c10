package newsclient

import (
	"net/url"
	"strconv"
)

// Comment is one entry in a news article's comment tree.
type Comment struct {
	ID              int64     `json:"id"`
	NewsID          int64     `json:"newsId"`
	NewsType        string    `json:"newsType"`
	UserID          int64     `json:"userId"`
	Content         string    `json:"content"`
	ParentID        int64     `json:"parentId"`
	ReplyToID       int64     `json:"replyToId"`
	LikeCount       int       `json:"likeCount"`
	CreateTime      string    `json:"createTime"`
	UpdateTime      string    `json:"updateTime"`
	Username        string    `json:"username"`
	UserAvatar      string    `json:"userAvatar"`
	ReplyToUsername string    `json:"replyToUsername"`
	Children        []Comment `json:"children"`
}

// CommentPage is the paginated comment listing. The backend sometimes returns
// the page object and sometimes a bare array; GetComments accepts both.
type CommentPage struct {
	Total int64     `json:"total"`
	List  []Comment `json:"list"`
}

type CommentQuery struct {
	NewsID   int64
	NewsType string
	Page     int
	Size     int
}

func (q CommentQuery) values() url.Values {
	values := url.Values{}
	if q.NewsID > 0 {
		values.Set("newsId", strconv.FormatInt(q.NewsID, 10))
	}
	if q.NewsType != "" {
		values.Set("newsType", q.NewsType)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		values.Set("size", strconv.Itoa(q.Size))
	}
	return values
}

type NewComment struct {
	NewsID    int64  `json:"newsId"`
	NewsType  string `json:"newsType,omitempty"`
	Content   string `json:"content"`
	ParentID  int64  `json:"parentId,omitempty"`
	ReplyToID int64  `json:"replyToId,omitempty"`
}

// NewsDetail is a news article. Content is populated when the backend served
// rendered page content instead of structured data.
type NewsDetail struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Link    string `json:"link"`
	Type    string `json:"type,omitempty"`
	Content string `json:"content,omitempty"`
}

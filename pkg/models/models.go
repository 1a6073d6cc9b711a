package models

import "encoding/json"

// Author is the subset of the twitterapi.io author object we keep
type Author struct {
	Type       string `json:"type,omitempty"`
	UserName   string `json:"userName,omitempty"`
	URL        string `json:"url,omitempty"`
	TwitterURL string `json:"twitterUrl,omitempty"`
	ID         string `json:"id,omitempty"`
	Followers  int64  `json:"followers,omitempty"`
	Following  int64  `json:"following,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	Protected  bool   `json:"protected,omitempty"`
}

// Tweet is a single post as returned by the twitterapi.io advanced search
// and thread context endpoints. Raw holds the original JSON object verbatim
// so the store never loses fields the API adds later.
type Tweet struct {
	Type              string          `json:"type,omitempty"`
	ID                string          `json:"id"`
	URL               string          `json:"url,omitempty"`
	TwitterURL        string          `json:"twitterUrl,omitempty"`
	Text              string          `json:"text,omitempty"`
	RetweetCount      int64           `json:"retweetCount,omitempty"`
	ReplyCount        int64           `json:"replyCount,omitempty"`
	QuoteCount        int64           `json:"quoteCount,omitempty"`
	BookmarkCount     int64           `json:"bookmarkCount,omitempty"`
	CreatedAt         string          `json:"createdAt,omitempty"`
	Lang              string          `json:"lang,omitempty"`
	IsReply           bool            `json:"isReply,omitempty"`
	InReplyToID       string          `json:"inReplyToId,omitempty"`
	ConversationID    string          `json:"conversationId,omitempty"`
	InReplyToUserID   string          `json:"inReplyToUserId,omitempty"`
	InReplyToUsername string          `json:"inReplyToUsername,omitempty"`
	Author            *Author         `json:"author,omitempty"`
	PossiblySensitive bool            `json:"possiblySensitive,omitempty"`
	QuotedTweet       json.RawMessage `json:"quoted_tweet,omitempty"`
	RetweetedTweet    json.RawMessage `json:"retweeted_tweet,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the tweet and keeps the original payload in Raw
func (t *Tweet) UnmarshalJSON(data []byte) error {
	type alias Tweet
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = Tweet(a)
	t.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// AuthorUsername returns the author handle, or "" when the author is absent
func (t *Tweet) AuthorUsername() string {
	if t.Author == nil {
		return ""
	}
	return t.Author.UserName
}

// Page is one page of a paginated twitterapi.io result set. Depending on the
// endpoint the items arrive under "tweets" or "replies".
type Page struct {
	Tweets      []Tweet `json:"tweets"`
	Replies     []Tweet `json:"replies"`
	HasNextPage bool    `json:"has_next_page"`
	NextCursor  string  `json:"next_cursor"`
}

// Items returns the tweets on this page regardless of which key carried them
func (p *Page) Items() []Tweet {
	if len(p.Replies) > 0 {
		return p.Replies
	}
	return p.Tweets
}

// Terminal reports whether this is the last page of a thread context
// result set, which signals continuation through both has_next_page and
// next_cursor
func (p *Page) Terminal() bool {
	return !p.HasNextPage || p.NextCursor == ""
}

// TerminalSearch reports whether this is the last page of an advanced
// search result set. The search endpoint signals continuation through
// next_cursor alone; has_next_page is not part of its contract and may
// be absent even when more pages exist.
func (p *Page) TerminalSearch() bool {
	return p.NextCursor == ""
}

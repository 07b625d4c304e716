package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Kind selects which discussion of a product to read.
type Kind string

const (
	// KindComments is the product Q&A / comment thread.
	KindComments Kind = "comments"
	// KindReviews is the rated review thread.
	KindReviews Kind = "reviews"
)

// ParseKind converts a string to a Kind. Empty defaults to KindComments.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindComments, "":
		return KindComments, nil
	case KindReviews:
		return KindReviews, nil
	default:
		return "", ValidationError{Message: fmt.Sprintf("invalid kind %q (expected comments|reviews)", s)}
	}
}

// ID is a record identifier. The API sends it as either a string or a number.
type ID string

// String returns the id as text
func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts a JSON string, a number, or an object with an "id" field.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	case '{':
		var ref struct {
			ID ID `json:"id"`
		}
		if err := json.Unmarshal(data, &ref); err != nil {
			return err
		}
		*id = ref.ID
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid id %s: %w", string(data), err)
		}
		*id = ID(n.String())
		return nil
	}
}

// User is the author of a comment. The API sends either a username or an object.
type User struct {
	ID       ID     `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
}

// UnmarshalJSON accepts a bare username, a numeric user id, or an object.
func (u *User) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &u.Username)
	case '{':
		type plain User
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*u = User(p)
		return nil
	default:
		return u.ID.UnmarshalJSON(data)
	}
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	if u.ID != "" {
		return "user#" + u.ID.String()
	}
	return ""
}

// Comment is one record of a product discussion. Fields the CLI does not
// know about are kept in Extra and written back out unchanged, and so is the
// decoded form of "user". The id and parent_comment are always written as
// strings whatever form they arrived in.
type Comment struct {
	ID            ID     `json:"id"`
	ParentComment *ID    `json:"parent_comment"`
	User          *User  `json:"user,omitempty"`
	Content       string `json:"content,omitempty"`
	Rating        *int   `json:"rating,omitempty"`
	Likes         int    `json:"likes,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`

	rawUser json.RawMessage
}

var commentFields = map[string]bool{
	"id":             true,
	"parent_comment": true,
	"user":           true,
	"content":        true,
	"rating":         true,
	"likes":          true,
	"created_at":     true,
	// replies is produced by the tree builder, never passed through
	"replies": true,
}

// ParentID returns the parent comment id, or "" for a top-level comment.
func (c Comment) ParentID() string {
	if c.ParentComment == nil {
		return ""
	}
	return c.ParentComment.String()
}

// TreeKey reports the identity of a comment for tree building.
func TreeKey(c Comment) (string, string) {
	return c.ID.String(), c.ParentID()
}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra.
func (c *Comment) UnmarshalJSON(data []byte) error {
	type plain Comment
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.rawUser = raw["user"]
	for key := range raw {
		if commentFields[key] {
			delete(raw, key)
		}
	}
	if len(raw) > 0 {
		p.Extra = raw
	}

	*c = Comment(p)
	return nil
}

// MarshalJSON encodes the known fields merged with Extra and the user as
// it was received.
func (c Comment) MarshalJSON() ([]byte, error) {
	type plain Comment
	base, err := json.Marshal(plain(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 && c.rawUser == nil {
		return base, nil
	}

	merged := make(map[string]json.RawMessage, len(c.Extra)+8)
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	if c.rawUser != nil {
		merged["user"] = c.rawUser
	}
	for key, value := range c.Extra {
		if _, ok := merged[key]; ok {
			continue
		}
		merged[key] = value
	}
	return json.Marshal(merged)
}

// Page is one page of a paginated list response.
type Page struct {
	Count    int       `json:"count"`
	Next     *string   `json:"next"`
	Previous *string   `json:"previous"`
	Results  []Comment `json:"results"`
}

// HasNext reports whether another page follows.
func (p *Page) HasNext() bool {
	return p != nil && p.Next != nil && strings.TrimSpace(*p.Next) != ""
}

// ListOptions selects a product discussion page.
type ListOptions struct {
	ProductID string
	Kind      Kind
	Page      int
	PageSize  int
}

func (o ListOptions) path() (string, error) {
	product := strings.TrimSpace(o.ProductID)
	if product == "" {
		return "", ValidationError{Message: "product id is required"}
	}
	kind := o.Kind
	if kind == "" {
		kind = KindComments
	}
	return fmt.Sprintf("/api/products/%s/%s/", url.PathEscape(product), kind), nil
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(o.PageSize))
	}
	return q
}

// ListComments fetches a single page of a product discussion
func (c *Client) ListComments(ctx context.Context, opts ListOptions) (*Page, error) {
	path, err := opts.path()
	if err != nil {
		return nil, err
	}

	resp, err := c.getWithRetry(ctx, path, opts.query())
	if err != nil {
		return nil, err
	}

	page, err := decodePage(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse comments: %w", err)
	}
	return page, nil
}

// ListAllComments fetches pages starting at opts.Page until the last page or
// until maxPages pages have been read (0 = no limit).
func (c *Client) ListAllComments(ctx context.Context, opts ListOptions, maxPages int) ([]Comment, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}

	var all []Comment
	for fetched := 0; maxPages <= 0 || fetched < maxPages; fetched++ {
		page, err := c.ListComments(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", opts.Page, err)
		}
		all = append(all, page.Results...)
		if !page.HasNext() {
			break
		}
		opts.Page++
	}

	if all == nil {
		all = []Comment{}
	}
	return all, nil
}

// decodePage accepts either a paginated envelope or a bare JSON array.
func decodePage(data []byte) (*Page, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var results []Comment
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return nil, err
		}
		return &Page{Count: len(results), Results: results}, nil
	}

	var page Page
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		page.Results = []Comment{}
	}
	return &page, nil
}

// DecodeComments parses comments from a bare JSON array or a paginated
// envelope, as saved from the API.
func DecodeComments(data []byte) ([]Comment, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Comment{}, nil
	}
	page, err := decodePage(data)
	if err != nil {
		return nil, ValidationError{Message: fmt.Sprintf("invalid comment JSON: %v", err)}
	}
	return page.Results, nil
}

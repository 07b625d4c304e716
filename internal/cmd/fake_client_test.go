package cmd

import (
	"context"
	"sync"

	"github.com/salmonumbrella/storefront-cli/internal/api"
	"github.com/salmonumbrella/storefront-cli/internal/secrets"
)

type fakeClient struct {
	ListCommentsFunc    func(context.Context, api.ListOptions) (*api.Page, error)
	ListAllCommentsFunc func(context.Context, api.ListOptions, int) ([]api.Comment, error)
	CurrentUserFunc     func(context.Context) (*api.User, error)
	baseURL             string
}

func (f *fakeClient) ListComments(ctx context.Context, opts api.ListOptions) (*api.Page, error) {
	if f.ListCommentsFunc != nil {
		return f.ListCommentsFunc(ctx, opts)
	}
	return &api.Page{Results: []api.Comment{}}, nil
}

func (f *fakeClient) ListAllComments(ctx context.Context, opts api.ListOptions, maxPages int) ([]api.Comment, error) {
	if f.ListAllCommentsFunc != nil {
		return f.ListAllCommentsFunc(ctx, opts, maxPages)
	}
	return []api.Comment{}, nil
}

func (f *fakeClient) CurrentUser(ctx context.Context) (*api.User, error) {
	if f.CurrentUserFunc != nil {
		return f.CurrentUserFunc(ctx)
	}
	return &api.User{ID: "1", Username: "tester"}, nil
}

func (f *fakeClient) BaseURL() string {
	if f.baseURL == "" {
		return api.DefaultBaseURL
	}
	return f.baseURL
}

type fakeStore struct {
	mu     sync.Mutex
	tokens map[string]secrets.Token
}

func newFakeStore() *fakeStore {
	return &fakeStore{tokens: map[string]secrets.Token{}}
}

func (s *fakeStore) GetToken(profile string) (secrets.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[profile]
	if !ok {
		return secrets.Token{}, secrets.ErrNotFound
	}
	return tok, nil
}

func (s *fakeStore) SetToken(profile string, tok secrets.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[profile] = tok
	return nil
}

func (s *fakeStore) DeleteToken(profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, profile)
	return nil
}

func commentsJSON(raw string) []api.Comment {
	comments, err := api.DecodeComments([]byte(raw))
	if err != nil {
		panic(err)
	}
	return comments
}

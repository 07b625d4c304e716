package api

import "context"

// StorefrontAPI defines the read operations the CLI needs from the
// storefront backend. Commands depend on this interface so they can be
// exercised against a fake.
type StorefrontAPI interface {
	// ListComments fetches one page of a product's comments or reviews.
	ListComments(ctx context.Context, opts ListOptions) (*Page, error)

	// ListAllComments follows pagination and returns every record in
	// server order. maxPages of 0 means no limit.
	ListAllComments(ctx context.Context, opts ListOptions, maxPages int) ([]Comment, error)

	// CurrentUser returns the account the configured token belongs to.
	CurrentUser(ctx context.Context) (*User, error)

	// BaseURL returns the API base URL this client is bound to.
	BaseURL() string
}

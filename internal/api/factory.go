package api

import (
	"fmt"
	"net/url"
	"strings"
)

// NewClientFromCredentials validates the base URL and returns a client for it.
// An empty base URL falls back to DefaultBaseURL.
func NewClientFromCredentials(baseURL, token string, opts ...ClientOption) (StorefrontAPI, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", baseURL)
	}

	opts = append([]ClientOption{WithBaseURL(baseURL)}, opts...)
	return NewClient(token, opts...), nil
}

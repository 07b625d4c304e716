package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmonumbrella/storefront-cli/internal/api"
	"github.com/salmonumbrella/storefront-cli/internal/secrets"
)

func TestAuthLogin_StoresVerifiedToken(t *testing.T) {
	e := newCLIEnv(t)
	e.client.CurrentUserFunc = func(context.Context) (*api.User, error) {
		return &api.User{ID: "3", Username: "shopper"}, nil
	}

	res := e.run("-o", "json", "--token", "tok-1234567890abcd", "--base-url", "https://shop.example.com", "auth", "login")
	require.NoError(t, res.err)
	assert.Equal(t, "tok-1234567890abcd", res.token)
	assert.Equal(t, "https://shop.example.com", res.base)

	tok, err := e.store.GetToken(defaultProfile)
	require.NoError(t, err)
	assert.Equal(t, "tok-1234567890abcd", tok.APIToken)
	assert.Equal(t, "https://shop.example.com", tok.BaseURL)
	assert.False(t, tok.CreatedAt.IsZero())

	var status authStatus
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &status))
	assert.True(t, status.Authenticated)
	assert.Equal(t, "shopper", status.User)
	assert.Equal(t, "tok-...abcd", status.TokenPreview)
}

func TestAuthLogin_PromptsForToken(t *testing.T) {
	e := newCLIEnv(t)
	e.stdin = "typed-token\n"

	res := e.run("-o", "text", "auth", "login", "--no-verify")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "Enter API token: ")
	assert.Contains(t, res.stdout, "Status: Authenticated")

	tok, err := e.store.GetToken(defaultProfile)
	require.NoError(t, err)
	assert.Equal(t, "typed-token", tok.APIToken)
}

func TestAuthLogin_RejectsBadToken(t *testing.T) {
	e := newCLIEnv(t)
	e.client.CurrentUserFunc = func(context.Context) (*api.User, error) {
		return nil, api.AuthenticationError{Message: "invalid or missing API token"}
	}

	res := e.run("-o", "json", "--token", "bad", "auth", "login")
	require.Error(t, res.err)
	var authErr api.AuthenticationError
	assert.True(t, errors.As(res.err, &authErr))

	_, err := e.store.GetToken(defaultProfile)
	assert.ErrorIs(t, err, secrets.ErrNotFound)
}

func TestAuthLogin_StructuredNeedsToken(t *testing.T) {
	e := newCLIEnv(t)
	res := e.run("-o", "json", "auth", "login")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "STOREFRONT_API_TOKEN")
}

func TestAuthStatus(t *testing.T) {
	e := newCLIEnv(t)

	res := e.run("-o", "json", "auth", "status")
	require.NoError(t, res.err)
	assert.JSONEq(t, `{"authenticated": false}`, res.stdout)

	require.NoError(t, e.store.SetToken(defaultProfile, secrets.Token{APIToken: "abcdefghijklmnop"}))
	res = e.run("-o", "text", "auth", "status", "--verify")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Status: Authenticated")
	assert.Contains(t, res.stdout, "API: "+api.DefaultBaseURL)
	assert.Contains(t, res.stdout, "Token: abcd...mnop")
	assert.Contains(t, res.stdout, "User: tester")
	assert.Contains(t, res.stdout, "Verification: OK")
}

func TestAuthStatus_VerifyFailure(t *testing.T) {
	e := newCLIEnv(t)
	e.client.CurrentUserFunc = func(context.Context) (*api.User, error) {
		return nil, api.AuthenticationError{Message: "nope"}
	}
	require.NoError(t, e.store.SetToken(defaultProfile, secrets.Token{APIToken: "abc", BaseURL: "https://shop.example.com"}))

	res := e.run("-o", "json", "auth", "status", "--verify")
	require.NoError(t, res.err)

	var status authStatus
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &status))
	require.NotNil(t, status.Verified)
	assert.False(t, *status.Verified)
	assert.Equal(t, "invalid or expired token", status.VerifyError)
	assert.Equal(t, "https://shop.example.com", status.BaseURL)
	assert.Equal(t, "https://shop.example.com", res.base)
}

func TestAuthLogout(t *testing.T) {
	e := newCLIEnv(t)
	require.NoError(t, e.store.SetToken(defaultProfile, secrets.Token{APIToken: "abc"}))

	res := e.run("-o", "json", "--yes", "auth", "logout")
	require.NoError(t, res.err)
	assert.JSONEq(t, `{"status":"logged_out"}`, res.stdout)

	_, err := e.store.GetToken(defaultProfile)
	assert.ErrorIs(t, err, secrets.ErrNotFound)

	// Logging out twice is fine.
	e.stdin = "yes\n"
	res = e.run("-o", "text", "auth", "logout")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "Type 'yes' to confirm")
	assert.Contains(t, res.stdout, "Logged out")
}

func TestAuthLogout_Aborted(t *testing.T) {
	e := newCLIEnv(t)
	require.NoError(t, e.store.SetToken(defaultProfile, secrets.Token{APIToken: "abc"}))
	e.stdin = "no\n"

	res := e.run("-o", "text", "auth", "logout")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "Aborted.")
	assert.Empty(t, res.stdout)

	tok, err := e.store.GetToken(defaultProfile)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.APIToken)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "****", maskToken(""))
	assert.Equal(t, "****", maskToken("short"))
	assert.Equal(t, "1234...cdef", maskToken("1234567890abcdef"))
}

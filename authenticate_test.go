// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAccessToken(client *Client, user *User) func(ctx context.Context, accessToken string) (*Token, error) {
	return func(ctx context.Context, accessToken string) (*Token, error) {
		if accessToken != "tok-1" {
			return nil, nil
		}
		return &Token{
			AccessToken:          accessToken,
			AccessTokenExpiresAt: time.Now().Add(time.Hour),
			Scope:                "read write",
			Client:               client,
			User:                 user,
		}, nil
	}
}

func TestAuthenticateBearerHeader(t *testing.T) {
	model := &mockModel{
		getAccessToken: validAccessToken(&Client{ID: "c1"}, &User{Username: "alice"}),
	}
	server, err := NewServer(model)
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, map[string]string{"authorization": "Bearer tok-1"}, nil, nil)
	res := NewResponse()

	user, err := server.Authenticate(context.Background(), req, res, nil)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)
}

func TestAuthenticateNoCredentials(t *testing.T) {
	server, err := NewServer(&mockModel{})
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, nil, nil, nil)
	res := NewResponse()

	user, err := server.Authenticate(context.Background(), req, res, nil)
	require.Error(t, err)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUnauthorizedRequest)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, `Bearer realm="Service"`, res.Header("WWW-Authenticate"))
	assert.Equal(t, "Unauthorized request: no authentication given", res.Body["error_description"])
}

func TestAuthenticateMultipleSources(t *testing.T) {
	server, err := NewServer(&mockModel{})
	require.NoError(t, err)

	req := NewRequest(http.MethodGet,
		map[string]string{"authorization": "Bearer tok-1"},
		map[string]string{"access_token": "tok-1"}, nil)
	res := NewResponse()

	_, err = server.Authenticate(context.Background(), req, res, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, "Invalid request: only one authentication method is allowed", res.Body["error_description"])
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	server, err := NewServer(&mockModel{})
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, map[string]string{"authorization": "Basic dXNlcjpwYXNz"}, nil, nil)
	res := NewResponse()

	_, err = server.Authenticate(context.Background(), req, res, nil)
	require.Error(t, err)
	assert.Equal(t, "Invalid request: malformed authorization header", AsError(err).Message)
}

func TestAuthenticateQueryTokenDisabledByDefault(t *testing.T) {
	model := &mockModel{
		getAccessToken: validAccessToken(&Client{ID: "c1"}, &User{Username: "alice"}),
	}
	server, err := NewServer(model)
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, nil, map[string]string{"access_token": "tok-1"}, nil)

	_, err = server.Authenticate(context.Background(), req, NewResponse(), nil)
	require.Error(t, err)
	assert.Equal(t, "Invalid request: do not send bearer tokens in query URLs", AsError(err).Message)

	opts := &AuthenticateOptions{AllowBearerTokensInQueryString: Bool(true)}
	user, err := server.Authenticate(context.Background(), req, NewResponse(), opts)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestAuthenticateBodyTokenRules(t *testing.T) {
	model := &mockModel{
		getAccessToken: validAccessToken(&Client{ID: "c1"}, &User{Username: "alice"}),
	}
	server, err := NewServer(model)
	require.NoError(t, err)

	// GET may not carry the token in the body.
	req := NewRequest(http.MethodGet, map[string]string{
		"content-type": "application/x-www-form-urlencoded",
	}, nil, map[string]string{"access_token": "tok-1"})
	_, err = server.Authenticate(context.Background(), req, NewResponse(), nil)
	require.Error(t, err)
	assert.Equal(t, "Invalid request: token may not be passed in the body when using the GET verb", AsError(err).Message)

	// Non-form bodies are rejected.
	req = NewRequest(http.MethodPost, map[string]string{
		"content-type": "application/json",
	}, nil, map[string]string{"access_token": "tok-1"})
	_, err = server.Authenticate(context.Background(), req, NewResponse(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// Form-encoded POST works.
	req = postForm(map[string]string{"access_token": "tok-1"}, nil)
	user, err := server.Authenticate(context.Background(), req, NewResponse(), nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestAuthenticateUnknownToken(t *testing.T) {
	server, err := NewServer(&mockModel{
		getAccessToken: func(ctx context.Context, accessToken string) (*Token, error) {
			return nil, nil
		},
	})
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, map[string]string{"authorization": "Bearer nope"}, nil, nil)
	res := NewResponse()

	_, err = server.Authenticate(context.Background(), req, res, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Invalid token: access token is invalid", res.Body["error_description"])
}

func TestAuthenticateExpiredToken(t *testing.T) {
	server, err := NewServer(&mockModel{
		getAccessToken: func(ctx context.Context, accessToken string) (*Token, error) {
			return &Token{
				AccessToken:          accessToken,
				AccessTokenExpiresAt: time.Now().Add(-time.Minute),
				User:                 &User{Username: "alice"},
			}, nil
		},
	})
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, map[string]string{"authorization": "Bearer tok-1"}, nil, nil)

	_, err = server.Authenticate(context.Background(), req, NewResponse(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, "Invalid token: access token has expired", AsError(err).Message)
}

func TestAuthenticateTokenExpiringExactlyNow(t *testing.T) {
	// An expiry equal to the current instant already counts as expired;
	// only a strictly-future expiry passes.
	boundary := time.Now()
	server, err := NewServer(&mockModel{
		getAccessToken: func(ctx context.Context, accessToken string) (*Token, error) {
			return &Token{
				AccessToken:          accessToken,
				AccessTokenExpiresAt: boundary,
				User:                 &User{Username: "alice"},
			}, nil
		},
	})
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, map[string]string{"authorization": "Bearer tok-1"}, nil, nil)

	_, err = server.Authenticate(context.Background(), req, NewResponse(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, "Invalid token: access token has expired", AsError(err).Message)
}

func TestAuthenticateMissingExpiry(t *testing.T) {
	server, err := NewServer(&mockModel{
		getAccessToken: func(ctx context.Context, accessToken string) (*Token, error) {
			return &Token{AccessToken: accessToken, User: &User{Username: "alice"}}, nil
		},
	})
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, map[string]string{"authorization": "Bearer tok-1"}, nil, nil)

	_, err = server.Authenticate(context.Background(), req, NewResponse(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerError)
}

func TestAuthenticateScopeHeaders(t *testing.T) {
	model := &mockModel{
		getAccessToken: validAccessToken(&Client{ID: "c1"}, &User{Username: "alice"}),
	}
	server, err := NewServer(model)
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, map[string]string{"authorization": "Bearer tok-1"}, nil, nil)
	res := NewResponse()

	opts := &AuthenticateOptions{Scope: "read"}
	_, err = server.Authenticate(context.Background(), req, res, opts)
	require.NoError(t, err)
	assert.Equal(t, "read", res.Header("X-Accepted-OAuth-Scopes"))
	assert.Equal(t, "read write", res.Header("X-OAuth-Scopes"))

	// Both headers can be suppressed.
	res = NewResponse()
	opts = &AuthenticateOptions{
		Scope:                     "read",
		AddAcceptedScopesHeader:   Bool(false),
		AddAuthorizedScopesHeader: Bool(false),
	}
	_, err = server.Authenticate(context.Background(), req, res, opts)
	require.NoError(t, err)
	assert.Empty(t, res.Header("X-Accepted-OAuth-Scopes"))
	assert.Empty(t, res.Header("X-OAuth-Scopes"))
}

func TestAuthenticateInsufficientScope(t *testing.T) {
	model := &mockModel{
		getAccessToken: validAccessToken(&Client{ID: "c1"}, &User{Username: "alice"}),
		verifyScope: func(ctx context.Context, token *Token, scope string) (bool, error) {
			return false, nil
		},
	}
	server, err := NewServer(model)
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, map[string]string{"authorization": "Bearer tok-1"}, nil, nil)
	res := NewResponse()

	_, err = server.Authenticate(context.Background(), req, res, &AuthenticateOptions{Scope: "admin"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientScope)
	assert.Equal(t, http.StatusForbidden, res.Status)
}

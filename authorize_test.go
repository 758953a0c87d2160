// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authorizeUser(user *User) *AuthorizeOptions {
	return &AuthorizeOptions{
		AuthenticateHandler: AuthenticateHandlerFunc(func(ctx context.Context, req *Request, res *Response) (*User, error) {
			return user, nil
		}),
	}
}

func TestAuthorizeCodeFlow(t *testing.T) {
	client := &Client{
		ID:           "c1",
		Grants:       []string{"authorization_code"},
		RedirectURIs: []string{"https://app/cb"},
	}
	var saved *AuthorizationCode
	model := &mockModel{
		getClient: func(ctx context.Context, id, secret string) (*Client, error) {
			assert.Equal(t, "c1", id)
			assert.Empty(t, secret)
			return client, nil
		},
		saveAuthorizationCode: func(ctx context.Context, code *AuthorizationCode, c *Client, u *User) (*AuthorizationCode, error) {
			saved = code
			return code, nil
		},
	}
	server, err := NewServer(model)
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, nil, map[string]string{
		"response_type": "code",
		"client_id":     "c1",
		"redirect_uri":  "https://app/cb?foo=1",
		"scope":         "read",
		"state":         "xyz",
	}, nil)
	res := NewResponse()

	// The requested redirect URI carries a query parameter; clients must not
	// see it echoed back on the success redirect.
	client.RedirectURIs = []string{"https://app/cb?foo=1"}

	err = server.Authorize(context.Background(), req, res, authorizeUser(&User{Username: "alice"}))
	require.NoError(t, err)

	require.NotNil(t, saved)
	assert.Len(t, saved.AuthorizationCode, 40)
	assert.Equal(t, "read", saved.Scope)

	assert.Equal(t, http.StatusFound, res.Status)
	location := res.Header("Location")
	assert.Equal(t, "https://app/cb?code="+saved.AuthorizationCode+"&scope=read&state=xyz", location)
	assert.NotContains(t, location, "foo=1")
}

func TestAuthorizeTokenFlowFragment(t *testing.T) {
	client := &Client{
		ID:           "c1",
		Grants:       []string{"implicit"},
		RedirectURIs: []string{"https://x/cb"},
	}
	model := &mockModel{
		getClient: func(ctx context.Context, id, secret string) (*Client, error) {
			return client, nil
		},
	}
	server, err := NewServer(model)
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, nil, map[string]string{
		"response_type": "token",
		"client_id":     "c1",
		"redirect_uri":  "https://x/cb",
		"state":         "st8",
	}, nil)
	res := NewResponse()

	err = server.Authorize(context.Background(), req, res, authorizeUser(&User{Username: "alice"}))
	require.NoError(t, err)

	location := res.Header("Location")
	u, err := url.Parse(location)
	require.NoError(t, err)
	assert.Empty(t, u.RawQuery)
	assert.True(t, strings.HasPrefix(u.Fragment, "access_token="))
	assert.Contains(t, u.Fragment, "expires_in=")
	assert.Contains(t, u.Fragment, "state=st8")
}

func TestAuthorizeAccessDenied(t *testing.T) {
	server, err := NewServer(&mockModel{})
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, nil, map[string]string{
		"allowed":       "false",
		"response_type": "code",
		"client_id":     "c1",
		"redirect_uri":  "https://app/cb",
		"state":         "xyz",
	}, nil)
	res := NewResponse()

	err = server.Authorize(context.Background(), req, res, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAccessDenied)

	// The error is delivered by redirect since a redirect_uri was supplied.
	assert.Equal(t, http.StatusFound, res.Status)
	u, perr := url.Parse(res.Header("Location"))
	require.NoError(t, perr)
	assert.Equal(t, "access_denied", u.Query().Get("error"))
	assert.Equal(t, "access_denied", res.Body["error"])
}

func TestAuthorizeDenialReadFromQueryOnly(t *testing.T) {
	// Consent denial is a query-string signal; a body parameter of the same
	// name is ignored and the pipeline proceeds.
	server, err := NewServer(&mockModel{})
	require.NoError(t, err)

	req := NewRequest(http.MethodPost, map[string]string{
		"content-type": "application/x-www-form-urlencoded",
	}, map[string]string{
		"response_type": "code",
		"client_id":     "c1",
		"redirect_uri":  "https://app/cb",
		"state":         "xyz",
	}, map[string]string{"allowed": "false"})
	res := NewResponse()

	err = server.Authorize(context.Background(), req, res, authorizeUser(&User{Username: "alice"}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAccessDenied)
	assert.ErrorIs(t, err, ErrInvalidClient)
}

func TestAuthorizeStateRequired(t *testing.T) {
	server, err := NewServer(&mockModel{})
	require.NoError(t, err)

	query := map[string]string{
		"response_type": "code",
		"client_id":     "c1",
		"redirect_uri":  "https://app/cb",
	}
	req := NewRequest(http.MethodGet, nil, query, nil)
	res := NewResponse()

	err = server.Authorize(context.Background(), req, res, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, "Missing parameter: `state`", AsError(err).Message)

	// allowEmptyState waives the requirement; the pipeline then proceeds to
	// resource owner authentication.
	opts := authorizeUser(&User{Username: "alice"})
	opts.AllowEmptyState = Bool(true)
	res = NewResponse()
	err = server.Authorize(context.Background(), NewRequest(http.MethodGet, nil, query, nil), res, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidClient)
}

func TestAuthorizeStateCharacterClass(t *testing.T) {
	server, err := NewServer(&mockModel{})
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, nil, map[string]string{
		"response_type": "code",
		"client_id":     "c1",
		"redirect_uri":  "https://app/cb",
		"state":         "with\nnewline",
	}, nil)
	res := NewResponse()

	err = server.Authorize(context.Background(), req, res, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, "Invalid parameter: `state`", AsError(err).Message)
}

func TestAuthorizeUnsupportedResponseType(t *testing.T) {
	server, err := NewServer(&mockModel{})
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, nil, map[string]string{
		"response_type": "id_token",
		"client_id":     "c1",
		"redirect_uri":  "https://app/cb",
		"state":         "xyz",
	}, nil)
	res := NewResponse()

	err = server.Authorize(context.Background(), req, res, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedResponseType)
}

func TestAuthorizeInvalidClientNeverRedirects(t *testing.T) {
	// Unknown client: 401 JSON, no Location header, per RFC 6749 4.1.2.1.
	server, err := NewServer(&mockModel{})
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, nil, map[string]string{
		"response_type": "code",
		"client_id":     "ghost",
		"redirect_uri":  "https://app/cb",
		"state":         "xyz",
	}, nil)
	res := NewResponse()

	err = server.Authorize(context.Background(), req, res, authorizeUser(&User{Username: "alice"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidClient)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Empty(t, res.Header("Location"))
	assert.Equal(t, "invalid_client", res.Body["error"])
}

func TestAuthorizeRedirectURIMustBeRegistered(t *testing.T) {
	model := &mockModel{
		getClient: func(ctx context.Context, id, secret string) (*Client, error) {
			return &Client{
				ID:           "c1",
				Grants:       []string{"authorization_code"},
				RedirectURIs: []string{"https://app/cb"},
			}, nil
		},
	}
	server, err := NewServer(model)
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, nil, map[string]string{
		"response_type": "code",
		"client_id":     "c1",
		"redirect_uri":  "https://evil/cb",
		"state":         "xyz",
	}, nil)
	res := NewResponse()

	err = server.Authorize(context.Background(), req, res, authorizeUser(&User{Username: "alice"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidClient)
	assert.Equal(t, "Invalid client: `redirect_uri` does not match client value", AsError(err).Message)
}

func TestAuthorizeClientMissingGrantForResponseType(t *testing.T) {
	model := &mockModel{
		getClient: func(ctx context.Context, id, secret string) (*Client, error) {
			return &Client{
				ID:           "c1",
				Grants:       []string{"authorization_code"},
				RedirectURIs: []string{"https://app/cb"},
			}, nil
		},
	}
	server, err := NewServer(model)
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, nil, map[string]string{
		"response_type": "token",
		"client_id":     "c1",
		"redirect_uri":  "https://app/cb",
		"state":         "xyz",
	}, nil)
	res := NewResponse()

	err = server.Authorize(context.Background(), req, res, authorizeUser(&User{Username: "alice"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorizedClient)
}

func TestAuthorizeHandlerMustReturnUser(t *testing.T) {
	model := &mockModel{
		getClient: func(ctx context.Context, id, secret string) (*Client, error) {
			return &Client{
				ID:           "c1",
				Grants:       []string{"authorization_code"},
				RedirectURIs: []string{"https://app/cb"},
			}, nil
		},
	}
	server, err := NewServer(model)
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, nil, map[string]string{
		"response_type": "code",
		"client_id":     "c1",
		"redirect_uri":  "https://app/cb",
		"state":         "xyz",
	}, nil)
	res := NewResponse()

	err = server.Authorize(context.Background(), req, res, authorizeUser(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerError)
	assert.Equal(t, "Server error: `handle()` did not return a `user` object", AsError(err).Message)
}

func TestAuthorizeScopeRejected(t *testing.T) {
	model := &mockModel{
		getClient: func(ctx context.Context, id, secret string) (*Client, error) {
			return &Client{
				ID:           "c1",
				Grants:       []string{"authorization_code"},
				RedirectURIs: []string{"https://app/cb"},
			}, nil
		},
		validateScope: func(ctx context.Context, user *User, client *Client, scope string) (string, error) {
			return "", nil
		},
	}
	server, err := NewServer(model)
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, nil, map[string]string{
		"response_type": "code",
		"client_id":     "c1",
		"redirect_uri":  "https://app/cb",
		"scope":         "admin",
		"state":         "xyz",
	}, nil)
	res := NewResponse()

	err = server.Authorize(context.Background(), req, res, authorizeUser(&User{Username: "alice"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidScope)
}

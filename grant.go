// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import (
	"context"
	"time"

	"trpc.group/trpc-go/trpc-oauth2-go/internal/tokengen"
)

// Grant handles one token request for an already authenticated client and
// returns the saved token record.
type Grant interface {
	Handle(ctx context.Context, req *Request, client *Client) (*Token, error)
}

// GrantOptions carries the resolved lifetimes and rotation policy a grant
// operates under. Per-client overrides are applied inside the grant.
type GrantOptions struct {
	AccessTokenLifetime        int // seconds
	RefreshTokenLifetime       int // seconds
	AlwaysIssueNewRefreshToken bool
}

// GrantFactory builds a grant bound to a model and options. Extension grant
// types register factories of this shape.
type GrantFactory func(model Model, opts GrantOptions) (Grant, error)

// builtinGrantFactories maps the standard grant_type identifiers to their
// factories. The implicit grant is absent: it is reachable only through the
// Authorize endpoint's token response type.
var builtinGrantFactories = map[string]GrantFactory{
	"authorization_code": newAuthorizationCodeGrant,
	"client_credentials": newClientCredentialsGrant,
	"password":           newPasswordGrant,
	"refresh_token":      newRefreshTokenGrant,
}

// baseGrant supplies the behavior all grant flows share: scope validation,
// token generation with Model generator hooks, expiry computation and final
// persistence.
type baseGrant struct {
	model Model
	opts  GrantOptions
}

// generateAccessToken prefers the Model's generator and falls back to the
// built-in opaque generator on an empty result.
func (g *baseGrant) generateAccessToken(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	if gen, ok := g.model.(AccessTokenGenerator); ok {
		token, err := gen.GenerateAccessToken(ctx, client, user, scope)
		if err != nil {
			return "", err
		}
		if token != "" {
			return token, nil
		}
	}
	return tokengen.GenerateRandomToken()
}

func (g *baseGrant) generateRefreshToken(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	if gen, ok := g.model.(RefreshTokenGenerator); ok {
		token, err := gen.GenerateRefreshToken(ctx, client, user, scope)
		if err != nil {
			return "", err
		}
		if token != "" {
			return token, nil
		}
	}
	return tokengen.GenerateRandomToken()
}

// accessTokenExpiresAt computes the access token expiry, honoring the
// client's lifetime override.
func (g *baseGrant) accessTokenExpiresAt(client *Client) time.Time {
	lifetime := g.opts.AccessTokenLifetime
	if client.AccessTokenLifetime > 0 {
		lifetime = client.AccessTokenLifetime
	}
	return time.Now().Add(time.Duration(lifetime) * time.Second)
}

func (g *baseGrant) refreshTokenExpiresAt(client *Client) time.Time {
	lifetime := g.opts.RefreshTokenLifetime
	if client.RefreshTokenLifetime > 0 {
		lifetime = client.RefreshTokenLifetime
	}
	return time.Now().Add(time.Duration(lifetime) * time.Second)
}

// validateScope consults the Model's ScopeValidator capability when present;
// Models without it accept the requested scope verbatim.
func (g *baseGrant) validateScope(ctx context.Context, user *User, client *Client, scope string) (string, error) {
	validator, ok := g.model.(ScopeValidator)
	if !ok {
		return scope, nil
	}
	validated, err := validator.ValidateScope(ctx, user, client, scope)
	if err != nil {
		return "", err
	}
	// An empty requested scope is simply absent; rejection applies only to
	// scopes the client actually asked for.
	if validated == "" && scope != "" {
		return "", NewError(ErrInvalidScope, "Invalid scope: Requested scope is invalid")
	}
	return validated, nil
}

// saveToken persists the record and enforces the Model contract of
// returning the stored token.
func (g *baseGrant) saveToken(ctx context.Context, token *Token, client *Client, user *User) (*Token, error) {
	saved, err := g.model.SaveToken(ctx, token, client, user)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, NewError(ErrServerError, "Server error: `saveToken()` did not return a `token` object")
	}
	return saved, nil
}

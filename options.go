// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import "context"

// Per-endpoint option records. The zero value of every field means "inherit
// the server default"; scalar overrides use pointer fields so an explicit
// false/0 can be told apart from unset. Use Bool/Int for literals and
// ParseBoolOption for query-string passthroughs carrying "true"/"false".

// Default option values applied by NewServer.
const (
	DefaultAccessTokenLifetime       = 1800  // seconds
	DefaultRefreshTokenLifetime      = 86400 // seconds
	DefaultAuthorizationCodeLifetime = 300   // seconds
)

// Bool returns a pointer to b, for use in option records.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i, for use in option records.
func Int(i int) *int { return &i }

// ParseBoolOption coerces the literal strings "true" and "false" into a
// bool option. Any other value, including the empty string, yields nil
// (option unset). Query-string passthroughs carry booleans as strings; this
// is their sanctioned conversion.
func ParseBoolOption(s string) *bool {
	switch s {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return nil
}

// AuthenticateHandler establishes the resource owner identity for the
// Authorize endpoint, typically by driving a login page. It must return a
// non-nil user on success.
type AuthenticateHandler interface {
	Execute(ctx context.Context, req *Request, res *Response) (*User, error)
}

// AuthenticateHandlerFunc adapts a function to the AuthenticateHandler
// interface.
type AuthenticateHandlerFunc func(ctx context.Context, req *Request, res *Response) (*User, error)

// Execute implements AuthenticateHandler.
func (f AuthenticateHandlerFunc) Execute(ctx context.Context, req *Request, res *Response) (*User, error) {
	return f(ctx, req, res)
}

// AuthorizeOptions configures the Authorize endpoint.
type AuthorizeOptions struct {
	// AuthenticateHandler authenticates the resource owner. When nil the
	// server's bearer Authenticate endpoint is used.
	AuthenticateHandler AuthenticateHandler

	AccessTokenLifetime       *int // seconds, for the token response type
	AuthorizationCodeLifetime *int // seconds
	AllowEmptyState           *bool
}

// TokenOptions configures the Token endpoint.
type TokenOptions struct {
	AccessTokenLifetime          *int
	RefreshTokenLifetime         *int
	AllowExtendedTokenAttributes *bool
	AlwaysIssueNewRefreshToken   *bool

	// RequireClientAuthentication toggles the client_secret requirement per
	// grant type. Grants absent from the map require authentication.
	RequireClientAuthentication map[string]bool

	// ExtendedGrantTypes registers additional grant factories keyed by
	// grant_type identifier (NCHAR or absolute URI).
	ExtendedGrantTypes map[string]GrantFactory
}

// AuthenticateOptions configures the bearer Authenticate endpoint.
type AuthenticateOptions struct {
	// Scope, when non-empty, is required of every presented token and
	// checked through the Model's VerifyScope capability.
	Scope string

	AddAcceptedScopesHeader        *bool
	AddAuthorizedScopesHeader      *bool
	AllowBearerTokensInQueryString *bool
}

// IntrospectOptions configures the Introspect endpoint.
type IntrospectOptions struct {
	IsClientSecretRequired *bool
}

// RevokeOptions configures the Revoke endpoint.
type RevokeOptions struct {
	IsClientSecretRequired *bool
}

// Resolved per-call configurations. Defaults are overlaid with the per-call
// record so callers never observe cross-request pollution.

type authorizeConfig struct {
	authenticateHandler       AuthenticateHandler
	accessTokenLifetime       int
	authorizationCodeLifetime int
	allowEmptyState           bool
}

type tokenConfig struct {
	accessTokenLifetime          int
	refreshTokenLifetime         int
	allowExtendedTokenAttributes bool
	alwaysIssueNewRefreshToken   bool
	requireClientAuthentication  map[string]bool
	extendedGrantTypes           map[string]GrantFactory
}

type authenticateConfig struct {
	scope                          string
	addAcceptedScopesHeader        bool
	addAuthorizedScopesHeader      bool
	allowBearerTokensInQueryString bool
}

type introspectConfig struct {
	isClientSecretRequired bool
}

func (c authorizeConfig) overlay(opts *AuthorizeOptions) authorizeConfig {
	if opts == nil {
		return c
	}
	if opts.AuthenticateHandler != nil {
		c.authenticateHandler = opts.AuthenticateHandler
	}
	if opts.AccessTokenLifetime != nil {
		c.accessTokenLifetime = *opts.AccessTokenLifetime
	}
	if opts.AuthorizationCodeLifetime != nil {
		c.authorizationCodeLifetime = *opts.AuthorizationCodeLifetime
	}
	if opts.AllowEmptyState != nil {
		c.allowEmptyState = *opts.AllowEmptyState
	}
	return c
}

func (c tokenConfig) overlay(opts *TokenOptions) tokenConfig {
	if opts == nil {
		return c
	}
	if opts.AccessTokenLifetime != nil {
		c.accessTokenLifetime = *opts.AccessTokenLifetime
	}
	if opts.RefreshTokenLifetime != nil {
		c.refreshTokenLifetime = *opts.RefreshTokenLifetime
	}
	if opts.AllowExtendedTokenAttributes != nil {
		c.allowExtendedTokenAttributes = *opts.AllowExtendedTokenAttributes
	}
	if opts.AlwaysIssueNewRefreshToken != nil {
		c.alwaysIssueNewRefreshToken = *opts.AlwaysIssueNewRefreshToken
	}
	if opts.RequireClientAuthentication != nil {
		merged := make(map[string]bool, len(c.requireClientAuthentication)+len(opts.RequireClientAuthentication))
		for k, v := range c.requireClientAuthentication {
			merged[k] = v
		}
		for k, v := range opts.RequireClientAuthentication {
			merged[k] = v
		}
		c.requireClientAuthentication = merged
	}
	if opts.ExtendedGrantTypes != nil {
		merged := make(map[string]GrantFactory, len(c.extendedGrantTypes)+len(opts.ExtendedGrantTypes))
		for k, v := range c.extendedGrantTypes {
			merged[k] = v
		}
		for k, v := range opts.ExtendedGrantTypes {
			merged[k] = v
		}
		c.extendedGrantTypes = merged
	}
	return c
}

func (c authenticateConfig) overlay(opts *AuthenticateOptions) authenticateConfig {
	if opts == nil {
		return c
	}
	if opts.Scope != "" {
		c.scope = opts.Scope
	}
	if opts.AddAcceptedScopesHeader != nil {
		c.addAcceptedScopesHeader = *opts.AddAcceptedScopesHeader
	}
	if opts.AddAuthorizedScopesHeader != nil {
		c.addAuthorizedScopesHeader = *opts.AddAuthorizedScopesHeader
	}
	if opts.AllowBearerTokensInQueryString != nil {
		c.allowBearerTokensInQueryString = *opts.AllowBearerTokensInQueryString
	}
	return c
}

func (c introspectConfig) overlayIntrospect(opts *IntrospectOptions) introspectConfig {
	if opts != nil && opts.IsClientSecretRequired != nil {
		c.isClientSecretRequired = *opts.IsClientSecretRequired
	}
	return c
}

func (c introspectConfig) overlayRevoke(opts *RevokeOptions) introspectConfig {
	if opts != nil && opts.IsClientSecretRequired != nil {
		c.isClientSecretRequired = *opts.IsClientSecretRequired
	}
	return c
}

// requiresClientAuthentication reports whether the given grant type must
// present a client secret.
func (c tokenConfig) requiresClientAuthentication(grantType string) bool {
	required, ok := c.requireClientAuthentication[grantType]
	if !ok {
		return true
	}
	return required
}

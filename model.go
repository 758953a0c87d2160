// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import "context"

// Model is the data access backend supplied by the host application. The
// engine performs no persistence of its own; every load, save and revoke
// goes through the Model, which must be safe for concurrent use.
//
// Model defines the capabilities every endpoint requires. Grant and
// endpoint specific capabilities live on the optional interfaces below;
// a Model missing a capability needed by an invoked operation causes that
// operation to fail with invalid_argument.
//
// A nil object or empty string result means "not found" and is mapped to
// the precise taxonomy error by the calling endpoint.
type Model interface {
	// GetClient loads a client by id. secret is empty when the caller does
	// not require client authentication; a non-empty secret must be
	// verified by the Model.
	GetClient(ctx context.Context, clientID, clientSecret string) (*Client, error)

	// SaveToken persists a token record bound to client and user, returning
	// the stored record.
	SaveToken(ctx context.Context, token *Token, client *Client, user *User) (*Token, error)
}

// AuthorizationCodeModel supports the authorization_code grant and the
// Authorize endpoint's code response type.
type AuthorizationCodeModel interface {
	Model
	GetAuthorizationCode(ctx context.Context, code string) (*AuthorizationCode, error)
	SaveAuthorizationCode(ctx context.Context, code *AuthorizationCode, client *Client, user *User) (*AuthorizationCode, error)

	// RevokeAuthorizationCode invalidates a redeemed code. A false result
	// fails the redemption with invalid_grant.
	RevokeAuthorizationCode(ctx context.Context, code *AuthorizationCode) (bool, error)
}

// PasswordModel supports the password grant.
type PasswordModel interface {
	Model
	GetUser(ctx context.Context, username, password string) (*User, error)
}

// ClientCredentialsModel supports the client_credentials grant.
type ClientCredentialsModel interface {
	Model
	GetUserFromClient(ctx context.Context, client *Client) (*User, error)
}

// RefreshTokenModel supports the refresh_token grant.
type RefreshTokenModel interface {
	Model
	GetRefreshToken(ctx context.Context, refreshToken string) (*Token, error)
	RevokeRefreshToken(ctx context.Context, token *Token) (bool, error)
}

// AccessTokenModel supports the bearer Authenticate endpoint and token
// lookup during introspection and revocation.
type AccessTokenModel interface {
	Model
	GetAccessToken(ctx context.Context, accessToken string) (*Token, error)
}

// AccessTokenRevoker supports revocation of access tokens (RFC 7009).
type AccessTokenRevoker interface {
	RevokeAccessToken(ctx context.Context, token *Token) (bool, error)
}

// ScopeValidator is an optional capability invoked when present to narrow or
// reject a requested scope. An empty result rejects the request with
// invalid_scope. Models without this capability accept scopes verbatim.
type ScopeValidator interface {
	ValidateScope(ctx context.Context, user *User, client *Client, scope string) (string, error)
}

// ScopeVerifier is required by the Authenticate endpoint when it is
// configured with a required scope.
type ScopeVerifier interface {
	VerifyScope(ctx context.Context, token *Token, scope string) (bool, error)
}

// AccessTokenGenerator optionally overrides the engine's opaque token
// generator. An empty result falls back to the built-in generator.
type AccessTokenGenerator interface {
	GenerateAccessToken(ctx context.Context, client *Client, user *User, scope string) (string, error)
}

// RefreshTokenGenerator optionally overrides refresh token generation.
type RefreshTokenGenerator interface {
	GenerateRefreshToken(ctx context.Context, client *Client, user *User, scope string) (string, error)
}

// AuthorizationCodeGenerator optionally overrides authorization code
// generation.
type AuthorizationCodeGenerator interface {
	GenerateAuthorizationCode(ctx context.Context, client *Client, user *User, scope string) (string, error)
}

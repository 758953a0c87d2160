// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import "time"

// Client describes an OAuth client registered with the host application.
// The Model owns persistence and secret verification; the engine only reads
// these fields.
type Client struct {
	ID           string   `json:"id"`            // Client identifier
	Grants       []string `json:"grants"`        // Grant type identifiers the client may use
	RedirectURIs []string `json:"redirect_uris"` // Registered redirect URIs, exact match

	// Per-client lifetime overrides in seconds. Zero means use the endpoint
	// option defaults.
	AccessTokenLifetime       int `json:"access_token_lifetime,omitempty"`
	RefreshTokenLifetime      int `json:"refresh_token_lifetime,omitempty"`
	AuthorizationCodeLifetime int `json:"authorization_code_lifetime,omitempty"`

	// Extra carries host defined attributes the engine passes through.
	Extra map[string]interface{} `json:"-"`
}

// User is the resource owner identity established by the Model or the
// resource owner authenticator. Username is surfaced by introspection.
type User struct {
	Username string `json:"username"`

	// Extra carries host defined attributes the engine passes through.
	Extra map[string]interface{} `json:"-"`
}

// AuthorizationCode is a short lived single use credential redeemable for a
// token. Codes are revoked atomically with redemption.
type AuthorizationCode struct {
	AuthorizationCode string    `json:"authorization_code"`
	ExpiresAt         time.Time `json:"expires_at"`
	RedirectURI       string    `json:"redirect_uri,omitempty"` // If set, must match exactly on redeem
	Scope             string    `json:"scope,omitempty"`
	Client            *Client   `json:"-"`
	User              *User     `json:"-"`
}

// Token is the persisted credential record the Model stores and returns.
type Token struct {
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitempty"`
	Scope                 string    `json:"scope,omitempty"`
	Client                *Client   `json:"-"`
	User                  *User     `json:"-"`

	// Extra carries host defined attributes copied onto the wire response
	// when AllowExtendedTokenAttributes is enabled.
	Extra map[string]interface{} `json:"-"`
}

// accessTokenLifetime returns the whole seconds remaining until the access
// token expires, relative to now.
func (t *Token) accessTokenLifetime(now time.Time) int64 {
	return int64(t.AccessTokenExpiresAt.Sub(now).Milliseconds() / 1000)
}

// BearerToken is the RFC 6750 wire representation of an issued token.
type BearerToken struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

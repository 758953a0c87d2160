// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import "context"

// implicitGrant issues an access token directly from the Authorize
// endpoint's token response type (RFC 6749 section 4.2). It is never
// reachable through the Token endpoint and never issues a refresh token.
type implicitGrant struct {
	baseGrant
	user  *User
	scope string
}

func newImplicitGrant(model Model, opts GrantOptions, user *User, scope string) (*implicitGrant, error) {
	if user == nil {
		return nil, NewError(ErrInvalidArgument, "missing user for implicit grant")
	}
	return &implicitGrant{
		baseGrant: baseGrant{model: model, opts: opts},
		user:      user,
		scope:     scope,
	}, nil
}

func (g *implicitGrant) Handle(ctx context.Context, req *Request, client *Client) (*Token, error) {
	accessToken, err := g.generateAccessToken(ctx, client, g.user, g.scope)
	if err != nil {
		return nil, err
	}

	token := &Token{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: g.accessTokenExpiresAt(client),
		Scope:                g.scope,
		Client:               client,
		User:                 g.user,
	}
	return g.saveToken(ctx, token, client, g.user)
}

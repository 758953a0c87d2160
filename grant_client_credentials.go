// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import "context"

// clientCredentialsGrant issues an access token to the client itself
// (RFC 6749 section 4.4). No refresh token is issued: the client can always
// re-authenticate.
type clientCredentialsGrant struct {
	baseGrant
	ccModel ClientCredentialsModel
}

func newClientCredentialsGrant(model Model, opts GrantOptions) (Grant, error) {
	ccModel, ok := model.(ClientCredentialsModel)
	if !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement ClientCredentialsModel")
	}
	return &clientCredentialsGrant{
		baseGrant: baseGrant{model: model, opts: opts},
		ccModel:   ccModel,
	}, nil
}

type clientCredentialsRequest struct {
	Scope string `form:"scope" validate:"omitempty,nqschar"`
}

func (g *clientCredentialsGrant) Handle(ctx context.Context, req *Request, client *Client) (*Token, error) {
	grantReq := clientCredentialsRequest{Scope: req.Body["scope"]}
	if err := validate.Struct(grantReq); err != nil {
		return nil, validationError(err)
	}

	user, err := g.ccModel.GetUserFromClient(ctx, client)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewError(ErrInvalidGrant, "Invalid grant: user credentials are invalid")
	}

	scope, err := g.validateScope(ctx, user, client, grantReq.Scope)
	if err != nil {
		return nil, err
	}

	accessToken, err := g.generateAccessToken(ctx, client, user, scope)
	if err != nil {
		return nil, err
	}

	token := &Token{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: g.accessTokenExpiresAt(client),
		Scope:                scope,
		Client:               client,
		User:                 user,
	}
	return g.saveToken(ctx, token, client, user)
}

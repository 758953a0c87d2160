// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import "context"

// passwordGrant exchanges resource owner credentials for a token pair
// (RFC 6749 section 4.3).
type passwordGrant struct {
	baseGrant
	pwModel PasswordModel
}

func newPasswordGrant(model Model, opts GrantOptions) (Grant, error) {
	pwModel, ok := model.(PasswordModel)
	if !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement PasswordModel")
	}
	return &passwordGrant{
		baseGrant: baseGrant{model: model, opts: opts},
		pwModel:   pwModel,
	}, nil
}

type passwordRequest struct {
	Username string `form:"username" validate:"required,uchar"`
	Password string `form:"password" validate:"required,uchar"`
	Scope    string `form:"scope" validate:"omitempty,nqschar"`
}

func (g *passwordGrant) Handle(ctx context.Context, req *Request, client *Client) (*Token, error) {
	grantReq := passwordRequest{
		Username: req.Body["username"],
		Password: req.Body["password"],
		Scope:    req.Body["scope"],
	}
	if err := validate.Struct(grantReq); err != nil {
		return nil, validationError(err)
	}

	user, err := g.pwModel.GetUser(ctx, grantReq.Username, grantReq.Password)
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
	refreshToken, err := g.generateRefreshToken(ctx, client, user, scope)
	if err != nil {
		return nil, err
	}

	token := &Token{
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  g.accessTokenExpiresAt(client),
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: g.refreshTokenExpiresAt(client),
		Scope:                 scope,
		Client:                client,
		User:                  user,
	}
	return g.saveToken(ctx, token, client, user)
}

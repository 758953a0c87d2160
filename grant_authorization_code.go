// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import (
	"context"
	"time"
)

// authorizationCodeGrant redeems a single-use authorization code for a
// token pair (RFC 6749 section 4.1.3).
type authorizationCodeGrant struct {
	baseGrant
	codeModel AuthorizationCodeModel
}

func newAuthorizationCodeGrant(model Model, opts GrantOptions) (Grant, error) {
	codeModel, ok := model.(AuthorizationCodeModel)
	if !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement AuthorizationCodeModel")
	}
	return &authorizationCodeGrant{
		baseGrant: baseGrant{model: model, opts: opts},
		codeModel: codeModel,
	}, nil
}

// authorizationCodeRequest is the parsed grant request. The redirect_uri
// may arrive in the body or the query string.
type authorizationCodeRequest struct {
	Code        string `form:"code" validate:"required,vschar"`
	RedirectURI string `form:"redirect_uri" validate:"omitempty,urischeme"`
}

func (g *authorizationCodeGrant) Handle(ctx context.Context, req *Request, client *Client) (*Token, error) {
	grantReq := authorizationCodeRequest{
		Code:        req.Body["code"],
		RedirectURI: req.param("redirect_uri"),
	}
	if err := validate.Struct(grantReq); err != nil {
		return nil, validationError(err)
	}

	code, err := g.codeModel.GetAuthorizationCode(ctx, grantReq.Code)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, NewError(ErrInvalidGrant, "Invalid grant: authorization code is invalid")
	}
	if code.Client == nil {
		return nil, NewError(ErrServerError, "Server error: `getAuthorizationCode()` did not return a `client` object")
	}
	if code.User == nil {
		return nil, NewError(ErrServerError, "Server error: `getAuthorizationCode()` did not return a `user` object")
	}
	if code.Client.ID != client.ID {
		return nil, NewError(ErrInvalidGrant, "Invalid grant: authorization code is invalid")
	}
	if code.ExpiresAt.IsZero() || !code.ExpiresAt.After(time.Now()) {
		return nil, NewError(ErrInvalidGrant, "Invalid grant: authorization code has expired")
	}
	if code.RedirectURI != "" && grantReq.RedirectURI != code.RedirectURI {
		return nil, NewError(ErrInvalidRequest, "Invalid request: `redirect_uri` is invalid")
	}

	// The code is consumed before the new token becomes visible.
	revoked, err := g.codeModel.RevokeAuthorizationCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !revoked {
		return nil, NewError(ErrInvalidGrant, "Invalid grant: authorization code is invalid")
	}

	accessToken, err := g.generateAccessToken(ctx, client, code.User, code.Scope)
	if err != nil {
		return nil, err
	}
	refreshToken, err := g.generateRefreshToken(ctx, client, code.User, code.Scope)
	if err != nil {
		return nil, err
	}

	token := &Token{
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  g.accessTokenExpiresAt(client),
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: g.refreshTokenExpiresAt(client),
		Scope:                 code.Scope,
		Client:                client,
		User:                  code.User,
	}
	return g.saveToken(ctx, token, client, code.User)
}

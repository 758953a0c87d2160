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

// refreshTokenGrant exchanges a refresh token for a new access token
// (RFC 6749 section 6). Rotation is controlled by the
// AlwaysIssueNewRefreshToken policy: when enabled, the presented refresh
// token is revoked before the replacement token is saved.
type refreshTokenGrant struct {
	baseGrant
	rtModel RefreshTokenModel
}

func newRefreshTokenGrant(model Model, opts GrantOptions) (Grant, error) {
	rtModel, ok := model.(RefreshTokenModel)
	if !ok {
		return nil, NewError(ErrInvalidArgument, "model does not implement RefreshTokenModel")
	}
	return &refreshTokenGrant{
		baseGrant: baseGrant{model: model, opts: opts},
		rtModel:   rtModel,
	}, nil
}

type refreshTokenRequest struct {
	RefreshToken string `form:"refresh_token" validate:"required,vschar"`
	Scope        string `form:"scope" validate:"omitempty,nqschar"`
}

func (g *refreshTokenGrant) Handle(ctx context.Context, req *Request, client *Client) (*Token, error) {
	grantReq := refreshTokenRequest{
		RefreshToken: req.Body["refresh_token"],
		Scope:        req.Body["scope"],
	}
	if err := validate.Struct(grantReq); err != nil {
		return nil, validationError(err)
	}

	oldToken, err := g.rtModel.GetRefreshToken(ctx, grantReq.RefreshToken)
	if err != nil {
		return nil, err
	}
	if oldToken == nil {
		return nil, NewError(ErrInvalidGrant, "Invalid grant: refresh token is invalid")
	}
	if oldToken.Client == nil {
		return nil, NewError(ErrServerError, "Server error: `getRefreshToken()` did not return a `client` object")
	}
	if oldToken.User == nil {
		return nil, NewError(ErrServerError, "Server error: `getRefreshToken()` did not return a `user` object")
	}
	if oldToken.Client.ID != client.ID {
		return nil, NewError(ErrInvalidGrant, "Invalid grant: refresh token is invalid")
	}
	if oldToken.RefreshTokenExpiresAt.IsZero() || !oldToken.RefreshTokenExpiresAt.After(time.Now()) {
		return nil, NewError(ErrInvalidGrant, "Invalid grant: refresh token has expired")
	}

	// Rotation: the old credential must be unusable before its successor
	// exists, so these two Model calls stay strictly ordered.
	if g.opts.AlwaysIssueNewRefreshToken {
		revoked, err := g.rtModel.RevokeRefreshToken(ctx, oldToken)
		if err != nil {
			return nil, err
		}
		if !revoked {
			return nil, NewError(ErrInvalidGrant, "Invalid grant: refresh token is invalid")
		}
	}

	// The new token always inherits the old token's scope; the scope form
	// parameter is validated for shape only.
	accessToken, err := g.generateAccessToken(ctx, client, oldToken.User, oldToken.Scope)
	if err != nil {
		return nil, err
	}

	token := &Token{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: g.accessTokenExpiresAt(client),
		Scope:                oldToken.Scope,
		Client:               client,
		User:                 oldToken.User,
	}
	if g.opts.AlwaysIssueNewRefreshToken {
		refreshToken, err := g.generateRefreshToken(ctx, client, oldToken.User, oldToken.Scope)
		if err != nil {
			return nil, err
		}
		token.RefreshToken = refreshToken
		token.RefreshTokenExpiresAt = g.refreshTokenExpiresAt(client)
	} else {
		token.RefreshToken = oldToken.RefreshToken
		token.RefreshTokenExpiresAt = oldToken.RefreshTokenExpiresAt
	}
	return g.saveToken(ctx, token, client, oldToken.User)
}

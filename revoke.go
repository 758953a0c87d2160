// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import (
	"context"
	"net/http"
)

// Revoke implements the token revocation endpoint (RFC 7009). Revocation
// succeeds with an empty 200 response whether or not the token existed or
// belonged to the caller; only parse and client authentication failures
// surface as errors.
func (s *Server) Revoke(ctx context.Context, req *Request, res *Response, opts *RevokeOptions) error {
	cfg := s.revokeDefaults.overlayRevoke(opts)

	res.SetHeader("Cache-Control", "no-store")
	res.SetHeader("Pragma", "no-cache")

	if err := s.revoke(ctx, req, cfg); err != nil {
		oauthErr := AsError(err)
		s.shapeTokenError(req, res, oauthErr)
		s.logger.Debugf("revoke request failed: %s", oauthErr.Error())
		return oauthErr
	}

	res.Status = http.StatusOK
	res.SetBody(map[string]interface{}{})
	return nil
}

func (s *Server) revoke(ctx context.Context, req *Request, cfg introspectConfig) error {
	token, hint, err := s.loadIntrospectedToken(ctx, req, cfg)
	if err != nil {
		return err
	}
	if token == nil {
		// Unknown or foreign token: nothing to invalidate, still a success
		// per RFC 7009 section 2.2.
		return nil
	}

	switch hint {
	case "access_token":
		revoker, ok := s.model.(AccessTokenRevoker)
		if !ok {
			return NewError(ErrInvalidArgument, "model does not support access token revocation")
		}
		_, err = revoker.RevokeAccessToken(ctx, token)
	default:
		model, ok := s.model.(RefreshTokenModel)
		if !ok {
			return NewError(ErrInvalidArgument, "model does not support refresh token revocation")
		}
		_, err = model.RevokeRefreshToken(ctx, token)
	}
	return err
}

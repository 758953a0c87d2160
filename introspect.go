// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import (
	"context"
	"net/http"
	"time"
)

// introspectionRequest is the parsed introspection or revocation request
// (RFC 7662 section 2.1, RFC 7009 section 2.1). token_type_hint is accepted
// as an alias of token_hint.
type introspectionRequest struct {
	Token     string `form:"token" validate:"required,vschar"`
	TokenHint string `form:"token_hint" validate:"required"`
}

// Introspect implements the token introspection endpoint (RFC 7662). The
// response reveals token state and metadata only for tokens issued to the
// authenticated caller; anything else introspects as inactive.
func (s *Server) Introspect(ctx context.Context, req *Request, res *Response, opts *IntrospectOptions) error {
	cfg := s.introspectDefaults.overlayIntrospect(opts)

	res.SetHeader("Cache-Control", "no-store")
	res.SetHeader("Pragma", "no-cache")

	token, hint, err := s.loadIntrospectedToken(ctx, req, cfg)
	if err != nil {
		oauthErr := AsError(err)
		s.shapeTokenError(req, res, oauthErr)
		s.logger.Debugf("introspect request failed: %s", oauthErr.Error())
		return oauthErr
	}

	res.Status = http.StatusOK
	res.SetBody(introspectionBody(token, hint))
	return nil
}

// loadIntrospectedToken parses the request, authenticates the caller and
// loads the hinted token. A nil token with a nil error means the token is
// unknown or not owned by the caller; it is reported, never erred.
func (s *Server) loadIntrospectedToken(ctx context.Context, req *Request, cfg introspectConfig) (*Token, string, error) {
	ir, client, err := s.parseIntrospectionRequest(ctx, req, cfg)
	if err != nil {
		return nil, "", err
	}

	var token *Token
	switch ir.TokenHint {
	case "access_token":
		model, ok := s.model.(AccessTokenModel)
		if !ok {
			return nil, "", NewError(ErrInvalidArgument, "model does not support access token lookup")
		}
		token, err = model.GetAccessToken(ctx, ir.Token)
	default:
		model, ok := s.model.(RefreshTokenModel)
		if !ok {
			return nil, "", NewError(ErrInvalidArgument, "model does not support refresh token lookup")
		}
		token, err = model.GetRefreshToken(ctx, ir.Token)
	}
	if err != nil {
		return nil, "", err
	}
	if token == nil || token.Client == nil || token.Client.ID != client.ID {
		return nil, ir.TokenHint, nil
	}
	return token, ir.TokenHint, nil
}

func (s *Server) parseIntrospectionRequest(ctx context.Context, req *Request, cfg introspectConfig) (*introspectionRequest, *Client, error) {
	if req.Method != http.MethodPost {
		return nil, nil, NewError(ErrInvalidRequest, "Invalid request: method must be POST")
	}
	if !req.isFormEncoded() {
		return nil, nil, NewError(ErrInvalidRequest, "Invalid request: content must be application/x-www-form-urlencoded")
	}

	hint := req.Body["token_hint"]
	if hint == "" {
		hint = req.Body["token_type_hint"]
	}
	ir := introspectionRequest{
		Token:     req.Body["token"],
		TokenHint: hint,
	}
	if err := validate.Struct(ir); err != nil {
		return nil, nil, validationError(err)
	}
	if ir.TokenHint != "access_token" && ir.TokenHint != "refresh_token" {
		return nil, nil, NewError(ErrUnsupportedTokenType, "Unsupported token type: `token_hint` is invalid")
	}

	creds, err := readClientCredentials(req, cfg.isClientSecretRequired)
	if err != nil {
		return nil, nil, err
	}
	client, err := s.model.GetClient(ctx, creds.id, creds.secret)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return nil, nil, NewError(ErrInvalidClient, "Invalid client: client is invalid")
	}
	return &ir, client, nil
}

// introspectionBody composes the RFC 7662 section 2.2 response. Unverified
// and expired tokens both collapse to {"active": false}.
func introspectionBody(token *Token, hint string) map[string]interface{} {
	if token == nil {
		return map[string]interface{}{"active": false}
	}
	expiresAt := token.AccessTokenExpiresAt
	if hint == "refresh_token" {
		expiresAt = token.RefreshTokenExpiresAt
	}
	if expiresAt.IsZero() || !expiresAt.After(time.Now()) {
		return map[string]interface{}{"active": false}
	}

	body := map[string]interface{}{
		"active":     true,
		"client_id":  token.Client.ID,
		"expires_at": expiresAt.Unix(),
	}
	if token.User != nil {
		body["username"] = token.User.Username
	}
	if token.Scope != "" {
		body["scope"] = token.Scope
	}
	return body
}

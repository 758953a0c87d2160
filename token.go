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

	"trpc.group/trpc-go/trpc-oauth2-go/internal/charset"
)

// Token implements the token endpoint (RFC 6749 section 3.2): it parses the
// token request, authenticates the client, dispatches the grant flow and
// writes the bearer token onto the response. The returned error, if any,
// has already been shaped into the response so the host can log and
// propagate it.
func (s *Server) Token(ctx context.Context, req *Request, res *Response, opts *TokenOptions) error {
	cfg := s.tokenDefaults.overlay(opts)

	res.SetHeader("Content-Type", "application/json;charset=UTF-8")
	res.SetHeader("Cache-Control", "no-store")
	res.SetHeader("Pragma", "no-cache")

	token, err := s.token(ctx, req, cfg)
	if err != nil {
		oauthErr := AsError(err)
		s.shapeTokenError(req, res, oauthErr)
		s.logger.Debugf("token request failed: %s", oauthErr.Error())
		return oauthErr
	}

	res.Status = http.StatusOK
	res.SetBody(bearerTokenBody(token, cfg.allowExtendedTokenAttributes))
	return nil
}

func (s *Server) token(ctx context.Context, req *Request, cfg tokenConfig) (*Token, error) {
	if req.Method != http.MethodPost {
		return nil, NewError(ErrInvalidRequest, "Invalid request: method must be POST")
	}
	if !req.isFormEncoded() {
		return nil, NewError(ErrInvalidRequest, "Invalid request: content must be application/x-www-form-urlencoded")
	}

	grantType := req.Body["grant_type"]
	if grantType == "" {
		return nil, NewError(ErrInvalidRequest, "Missing parameter: `grant_type`")
	}
	if !charset.IsNChar(grantType) && !charset.IsURI(grantType) {
		return nil, NewError(ErrInvalidRequest, "Invalid parameter: `grant_type`")
	}
	factory, ok := builtinGrantFactories[grantType]
	if !ok {
		factory, ok = cfg.extendedGrantTypes[grantType]
	}
	if !ok {
		return nil, NewError(ErrUnsupportedGrantType, "Unsupported grant type: `grant_type` is invalid")
	}

	creds, err := readClientCredentials(req, cfg.requiresClientAuthentication(grantType))
	if err != nil {
		return nil, err
	}

	client, err := s.model.GetClient(ctx, creds.id, creds.secret)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, NewError(ErrInvalidClient, "Invalid client: client is invalid")
	}
	if len(client.Grants) == 0 {
		return nil, NewError(ErrServerError, "Server error: missing client `grants`")
	}
	if !containsGrant(client, grantType) {
		return nil, NewError(ErrUnauthorizedClient, "Unauthorized client: `grant_type` is invalid")
	}

	grant, err := factory(s.model, cfg.grantOptions())
	if err != nil {
		return nil, err
	}
	return grant.Handle(ctx, req, client)
}

// shapeTokenError writes the error response per RFC 6749 section 5.2. An
// invalid_client failure turns into a 401 challenge when the client tried
// to authenticate through the Authorization header.
func (s *Server) shapeTokenError(req *Request, res *Response, oauthErr *Error) {
	status := oauthErr.Status
	if oauthErr.Name == ErrInvalidClient.Name && req.Header("authorization") != "" {
		res.SetHeader("WWW-Authenticate", `Basic realm="Service"`)
		status = http.StatusUnauthorized
	}
	res.Status = status
	res.SetBody(errorBody(oauthErr))
}

// bearerTokenBody composes the RFC 6750 wire body from a saved token.
// Extended attributes ride along only when the endpoint allows them.
func bearerTokenBody(token *Token, allowExtended bool) map[string]interface{} {
	bearer := BearerToken{
		AccessToken:  token.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: token.RefreshToken,
		Scope:        token.Scope,
	}
	if !token.AccessTokenExpiresAt.IsZero() {
		bearer.ExpiresIn = token.accessTokenLifetime(time.Now())
	}

	body := map[string]interface{}{
		"access_token": bearer.AccessToken,
		"token_type":   bearer.TokenType,
	}
	if bearer.ExpiresIn > 0 {
		body["expires_in"] = bearer.ExpiresIn
	}
	if bearer.RefreshToken != "" {
		body["refresh_token"] = bearer.RefreshToken
	}
	if bearer.Scope != "" {
		body["scope"] = bearer.Scope
	}
	if allowExtended {
		for k, v := range token.Extra {
			if _, reserved := body[k]; !reserved {
				body[k] = v
			}
		}
	}
	return body
}

// errorBody is the {error, error_description} JSON shape.
func errorBody(oauthErr *Error) map[string]interface{} {
	body := map[string]interface{}{"error": oauthErr.Name}
	if oauthErr.Message != "" {
		body["error_description"] = oauthErr.Message
	}
	return body
}

// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Authenticate implements bearer token authentication for protected
// resources (RFC 6750). On success it returns the resource owner bound to
// the presented token; on failure the response already carries the error
// body and, for missing credentials, the WWW-Authenticate challenge.
func (s *Server) Authenticate(ctx context.Context, req *Request, res *Response, opts *AuthenticateOptions) (*User, error) {
	cfg := s.authenticateDefaults.overlay(opts)

	token, err := s.authenticate(ctx, req, cfg)
	if err != nil {
		oauthErr := AsError(err)
		if oauthErr.Name == ErrUnauthorizedRequest.Name {
			res.SetHeader("WWW-Authenticate", `Bearer realm="Service"`)
		}
		res.Status = oauthErr.Status
		res.SetBody(errorBody(oauthErr))
		s.logger.Debugf("authenticate request failed: %s", oauthErr.Error())
		return nil, oauthErr
	}

	if cfg.scope != "" {
		if cfg.addAcceptedScopesHeader {
			res.SetHeader("X-Accepted-OAuth-Scopes", cfg.scope)
		}
		if cfg.addAuthorizedScopesHeader {
			res.SetHeader("X-OAuth-Scopes", token.Scope)
		}
	}
	return token.User, nil
}

func (s *Server) authenticate(ctx context.Context, req *Request, cfg authenticateConfig) (*Token, error) {
	bearer, err := readBearerToken(req, cfg.allowBearerTokensInQueryString)
	if err != nil {
		return nil, err
	}

	model, ok := s.model.(AccessTokenModel)
	if !ok {
		return nil, NewError(ErrInvalidArgument, "model does not support access token lookup")
	}
	token, err := model.GetAccessToken(ctx, bearer)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, NewError(ErrInvalidToken, "Invalid token: access token is invalid")
	}
	if token.User == nil {
		return nil, NewError(ErrServerError, "Server error: `getAccessToken()` did not return a `user` object")
	}
	if token.AccessTokenExpiresAt.IsZero() {
		return nil, NewError(ErrServerError, "Server error: `accessTokenExpiresAt` must be a Date instance")
	}
	if !token.AccessTokenExpiresAt.After(time.Now()) {
		return nil, NewError(ErrInvalidToken, "Invalid token: access token has expired")
	}

	if cfg.scope != "" {
		if err := s.verifyScope(ctx, token, cfg.scope); err != nil {
			return nil, err
		}
	}
	return token, nil
}

// readBearerToken locates the bearer token among the Authorization header,
// the query string and the form body (RFC 6750 section 2). Exactly one
// source must carry it.
func readBearerToken(req *Request, allowQuery bool) (string, error) {
	header := req.Header("authorization")
	query := req.Query["access_token"]
	body := req.Body["access_token"]

	sources := 0
	for _, present := range []bool{header != "", query != "", body != ""} {
		if present {
			sources++
		}
	}
	if sources > 1 {
		return "", NewError(ErrInvalidRequest, "Invalid request: only one authentication method is allowed")
	}
	if sources == 0 {
		return "", NewError(ErrUnauthorizedRequest, "Unauthorized request: no authentication given")
	}

	switch {
	case header != "":
		if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			return "", NewError(ErrInvalidRequest, "Invalid request: malformed authorization header")
		}
		return strings.TrimSpace(header[len("bearer "):]), nil
	case query != "":
		if !allowQuery {
			return "", NewError(ErrInvalidRequest, "Invalid request: do not send bearer tokens in query URLs")
		}
		return query, nil
	default:
		if req.Method == http.MethodGet {
			return "", NewError(ErrInvalidRequest, "Invalid request: token may not be passed in the body when using the GET verb")
		}
		if !req.isFormEncoded() {
			return "", NewError(ErrInvalidRequest, "Invalid request: content must be application/x-www-form-urlencoded")
		}
		return body, nil
	}
}

func (s *Server) verifyScope(ctx context.Context, token *Token, scope string) error {
	verifier, ok := s.model.(ScopeVerifier)
	if !ok {
		return NewError(ErrInvalidArgument, "model does not support scope verification")
	}
	sufficient, err := verifier.VerifyScope(ctx, token, scope)
	if err != nil {
		return err
	}
	if !sufficient {
		return NewError(ErrInsufficientScope, "Insufficient scope: authorized scope is insufficient")
	}
	return nil
}

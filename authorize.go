// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trpc.group/trpc-go/trpc-oauth2-go/internal/tokengen"
)

// authorizationRequest is the parsed authorization request (RFC 6749
// section 4.1.1). Parameters may arrive in the query string or the body.
type authorizationRequest struct {
	ResponseType string `form:"response_type" validate:"required"`
	RedirectURI  string `form:"redirect_uri" validate:"required,urischeme"`
	ClientID     string `form:"client_id" validate:"required,vschar"`
	Scope        string `form:"scope" validate:"omitempty,nqschar"`
	State        string `form:"state" validate:"omitempty,vschar"`
}

// Authorize implements the authorization endpoint (RFC 6749 section 3.1).
// It authenticates the resource owner, validates the client and redirect
// URI, and redirects back to the client with either an authorization code
// or an implicit access token, depending on response_type.
//
// Errors other than invalid_client and unauthorized_request are delivered
// to the client by redirect when a redirect_uri was supplied.
func (s *Server) Authorize(ctx context.Context, req *Request, res *Response, opts *AuthorizeOptions) error {
	cfg := s.authorizeDefaults.overlay(opts)

	if err := s.authorize(ctx, req, res, cfg); err != nil {
		oauthErr := AsError(err)
		s.shapeAuthorizeError(req, res, oauthErr)
		s.logger.Debugf("authorize request failed: %s", oauthErr.Error())
		return oauthErr
	}
	return nil
}

func (s *Server) authorize(ctx context.Context, req *Request, res *Response, cfg authorizeConfig) error {
	// Consent denial is signaled by the user agent in the query string only.
	if req.Query["allowed"] == "false" {
		return NewError(ErrAccessDenied, "Access denied: user denied access to application")
	}

	ar := authorizationRequest{
		ResponseType: req.param("response_type"),
		RedirectURI:  req.param("redirect_uri"),
		ClientID:     req.param("client_id"),
		Scope:        req.param("scope"),
		State:        req.param("state"),
	}
	if err := validate.Struct(ar); err != nil {
		return validationError(err)
	}
	if ar.ResponseType != "code" && ar.ResponseType != "token" {
		return NewError(ErrUnsupportedResponseType, "Unsupported response type: `response_type` is not supported")
	}
	if ar.State == "" && !cfg.allowEmptyState {
		return NewError(ErrInvalidRequest, "Missing parameter: `state`")
	}

	user, err := s.authenticateResourceOwner(ctx, req, res, cfg)
	if err != nil {
		return err
	}

	client, err := s.validateAuthorizeClient(ctx, &ar)
	if err != nil {
		return err
	}

	scope, err := (&baseGrant{model: s.model}).validateScope(ctx, user, client, ar.Scope)
	if err != nil {
		return err
	}

	switch ar.ResponseType {
	case "code":
		return s.respondWithCode(ctx, res, &ar, client, user, scope, cfg)
	default:
		return s.respondWithToken(ctx, req, res, &ar, client, user, scope, cfg)
	}
}

// authenticateResourceOwner establishes the resource owner identity, through
// the configured handler or the bearer Authenticate endpoint by default.
func (s *Server) authenticateResourceOwner(ctx context.Context, req *Request, res *Response, cfg authorizeConfig) (*User, error) {
	var (
		user *User
		err  error
	)
	if cfg.authenticateHandler != nil {
		user, err = cfg.authenticateHandler.Execute(ctx, req, res)
	} else {
		user, err = s.Authenticate(ctx, req, NewResponse(), nil)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewError(ErrServerError, "Server error: `handle()` did not return a `user` object")
	}
	return user, nil
}

func (s *Server) validateAuthorizeClient(ctx context.Context, ar *authorizationRequest) (*Client, error) {
	client, err := s.model.GetClient(ctx, ar.ClientID, "")
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, NewError(ErrInvalidClient, "Invalid client: client credentials are invalid")
	}
	if len(client.Grants) == 0 {
		return nil, NewError(ErrInvalidClient, "Invalid client: missing client `grants`")
	}
	requiredGrant := "authorization_code"
	if ar.ResponseType == "token" {
		requiredGrant = "implicit"
	}
	if !containsGrant(client, requiredGrant) {
		return nil, NewError(ErrUnauthorizedClient, "Unauthorized client: `grant_type` is invalid")
	}
	if len(client.RedirectURIs) == 0 {
		return nil, NewError(ErrInvalidClient, "Invalid client: missing client `redirectUri`")
	}
	registered := false
	for _, uri := range client.RedirectURIs {
		if uri == ar.RedirectURI {
			registered = true
			break
		}
	}
	if !registered {
		return nil, NewError(ErrInvalidClient, "Invalid client: `redirect_uri` does not match client value")
	}
	return client, nil
}

// respondWithCode mints, persists and delivers an authorization code. The
// redirect URL starts from the requested redirect_uri with its query string
// cleared, then carries code, scope and state in that order.
func (s *Server) respondWithCode(ctx context.Context, res *Response, ar *authorizationRequest, client *Client, user *User, scope string, cfg authorizeConfig) error {
	model, ok := s.model.(AuthorizationCodeModel)
	if !ok {
		return NewError(ErrInvalidArgument, "model does not support the authorization code flow")
	}

	lifetime := cfg.authorizationCodeLifetime
	if client.AuthorizationCodeLifetime > 0 {
		lifetime = client.AuthorizationCodeLifetime
	}

	codeValue, err := s.generateAuthorizationCode(ctx, client, user, scope)
	if err != nil {
		return err
	}

	code := &AuthorizationCode{
		AuthorizationCode: codeValue,
		ExpiresAt:         time.Now().Add(time.Duration(lifetime) * time.Second),
		RedirectURI:       ar.RedirectURI,
		Scope:             scope,
		Client:            client,
		User:              user,
	}
	saved, err := model.SaveAuthorizationCode(ctx, code, client, user)
	if err != nil {
		return err
	}
	if saved == nil {
		return NewError(ErrServerError, "Server error: `saveAuthorizationCode()` did not return a `code` object")
	}

	u, err := url.Parse(ar.RedirectURI)
	if err != nil {
		return NewError(ErrServerError, "Server error: %s", err.Error())
	}
	params := []string{"code=" + url.QueryEscape(saved.AuthorizationCode)}
	if scope != "" {
		params = append(params, "scope="+url.QueryEscape(scope))
	}
	if ar.State != "" {
		params = append(params, "state="+url.QueryEscape(ar.State))
	}
	u.RawQuery = strings.Join(params, "&")

	res.Redirect(u.String())
	return nil
}

// respondWithToken issues an access token through the implicit grant and
// delivers it in the redirect URI's fragment. The query string of the
// redirect URI is left untouched.
func (s *Server) respondWithToken(ctx context.Context, req *Request, res *Response, ar *authorizationRequest, client *Client, user *User, scope string, cfg authorizeConfig) error {
	grant, err := newImplicitGrant(s.model, GrantOptions{AccessTokenLifetime: cfg.accessTokenLifetime}, user, scope)
	if err != nil {
		return err
	}
	token, err := grant.Handle(ctx, req, client)
	if err != nil {
		return err
	}

	u, err := url.Parse(ar.RedirectURI)
	if err != nil {
		return NewError(ErrServerError, "Server error: %s", err.Error())
	}
	fragment := fmt.Sprintf("access_token=%s&expires_in=%d",
		url.QueryEscape(token.AccessToken), token.accessTokenLifetime(time.Now()))
	if ar.State != "" {
		fragment += "&state=" + url.QueryEscape(ar.State)
	}
	if u.Fragment != "" {
		u.Fragment += "&" + fragment
	} else {
		u.Fragment = fragment
	}

	res.Redirect(u.String())
	return nil
}

func (s *Server) generateAuthorizationCode(ctx context.Context, client *Client, user *User, scope string) (string, error) {
	if gen, ok := s.model.(AuthorizationCodeGenerator); ok {
		code, err := gen.GenerateAuthorizationCode(ctx, client, user, scope)
		if err != nil {
			return "", err
		}
		if code != "" {
			return code, nil
		}
	}
	return tokengen.GenerateRandomToken()
}

// shapeAuthorizeError applies RFC 6749 section 4.1.2.1: client
// authentication failures never redirect, everything else is delivered to
// the requested redirect_uri when one was supplied.
func (s *Server) shapeAuthorizeError(req *Request, res *Response, oauthErr *Error) {
	res.SetBody(errorBody(oauthErr))

	if oauthErr.Name == ErrInvalidClient.Name || oauthErr.Name == ErrUnauthorizedRequest.Name {
		res.Status = http.StatusUnauthorized
		return
	}

	redirectURI := req.param("redirect_uri")
	if redirectURI == "" {
		res.Status = oauthErr.Status
		return
	}
	u, err := url.Parse(redirectURI)
	if err != nil {
		res.Status = oauthErr.Status
		return
	}
	q := u.Query()
	q.Set("error", oauthErr.Name)
	if oauthErr.Message != "" {
		q.Set("error_description", oauthErr.Message)
	}
	u.RawQuery = q.Encode()
	res.Redirect(u.String())
}

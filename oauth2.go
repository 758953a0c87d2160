// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

// Package oauth2 implements the server side of the OAuth 2.0 authorization
// framework as a transport independent protocol engine: RFC 6749
// (authorization and token issuance), RFC 6750 (bearer token usage),
// RFC 7662 (token introspection) and RFC 7009 (token revocation).
//
// The engine validates requests, authenticates clients and resource
// owners, enforces grant flow state rules, mints and rotates credentials
// and shapes standards compliant responses. Persistence is delegated
// entirely to a host supplied Model; see the Model interface and its
// optional capability interfaces.
//
// A Server exposes the five protocol endpoints over parsed Request and
// Response values. Binding them to net/http lives in the httptransport
// package; ready made Models live under storage.
package oauth2

import "trpc.group/trpc-go/trpc-oauth2-go/internal/charset"

// Server is the endpoint façade. It holds the Model, the per-endpoint
// default options and the logger. The defaults are read-only after
// construction; per-call option records are overlaid onto a copy, so a
// Server is safe for concurrent use whenever its Model is.
type Server struct {
	model  Model
	logger Logger

	authorizeDefaults    authorizeConfig
	tokenDefaults        tokenConfig
	authenticateDefaults authenticateConfig
	introspectDefaults   introspectConfig
	revokeDefaults       introspectConfig
}

// ServerOption configures a Server at construction time.
type ServerOption func(*Server)

// WithLogger sets the logger used by all endpoints.
func WithLogger(logger Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAuthorizeOptions sets the Authorize endpoint defaults.
func WithAuthorizeOptions(opts AuthorizeOptions) ServerOption {
	return func(s *Server) {
		s.authorizeDefaults = s.authorizeDefaults.overlay(&opts)
	}
}

// WithTokenOptions sets the Token endpoint defaults.
func WithTokenOptions(opts TokenOptions) ServerOption {
	return func(s *Server) {
		s.tokenDefaults = s.tokenDefaults.overlay(&opts)
	}
}

// WithAuthenticateOptions sets the bearer Authenticate endpoint defaults.
func WithAuthenticateOptions(opts AuthenticateOptions) ServerOption {
	return func(s *Server) {
		s.authenticateDefaults = s.authenticateDefaults.overlay(&opts)
	}
}

// WithIntrospectOptions sets the Introspect endpoint defaults.
func WithIntrospectOptions(opts IntrospectOptions) ServerOption {
	return func(s *Server) {
		s.introspectDefaults = s.introspectDefaults.overlayIntrospect(&opts)
	}
}

// WithRevokeOptions sets the Revoke endpoint defaults.
func WithRevokeOptions(opts RevokeOptions) ServerOption {
	return func(s *Server) {
		s.revokeDefaults = s.revokeDefaults.overlayRevoke(&opts)
	}
}

// WithExtendedGrantType registers an extension grant factory under the
// given grant_type identifier.
func WithExtendedGrantType(name string, factory GrantFactory) ServerOption {
	return func(s *Server) {
		if s.tokenDefaults.extendedGrantTypes == nil {
			s.tokenDefaults.extendedGrantTypes = map[string]GrantFactory{}
		}
		s.tokenDefaults.extendedGrantTypes[name] = factory
	}
}

// NewServer builds a Server around the host's Model. Construction fails
// with invalid_argument when the Model is missing or an extension grant
// identifier does not satisfy the NCHAR-or-URI shape of RFC 6749.
func NewServer(model Model, opts ...ServerOption) (*Server, error) {
	if model == nil {
		return nil, NewError(ErrInvalidArgument, "missing model")
	}
	s := &Server{
		model:  model,
		logger: GetDefaultLogger(),
		authorizeDefaults: authorizeConfig{
			accessTokenLifetime:       DefaultAccessTokenLifetime,
			authorizationCodeLifetime: DefaultAuthorizationCodeLifetime,
		},
		tokenDefaults: tokenConfig{
			accessTokenLifetime:        DefaultAccessTokenLifetime,
			refreshTokenLifetime:       DefaultRefreshTokenLifetime,
			alwaysIssueNewRefreshToken: true,
			requireClientAuthentication: map[string]bool{
				"password":      true,
				"refresh_token": true,
			},
		},
		authenticateDefaults: authenticateConfig{
			addAcceptedScopesHeader:   true,
			addAuthorizedScopesHeader: true,
		},
		introspectDefaults: introspectConfig{isClientSecretRequired: true},
		revokeDefaults:     introspectConfig{isClientSecretRequired: true},
	}
	for _, opt := range opts {
		opt(s)
	}
	for name := range s.tokenDefaults.extendedGrantTypes {
		if !charset.IsNChar(name) && !charset.IsURI(name) {
			return nil, NewError(ErrInvalidArgument, "invalid extension grant type: `%s`", name)
		}
	}
	return s, nil
}

// grantOptions converts a resolved token configuration into the options a
// grant factory consumes.
func (c tokenConfig) grantOptions() GrantOptions {
	return GrantOptions{
		AccessTokenLifetime:        c.accessTokenLifetime,
		RefreshTokenLifetime:       c.refreshTokenLifetime,
		AlwaysIssueNewRefreshToken: c.alwaysIssueNewRefreshToken,
	}
}

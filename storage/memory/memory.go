// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

// Package memory provides a complete in-memory Model implementation. It is
// intended for tests, examples and single-process deployments; state does
// not survive a restart.
package memory

import (
	"context"
	"strings"
	"sync"

	oauth2 "trpc.group/trpc-go/trpc-oauth2-go"
)

// Store is an in-memory Model. All methods are safe for concurrent use.
//
// Clients and users are registered up front through AddClient, AddUser and
// AddClientUser; tokens and authorization codes accumulate as the engine
// issues them.
type Store struct {
	mu            sync.RWMutex
	clients       map[string]*clientRecord
	users         map[string]*userRecord
	clientUsers   map[string]*oauth2.User
	accessTokens  map[string]*oauth2.Token
	refreshTokens map[string]*oauth2.Token
	codes         map[string]*oauth2.AuthorizationCode
	scopes        map[string]bool
}

type clientRecord struct {
	client *oauth2.Client
	secret string
}

type userRecord struct {
	user     *oauth2.User
	password string
}

// Option configures a Store.
type Option func(*Store)

// WithScopes restricts the scope universe. Requested scopes outside it are
// rejected by ValidateScope. Without this option all scopes validate.
func WithScopes(scopes ...string) Option {
	return func(s *Store) {
		for _, scope := range scopes {
			s.scopes[scope] = true
		}
	}
}

// NewStore builds an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		clients:       map[string]*clientRecord{},
		users:         map[string]*userRecord{},
		clientUsers:   map[string]*oauth2.User{},
		accessTokens:  map[string]*oauth2.Token{},
		refreshTokens: map[string]*oauth2.Token{},
		codes:         map[string]*oauth2.AuthorizationCode{},
		scopes:        map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddClient registers a client and its secret.
func (s *Store) AddClient(client *oauth2.Client, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client.ID] = &clientRecord{client: client, secret: secret}
}

// AddUser registers a resource owner with password credentials.
func (s *Store) AddUser(username, password string, user *oauth2.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = &userRecord{user: user, password: password}
}

// AddClientUser binds a pseudo-user to a client for the client_credentials
// grant.
func (s *Store) AddClientUser(clientID string, user *oauth2.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientUsers[clientID] = user
}

// GetClient loads a client, verifying the secret when one is presented.
func (s *Store) GetClient(ctx context.Context, clientID, clientSecret string) (*oauth2.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.clients[clientID]
	if !ok {
		return nil, nil
	}
	if clientSecret != "" && record.secret != clientSecret {
		return nil, nil
	}
	return record.client, nil
}

// SaveToken indexes the token by its access and refresh token strings.
func (s *Store) SaveToken(ctx context.Context, token *oauth2.Token, client *oauth2.Client, user *oauth2.User) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token.Client = client
	token.User = user
	s.accessTokens[token.AccessToken] = token
	if token.RefreshToken != "" {
		s.refreshTokens[token.RefreshToken] = token
	}
	return token, nil
}

// GetUser authenticates a resource owner by password.
func (s *Store) GetUser(ctx context.Context, username, password string) (*oauth2.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.users[username]
	if !ok || record.password != password {
		return nil, nil
	}
	return record.user, nil
}

// GetUserFromClient resolves the pseudo-user bound to a client.
func (s *Store) GetUserFromClient(ctx context.Context, client *oauth2.Client) (*oauth2.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientUsers[client.ID], nil
}

// GetAccessToken loads a token by access token string.
func (s *Store) GetAccessToken(ctx context.Context, accessToken string) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessTokens[accessToken], nil
}

// GetRefreshToken loads a token by refresh token string.
func (s *Store) GetRefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshTokens[refreshToken], nil
}

// RevokeRefreshToken deletes the refresh token binding. The access token
// minted alongside it stays valid until it expires.
func (s *Store) RevokeRefreshToken(ctx context.Context, token *oauth2.Token) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.refreshTokens[token.RefreshToken]; !ok {
		return false, nil
	}
	delete(s.refreshTokens, token.RefreshToken)
	return true, nil
}

// RevokeAccessToken deletes the access token binding.
func (s *Store) RevokeAccessToken(ctx context.Context, token *oauth2.Token) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accessTokens[token.AccessToken]; !ok {
		return false, nil
	}
	delete(s.accessTokens, token.AccessToken)
	return true, nil
}

// GetAuthorizationCode loads a pending authorization code.
func (s *Store) GetAuthorizationCode(ctx context.Context, code string) (*oauth2.AuthorizationCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.codes[code], nil
}

// SaveAuthorizationCode stores a minted authorization code.
func (s *Store) SaveAuthorizationCode(ctx context.Context, code *oauth2.AuthorizationCode, client *oauth2.Client, user *oauth2.User) (*oauth2.AuthorizationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code.Client = client
	code.User = user
	s.codes[code.AuthorizationCode] = code
	return code, nil
}

// RevokeAuthorizationCode consumes a code; later redemptions of the same
// code find nothing.
func (s *Store) RevokeAuthorizationCode(ctx context.Context, code *oauth2.AuthorizationCode) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[code.AuthorizationCode]; !ok {
		return false, nil
	}
	delete(s.codes, code.AuthorizationCode)
	return true, nil
}

// ValidateScope accepts the requested scope when every member belongs to
// the configured scope universe. An unconfigured Store accepts everything.
func (s *Store) ValidateScope(ctx context.Context, user *oauth2.User, client *oauth2.Client, scope string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.scopes) == 0 || scope == "" {
		return scope, nil
	}
	for _, member := range strings.Fields(scope) {
		if !s.scopes[member] {
			return "", nil
		}
	}
	return scope, nil
}

// VerifyScope reports whether the token's granted scope covers every
// member of the required scope.
func (s *Store) VerifyScope(ctx context.Context, token *oauth2.Token, scope string) (bool, error) {
	granted := map[string]bool{}
	for _, member := range strings.Fields(token.Scope) {
		granted[member] = true
	}
	for _, member := range strings.Fields(scope) {
		if !granted[member] {
			return false, nil
		}
	}
	return true, nil
}

// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

// Package redisstore implements a Model over Redis. Tokens and
// authorization codes live in Redis as JSON records whose TTL tracks the
// credential expiry, so revocation and expiry need no sweeper. Clients and
// resource owners stay in a host supplied Directory; Redis holds only
// credential state.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	oauth2 "trpc.group/trpc-go/trpc-oauth2-go"
)

// Directory supplies the client and resource owner records the store
// does not keep in Redis.
type Directory interface {
	GetClient(ctx context.Context, clientID, clientSecret string) (*oauth2.Client, error)
	GetUser(ctx context.Context, username, password string) (*oauth2.User, error)
}

// Store is a Redis backed Model.
type Store struct {
	rdb       redis.UniversalClient
	directory Directory
	prefix    string
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides the default "oauth2:" key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New builds a Store over an existing Redis client. The client is injected
// so tests can point it at miniredis and hosts can share a connection pool.
func New(rdb redis.UniversalClient, directory Directory, opts ...Option) *Store {
	s := &Store{
		rdb:       rdb,
		directory: directory,
		prefix:    "oauth2:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dial is a convenience constructor that connects to addr and verifies the
// connection.
func Dial(ctx context.Context, addr string, directory Directory, opts ...Option) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return New(rdb, directory, opts...), nil
}

// tokenRecord is the JSON shape stored in Redis. Client and user are kept
// as snapshots sufficient for the engine's ownership checks.
type tokenRecord struct {
	AccessToken           string                 `json:"access_token"`
	AccessTokenExpiresAt  time.Time              `json:"access_token_expires_at"`
	RefreshToken          string                 `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time              `json:"refresh_token_expires_at,omitempty"`
	Scope                 string                 `json:"scope,omitempty"`
	ClientID              string                 `json:"client_id"`
	Username              string                 `json:"username,omitempty"`
	Extra                 map[string]interface{} `json:"extra,omitempty"`
}

type codeRecord struct {
	AuthorizationCode string    `json:"authorization_code"`
	ExpiresAt         time.Time `json:"expires_at"`
	RedirectURI       string    `json:"redirect_uri,omitempty"`
	Scope             string    `json:"scope,omitempty"`
	ClientID          string    `json:"client_id"`
	Username          string    `json:"username,omitempty"`
}

func (s *Store) accessKey(token string) string  { return s.prefix + "at:" + token }
func (s *Store) refreshKey(token string) string { return s.prefix + "rt:" + token }
func (s *Store) codeKey(code string) string     { return s.prefix + "ac:" + code }

// GetClient delegates to the Directory.
func (s *Store) GetClient(ctx context.Context, clientID, clientSecret string) (*oauth2.Client, error) {
	return s.directory.GetClient(ctx, clientID, clientSecret)
}

// GetUser delegates to the Directory.
func (s *Store) GetUser(ctx context.Context, username, password string) (*oauth2.User, error) {
	return s.directory.GetUser(ctx, username, password)
}

// GetUserFromClient delegates to the Directory when it supports the
// client_credentials lookup.
func (s *Store) GetUserFromClient(ctx context.Context, client *oauth2.Client) (*oauth2.User, error) {
	d, ok := s.directory.(interface {
		GetUserFromClient(ctx context.Context, client *oauth2.Client) (*oauth2.User, error)
	})
	if !ok {
		return nil, nil
	}
	return d.GetUserFromClient(ctx, client)
}

// SaveToken stores the record under its access token key and, when a
// refresh token was issued, its refresh token key. Each key expires with
// the credential it serves.
func (s *Store) SaveToken(ctx context.Context, token *oauth2.Token, client *oauth2.Client, user *oauth2.User) (*oauth2.Token, error) {
	token.Client = client
	token.User = user

	record := tokenRecord{
		AccessToken:           token.AccessToken,
		AccessTokenExpiresAt:  token.AccessTokenExpiresAt,
		RefreshToken:          token.RefreshToken,
		RefreshTokenExpiresAt: token.RefreshTokenExpiresAt,
		Scope:                 token.Scope,
		ClientID:              client.ID,
		Extra:                 token.Extra,
	}
	if user != nil {
		record.Username = user.Username
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	if ttl := time.Until(token.AccessTokenExpiresAt); ttl > 0 {
		if err := s.rdb.Set(ctx, s.accessKey(token.AccessToken), payload, ttl).Err(); err != nil {
			return nil, err
		}
	}
	if token.RefreshToken != "" {
		if ttl := time.Until(token.RefreshTokenExpiresAt); ttl > 0 {
			if err := s.rdb.Set(ctx, s.refreshKey(token.RefreshToken), payload, ttl).Err(); err != nil {
				return nil, err
			}
		}
	}
	return token, nil
}

func (s *Store) loadToken(ctx context.Context, key string) (*oauth2.Token, error) {
	payload, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record tokenRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken:           record.AccessToken,
		AccessTokenExpiresAt:  record.AccessTokenExpiresAt,
		RefreshToken:          record.RefreshToken,
		RefreshTokenExpiresAt: record.RefreshTokenExpiresAt,
		Scope:                 record.Scope,
		Client:                &oauth2.Client{ID: record.ClientID},
		User:                  &oauth2.User{Username: record.Username},
		Extra:                 record.Extra,
	}, nil
}

// GetAccessToken loads a token by access token string.
func (s *Store) GetAccessToken(ctx context.Context, accessToken string) (*oauth2.Token, error) {
	return s.loadToken(ctx, s.accessKey(accessToken))
}

// GetRefreshToken loads a token by refresh token string.
func (s *Store) GetRefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return s.loadToken(ctx, s.refreshKey(refreshToken))
}

// RevokeRefreshToken deletes the refresh token key.
func (s *Store) RevokeRefreshToken(ctx context.Context, token *oauth2.Token) (bool, error) {
	deleted, err := s.rdb.Del(ctx, s.refreshKey(token.RefreshToken)).Result()
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

// RevokeAccessToken deletes the access token key.
func (s *Store) RevokeAccessToken(ctx context.Context, token *oauth2.Token) (bool, error) {
	deleted, err := s.rdb.Del(ctx, s.accessKey(token.AccessToken)).Result()
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

// SaveAuthorizationCode stores a code record expiring with the code.
func (s *Store) SaveAuthorizationCode(ctx context.Context, code *oauth2.AuthorizationCode, client *oauth2.Client, user *oauth2.User) (*oauth2.AuthorizationCode, error) {
	code.Client = client
	code.User = user

	record := codeRecord{
		AuthorizationCode: code.AuthorizationCode,
		ExpiresAt:         code.ExpiresAt,
		RedirectURI:       code.RedirectURI,
		Scope:             code.Scope,
		ClientID:          client.ID,
	}
	if user != nil {
		record.Username = user.Username
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	ttl := time.Until(code.ExpiresAt)
	if ttl <= 0 {
		return code, nil
	}
	if err := s.rdb.Set(ctx, s.codeKey(code.AuthorizationCode), payload, ttl).Err(); err != nil {
		return nil, err
	}
	return code, nil
}

// GetAuthorizationCode loads a pending code.
func (s *Store) GetAuthorizationCode(ctx context.Context, code string) (*oauth2.AuthorizationCode, error) {
	payload, err := s.rdb.Get(ctx, s.codeKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record codeRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, err
	}
	return &oauth2.AuthorizationCode{
		AuthorizationCode: record.AuthorizationCode,
		ExpiresAt:         record.ExpiresAt,
		RedirectURI:       record.RedirectURI,
		Scope:             record.Scope,
		Client:            &oauth2.Client{ID: record.ClientID},
		User:              &oauth2.User{Username: record.Username},
	}, nil
}

// RevokeAuthorizationCode consumes the code atomically through DEL.
func (s *Store) RevokeAuthorizationCode(ctx context.Context, code *oauth2.AuthorizationCode) (bool, error) {
	deleted, err := s.rdb.Del(ctx, s.codeKey(code.AuthorizationCode)).Result()
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

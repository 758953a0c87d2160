// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	oauth2 "trpc.group/trpc-go/trpc-oauth2-go"
)

// userKeyType is an unexported context key type to prevent collisions with
// other packages.
type userKeyType struct{}

var userKey = userKeyType{}

// UserFromContext returns the resource owner stored by RequireBearerAuth,
// or nil when the request was not authenticated.
func UserFromContext(ctx context.Context) *oauth2.User {
	user, _ := ctx.Value(userKey).(*oauth2.User)
	return user
}

// AllowedMethods returns a middleware that permits only the provided HTTP
// methods. Other methods get a 405 with an Allow header and a JSON OAuth
// error body.
func AllowedMethods(methods ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, method := range methods {
				if r.Method == method {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("Allow", strings.Join(methods, ", "))
			w.Header().Set("Content-Type", "application/json;charset=UTF-8")
			w.WriteHeader(http.StatusMethodNotAllowed)
			oauthErr := oauth2.NewError(oauth2.ErrInvalidRequest,
				"Invalid request: method %s is not allowed for this endpoint", r.Method)
			_ = json.NewEncoder(w).Encode(oauthErr.ToResponse())
		})
	}
}

// BearerAuthOptions configures the RequireBearerAuth middleware.
type BearerAuthOptions struct {
	// Server performs the bearer token authentication.
	Server *oauth2.Server

	// Authenticate carries the per-call endpoint options, typically the
	// required scope for the protected resource.
	Authenticate *oauth2.AuthenticateOptions
}

// RequireBearerAuth returns a middleware that authenticates bearer tokens
// on incoming requests and stores the resulting user in the request
// context. Failures are written as JSON OAuth errors with the engine's
// status and challenge headers.
func RequireBearerAuth(options BearerAuthOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, err := NewRequest(r)
			if err != nil {
				writeError(w, err)
				return
			}
			res := oauth2.NewResponse()
			user, err := options.Server.Authenticate(r.Context(), req, res, options.Authenticate)
			if err != nil {
				WriteResponse(w, res)
				return
			}

			// Scope headers from the engine ride along on the protected
			// resource's own response.
			for name, value := range res.Headers() {
				w.Header().Set(name, value)
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Mux mounts the four client-facing endpoints on a new ServeMux using the
// conventional paths. The authorize endpoint accepts GET and POST; the
// others are POST only.
func Mux(server *oauth2.Server) *http.ServeMux {
	mux := http.NewServeMux()
	post := AllowedMethods(http.MethodPost)
	mux.Handle("/authorize", AllowedMethods(http.MethodGet, http.MethodPost)(AuthorizeHandler(server, nil)))
	mux.Handle("/token", post(TokenHandler(server, nil)))
	mux.Handle("/introspect", post(IntrospectHandler(server, nil)))
	mux.Handle("/revoke", post(RevokeHandler(server, nil)))
	return mux
}

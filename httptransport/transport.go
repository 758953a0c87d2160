// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

// Package httptransport binds the protocol engine to net/http. It converts
// *http.Request values into the engine's Request, executes an endpoint and
// writes the engine's Response back, plus the middleware a resource server
// needs around that: method filtering, bearer authentication, auditing and
// metrics.
package httptransport

import (
	"encoding/json"
	"net/http"

	oauth2 "trpc.group/trpc-go/trpc-oauth2-go"
)

// NewRequest converts an *http.Request into the engine's transport
// independent Request. Form bodies are decoded; other bodies are left to
// the endpoint to reject by content type.
func NewRequest(r *http.Request) (*oauth2.Request, error) {
	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	query := map[string]string{}
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}

	body := map[string]string{}
	if err := r.ParseForm(); err != nil {
		return nil, oauth2.NewError(oauth2.ErrInvalidRequest, "Invalid request: malformed request body")
	}
	for name, values := range r.PostForm {
		if len(values) > 0 {
			body[name] = values[0]
		}
	}

	return oauth2.NewRequest(r.Method, headers, query, body), nil
}

// WriteResponse writes an engine Response onto the http.ResponseWriter.
// Bodies are JSON encoded; an empty body produces an empty response, which
// the revocation endpoint relies on.
func WriteResponse(w http.ResponseWriter, res *oauth2.Response) {
	for name, value := range res.Headers() {
		w.Header().Set(name, value)
	}
	if len(res.Body) > 0 && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	}
	w.WriteHeader(res.Status)
	if len(res.Body) > 0 {
		_ = json.NewEncoder(w).Encode(res.Body)
	}
}

// endpointHandler adapts one engine endpoint call into an http.Handler.
func endpointHandler(run func(r *http.Request, req *oauth2.Request, res *oauth2.Response) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := NewRequest(r)
		if err != nil {
			writeError(w, err)
			return
		}
		res := oauth2.NewResponse()
		// The endpoint shapes res for success and failure alike; the error
		// return is for the host's logs, not for the wire.
		_ = run(r, req, res)
		WriteResponse(w, res)
	})
}

func writeError(w http.ResponseWriter, err error) {
	oauthErr := oauth2.AsError(err)
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(oauthErr.Status)
	_ = json.NewEncoder(w).Encode(oauthErr.ToResponse())
}

// AuthorizeHandler serves the authorization endpoint.
func AuthorizeHandler(server *oauth2.Server, opts *oauth2.AuthorizeOptions) http.Handler {
	return endpointHandler(func(r *http.Request, req *oauth2.Request, res *oauth2.Response) error {
		return server.Authorize(r.Context(), req, res, opts)
	})
}

// TokenHandler serves the token endpoint.
func TokenHandler(server *oauth2.Server, opts *oauth2.TokenOptions) http.Handler {
	return endpointHandler(func(r *http.Request, req *oauth2.Request, res *oauth2.Response) error {
		return server.Token(r.Context(), req, res, opts)
	})
}

// IntrospectHandler serves the introspection endpoint.
func IntrospectHandler(server *oauth2.Server, opts *oauth2.IntrospectOptions) http.Handler {
	return endpointHandler(func(r *http.Request, req *oauth2.Request, res *oauth2.Response) error {
		return server.Introspect(r.Context(), req, res, opts)
	})
}

// RevokeHandler serves the revocation endpoint.
func RevokeHandler(server *oauth2.Server, opts *oauth2.RevokeOptions) http.Handler {
	return endpointHandler(func(r *http.Request, req *oauth2.Request, res *oauth2.Response) error {
		return server.Revoke(r.Context(), req, res, opts)
	})
}

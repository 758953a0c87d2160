// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import "strings"

// Request is the engine's view of an inbound HTTP request: method, headers,
// query and an already decoded form body. It is built once per call by the
// transport adapter and not mutated afterwards.
//
// Header lookups are case-insensitive; keys are normalized to lower case at
// construction.
type Request struct {
	Method  string
	Headers map[string]string
	Query   map[string]string
	Body    map[string]string
}

// NewRequest builds a normalized Request. The method is upper-cased and
// header keys lower-cased. nil maps are replaced with empty ones so callers
// never need nil checks.
func NewRequest(method string, headers, query, body map[string]string) *Request {
	normalized := make(map[string]string, len(headers))
	for name, value := range headers {
		normalized[strings.ToLower(name)] = value
	}
	if query == nil {
		query = map[string]string{}
	}
	if body == nil {
		body = map[string]string{}
	}
	return &Request{
		Method:  strings.ToUpper(method),
		Headers: normalized,
		Query:   query,
		Body:    body,
	}
}

// Header returns the header value for name, matched case-insensitively.
func (r *Request) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// param returns the named parameter from the body, falling back to the
// query string. Authorization request parameters may arrive either way.
func (r *Request) param(name string) string {
	if v, ok := r.Body[name]; ok && v != "" {
		return v
	}
	return r.Query[name]
}

// isFormEncoded reports whether the request carries a form encoded body.
func (r *Request) isFormEncoded() bool {
	contentType := r.Header("content-type")
	return strings.HasPrefix(contentType, "application/x-www-form-urlencoded")
}

// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import (
	"net/http"
	"strings"
)

// Response is the mutable response builder each endpoint fills in. The
// transport adapter writes it out after the endpoint returns. Only the
// goroutine handling the request may touch it.
type Response struct {
	Status  int
	Body    map[string]interface{}
	headers map[string]string
}

// NewResponse returns an empty 200 response.
func NewResponse() *Response {
	return &Response{
		Status:  http.StatusOK,
		Body:    map[string]interface{}{},
		headers: map[string]string{},
	}
}

// Header returns the header value for name, matched case-insensitively.
func (r *Response) Header(name string) string {
	return r.headers[strings.ToLower(name)]
}

// SetHeader sets a response header. Keys are stored lower-cased so repeated
// sets with different casing overwrite rather than duplicate.
func (r *Response) SetHeader(name, value string) {
	r.headers[strings.ToLower(name)] = value
}

// Headers returns all response headers keyed by lower-cased name.
func (r *Response) Headers() map[string]string {
	return r.headers
}

// SetBody replaces the response body.
func (r *Response) SetBody(body map[string]interface{}) {
	if body == nil {
		body = map[string]interface{}{}
	}
	r.Body = body
}

// Redirect points the response at url with a 302 status.
func (r *Response) Redirect(url string) {
	r.SetHeader("Location", url)
	r.Status = http.StatusFound
}

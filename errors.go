// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a structured OAuth 2.0 error. Name is the wire error code from
// RFC 6749 section 5.2 (or one of the bearer/introspection extensions),
// Status the HTTP status to respond with, Message a human readable
// description placed in error_description.
type Error struct {
	Name    string
	Status  int
	Message string
}

// ErrorResponse is the JSON wire shape of an OAuth error
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Name
	}
	return e.Name + ": " + e.Message
}

// Is matches errors by wire error code so callers can test with errors.Is
// against the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Name == e.Name
}

// ToResponse converts the error into its JSON wire representation
func (e *Error) ToResponse() *ErrorResponse {
	return &ErrorResponse{
		Error:            e.Name,
		ErrorDescription: e.Message,
	}
}

// Sentinel errors, one per taxonomy kind. Use errors.Is against these to
// classify an error returned by an endpoint.
var (
	ErrInvalidRequest          = &Error{Name: "invalid_request", Status: http.StatusBadRequest}
	ErrInvalidClient           = &Error{Name: "invalid_client", Status: http.StatusBadRequest}
	ErrInvalidGrant            = &Error{Name: "invalid_grant", Status: http.StatusBadRequest}
	ErrInvalidScope            = &Error{Name: "invalid_scope", Status: http.StatusBadRequest}
	ErrInvalidToken            = &Error{Name: "invalid_token", Status: http.StatusUnauthorized}
	ErrUnauthorizedClient      = &Error{Name: "unauthorized_client", Status: http.StatusBadRequest}
	ErrUnauthorizedRequest     = &Error{Name: "unauthorized_request", Status: http.StatusUnauthorized}
	ErrUnsupportedGrantType    = &Error{Name: "unsupported_grant_type", Status: http.StatusBadRequest}
	ErrUnsupportedResponseType = &Error{Name: "unsupported_response_type", Status: http.StatusBadRequest}
	ErrUnsupportedTokenType    = &Error{Name: "unsupported_token_type", Status: http.StatusBadRequest}
	ErrAccessDenied            = &Error{Name: "access_denied", Status: http.StatusBadRequest}
	ErrInsufficientScope       = &Error{Name: "insufficient_scope", Status: http.StatusForbidden}
	ErrServerError             = &Error{Name: "server_error", Status: http.StatusInternalServerError}
	ErrInvalidArgument         = &Error{Name: "invalid_argument", Status: http.StatusInternalServerError}
)

// NewError derives a new error of the given kind with a formatted description.
// The kind supplies the wire code and HTTP status.
func NewError(kind *Error, format string, args ...interface{}) *Error {
	return &Error{
		Name:    kind.Name,
		Status:  kind.Status,
		Message: fmt.Sprintf(format, args...),
	}
}

// AsError coerces any error into an *Error. Values already carrying a
// taxonomy kind pass through; everything else wraps as server_error so
// internals never leak onto the wire.
func AsError(err error) *Error {
	var oauthErr *Error
	if errors.As(err, &oauthErr) {
		return oauthErr
	}
	return NewError(ErrServerError, "%s", err.Error())
}

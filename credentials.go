// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import (
	"encoding/base64"
	"strings"

	"trpc.group/trpc-go/trpc-oauth2-go/internal/charset"
)

// clientCredentials is the client id/secret pair presented on a token,
// introspection or revocation request, plus where it came from. The
// Authorization header wins over body parameters when both are present.
type clientCredentials struct {
	id         string
	secret     string
	fromHeader bool
}

// readClientCredentials extracts client credentials from HTTP Basic or the
// form body. secretRequired enforces the client_secret presence rule of the
// invoking endpoint.
func readClientCredentials(req *Request, secretRequired bool) (*clientCredentials, error) {
	creds := &clientCredentials{}

	if authz := req.Header("authorization"); strings.HasPrefix(strings.ToLower(authz), "basic ") {
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(authz[len("basic "):]))
		if err != nil {
			return nil, NewError(ErrInvalidRequest, "Invalid request: malformed authorization header")
		}
		parts := strings.SplitN(string(raw), ":", 2)
		if len(parts) != 2 {
			return nil, NewError(ErrInvalidRequest, "Invalid request: malformed authorization header")
		}
		creds.id, creds.secret = parts[0], parts[1]
		creds.fromHeader = true
	} else {
		creds.id = req.Body["client_id"]
		creds.secret = req.Body["client_secret"]
	}

	if creds.id == "" || (secretRequired && creds.secret == "") {
		return nil, NewError(ErrInvalidClient, "Invalid client: cannot retrieve client credentials")
	}
	if !charset.IsVSChar(creds.id) {
		return nil, NewError(ErrInvalidRequest, "Invalid parameter: `client_id`")
	}
	if creds.secret != "" && !charset.IsVSChar(creds.secret) {
		return nil, NewError(ErrInvalidRequest, "Invalid parameter: `client_secret`")
	}
	return creds, nil
}

// containsGrant reports whether the client is allowed the given grant type.
func containsGrant(client *Client, grantType string) bool {
	for _, g := range client.Grants {
		if g == grantType {
			return true
		}
	}
	return false
}

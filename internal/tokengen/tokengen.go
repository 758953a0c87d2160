// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

// Package tokengen produces the opaque credential strings issued by the
// engine when the host's Model does not supply its own generators.
package tokengen

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

const seedSize = 256

// GenerateRandomToken returns a 40 character lowercase hex string derived
// from SHA-1 over 256 bytes of CSPRNG output. The value is an opaque
// identifier, not a derived secret.
func GenerateRandomToken() (string, error) {
	seed := make([]byte, seedSize)
	if _, err := rand.Read(seed); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	sum := sha1.Sum(seed)
	return hex.EncodeToString(sum[:]), nil
}

// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNChar(t *testing.T) {
	assert.True(t, IsNChar("authorization_code"))
	assert.True(t, IsNChar("a-b.c_d9"))
	assert.False(t, IsNChar(""))
	assert.False(t, IsNChar("with space"))
	assert.False(t, IsNChar("colon:separated"))
}

func TestIsNQChar(t *testing.T) {
	assert.True(t, IsNQChar("read!write#admin"))
	assert.False(t, IsNQChar(""))
	assert.False(t, IsNQChar(`quoted"`))
	assert.False(t, IsNQChar(`back\slash`))
	assert.False(t, IsNQChar("with space"))
}

func TestIsNQSChar(t *testing.T) {
	assert.True(t, IsNQSChar("read write"))
	assert.False(t, IsNQSChar(""))
	assert.False(t, IsNQSChar(`read "write"`))
	assert.False(t, IsNQSChar("line\nbreak"))
}

func TestIsUnicodeCharNoCRLF(t *testing.T) {
	assert.True(t, IsUnicodeCharNoCRLF("pässwörd"))
	assert.True(t, IsUnicodeCharNoCRLF("tab\tallowed"))
	assert.True(t, IsUnicodeCharNoCRLF("日本語"))
	assert.False(t, IsUnicodeCharNoCRLF(""))
	assert.False(t, IsUnicodeCharNoCRLF("cr\rhere"))
	assert.False(t, IsUnicodeCharNoCRLF("lf\nhere"))
}

func TestIsURI(t *testing.T) {
	assert.True(t, IsURI("https://example.com/cb"))
	assert.True(t, IsURI("com.example.app:/callback"))
	assert.False(t, IsURI("no-scheme"))
	assert.False(t, IsURI("//network-path"))
	assert.False(t, IsURI(""))
}

func TestIsVSChar(t *testing.T) {
	assert.True(t, IsVSChar("xyz-123 ~!"))
	assert.False(t, IsVSChar(""))
	assert.False(t, IsVSChar("new\nline"))
	assert.False(t, IsVSChar("ünïcode"))
}

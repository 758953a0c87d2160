// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

// Package charset implements the character class predicates of
// RFC 6749 Appendix A. Each predicate reports whether the entire input
// matches the class; the empty string never matches.
package charset

import "regexp"

var (
	ncharRE    = regexp.MustCompile(`^[-._\w]+$`)
	nqcharRE   = regexp.MustCompile(`^[\x21\x23-\x5B\x5D-\x7E]+$`)
	nqscharRE  = regexp.MustCompile(`^[\x20-\x21\x23-\x5B\x5D-\x7E]+$`)
	uniNoCRLF  = regexp.MustCompile(`^[\x09\x20-\x7E\x{80}-\x{D7FF}\x{E000}-\x{FFFD}\x{10000}-\x{10FFFF}]+$`)
	uriRE      = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]+:`)
	vscharRE   = regexp.MustCompile(`^[\x20-\x7E]+$`)
)

// IsNChar reports whether s consists of NCHAR characters
// (ALPHA / DIGIT / "-" / "." / "_").
func IsNChar(s string) bool {
	return ncharRE.MatchString(s)
}

// IsNQChar reports whether s consists of NQCHAR characters
// (visible ASCII excluding double quote and backslash).
func IsNQChar(s string) bool {
	return nqcharRE.MatchString(s)
}

// IsNQSChar reports whether s consists of NQSCHAR characters
// (NQCHAR plus space).
func IsNQSChar(s string) bool {
	return nqscharRE.MatchString(s)
}

// IsUnicodeCharNoCRLF reports whether s consists of UNICODECHARNOCRLF
// characters: any Unicode code point except CR, LF, most C0 controls and
// the surrogate range.
func IsUnicodeCharNoCRLF(s string) bool {
	return uniNoCRLF.MatchString(s)
}

// IsURI reports whether s starts with a URI scheme prefix. This is a shape
// check only; it does not validate the remainder of the URI.
func IsURI(s string) bool {
	return uriRE.MatchString(s)
}

// IsVSChar reports whether s consists of VSCHAR characters
// (visible ASCII plus space).
func IsVSChar(s string) bool {
	return vscharRE.MatchString(s)
}

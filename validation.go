// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"trpc.group/trpc-go/trpc-oauth2-go/internal/charset"
)

// validate carries the RFC 6749 Appendix A character classes as custom
// struct tags so request records declare their own shape rules. Field names
// in validation errors come from the form tag, matching the wire parameter
// names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	register := func(tag string, predicate func(string) bool) {
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return predicate(fl.Field().String())
		})
	}
	register("nchar", charset.IsNChar)
	register("nqchar", charset.IsNQChar)
	register("nqschar", charset.IsNQSChar)
	register("uchar", charset.IsUnicodeCharNoCRLF)
	register("urischeme", charset.IsURI)
	register("vschar", charset.IsVSChar)

	return v
}

// validationError maps a validator result onto the taxonomy: required
// failures become "Missing parameter", everything else "Invalid parameter".
// A malformed scope is the one parameter with its own error code.
func validationError(err error) *Error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return NewError(ErrServerError, "%s", err.Error())
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return NewError(ErrInvalidRequest, "Missing parameter: `%s`", fe.Field())
	}
	if fe.Field() == "scope" {
		return NewError(ErrInvalidScope, "Invalid parameter: `%s`", fe.Field())
	}
	return NewError(ErrInvalidRequest, "Invalid parameter: `%s`", fe.Field())
}

// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package httptransport

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditEvent is one structured record per protocol request. Token and code
// material is never logged verbatim; only a hash suitable for correlating
// events with stored credentials.
type AuditEvent struct {
	EventID      string        `json:"event_id"`
	Timestamp    time.Time     `json:"timestamp"`
	Method       string        `json:"method"`
	Path         string        `json:"path"`
	RemoteAddr   string        `json:"remote_addr"`
	UserAgent    string        `json:"user_agent,omitempty"`
	ClientID     string        `json:"client_id,omitempty"`
	GrantType    string        `json:"grant_type,omitempty"`
	ResponseType string        `json:"response_type,omitempty"`
	RedirectURI  string        `json:"redirect_uri,omitempty"`
	TokenHash    string        `json:"token_hash,omitempty"`
	CodeHash     string        `json:"code_hash,omitempty"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// hashMaterial returns a short hex digest of credential material for log
// correlation.
func hashMaterial(material string) string {
	if material == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:8])
}

// Audit returns a middleware that emits one audit event per request through
// the given zap logger. A nil logger falls back to zap's production logger.
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			logger, _ = zap.NewDevelopment()
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w}

			// Form parameters must be read before the handler consumes the
			// body; ParseForm is idempotent so the handler sees them too.
			_ = r.ParseForm()

			next.ServeHTTP(recorder, r)

			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			event := AuditEvent{
				EventID:      uuid.NewString(),
				Timestamp:    start,
				Method:       r.Method,
				Path:         r.URL.Path,
				RemoteAddr:   host,
				UserAgent:    r.UserAgent(),
				ClientID:     r.Form.Get("client_id"),
				GrantType:    r.Form.Get("grant_type"),
				ResponseType: r.Form.Get("response_type"),
				RedirectURI:  r.Form.Get("redirect_uri"),
				TokenHash:    hashMaterial(firstNonEmpty(r.Form.Get("token"), r.Form.Get("refresh_token"), r.Form.Get("access_token"))),
				CodeHash:     hashMaterial(r.Form.Get("code")),
				StatusCode:   recorder.status,
				ResponseTime: time.Since(start),
			}

			logger.Info("oauth2 request",
				zap.String("event_id", event.EventID),
				zap.String("method", event.Method),
				zap.String("path", event.Path),
				zap.String("remote_addr", event.RemoteAddr),
				zap.String("client_id", event.ClientID),
				zap.String("grant_type", event.GrantType),
				zap.String("response_type", event.ResponseType),
				zap.String("token_hash", event.TokenHash),
				zap.String("code_hash", event.CodeHash),
				zap.Int("status", event.StatusCode),
				zap.Duration("response_time", event.ResponseTime),
			)
		})
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package oauth2

import (
	"sync"

	"go.uber.org/zap"
)

// Logger is the minimal logging interface consumed by the engine. Any
// structured logger can be adapted; the default is backed by zap.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// zapLogger adapts a zap SugaredLogger to the Logger interface.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *zapLogger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *zapLogger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *zapLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// NewZapLogger wraps an existing zap logger in the Logger interface.
func NewZapLogger(logger *zap.Logger) Logger {
	return &zapLogger{sugar: logger.Sugar()}
}

var (
	defaultLoggerOnce sync.Once
	defaultLogger     Logger
)

// GetDefaultLogger returns the process wide default logger, a production
// zap logger built lazily on first use.
func GetDefaultLogger() Logger {
	defaultLoggerOnce.Do(func() {
		logger, err := zap.NewProduction()
		if err != nil {
			logger, _ = zap.NewDevelopment()
		}
		defaultLogger = NewZapLogger(logger)
	})
	return defaultLogger
}

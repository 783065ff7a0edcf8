// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package log

import "go.uber.org/zap"

// NoLog is a no-op Logger, used by tests that don't want log output.
type NoLog struct{}

// NewNoOpLogger returns a Logger that discards everything.
func NewNoOpLogger() Logger {
	return NoLog{}
}

func (NoLog) Debug(msg string, fields ...zap.Field) {}
func (NoLog) Info(msg string, fields ...zap.Field)  {}
func (NoLog) Warn(msg string, fields ...zap.Field)  {}
func (NoLog) Error(msg string, fields ...zap.Field) {}

func (n NoLog) With(fields ...zap.Field) Logger { return n }

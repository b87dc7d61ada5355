/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/productsvc/utils"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "DEBUG"
	}
}

// Logger is passed explicitly to every component that logs. Fields are
// alternating key/value pairs.
type Logger interface {
	SetLevel(LogLevel)
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// NewDefaultLogger returns a Logger backed by the named logrus logger.
func NewDefaultLogger(name string) *DefaultLogger {
	return &DefaultLogger{name: name, logger: utils.NewLogger(name)}
}

type DefaultLogger struct {
	name   string
	logger *utils.Logger
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.entry(fields).Debug(msg)
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.entry(fields).Info(msg)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.entry(fields).Warn(msg)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.entry(fields).Error(msg)
}

func (l *DefaultLogger) SetLevel(level LogLevel) {
	utils.SetLoggerLevel(l.name, strings.ToLower(level.String()))
}

func (l *DefaultLogger) entry(fields []interface{}) *logrus.Entry {
	return l.logger.WithFields(toFields(fields))
}

// toFields pairs up alternating keys and values. Errors are stored as their
// message so that every formatter renders them.
func toFields(fields []interface{}) logrus.Fields {
	out := make(logrus.Fields, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		out[fmt.Sprint(fields[i])] = fieldValue(fields[i+1])
	}
	if len(fields)%2 == 1 {
		out["_extra"] = fieldValue(fields[len(fields)-1])
	}
	return out
}

func fieldValue(v interface{}) interface{} {
	if err, ok := v.(error); ok && err != nil {
		return err.Error()
	}
	return v
}

// WithFields returns a Logger that adds fields to every entry written
// through logger.
func WithFields(logger Logger, fields ...interface{}) Logger {
	if logger == nil {
		logger = NopLogger{}
	}
	if len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(*fieldLogger); ok {
		return &fieldLogger{Logger: fl.Logger, fields: append(slices.Clip(fl.fields), fields...)}
	}
	return &fieldLogger{Logger: logger, fields: fields}
}

type fieldLogger struct {
	Logger
	fields []interface{}
}

func (l *fieldLogger) with(fields []interface{}) []interface{} {
	return append(slices.Clip(l.fields), fields...)
}

func (l *fieldLogger) Debug(msg string, fields ...interface{}) { l.Logger.Debug(msg, l.with(fields)...) }

func (l *fieldLogger) Info(msg string, fields ...interface{}) { l.Logger.Info(msg, l.with(fields)...) }

func (l *fieldLogger) Warn(msg string, fields ...interface{}) { l.Logger.Warn(msg, l.with(fields)...) }

func (l *fieldLogger) Error(msg string, fields ...interface{}) { l.Logger.Error(msg, l.with(fields)...) }

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) SetLevel(LogLevel) {}
func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{}) {}
func (NopLogger) Warn(string, ...interface{}) {}
func (NopLogger) Error(string, ...interface{}) {}

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

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

type PathFormat int

const (
	PathFormatShortRelative PathFormat = iota
	PathFormatFilenameOnly
	PathFormatNone
)

const defaultTimestampFormat = "2006-01-02 15:04:05.000"

var (
	loggerRegistryMu sync.RWMutex
	loggerRegistry   = map[string]*logrus.Logger{}
	baseLevel        = ParseLogLevel(EnvDefaultString("LOG_LEVEL", "info"))
	consoleLogFormat = normalizeFormat(EnvDefaultString("LOG_FORMAT", "text"))
	consoleOutput    io.Writer = os.Stdout
)

func normalizeFormat(format string) string {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return "json"
	}
	return "text"
}

// NewLogger returns the logger registered under name, creating it with the
// configured level, format and output on first use.
func NewLogger(name string) *logrus.Logger {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	if l, ok := loggerRegistry[name]; ok {
		return l
	}
	l := logrus.New()
	l.SetOutput(consoleOutput)
	l.SetLevel(baseLevel)
	l.SetReportCaller(true)
	l.SetFormatter(newFormatter(name, consoleLogFormat))
	loggerRegistry[name] = l
	return l
}

func newFormatter(name, format string) logrus.Formatter {
	if format == "json" {
		return &JSONLogFormatter{LoggerName: name, TimestampFormat: defaultTimestampFormat}
	}
	return &Log4jColorFormatter{
		LoggerName:      name,
		TimestampFormat: defaultTimestampFormat,
		NameWidth:       12,
		CallerWidth:     28,
	}
}

func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info", "":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

// ConfigureLogLevel sets the level of every registered and future logger.
func ConfigureLogLevel(levelStr string) {
	lvl := ParseLogLevel(levelStr)
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	baseLevel = lvl
	for _, lg := range loggerRegistry {
		lg.SetLevel(lvl)
	}
}

// ConfigureLogFormat switches every logger between "text" and "json" output.
func ConfigureLogFormat(format string) {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	consoleLogFormat = normalizeFormat(format)
	for name, lg := range loggerRegistry {
		lg.SetFormatter(newFormatter(name, consoleLogFormat))
	}
}

// ConfigureOutput redirects every logger to w.
func ConfigureOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	consoleOutput = w
	for _, lg := range loggerRegistry {
		lg.SetOutput(w)
	}
}

func SetLoggerLevel(name string, lvlStr string) bool {
	loggerRegistryMu.RLock()
	lg, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if !ok {
		return false
	}
	lg.SetLevel(ParseLogLevel(lvlStr))
	return true
}

type Log4jColorFormatter struct {
	LoggerName      string
	TimestampFormat string
	PathFmt         PathFormat
	NameWidth       int
	CallerWidth     int
}

func (f *Log4jColorFormatter) tsFormat() string {
	if f.TimestampFormat != "" {
		return f.TimestampFormat
	}
	return defaultTimestampFormat
}

func (f *Log4jColorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	ts := entry.Time.Format(f.tsFormat())
	lvl := colorLevel(fmt.Sprintf("%7s", strings.ToUpper(entry.Level.String())), entry.Level)
	pid := color.MagentaString("%-6d", os.Getpid())
	name := color.CyanString("%*s", f.NameWidth, limitRunes(f.LoggerName, f.NameWidth))

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s --- [%s]", ts, lvl, pid, name)
	if caller := callerString(entry, f.PathFmt); caller != "" {
		if f.CallerWidth > 0 {
			caller = fmt.Sprintf("%*s", f.CallerWidth, tailRunes(caller, f.CallerWidth))
		}
		b.WriteString(" ")
		b.WriteString(color.New(color.Faint).Sprint(caller))
	}
	b.WriteString(" : ")
	b.WriteString(entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

type JSONLogFormatter struct {
	LoggerName      string
	TimestampFormat string
	PathFmt         PathFormat
}

type jsonLogRecord struct {
	Time    string                 `json:"time"`
	Level   string                 `json:"level"`
	Logger  string                 `json:"logger"`
	Caller  string                 `json:"caller,omitempty"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = defaultTimestampFormat
	}
	rec := jsonLogRecord{
		Time:    entry.Time.Format(tsFormat),
		Level:   strings.ToLower(entry.Level.String()),
		Logger:  f.LoggerName,
		Caller:  callerString(entry, f.PathFmt),
		Message: entry.Message,
	}
	if len(entry.Data) > 0 {
		rec.Fields = make(map[string]interface{}, len(entry.Data))
		for k, v := range entry.Data {
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			rec.Fields[k] = v
		}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func callerString(entry *logrus.Entry, format PathFormat) string {
	if entry.Caller == nil || format == PathFormatNone {
		return ""
	}
	file := filepath.ToSlash(entry.Caller.File)
	if format == PathFormatFilenameOnly {
		return fmt.Sprintf("%s:%d", filepath.Base(file), entry.Caller.Line)
	}
	parts := strings.Split(file, "/")
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	return fmt.Sprintf("%s:%d", strings.Join(parts, "/"), entry.Caller.Line)
}

func colorLevel(s string, level logrus.Level) string {
	switch level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return color.RedString(s)
	case logrus.WarnLevel:
		return color.YellowString(s)
	case logrus.InfoLevel:
		return color.GreenString(s)
	case logrus.DebugLevel:
		return color.BlueString(s)
	default:
		return color.MagentaString(s)
	}
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func limitRunes(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}

func tailRunes(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// Since formats the elapsed time in milliseconds for log fields.
func Since(start time.Time) string {
	return fmt.Sprintf("%.3fms", float64(time.Since(start).Microseconds())/1000)
}

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
	"strings"
	"sync"
	"testing"

	"github.com/uptrace/bun"
)

type gadget struct {
	bun.BaseModel `bun:"table:gadgets"`

	ID   int64  `bun:"id,pk"`
	Code string `bun:"code,notnull"`
}

func (*gadget) Indexes() []IndexSpec {
	return []IndexSpec{{Name: "ux_gadgets_code", Columns: []string{"code"}, Unique: true}}
}

type widgetPart struct {
	bun.BaseModel `bun:"table:widget_parts"`

	ID       int64 `bun:"id,pk"`
	GadgetID int64 `bun:"gadget_id"`
}

func testConnectionConfig(t *testing.T) *ConnectionConfig {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := DefaultConnectionConfig()
	cfg.DBName = fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	cfg.MaxOpenConns = 1
	cfg.HealthCheckInterval = 0
	cfg.SlowQueryTime = 0
	return cfg
}

type logRecord struct {
	level  string
	msg    string
	fields []interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	records []logRecord
}

func (l *recordingLogger) add(level, msg string, fields []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, logRecord{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) SetLevel(LogLevel) {}

func (l *recordingLogger) Debug(msg string, fields ...interface{}) { l.add("debug", msg, fields) }

func (l *recordingLogger) Info(msg string, fields ...interface{}) { l.add("info", msg, fields) }

func (l *recordingLogger) Warn(msg string, fields ...interface{}) { l.add("warn", msg, fields) }

func (l *recordingLogger) Error(msg string, fields ...interface{}) { l.add("error", msg, fields) }

func (l *recordingLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, r := range l.records {
		if r.level == level {
			out = append(out, r.msg)
		}
	}
	return out
}

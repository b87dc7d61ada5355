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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

type silentQueriesKey struct{}

// WithSilentQueries marks ctx so the echo and slow query hooks skip the
// queries run with it. Migrations use it unless BUNDEBUG_MIGRATION is set.
func WithSilentQueries(ctx context.Context) context.Context {
	return context.WithValue(ctx, silentQueriesKey{}, true)
}

func silentQueries(ctx context.Context) bool {
	silent, _ := ctx.Value(silentQueriesKey{}).(bool)
	return silent
}

var operationColors = map[string]*color.Color{
	"SELECT": color.New(color.FgGreen),
	"INSERT": color.New(color.FgBlue),
	"UPDATE": color.New(color.FgYellow),
	"DELETE": color.New(color.FgMagenta),
}

var operationBackgrounds = map[string]*color.Color{
	"SELECT": color.New(color.BgGreen, color.FgHiWhite),
	"INSERT": color.New(color.BgBlue, color.FgHiWhite),
	"UPDATE": color.New(color.BgYellow, color.FgHiWhite),
	"DELETE": color.New(color.BgMagenta, color.FgHiWhite),
}

func formatOperation(event *bun.QueryEvent, palette map[string]*color.Color, fallback *color.Color) string {
	c, ok := palette[event.Operation()]
	if !ok {
		c = fallback
	}
	return c.Sprint(event.Query)
}

// QueryHook echoes executed SQL, colored by operation. SQL_ECHO overrides
// the configured mode: "0" or empty disables, "2" turns on verbose.
type QueryHook struct {
	envName string
	enabled bool
	verbose bool
	writer  io.Writer
}

var _ bun.QueryHook = (*QueryHook)(nil)

// NewQueryHook echoes to w. Without verbose only failed queries are printed.
func NewQueryHook(w io.Writer, verbose bool) *QueryHook {
	return &QueryHook{envName: "SQL_ECHO", enabled: true, verbose: verbose, writer: w}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if silentQueries(ctx) {
		return
	}
	enabled := h.enabled
	verbose := h.verbose
	if env, ok := os.LookupEnv(h.envName); ok {
		enabled = env != "" && env != "0"
		verbose = env == "2"
	}
	if !enabled {
		return
	}
	if !verbose {
		switch {
		case event.Err == nil, errors.Is(event.Err, sql.ErrNoRows), errors.Is(event.Err, sql.ErrTxDone):
			return
		}
	}

	now := time.Now()
	args := []interface{}{
		now.Format("2006-01-02 15:04:05.000"),
		color.CyanString("%10s", "[SQL]"),
		fmt.Sprintf("%12s", now.Sub(event.StartTime).Round(time.Microsecond)),
		" ", formatOperation(event, operationColors, color.New(color.FgRed)),
	}
	if event.Err != nil {
		typ := reflect.TypeOf(event.Err).String()
		args = append(args, "\t", color.New(color.BgRed).Sprintf(" %s: %s ", typ, event.Err.Error()))
	}
	_, _ = fmt.Fprintln(h.writer, args...)
}

// SlowQueryHook warns through the logger about successful queries slower
// than the threshold.
type SlowQueryHook struct {
	threshold time.Duration
	logger    Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

func NewSlowQueryHook(threshold time.Duration, logger Logger) *SlowQueryHook {
	if logger == nil {
		logger = NopLogger{}
	}
	return &SlowQueryHook{threshold: threshold, logger: logger}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if event.Err != nil || silentQueries(ctx) {
		return
	}
	duration := time.Since(event.StartTime)
	if duration > h.threshold {
		h.logger.Warn("Slow query detected",
			"duration", duration.Round(time.Microsecond),
			"slow_threshold", h.threshold,
			"query", formatOperation(event, operationBackgrounds, color.New(color.BgRed, color.FgHiWhite)),
		)
	}
}

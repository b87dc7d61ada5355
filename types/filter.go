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

package types

import (
	"strings"

	"github.com/uptrace/bun"
)

// QueryFilter describes a WHERE clause schema and its argument values.
// Schema uses Bun placeholders, so ?TableAlias and bun.Ident arguments work.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// Eq matches rows whose column equals value.
func Eq(column string, value interface{}) *QueryFilter {
	return NewQueryFilter("?TableAlias.? = ?", bun.Ident(column), value)
}

// Ne matches rows whose column differs from value.
func Ne(column string, value interface{}) *QueryFilter {
	return NewQueryFilter("?TableAlias.? <> ?", bun.Ident(column), value)
}

// In matches rows whose column is one of values.
func In(column string, values ...interface{}) *QueryFilter {
	return NewQueryFilter("?TableAlias.? IN (?)", bun.Ident(column), bun.In(values))
}

// Like matches rows whose column matches the SQL LIKE pattern.
func Like(column string, pattern string) *QueryFilter {
	return NewQueryFilter("?TableAlias.? LIKE ?", bun.Ident(column), pattern)
}

// And joins non-nil filters with AND.
func And(filters ...*QueryFilter) *QueryFilter {
	parts := make([]string, 0, len(filters))
	args := make([]interface{}, 0, len(filters))
	for _, f := range filters {
		if f == nil {
			continue
		}
		parts = append(parts, "("+f.Schema+")")
		args = append(args, f.Args...)
	}
	if len(parts) == 0 {
		return nil
	}
	return &QueryFilter{Schema: strings.Join(parts, " AND "), Args: args}
}

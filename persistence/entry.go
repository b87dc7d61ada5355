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

package persistence

import (
	"reflect"

	"github.com/uptrace/bun/schema"
)

// Entry is the tracker's record of one entity: the live instance, a snapshot
// of its column values taken when it was attached or last flushed, and its state.
type Entry struct {
	entity   any
	original any
	key      any
	table    *schema.Table
	state    EntityState
	excluded map[string]struct{}
}

func newEntry(table *schema.Table, key any, entity any, state EntityState) *Entry {
	return &Entry{
		entity:   entity,
		original: snapshot(table, entity),
		key:      key,
		table:    table,
		state:    state,
	}
}

// Entity returns the tracked instance.
func (e *Entry) Entity() any { return e.entity }

// Original returns the snapshot, a value of the same pointer type as Entity.
func (e *Entry) Original() any { return e.original }

func (e *Entry) Key() any { return e.key }

func (e *Entry) State() EntityState { return e.state }

func (e *Entry) Table() *schema.Table { return e.table }

// PrimaryKeys returns the primary key column names.
func (e *Entry) PrimaryKeys() []string {
	keys := make([]string, 0, len(e.table.PKs))
	for _, f := range e.table.PKs {
		keys = append(keys, f.Name)
	}
	return keys
}

// Exclude removes columns from the next update statement written for this entry.
func (e *Entry) Exclude(columns ...string) {
	if e.excluded == nil {
		e.excluded = make(map[string]struct{}, len(columns))
	}
	for _, c := range columns {
		e.excluded[c] = struct{}{}
	}
}

func (e *Entry) IsExcluded(column string) bool {
	_, ok := e.excluded[column]
	return ok
}

// ChangedColumns lists the non-key, non-excluded columns whose value differs
// from the snapshot, in table order.
func (e *Entry) ChangedColumns() []string {
	current := reflect.ValueOf(e.entity).Elem()
	original := reflect.ValueOf(e.original).Elem()
	var changed []string
	for _, f := range e.table.Fields {
		if f.IsPK || e.IsExcluded(f.Name) {
			continue
		}
		if !valuesEqual(current.FieldByIndex(f.Index), original.FieldByIndex(f.Index)) {
			changed = append(changed, f.Name)
		}
	}
	return changed
}

// restoreKey writes the snapshot's primary key back into the live instance.
func (e *Entry) restoreKey() {
	current := reflect.ValueOf(e.entity).Elem()
	original := reflect.ValueOf(e.original).Elem()
	for _, f := range e.table.PKs {
		current.FieldByIndex(f.Index).Set(original.FieldByIndex(f.Index))
	}
}

func (e *Entry) acceptChanges() {
	e.original = snapshot(e.table, e.entity)
	e.state = Unchanged
	e.excluded = nil
}

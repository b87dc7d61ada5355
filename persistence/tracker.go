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
	"fmt"
	"reflect"
	"slices"

	"github.com/uptrace/bun/schema"
)

type entryKey struct {
	typ reflect.Type
	key any
}

// ChangeTracker is the identity map of one session: at most one tracked
// instance per (type, key), kept in attach order.
type ChangeTracker struct {
	byKey    map[entryKey]*Entry
	byEntity map[any]*Entry
	order    []*Entry
}

func newChangeTracker() *ChangeTracker {
	return &ChangeTracker{
		byKey:    make(map[entryKey]*Entry),
		byEntity: make(map[any]*Entry),
	}
}

// Track attaches entity under key with the given state. Tracking the same
// instance again only changes its state; a different instance with the same
// key fails with ErrAlreadyTracked.
func (t *ChangeTracker) Track(table *schema.Table, key any, entity any, state EntityState) (*Entry, error) {
	if e, ok := t.byEntity[entity]; ok {
		t.SetState(e, state)
		return e, nil
	}
	k := entryKey{typ: reflect.TypeOf(entity), key: key}
	if existing, ok := t.byKey[k]; ok {
		return existing, fmt.Errorf("%w: %v %v", ErrAlreadyTracked, k.typ, key)
	}
	e := newEntry(table, key, entity, state)
	t.byKey[k] = e
	t.byEntity[entity] = e
	t.order = append(t.order, e)
	return e, nil
}

// Lookup returns the entry tracked for typ (the entity pointer type) and key.
func (t *ChangeTracker) Lookup(typ reflect.Type, key any) (*Entry, bool) {
	e, ok := t.byKey[entryKey{typ: typ, key: key}]
	return e, ok
}

// EntryOf returns the entry of this exact instance.
func (t *ChangeTracker) EntryOf(entity any) (*Entry, bool) {
	e, ok := t.byEntity[entity]
	return e, ok
}

// Entries returns the tracked entries, optionally filtered by state.
func (t *ChangeTracker) Entries(states ...EntityState) []*Entry {
	out := make([]*Entry, 0, len(t.order))
	for _, e := range t.order {
		if len(states) == 0 || slices.Contains(states, e.state) {
			out = append(out, e)
		}
	}
	return out
}

func (t *ChangeTracker) SetState(e *Entry, state EntityState) {
	if state == Detached {
		t.Detach(e)
		return
	}
	e.state = state
}

func (t *ChangeTracker) Detach(e *Entry) {
	delete(t.byKey, entryKey{typ: reflect.TypeOf(e.entity), key: e.key})
	delete(t.byEntity, e.entity)
	t.order = slices.DeleteFunc(t.order, func(x *Entry) bool { return x == e })
	e.state = Detached
}

// DetectChanges restores mutated keys and promotes Unchanged entries whose
// column values differ from their snapshot to Modified.
func (t *ChangeTracker) DetectChanges() {
	for _, e := range t.order {
		if e.state == Added {
			continue
		}
		e.restoreKey()
		if e.state == Unchanged && len(e.ChangedColumns()) > 0 {
			e.state = Modified
		}
	}
}

func (t *ChangeTracker) HasChanges() bool {
	t.DetectChanges()
	for _, e := range t.order {
		if e.state != Unchanged {
			return true
		}
	}
	return false
}

func (t *ChangeTracker) Len() int { return len(t.order) }

// Clear detaches every entry.
func (t *ChangeTracker) Clear() {
	for _, e := range t.order {
		e.state = Detached
	}
	t.byKey = make(map[entryKey]*Entry)
	t.byEntity = make(map[any]*Entry)
	t.order = nil
}

func (t *ChangeTracker) accept(e *Entry) {
	if e.state == Deleted {
		t.Detach(e)
		return
	}
	e.acceptChanges()
}

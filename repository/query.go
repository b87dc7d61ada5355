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

package repository

import (
	"context"
	"reflect"
	"slices"
	"strings"

	"github.com/tomoncle/productsvc/domain"
	"github.com/tomoncle/productsvc/persistence"
	"github.com/tomoncle/productsvc/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Query is an immutable description of a select: filters, eager-loaded
// relations, ordering, window and tracking mode. Every builder method returns
// a new Query; terminal methods execute it against the session connection.
type Query[T domain.Identifiable[K], K comparable] struct {
	repo     *baseRepositoryImpl[T, K]
	filters  []*types.QueryFilter
	includes []string
	orders   []string
	limit    int
	offset   int
	tracking bool
}

func (q *Query[T, K]) clone() *Query[T, K] {
	cp := *q
	cp.filters = slices.Clone(q.filters)
	cp.includes = slices.Clone(q.includes)
	cp.orders = slices.Clone(q.orders)
	return &cp
}

// Where adds a filter, ANDed with the existing ones. A nil filter is ignored.
func (q *Query[T, K]) Where(filter *types.QueryFilter) *Query[T, K] {
	cp := q.clone()
	if filter != nil {
		cp.filters = append(cp.filters, filter)
	}
	return cp
}

// Include eager-loads the named Bun relations, e.g. "Books" or "Books.Author".
func (q *Query[T, K]) Include(paths ...string) *Query[T, K] {
	cp := q.clone()
	for _, p := range paths {
		if p != "" && !slices.Contains(cp.includes, p) {
			cp.includes = append(cp.includes, p)
		}
	}
	return cp
}

func (q *Query[T, K]) OrderBy(orders ...string) *Query[T, K] {
	cp := q.clone()
	cp.orders = append(cp.orders, orders...)
	return cp
}

func (q *Query[T, K]) Limit(n int) *Query[T, K] {
	cp := q.clone()
	cp.limit = n
	return cp
}

func (q *Query[T, K]) Offset(n int) *Query[T, K] {
	cp := q.clone()
	cp.offset = n
	return cp
}

func (q *Query[T, K]) AsTracking() *Query[T, K] {
	cp := q.clone()
	cp.tracking = true
	return cp
}

func (q *Query[T, K]) AsNoTracking() *Query[T, K] {
	cp := q.clone()
	cp.tracking = false
	return cp
}

func (q *Query[T, K]) Tracking() bool { return q.tracking }

func (q *Query[T, K]) Includes() []string { return slices.Clone(q.includes) }

func (q *Query[T, K]) Filters() []*types.QueryFilter { return slices.Clone(q.filters) }

// newSelect applies filters and includes, so filters may reference the
// aliases of joined relations.
func (q *Query[T, K]) newSelect(model any) *bun.SelectQuery {
	sq := q.repo.session.Conn().NewSelect().Model(model)
	for _, inc := range q.includes {
		sq = sq.Relation(inc)
	}
	for _, f := range q.filters {
		sq = sq.Where(f.Schema, f.Args...)
	}
	return sq
}

func (q *Query[T, K]) selectInto(dest *[]T) *bun.SelectQuery {
	sq := q.newSelect(dest)
	if len(q.orders) > 0 {
		sq = sq.Order(q.orders...)
	}
	if q.limit > 0 {
		sq = sq.Limit(q.limit)
	}
	if q.offset > 0 {
		sq = sq.Offset(q.offset)
	}
	return sq
}

// List executes the query. Tracking queries return the session's instance
// for rows whose key is already tracked, and track the included relations
// the same way.
func (q *Query[T, K]) List(ctx context.Context) ([]T, error) {
	items := make([]T, 0)
	if err := q.selectInto(&items).Scan(ctx); err != nil {
		return nil, err
	}
	if !q.tracking {
		return items, nil
	}
	for i, item := range items {
		tracked, err := q.repo.attach(item)
		if err != nil {
			return nil, err
		}
		if any(tracked) != any(item) {
			q.copyIncluded(tracked, item)
		}
		items[i] = tracked
	}
	if err := q.attachIncludes(items); err != nil {
		return nil, err
	}
	return items, nil
}

// copyIncluded moves the freshly loaded top-level relations onto the
// instance the session already tracks.
func (q *Query[T, K]) copyIncluded(dst, src T) {
	dv, sv := reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem()
	for _, path := range q.includes {
		name, _, _ := strings.Cut(path, ".")
		if rel, ok := q.repo.table.Relations[name]; ok {
			dv.FieldByIndex(rel.Field.Index).Set(sv.FieldByIndex(rel.Field.Index))
		}
	}
}

func (q *Query[T, K]) attachIncludes(items []T) error {
	for _, path := range q.includes {
		values := make([]reflect.Value, 0, len(items))
		for _, item := range items {
			values = append(values, reflect.ValueOf(item))
		}
		table := q.repo.table
		for _, name := range strings.Split(path, ".") {
			rel, ok := table.Relations[name]
			if !ok {
				break
			}
			var next []reflect.Value
			for _, v := range values {
				loaded, err := q.attachRelated(v.Elem().FieldByIndex(rel.Field.Index), rel.JoinTable)
				if err != nil {
					return err
				}
				next = append(next, loaded...)
			}
			values, table = next, rel.JoinTable
		}
	}
	return nil
}

// attachRelated tracks the entities held by a relation field, which is a
// struct, a pointer or a slice of either, and returns them as pointers.
func (q *Query[T, K]) attachRelated(field reflect.Value, table *schema.Table) ([]reflect.Value, error) {
	if len(table.PKs) != 1 {
		return nil, nil
	}
	var out []reflect.Value
	visit := func(v reflect.Value) error {
		switch v.Kind() {
		case reflect.Struct:
			ptr := v.Addr()
			if _, err := q.attachValue(ptr, table); err != nil {
				return err
			}
			out = append(out, ptr)
		case reflect.Pointer:
			if v.IsNil() {
				return nil
			}
			resolved, err := q.attachValue(v, table)
			if err != nil {
				return err
			}
			v.Set(resolved)
			out = append(out, resolved)
		}
		return nil
	}
	if field.Kind() == reflect.Slice {
		for i := 0; i < field.Len(); i++ {
			if err := visit(field.Index(i)); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	return out, visit(field)
}

// attachValue returns the tracked instance for ptr's key, tracking ptr as
// Unchanged when the key is new to the session.
func (q *Query[T, K]) attachValue(ptr reflect.Value, table *schema.Table) (reflect.Value, error) {
	tracker := q.repo.tracker()
	key := ptr.Elem().FieldByIndex(table.PKs[0].Index).Interface()
	if e, ok := tracker.Lookup(ptr.Type(), key); ok {
		return reflect.ValueOf(e.Entity()), nil
	}
	if _, err := tracker.Track(table, key, ptr.Interface(), persistence.Unchanged); err != nil {
		return reflect.Value{}, err
	}
	return ptr, nil
}

// FirstOrDefault returns the first row or the zero T when there is none.
func (q *Query[T, K]) FirstOrDefault(ctx context.Context) (T, error) {
	var zero T
	items, err := q.Limit(1).List(ctx)
	if err != nil || len(items) == 0 {
		return zero, err
	}
	return items[0], nil
}

// SingleOrDefault returns the only row, the zero T when there is none, and
// ErrMultipleResults when there are several.
func (q *Query[T, K]) SingleOrDefault(ctx context.Context) (T, error) {
	var zero T
	items, err := q.Limit(2).List(ctx)
	if err != nil {
		return zero, err
	}
	switch len(items) {
	case 0:
		return zero, nil
	case 1:
		return items[0], nil
	default:
		return zero, ErrMultipleResults
	}
}

// Count ignores ordering and window.
func (q *Query[T, K]) Count(ctx context.Context) (int, error) {
	var model T
	return q.newSelect(model).Count(ctx)
}

func (q *Query[T, K]) Any(ctx context.Context) (bool, error) {
	var model T
	return q.newSelect(model).Exists(ctx)
}

// Page applies the request's filter and ordering on top of the query and
// returns one page plus the total row count.
func (q *Query[T, K]) Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[T], error) {
	paged := q.Where(req.GetFilter()).OrderBy(req.GetOrders()...)
	pagination := types.NewDefaultPagination[T](req.GetPage(), req.GetPageSize())
	total, err := paged.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return pagination, nil
	}
	items, err := paged.Offset(req.GetOffset()).Limit(req.GetPageSize()).List(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = items
	return pagination, nil
}

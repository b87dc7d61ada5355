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

const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

// PageRequest describes pagination, optional filter, and ordering. A nil
// *PageRequest reads as the first default-sized page.
type PageRequest struct {
	page     int
	pageSize int
	filter   *QueryFilter
	orders   []string // "id ASC", "name DESC"
}

// GetPageSize returns the requested size clamped to [1, MaxPageSize]; a
// size below 1 means DefaultPageSize.
func (p *PageRequest) GetPageSize() int {
	switch {
	case p == nil || p.pageSize < 1:
		return DefaultPageSize
	case p.pageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.pageSize
	}
}

// GetPage returns the 1-based page number.
func (p *PageRequest) GetPage() int {
	if p == nil || p.page < 1 {
		return 1
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetFilter() *QueryFilter {
	if p == nil {
		return nil
	}
	return p.filter
}

func (p *PageRequest) GetOrders() []string {
	if p == nil {
		return nil
	}
	return p.orders
}

// NewPageRequest constructs a PageRequest with filter and order settings.
func NewPageRequest(page int, pageSize int, filter *QueryFilter, orders []string) *PageRequest {
	return &PageRequest{page: page, pageSize: pageSize, filter: filter, orders: orders}
}

func NewPageRequestWithFilter(page int, pageSize int, filter *QueryFilter) *PageRequest {
	return NewPageRequest(page, pageSize, filter, nil)
}

func NewPageRequestWithOrders(page int, pageSize int, orders []string) *PageRequest {
	return NewPageRequest(page, pageSize, nil, orders)
}

func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, nil)
}

// Pagination holds one page of items and the total match count.
// T is usually an entity pointer or DTO pointer type.
type Pagination[T any] struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
	Items    []T `json:"items"`
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{Page: page, PageSize: pageSize, Items: make([]T, 0)}
}

// TotalPages returns the number of pages needed for Total items.
func (p *Pagination[T]) TotalPages() int {
	if p.PageSize < 1 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

func (p *Pagination[T]) HasNext() bool {
	return p.Page < p.TotalPages()
}

func (p *Pagination[T]) HasPrevious() bool {
	return p.Page > 1 && p.Total > 0
}

// MapPagination converts the items of p with fn, keeping the page metadata.
// The first error aborts the conversion.
func MapPagination[T, U any](p *Pagination[T], fn func(T) (U, error)) (*Pagination[U], error) {
	out := &Pagination[U]{Page: p.Page, PageSize: p.PageSize, Total: p.Total, Items: make([]U, 0, len(p.Items))}
	for _, item := range p.Items {
		u, err := fn(item)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, u)
	}
	return out, nil
}

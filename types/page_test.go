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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestPageRequestDefaults(t *testing.T) {
	req := NewDefaultPageRequest(0, 0)
	assert.Equal(t, 1, req.GetPage())
	assert.Equal(t, 10, req.GetPageSize())
	assert.Equal(t, 0, req.GetOffset())
	assert.Nil(t, req.GetFilter())

	req = NewPageRequestWithOrders(3, 20, []string{"name DESC"})
	assert.Equal(t, 40, req.GetOffset())
	assert.Equal(t, []string{"name DESC"}, req.GetOrders())
}

func TestPageRequestNilAndClamp(t *testing.T) {
	var req *PageRequest
	assert.Equal(t, 1, req.GetPage())
	assert.Equal(t, DefaultPageSize, req.GetPageSize())
	assert.Zero(t, req.GetOffset())
	assert.Nil(t, req.GetFilter())
	assert.Nil(t, req.GetOrders())

	req = NewDefaultPageRequest(2, MaxPageSize+1)
	assert.Equal(t, MaxPageSize, req.GetPageSize())
	assert.Equal(t, MaxPageSize, req.GetOffset())
}

func TestPaginationNavigation(t *testing.T) {
	p := NewDefaultPagination[int](1, 2)
	assert.False(t, p.HasNext())
	assert.False(t, p.HasPrevious())

	p.Total = 5
	assert.True(t, p.HasNext())
	p.Page = 3
	assert.False(t, p.HasNext())
	assert.True(t, p.HasPrevious())
}

func TestMapPagination(t *testing.T) {
	p := &Pagination[int]{Page: 2, PageSize: 2, Total: 3, Items: []int{3}}
	out, err := MapPagination(p, func(i int) (string, error) { return fmt.Sprint(i * 10), nil })
	require.NoError(t, err)
	assert.Equal(t, &Pagination[string]{Page: 2, PageSize: 2, Total: 3, Items: []string{"30"}}, out)

	_, err = MapPagination(p, func(int) (string, error) { return "", errors.New("boom") })
	assert.EqualError(t, err, "boom")
}

func TestPaginationTotalPages(t *testing.T) {
	p := NewDefaultPagination[string](1, 10)
	assert.Equal(t, 0, p.TotalPages())
	assert.Empty(t, p.Items)

	p.Total = 21
	assert.Equal(t, 3, p.TotalPages())
}

func TestAndFilters(t *testing.T) {
	assert.Nil(t, And(nil, nil))

	f := And(Eq("no", "PRD-001"), nil, NewQueryFilter("price > ?", 10))
	require.NotNil(t, f)
	assert.Equal(t, "(?TableAlias.? = ?) AND (price > ?)", f.Schema)
	assert.Equal(t, []interface{}{bun.Ident("no"), "PRD-001", 10}, f.Args)
}

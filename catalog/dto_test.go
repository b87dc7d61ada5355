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

package catalog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToProductDto(t *testing.T) {
	p := DefaultSeedProducts()[0]
	p.ID = 42
	p.CreatedDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	dto, err := ToProductDto(p)
	require.NoError(t, err)
	assert.EqualValues(t, 42, dto.ID)
	assert.Equal(t, "PRD-001", dto.No)
	assert.Equal(t, p.Name, dto.Name)
	assert.Equal(t, p.Summary, dto.Summary)
	assert.Equal(t, p.Description, dto.Description)
	assert.True(t, dto.Price.Equal(p.Price))

	dtos, err := ToProductDtos(DefaultSeedProducts())
	require.NoError(t, err)
	assert.Len(t, dtos, 3)
}

func TestNewProductFromDto(t *testing.T) {
	p, err := NewProductFromDto(&CreateProductDto{No: "PRD-050", Name: "Mini", Price: decimal.NewFromInt(20000)})
	require.NoError(t, err)
	assert.Zero(t, p.ID)
	assert.Equal(t, "PRD-050", p.No)
	assert.Equal(t, "Mini", p.Name)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(20000)))
	assert.True(t, p.CreatedDate.IsZero())
}

func TestApplyUpdateKeepsIdentity(t *testing.T) {
	p := DefaultSeedProducts()[1]
	p.ID = 7
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p.CreatedDate = created

	require.NoError(t, ApplyUpdate(p, &UpdateProductDto{
		Name:  "Renamed",
		Price: decimal.RequireFromString("1.50"),
	}))
	assert.EqualValues(t, 7, p.ID)
	assert.Equal(t, "PRD-002", p.No)
	assert.Equal(t, "Renamed", p.Name)
	assert.Empty(t, p.Summary)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, p.CreatedDate.Equal(created))
}

func TestValidateDtos(t *testing.T) {
	assert.NoError(t, Validate(&CreateProductDto{No: "PRD-1", Name: "n"}))

	err := Validate(&UpdateProductDto{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Name", verr.Field)
}

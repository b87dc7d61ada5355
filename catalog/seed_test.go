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
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedProductsOnlyIntoEmptyCatalog(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	n, err := SeedProducts(ctx, f.repo(t), DefaultSeedProducts(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	products, err := f.repo(t).GetProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	for _, p := range products {
		assert.False(t, p.CreatedDate.IsZero())
		assert.True(t, p.Price.GreaterThan(decimal.Zero))
	}

	n, err = SeedProducts(ctx, f.repo(t), DefaultSeedProducts(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := f.repo(t).FindAll(false).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSeedProductsValidation(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(p *Product)
		field string
		tag   string
	}{
		{"missing no", func(p *Product) { p.No = "" }, "No", "required"},
		{"missing name", func(p *Product) { p.Name = "" }, "Name", "required"},
		{"missing summary", func(p *Product) { p.Summary = "" }, "Summary", "required"},
		{"missing description", func(p *Product) { p.Description = "" }, "Description", "required"},
		{"zero price", func(p *Product) { p.Price = decimal.Zero }, "Price", "gt"},
		{"negative price", func(p *Product) { p.Price = decimal.NewFromInt(-5) }, "Price", "gt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCatalogFixture(t)
			ctx := context.Background()
			products := DefaultSeedProducts()
			tc.edit(products[1])

			n, err := SeedProducts(ctx, f.repo(t), products, nil)
			assert.Zero(t, n)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, tc.tag, verr.Tag)

			count, err := f.repo(t).FindAll(false).Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestSeedProductsFailedSaveCanBeRetried(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	repo := f.repo(t)

	clashing := DefaultSeedProducts()
	clashing[2].No = clashing[0].No
	n, err := SeedProducts(ctx, repo, clashing, nil)
	assert.ErrorIs(t, err, ErrDuplicateProductNo)
	assert.Zero(t, n)
	assert.Zero(t, repo.Session().Tracker().Len())

	n, err = SeedProducts(ctx, repo, DefaultSeedProducts(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestValidationErrorMessage(t *testing.T) {
	p := DefaultSeedProducts()[0]
	p.Price = decimal.Zero
	err := Validate(p)
	require.Error(t, err)
	assert.Equal(t, `catalog: product "PRD-001": Price must be greater than 0`, err.Error())

	assert.NoError(t, Validate(DefaultSeedProducts()[2]))
}

func TestLoadSeedFile(t *testing.T) {
	products, err := LoadSeedFile(filepath.Join("testdata", "seed.yaml"))
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "SEED-100", products[0].No)
	assert.Equal(t, "Morgan Plus Four", products[0].Name)
	assert.True(t, products[1].Price.Equal(decimal.RequireFromString("61995.50")))
	for _, p := range products {
		assert.NoError(t, Validate(p))
		assert.Zero(t, p.ID)
	}

	_, err = LoadSeedFile(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}

func TestSeedFromFile(t *testing.T) {
	f := newCatalogFixture(t)
	products, err := LoadSeedFile(filepath.Join("testdata", "seed.yaml"))
	require.NoError(t, err)

	n, err := SeedProducts(context.Background(), f.repo(t), products, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

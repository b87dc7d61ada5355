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

	"github.com/tomoncle/productsvc/database"
	"github.com/tomoncle/productsvc/persistence"
	"github.com/tomoncle/productsvc/repository"
	"github.com/tomoncle/productsvc/types"
)

var ErrProductNotFound = errors.New("catalog: product not found")

// Service is the DTO-level catalog API. Every call runs in its own scope, so
// a Service is safe for concurrent use.
type Service interface {
	// Get returns nil when id does not exist.
	Get(ctx context.Context, id int64) (*ProductDto, error)

	// GetByNo returns nil when no product has that number.
	GetByNo(ctx context.Context, no string) (*ProductDto, error)

	// All returns every product ordered by number.
	All(ctx context.Context) ([]*ProductDto, error)

	// Page returns one page of products.
	Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[*ProductDto], error)

	// Create validates and inserts a product.
	Create(ctx context.Context, dto *CreateProductDto) (*ProductDto, error)

	// Update replaces the mutable fields of product id.
	Update(ctx context.Context, id int64, dto *UpdateProductDto) (*ProductDto, error)

	// Delete removes product id and reports whether a row was deleted.
	Delete(ctx context.Context, id int64) (bool, error)

	// Seed inserts products when the catalog is empty.
	Seed(ctx context.Context, products []*Product) (int, error)
}

type productService struct {
	scopes *persistence.Factory
	opts   []repository.Option[int64]
	logger database.Logger
}

func NewService(scopes *persistence.Factory, logger database.Logger, opts ...repository.Option[int64]) Service {
	if logger == nil {
		logger = database.NopLogger{}
	}
	return &productService{scopes: scopes, opts: opts, logger: logger}
}

// within opens a scope, hands its repository to fn and closes the scope.
func (s *productService) within(fn func(repo *ProductRepository) error) error {
	scope, err := s.scopes.Open()
	if err != nil {
		return err
	}
	defer scope.Close()

	repo, err := NewProductRepository(scope.Session, scope.UnitOfWork, s.opts...)
	if err != nil {
		return err
	}
	return fn(repo)
}

func (s *productService) Get(ctx context.Context, id int64) (dto *ProductDto, err error) {
	err = s.within(func(repo *ProductRepository) error {
		p, err := repo.GetProduct(ctx, id)
		if err != nil || p == nil {
			return err
		}
		dto, err = ToProductDto(p)
		return err
	})
	return dto, err
}

func (s *productService) GetByNo(ctx context.Context, no string) (dto *ProductDto, err error) {
	err = s.within(func(repo *ProductRepository) error {
		p, err := repo.GetProductByNo(ctx, no)
		if err != nil || p == nil {
			return err
		}
		dto, err = ToProductDto(p)
		return err
	})
	return dto, err
}

func (s *productService) All(ctx context.Context) (dtos []*ProductDto, err error) {
	err = s.within(func(repo *ProductRepository) error {
		products, err := repo.GetProducts(ctx)
		if err != nil {
			return err
		}
		dtos, err = ToProductDtos(products)
		return err
	})
	return dtos, err
}

func (s *productService) Page(ctx context.Context, req *types.PageRequest) (page *types.Pagination[*ProductDto], err error) {
	err = s.within(func(repo *ProductRepository) error {
		products, err := repo.ListProducts(ctx, req)
		if err != nil {
			return err
		}
		page, err = types.MapPagination(products, ToProductDto)
		return err
	})
	return page, err
}

func (s *productService) Create(ctx context.Context, dto *CreateProductDto) (out *ProductDto, err error) {
	if err := Validate(dto); err != nil {
		return nil, err
	}
	p, err := NewProductFromDto(dto)
	if err != nil {
		return nil, err
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	err = s.within(func(repo *ProductRepository) error {
		if _, err := repo.CreateProduct(p); err != nil {
			return err
		}
		if _, err := repo.SaveChanges(ctx); err != nil {
			return err
		}
		out, err = ToProductDto(p)
		return err
	})
	if err == nil {
		s.logger.Info("Product created", "id", out.ID, "no", out.No)
	}
	return out, err
}

func (s *productService) Update(ctx context.Context, id int64, dto *UpdateProductDto) (out *ProductDto, err error) {
	if err := Validate(dto); err != nil {
		return nil, err
	}
	err = s.within(func(repo *ProductRepository) error {
		p, err := repo.FindByCondition(types.Eq("id", id), true).FirstOrDefault(ctx)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrProductNotFound
		}
		if err := ApplyUpdate(p, dto); err != nil {
			return err
		}
		if err := Validate(p); err != nil {
			return err
		}
		if _, err := repo.SaveChanges(ctx); err != nil {
			return err
		}
		out, err = ToProductDto(p)
		return err
	})
	return out, err
}

func (s *productService) Delete(ctx context.Context, id int64) (deleted bool, err error) {
	err = s.within(func(repo *ProductRepository) error {
		if err := repo.DeleteProduct(ctx, id); err != nil {
			return err
		}
		rows, err := repo.SaveChanges(ctx)
		deleted = rows > 0
		return err
	})
	return deleted, err
}

func (s *productService) Seed(ctx context.Context, products []*Product) (n int, err error) {
	err = s.within(func(repo *ProductRepository) error {
		n, err = SeedProducts(ctx, repo, products, s.logger)
		return err
	})
	return n, err
}

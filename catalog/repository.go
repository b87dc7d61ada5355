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
	"fmt"

	"github.com/tomoncle/productsvc/database"
	"github.com/tomoncle/productsvc/persistence"
	"github.com/tomoncle/productsvc/repository"
	"github.com/tomoncle/productsvc/types"
)

var ErrDuplicateProductNo = errors.New("catalog: product number already exists")

// ProductRepository adds product lookups to the generic repository.
type ProductRepository struct {
	repository.Repository[*Product, int64]
}

func NewProductRepository(session *persistence.Session, uow persistence.UnitOfWork, opts ...repository.Option[int64]) (*ProductRepository, error) {
	repo, err := repository.NewRepository[*Product, int64](session, uow, opts...)
	if err != nil {
		return nil, err
	}
	return &ProductRepository{Repository: repo}, nil
}

func (r *ProductRepository) GetProducts(ctx context.Context) ([]*Product, error) {
	return r.FindAll(false).OrderBy("no ASC").List(ctx)
}

// ListProducts returns one page of products ordered by number unless the
// request says otherwise.
func (r *ProductRepository) ListProducts(ctx context.Context, req *types.PageRequest) (*types.Pagination[*Product], error) {
	q := r.FindAll(false)
	if len(req.GetOrders()) == 0 {
		q = q.OrderBy("no ASC")
	}
	return q.Page(ctx, req)
}

// GetProduct returns nil when id does not exist.
func (r *ProductRepository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return r.GetByID(ctx, id)
}

// GetProductByNo returns nil when no product has that number.
func (r *ProductRepository) GetProductByNo(ctx context.Context, no string) (*Product, error) {
	return r.FindByCondition(types.Eq("no", no), false).SingleOrDefault(ctx)
}

func (r *ProductRepository) CreateProduct(product *Product) (int64, error) {
	return r.Create(product)
}

func (r *ProductRepository) UpdateProduct(ctx context.Context, product *Product) error {
	return r.Update(ctx, product)
}

// DeleteProduct stages the product for deletion; an unknown id is a no-op.
func (r *ProductRepository) DeleteProduct(ctx context.Context, id int64) error {
	product, err := r.FindByCondition(types.Eq("id", id), true).FirstOrDefault(ctx)
	if err != nil || product == nil {
		return err
	}
	return r.Delete(product)
}

// SaveChanges reports a clash on the product number as ErrDuplicateProductNo.
func (r *ProductRepository) SaveChanges(ctx context.Context) (int64, error) {
	rows, err := r.Repository.SaveChanges(ctx)
	return rows, productError(err)
}

// EndTransaction saves through SaveChanges so a number clash surfaces as
// ErrDuplicateProductNo here too. On failure the transaction stays open.
func (r *ProductRepository) EndTransaction(ctx context.Context) error {
	session := r.Session()
	if !session.InTransaction() {
		return persistence.ErrNoTransaction
	}
	if _, err := r.SaveChanges(ctx); err != nil {
		return err
	}
	return session.CommitTransaction()
}

func productError(err error) error {
	if database.IsSqlErrorKind(err, database.DuplicateKeyErr) {
		return fmt.Errorf("%w: %w", ErrDuplicateProductNo, err)
	}
	return err
}

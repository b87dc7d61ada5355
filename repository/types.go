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
	"errors"

	"github.com/tomoncle/productsvc/domain"
	"github.com/tomoncle/productsvc/idgen"
	"github.com/tomoncle/productsvc/persistence"
	"github.com/tomoncle/productsvc/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

var (
	ErrNilSession      = errors.New("repository: nil session")
	ErrNilUnitOfWork   = errors.New("repository: nil unit of work")
	ErrInvalidEntity   = errors.New("repository: entity must be a pointer to a struct with exactly one primary key")
	ErrNilEntity       = errors.New("repository: nil entity")
	ErrKeyRequired     = errors.New("repository: entity key is zero and no key generator is configured")
	ErrNotFound        = errors.New("repository: entity not found")
	ErrEntityDeleted   = errors.New("repository: entity is staged for deletion")
	ErrMultipleResults = errors.New("repository: query returned more than one result")
)

// QueryRepository builds lazy queries. Nothing touches the database until a
// terminal Query method runs.
type QueryRepository[T domain.Identifiable[K], K comparable] interface {
	FindAll(trackChanges bool, includes ...string) *Query[T, K]

	FindByCondition(filter *types.QueryFilter, trackChanges bool, includes ...string) *Query[T, K]

	// GetByID returns the zero T (nil) and no error when id does not exist.
	GetByID(ctx context.Context, id K, includes ...string) (T, error)
}

// CrudRepository stages mutations in the session. They become durable only
// through SaveChanges.
type CrudRepository[T domain.Identifiable[K], K comparable] interface {
	Create(entity T) (K, error)

	CreateMany(entities ...T) ([]K, error)

	Update(ctx context.Context, entity T) error

	UpdateMany(ctx context.Context, entities ...T) error

	Delete(entity T) error

	DeleteMany(entities ...T) error

	SaveChanges(ctx context.Context) (int64, error)
}

// TransactionRepository spans several SaveChanges calls with one transaction.
type TransactionRepository interface {
	BeginTransaction(ctx context.Context) (*persistence.Transaction, error)
	EndTransaction(ctx context.Context) error
	RollbackTransaction() error
}

// Repository combines query, CRUD and transaction operations and exposes the
// session and a Bun select builder for advanced use cases.
type Repository[T domain.Identifiable[K], K comparable] interface {
	QueryRepository[T, K]
	CrudRepository[T, K]
	TransactionRepository
	Session() *persistence.Session
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
}

type options[K comparable] struct {
	keyGen idgen.Generator[K]
}

type Option[K comparable] func(*options[K])

// WithKeyGenerator assigns keys to entities created with a zero key.
func WithKeyGenerator[K comparable](gen idgen.Generator[K]) Option[K] {
	return func(o *options[K]) {
		o.keyGen = gen
	}
}

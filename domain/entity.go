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

package domain

import "time"

// Identifiable is implemented by every persisted record. Implementations use
// pointer receivers so that SetID mutates the stored entity.
type Identifiable[K comparable] interface {
	GetID() K
	SetID(id K)
}

// DateTracked is implemented by records carrying audit timestamps.
// CreatedDate is written once on insert, LastModifiedDate on every later update.
type DateTracked interface {
	GetCreatedDate() time.Time
	SetCreatedDate(t time.Time)
	GetLastModifiedDate() *time.Time
	SetLastModifiedDate(t *time.Time)
}

// UserTracked is implemented by records carrying the acting user of the
// insert and of the latest update.
type UserTracked interface {
	GetCreatedBy() string
	SetCreatedBy(actor string)
	GetLastModifiedBy() string
	SetLastModifiedBy(actor string)
}

// EntityBase holds the primary key.
type EntityBase[K comparable] struct {
	ID K `bun:"id,pk" json:"id"`
}

func (e *EntityBase[K]) GetID() K { return e.ID }

func (e *EntityBase[K]) SetID(id K) { e.ID = id }

// EntityAuditBase adds creation and modification timestamps to EntityBase.
type EntityAuditBase[K comparable] struct {
	EntityBase[K]
	CreatedDate      time.Time  `bun:"created_date,notnull" json:"createdDate"`
	LastModifiedDate *time.Time `bun:"last_modified_date" json:"lastModifiedDate,omitempty"`
}

func (e *EntityAuditBase[K]) GetCreatedDate() time.Time { return e.CreatedDate }

func (e *EntityAuditBase[K]) SetCreatedDate(t time.Time) { e.CreatedDate = t }

func (e *EntityAuditBase[K]) GetLastModifiedDate() *time.Time { return e.LastModifiedDate }

func (e *EntityAuditBase[K]) SetLastModifiedDate(t *time.Time) { e.LastModifiedDate = t }

// UserAuditBase adds the acting users to EntityAuditBase.
type UserAuditBase[K comparable] struct {
	EntityAuditBase[K]
	CreatedBy      string `bun:"created_by" json:"createdBy,omitempty"`
	LastModifiedBy string `bun:"last_modified_by" json:"lastModifiedBy,omitempty"`
}

func (e *UserAuditBase[K]) GetCreatedBy() string { return e.CreatedBy }

func (e *UserAuditBase[K]) SetCreatedBy(actor string) { e.CreatedBy = actor }

func (e *UserAuditBase[K]) GetLastModifiedBy() string { return e.LastModifiedBy }

func (e *UserAuditBase[K]) SetLastModifiedBy(actor string) { e.LastModifiedBy = actor }

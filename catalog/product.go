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
	"github.com/shopspring/decimal"
	"github.com/tomoncle/productsvc/database"
	"github.com/tomoncle/productsvc/domain"
	"github.com/uptrace/bun"
)

// Product is a catalog entry. No is the business code, unique across the
// catalog.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`
	domain.EntityAuditBase[int64]

	No          string          `bun:"no,type:varchar(150),notnull" json:"no" validate:"required,max=150"`
	Name        string          `bun:"name,type:varchar(250),notnull" json:"name" validate:"required,max=250"`
	Summary     string          `bun:"summary,type:varchar(255)" json:"summary" validate:"required,max=255"`
	Description string          `bun:"description,type:text" json:"description" validate:"required"`
	Price       decimal.Decimal `bun:"price,type:decimal(12,2),notnull" json:"price" validate:"gt=0"`
}

func (*Product) Indexes() []database.IndexSpec {
	return []database.IndexSpec{
		{Name: "ux_products_no", Columns: []string{"no"}, Unique: true},
		{Name: "ix_products_name", Columns: []string{"name"}},
	}
}

// Models returns the catalog tables for migration.
func Models() []database.SQLModel {
	return []database.SQLModel{
		database.NewModelAdapter((*Product)(nil), 10),
	}
}

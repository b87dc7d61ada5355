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
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
)

// ProductDto is the wire view of a product.
type ProductDto struct {
	ID          int64           `json:"id"`
	No          string          `json:"no"`
	Name        string          `json:"name"`
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

type CreateProductDto struct {
	No          string          `json:"no" yaml:"no" validate:"required,max=150"`
	Name        string          `json:"name" yaml:"name" validate:"required,max=250"`
	Summary     string          `json:"summary" yaml:"summary" validate:"max=255"`
	Description string          `json:"description" yaml:"description"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
}

// UpdateProductDto carries no key or business code: neither can change.
type UpdateProductDto struct {
	Name        string          `json:"name" validate:"required,max=250"`
	Summary     string          `json:"summary" validate:"max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

func ToProductDto(p *Product) (*ProductDto, error) {
	dto := &ProductDto{}
	if err := copier.Copy(dto, p); err != nil {
		return nil, fmt.Errorf("catalog: map product: %w", err)
	}
	return dto, nil
}

func ToProductDtos(products []*Product) ([]*ProductDto, error) {
	out := make([]*ProductDto, 0, len(products))
	for _, p := range products {
		dto, err := ToProductDto(p)
		if err != nil {
			return nil, err
		}
		out = append(out, dto)
	}
	return out, nil
}

func NewProductFromDto(dto *CreateProductDto) (*Product, error) {
	p := &Product{}
	if err := copier.Copy(p, dto); err != nil {
		return nil, fmt.Errorf("catalog: map create dto: %w", err)
	}
	return p, nil
}

// ApplyUpdate copies the fields present in dto onto p. Fields dto does not
// carry, such as the key, audit columns and No, are left untouched.
func ApplyUpdate(p *Product, dto *UpdateProductDto) error {
	if err := copier.Copy(p, dto); err != nil {
		return fmt.Errorf("catalog: map update dto: %w", err)
	}
	return nil
}

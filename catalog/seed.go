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
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/tomoncle/productsvc/database"
	"gopkg.in/yaml.v3"
)

// DefaultSeedProducts returns the products seeded into an empty catalog.
func DefaultSeedProducts() []*Product {
	return []*Product{
		{
			No:      "PRD-001",
			Name:    "Lotus Esprit Sports Car",
			Summary: "Luxury sports car with exceptional performance",
			Description: "The Lotus Esprit is a British high-performance sports car known for " +
				"its sleek design and outstanding handling capabilities",
			Price: decimal.RequireFromString("177940.49"),
		},
		{
			No:      "PRD-002",
			Name:    "Cadillac CTS Sedan",
			Summary: "Premium luxury sedan with advanced features",
			Description: "The Cadillac CTS is a luxury sedan that combines sophisticated " +
				"styling with cutting-edge technology and premium comfort",
			Price: decimal.RequireFromString("114728.21"),
		},
		{
			No:      "PRD-003",
			Name:    "Tesla Model S",
			Summary: "High-performance electric vehicle",
			Description: "The Tesla Model S is a premium electric sedan featuring " +
				"advanced autopilot capabilities and long-range battery",
			Price: decimal.RequireFromString("89990.00"),
		},
	}
}

type seedFile struct {
	Products []CreateProductDto `yaml:"products"`
}

// LoadSeedFile reads products from a YAML file with a top-level "products"
// list. Prices are decimal strings.
func LoadSeedFile(path string) ([]*Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read seed file: %w", err)
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse seed file %s: %w", path, err)
	}
	products := make([]*Product, 0, len(file.Products))
	for i := range file.Products {
		p, err := NewProductFromDto(&file.Products[i])
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// SeedProducts inserts products when the catalog is empty and returns how
// many were inserted. Every product is validated before anything is staged;
// the first invalid one aborts the seed with a *ValidationError.
func SeedProducts(ctx context.Context, repo *ProductRepository, products []*Product, logger database.Logger) (int, error) {
	if logger == nil {
		logger = database.NopLogger{}
	}
	exists, err := repo.FindAll(false).Any(ctx)
	if err != nil {
		return 0, fmt.Errorf("catalog: check existing products: %w", err)
	}
	if exists {
		logger.Info("Product data already exists in database")
		return 0, nil
	}

	for _, p := range products {
		if err := Validate(p); err != nil {
			logger.Error("Invalid seed product", "error", err)
			return 0, err
		}
	}
	if _, err := repo.CreateMany(products...); err != nil {
		return 0, fmt.Errorf("catalog: stage seed products: %w", err)
	}
	if _, err := repo.SaveChanges(ctx); err != nil {
		logger.Error("An error occurred while seeding product data", "error", err)
		tracker := repo.Session().Tracker()
		for _, p := range products {
			if e, ok := tracker.EntryOf(p); ok {
				tracker.Detach(e)
			}
		}
		return 0, err
	}
	logger.Info("Seeded product data", "table", "products", "count", len(products))
	return len(products), nil
}

// Package catalog is the product domain: the Product entity and its
// repository, wire DTOs, validation, and the seeder that fills an empty
// catalog.
package catalog

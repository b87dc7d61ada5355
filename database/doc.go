// Package database provides connection management for sqlite, MySQL and
// PostgreSQL, environment overrides, query hooks, backend error
// classification, a model registry with versioned migrations, and the Logger
// every other package receives.
package database

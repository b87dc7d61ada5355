// Package repository provides a generic repository over the persistence
// session: lazy composable queries with optional change tracking and eager
// loading, staged creates, updates and deletes made durable through the unit
// of work, and explicit transactions spanning several saves.
package repository

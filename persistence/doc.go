// Package persistence implements the session layer over Bun: a change tracker
// with snapshot-based change detection, a unit of work that flushes staged
// inserts, updates and deletes atomically, an audit interceptor that stamps
// timestamps before the write, and explicit session transactions.
//
// A Session and its UnitOfWork belong to one logical operation and must not be
// shared between goroutines. Use a Factory to open one Scope per request.
package persistence

// Package database provides the document store abstraction for the bridge.
//
// The Database interface exposes three query shapes:
//   - Query: multiple results (SELECT returning lists)
//   - QueryOne: a single record (SELECT by id); ErrNotFound when empty
//   - Execute: side effects only (CREATE/UPDATE/DELETE)
//
// Multi-statement writes that must be atomic go through Batch, which wraps
// the accumulated statements in BEGIN TRANSACTION / COMMIT TRANSACTION and
// sends them as one query.
//
// Errors from all implementations normalize to the package sentinels
// (ErrNotFound, ErrDuplicate, ErrConnection, ErrQuery); check them with
// errors.Is.
package database

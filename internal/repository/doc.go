// Package repository implements data access for experiments, runs, and
// generation metrics on top of the database abstraction.
//
// Repositories speak SurrealQL and normalize the driver's loosely typed
// results into model structs via the helpers in helpers.go. Lookups return
// (nil, nil) for missing records; callers decide whether that is an error.
// Multi-table writes (run progress plus its metric sample) go through
// database.Batch so they commit atomically.
package repository

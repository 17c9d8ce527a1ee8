package database

import (
	"context"
	"errors"
)

// Standard errors for database operations. Callers check these with
// errors.Is.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or communicate with
	// the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure.
	ErrQuery = errors.New("query error")
)

// Database abstracts the document store behind the bridge. Repositories
// depend on this interface rather than on the SurrealDB client directly.
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a statement and returns the per-statement results.
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a statement expected to yield a single record.
	// Returns ErrNotFound when the result set is empty.
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a statement for its side effects only.
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config holds database connection settings.
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}

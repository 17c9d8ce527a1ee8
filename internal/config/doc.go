// Package config loads and validates bridge configuration from the
// environment.
//
// Every setting has a default suitable for local development, so a bare
// `go run ./cmd/server` against a local SurrealDB and engine works without
// any environment at all. Validate reports every problem at once via
// errors.Join rather than stopping at the first.
package config

// Package model defines the bridge's domain types and request payloads.
//
// Experiments describe optimization problems, runs are submissions of an
// experiment to the engine, and generation metrics are the fitness series
// the dashboard charts. Request types carry their own Validate methods
// returning field-level errors, and errors.go holds the RFC 9457 problem
// details envelope shared by every handler.
package model

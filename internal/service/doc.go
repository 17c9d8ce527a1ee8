// Package service implements the business logic layer of the bridge.
//
// Services sit between the HTTP handlers and the repositories. They
// enforce ownership, experiment and run lifecycle rules, and orchestrate
// the optimization engine client.
//
// # Service Pattern
//
// All services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts a config struct with dependencies
//   - Services define their own repository and engine interfaces so tests can mock them
//   - Errors are returned as sentinel errors handlers map to problem details
//   - Context is passed through for cancellation and request-scoped values
//
// # Run Lifecycle
//
// Runs move pending -> running -> completed/failed/cancelled. Progress
// arrives two ways: callbacks the engine posts and periodic polling by the
// run poller. Both funnel into RunService.RecordProgress, which applies
// the state machine and rejects stale reports, so it does not matter which
// path delivers a report first.
package service

// Package handler implements the HTTP layer of the bridge.
//
// Handlers decode requests, delegate to services, and encode responses.
// They contain no business logic: ownership and lifecycle rules live in
// the service layer, and handlers translate service errors to RFC 9457
// problem details through MapServiceError.
//
// # Response Envelope
//
// Successful responses wrap payloads in a data envelope:
//
//	{"data": {...}}
//	{"data": [...], "count": 3}
//
// Errors are application/json problem details with a type URI under
// https://evolution-ecosystem.web.app/errors/.
//
// # Surfaces
//
//   - ExperimentHandler, RunHandler: dashboard endpoints behind identity tokens
//   - RunHandler.Callback: engine progress reports behind the callback key
//   - AdminHandler: operator endpoints behind the admin key
//   - HealthHandler: unauthenticated liveness probe
package handler

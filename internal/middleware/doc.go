// Package middleware provides HTTP middleware for the bridge.
//
// The middleware package contains reusable components for request
// identification, logging, panic recovery, CORS, authentication, rate
// limiting, and idempotent request handling.
//
// # Chain
//
// Middleware composes with Chain, outermost first:
//
//	handler := middleware.Chain(mux,
//	    middleware.RequestID,
//	    middleware.Logger,
//	    middleware.Recovery,
//	    middleware.CORS(cfg.Server.AllowedOrigins),
//	)
//
// # Authentication Surfaces
//
// Three authentication schemes coexist:
//
//   - Auth: identity tokens from the ecosystem's identity service (dashboard users)
//   - AdminOnly: layered on Auth, requires the admin role claim
//   - APIKey: shared keys for the operator surface and the engine callback
//
// # Context Values
//
// Middleware sets context values accessible via helper functions:
//
//   - GetUserID(ctx): authenticated user ID
//   - GetClaims(ctx): full identity token claims
//   - GetRequestID(ctx): unique request identifier
package middleware

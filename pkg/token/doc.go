// Package token implements RS256 identity token verification for the
// Evolution Ecosystem API bridge.
//
// The bridge does not mint dashboard credentials itself; it verifies tokens
// issued by the external identity provider against that provider's public
// key. Signing support exists so the dev-token tool and the test suite can
// run without a live provider.
//
// Tokens are compact JWTs. Verification checks, in order: structure,
// RS256 signature, expiry / not-before, and issuer.
package token

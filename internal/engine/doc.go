// Package engine is the HTTP client for the backend optimization engine.
//
// The engine is a separate deployment; the bridge only relays work to it.
// Calls are JSON over HTTP with a bearer key and run inside a circuit
// breaker so a struggling engine degrades bridge responses to fast 502s
// instead of piling up blocked requests.
package engine

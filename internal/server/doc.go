// Package server implements the HTTP surface of the diagnostic node. It
// wires together the chi router, the middleware chain (request IDs,
// logging, metrics, body caps, optional rate limiting, token auth), the
// status and upload handlers, and the lifecycle helpers used by tests and
// the production binary.
package server

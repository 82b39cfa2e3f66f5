// Package middleware provides the HTTP middleware stack: panic recovery,
// request IDs, CORS, and request logging.
package middleware

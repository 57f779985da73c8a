// Package middleware stores the global middleware of the API.
//
// These intercept requests to handle cross-cutting concerns such as
// request ids, request-scoped logging, request logging, CORS, rate
// limiting, tracing and panic recovery, plus the global error handler
// that turns every returned error into the JSON error body.
package middleware

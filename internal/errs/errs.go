// Package errs defines the error types returned to API clients.
//
// Every failure the API reports (missing fields, duplicate usernames,
// unknown authors, unexpected database errors) is expressed as an
// *HTTPError so the global error handler can write one consistent JSON shape.
package errs

// Package handler is the HTTP layer, the first entry point for business
// logic after the router.
//
// Typed endpoints go through Handle, which binds and validates the request
// with the validation package before calling the service layer. System
// endpoints (index, health, docs) are plain echo handlers.
package handler

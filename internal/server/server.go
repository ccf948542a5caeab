package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Router defines HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                                           // Use adds middleware applied to every route
	Handle(method, path string, handler http.Handler, route ...Middleware) // Handle registers a handler, optionally with route-only middleware
	ServeHTTP(w http.ResponseWriter, r *http.Request)                       // ServeHTTP implements http.Handler for the entire router
}

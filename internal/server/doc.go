// Package server is an in-memory stand-in for the CineAI API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] registers
// "METHOD /path" patterns on an [http.ServeMux], so wildcards such as /blend/{code} work, and wraps each route
// with its own middleware inside the router-wide stack.
//
// [Middleware] wraps handlers in reverse order (last added executes first).
//
// # Stub API
//
// [Stub] serves the endpoints the client consumes: signup, form login and /me; blend create, invite, join,
// list, get and delete; watch history; mood and history recommendations; watchlists. Errors use FastAPI's
// {"detail": "..."} body.
//
// Access tokens are HS256 JWTs whose subject is the username. [Stub.BearerAuth] answers 401 for a missing,
// expired or forged token.
//
// Recommendations come from a small fixed catalog. A blend with fewer than two members has none; otherwise
// each unwatched movie is scored by how many of its genres each member has watched, so the same histories
// always give the same result.
//
// # Current Usage
//
// `cineai dev serve` runs the stub for offline demos, and package tests run the real clients against it.
package server

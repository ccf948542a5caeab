// Package services is the HTTP boundary of the CineAI client.
//
// # Gateway
//
// [APIService] owns the only [http.Client]. Its transport reads the bearer token from a [TokenStore] on
// every request and attaches it with [oauth2.Token.SetAuthHeader]. Token changes go through
// [APIService.SetToken] and [APIService.ClearToken] only. A 401 from any endpoint clears the token, runs the
// OnUnauthorized hook and is returned to the caller. Requests are never retried and no timeout is imposed
// beyond the client's own.
//
// # Typed clients
//
//   - [AuthClient] : /signup, /login (form-encoded), /me, health check
//   - [BlendClient] : /blend/create, /blend/invite, /blend/join, /blends, /blend/{code}
//   - [HistoryClient] : /history/add, /history
//   - [RecommendationClient] : /recommend, /recommend/history
//   - [WatchlistClient] : /watchlists and its movie sub-resources
//
// Read helpers prefixed Get swallow failures (logged, neutral result); their Fetch counterparts return the error.
//
// # Error Handling
//
// Non-2xx answers become [*APIError], which unwraps to the shared taxonomy:
//   - [shared.ErrAuthRequired] : 401
//   - [shared.ErrNotFound] : 404
//   - [shared.ErrServiceUnavailable] : 5xx and transport failures
//   - [shared.ErrAPIRequest] : anything else
//
// [ErrorMessage] extracts the server's own reason ({"detail"}, {"error"}, {"message"} or {"msg"}) for display.
package services

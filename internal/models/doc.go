// Package models defines the data shapes exchanged with the CineAI API and kept in the local session store.
//
// The types fall into three groups:
//
// 1. Session and identity
//   - [User] : the authenticated account
//   - [AuthResponse] : signup/login result carrying the bearer token
//
// 2. Blends
//   - [BlendSession] : server-owned shared recommendation session
//   - [BlendSummary] : {code, name} projection used for listings and the local cache
//   - [BlendRecommendation] : one merged recommendation with its match score
//
// 3. Viewing data
//   - [WatchHistoryItem], [HistoryEntry] : watch history as stored server-side and as submitted
//   - [MovieRecommendation], [HistoryRecommendations] : mood and history based suggestions
//   - [Watchlist], [WatchlistMovie] : named movie lists
//
// Decoding is lenient at the edges: [BlendSession] accepts either "code" or "blend_code", and
// [UserEnvelope] accepts /me answers with or without a "user" wrapper.
package models

package services

import (
	"net/http"

	"github.com/desertthunder/cineai/internal/shared"
)

// Clients bundles every typed client built on one gateway.
type Clients struct {
	API             *APIService
	Auth            *AuthClient
	Blends          *BlendClient
	History         *HistoryClient
	Recommendations *RecommendationClient
	Watchlists      *WatchlistClient
}

// NewClients builds the gateway for cfg and every typed client on top of it.
func NewClients(cfg shared.APIConfig, client *http.Client, tokens TokenStore) *Clients {
	api := NewAPIService(cfg.BaseURL, client, tokens)
	return &Clients{
		API:             api,
		Auth:            NewAuthClient(api),
		Blends:          NewBlendClient(api),
		History:         NewHistoryClient(api),
		Recommendations: NewRecommendationClient(api),
		Watchlists:      NewWatchlistClient(api),
	}
}

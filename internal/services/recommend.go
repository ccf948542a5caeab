package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/desertthunder/cineai/internal/models"
)

// DefaultTopN is how many recommendations are asked for when the caller does not say.
const DefaultTopN = 20

// RecommendationClient wraps the mood and history recommendation endpoints.
type RecommendationClient struct {
	api *APIService
}

// NewRecommendationClient creates a RecommendationClient on api.
func NewRecommendationClient(api *APIService) *RecommendationClient {
	return &RecommendationClient{api: api}
}

// FetchMoodRecommendations asks for movies matching mood, optionally steered by titles the user has watched.
func (c *RecommendationClient) FetchMoodRecommendations(ctx context.Context, mood string, topN int, userHistory []string) ([]models.MovieRecommendation, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	body := models.MoodRequest{Mood: strings.TrimSpace(mood), TopN: topN, UserHistory: userHistory}

	var resp models.RecommendationList
	if err := c.api.call(ctx, http.MethodPost, "/recommend", body, &resp); err != nil {
		return nil, err
	}
	if resp.Recommendations == nil {
		resp.Recommendations = []models.MovieRecommendation{}
	}
	return resp.Recommendations, nil
}

// GetMoodRecommendations is [RecommendationClient.FetchMoodRecommendations] with failures logged and read as no results.
func (c *RecommendationClient) GetMoodRecommendations(ctx context.Context, mood string, topN int, userHistory []string) []models.MovieRecommendation {
	recs, err := c.FetchMoodRecommendations(ctx, mood, topN, userHistory)
	if err != nil {
		c.api.logger.Warn("failed to fetch mood recommendations", "mood", mood, "error", err)
		return []models.MovieRecommendation{}
	}
	return recs
}

// FetchHistoryRecommendations asks for movies based on the caller's watch history.
func (c *RecommendationClient) FetchHistoryRecommendations(ctx context.Context, topN int) (models.HistoryRecommendations, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}

	var resp models.HistoryRecommendations
	if err := c.api.call(ctx, http.MethodPost, "/recommend/history", map[string]int{"top_n": topN}, &resp); err != nil {
		return models.EmptyHistoryRecommendations(), err
	}
	if resp.Recommendations == nil {
		resp.Recommendations = []models.MovieRecommendation{}
	}
	if resp.OverallMatchScore == "" {
		resp.OverallMatchScore = "0%"
	}
	return resp, nil
}

// GetHistoryRecommendations is [RecommendationClient.FetchHistoryRecommendations] with failures logged and read as {[], "0%"}.
func (c *RecommendationClient) GetHistoryRecommendations(ctx context.Context, topN int) models.HistoryRecommendations {
	resp, err := c.FetchHistoryRecommendations(ctx, topN)
	if err != nil {
		c.api.logger.Warn("failed to fetch history recommendations", "error", err)
	}
	return resp
}

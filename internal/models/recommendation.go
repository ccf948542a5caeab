package models

import "encoding/json"

// MovieRecommendation is a movie suggested by /recommend or /recommend/history.
type MovieRecommendation struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Score       float64  `json:"score"`
	Genres      []string `json:"genres"`
	PosterPath  string   `json:"poster_path,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
}

// UnmarshalJSON accepts numeric ids and "match_score" in place of "score".
func (m *MovieRecommendation) UnmarshalJSON(data []byte) error {
	type plain MovieRecommendation
	var raw struct {
		plain
		ID         json.RawMessage `json:"id"`
		MatchScore *float64        `json:"match_score"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MovieRecommendation(raw.plain)
	m.ID = rawID(raw.ID)
	if m.Score == 0 && raw.MatchScore != nil {
		m.Score = *raw.MatchScore
	}
	return nil
}

// MoodRequest is the body of POST /recommend.
type MoodRequest struct {
	Mood        string   `json:"mood" validate:"required" msg:"Please enter a mood."`
	TopN        int      `json:"top_n,omitempty"`
	UserHistory []string `json:"user_history,omitempty"`
}

// RecommendationList is the body returned by /recommend.
type RecommendationList struct {
	Recommendations []MovieRecommendation `json:"recommendations"`
}

// HistoryRecommendations is the body returned by /recommend/history.
type HistoryRecommendations struct {
	Recommendations   []MovieRecommendation `json:"recommendations"`
	OverallMatchScore string                `json:"overall_match_score"`
}

// EmptyHistoryRecommendations is the neutral answer used when the history endpoint fails.
func EmptyHistoryRecommendations() HistoryRecommendations {
	return HistoryRecommendations{Recommendations: []MovieRecommendation{}, OverallMatchScore: "0%"}
}

package models

import (
	"encoding/json"
	"strings"
)

// MinBlendMembers is the membership needed before a blend's recommendations mean anything.
const MinBlendMembers = 2

// NoPreferencesTag is shown for members who have not contributed a preference tag yet.
const NoPreferencesTag = "no preferences yet"

// BlendSession is a shared recommendation session owned by the server.
type BlendSession struct {
	Code              string                `json:"code"`
	Name              string                `json:"name"`
	Users             []string              `json:"users"`
	UserTags          map[string]string     `json:"user_tags"`
	Recommendations   []BlendRecommendation `json:"recommendations"`
	OverallMatchScore string                `json:"overall_match_score"`
}

// BlendRecommendation is a single movie suggested for every member of a blend.
type BlendRecommendation struct {
	Title      string   `json:"title"`
	PosterPath string   `json:"poster_path,omitempty"`
	Genres     []string `json:"genres"`
	MatchScore float64  `json:"match_score"`
}

// BlendSummary is the {code, name} projection returned by /blends and kept in the local cache.
type BlendSummary struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// BlendMember pairs a username with its preference tag for display.
type BlendMember struct {
	Username string
	Tag      string
	HasTag   bool
}

// UnmarshalJSON accepts the session code under either "code" or "blend_code".
func (b *BlendSession) UnmarshalJSON(data []byte) error {
	type plain BlendSession
	var raw struct {
		plain
		BlendCode string `json:"blend_code"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = BlendSession(raw.plain)
	if b.Code == "" {
		b.Code = raw.BlendCode
	}
	if b.OverallMatchScore == "" {
		b.OverallMatchScore = "0%"
	}
	return nil
}

// UnmarshalJSON accepts the code under either "code" or "blend_code".
func (s *BlendSummary) UnmarshalJSON(data []byte) error {
	var raw struct {
		Code      string `json:"code"`
		BlendCode string `json:"blend_code"`
		Name      string `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Code, s.Name = raw.Code, raw.Name
	if s.Code == "" {
		s.Code = raw.BlendCode
	}
	return nil
}

// Summary projects the session to its cacheable form.
func (b BlendSession) Summary() BlendSummary {
	return BlendSummary{Code: b.Code, Name: b.Name}
}

// Waiting reports whether the blend still lacks enough members for trustworthy recommendations.
func (b BlendSession) Waiting() bool {
	return len(b.Users) < MinBlendMembers
}

// EffectiveRecommendations returns the recommendations to display: none while the blend is waiting for members,
// whatever the server sent.
func (b BlendSession) EffectiveRecommendations() []BlendRecommendation {
	if b.Waiting() {
		return nil
	}
	return b.Recommendations
}

// EffectiveMatchScore is "0%" while waiting for members.
func (b BlendSession) EffectiveMatchScore() string {
	if b.Waiting() || b.OverallMatchScore == "" {
		return "0%"
	}
	return b.OverallMatchScore
}

// Members lists every joined user in join order. Users without a tag get [NoPreferencesTag].
func (b BlendSession) Members() []BlendMember {
	members := make([]BlendMember, 0, len(b.Users))
	for _, u := range b.Users {
		tag, ok := b.UserTags[u]
		if ok && strings.TrimSpace(tag) != "" {
			members = append(members, BlendMember{Username: u, Tag: tag, HasTag: true})
			continue
		}
		members = append(members, BlendMember{Username: u, Tag: NoPreferencesTag})
	}
	return members
}

// HasMember reports whether username has joined the blend.
func (b BlendSession) HasMember(username string) bool {
	for _, u := range b.Users {
		if u == username {
			return true
		}
	}
	return false
}

// InviteResponse is the body of /blend/invite.
type InviteResponse = MessageResponse

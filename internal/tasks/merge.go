package tasks

import (
	"strings"

	"github.com/desertthunder/cineai/internal/models"
)

// MergeSummaries returns every server summary in server order, followed by cached summaries whose code the server did not list.
// No code appears twice.
func MergeSummaries(server, cached []models.BlendSummary) []models.BlendSummary {
	seen := make(map[string]struct{}, len(server)+len(cached))
	merged := make([]models.BlendSummary, 0, len(server)+len(cached))

	for _, s := range server {
		if _, dup := seen[s.Code]; dup {
			continue
		}
		seen[s.Code] = struct{}{}
		merged = append(merged, s)
	}
	for _, c := range cached {
		if _, dup := seen[c.Code]; dup {
			continue
		}
		seen[c.Code] = struct{}{}
		merged = append(merged, c)
	}
	return merged
}

// ParseTitles splits comma separated input into trimmed, non-empty movie titles.
func ParseTitles(input string) []string {
	var titles []string
	for part := range strings.SplitSeq(input, ",") {
		if title := strings.TrimSpace(part); title != "" {
			titles = append(titles, title)
		}
	}
	return titles
}

// pruner tracks how many consecutive successful lists each cached code has been missing from.
type pruner struct {
	after  int
	misses map[string]int
}

func newPruner(after int) *pruner {
	return &pruner{after: after, misses: make(map[string]int)}
}

// observe records one successful server list and returns the cached codes that are now stale.
// A pruner with after <= 0 never reports anything.
func (p *pruner) observe(server, cached []models.BlendSummary) []string {
	if p.after <= 0 {
		return nil
	}

	listed := make(map[string]struct{}, len(server))
	for _, s := range server {
		listed[s.Code] = struct{}{}
	}

	var stale []string
	next := make(map[string]int, len(cached))
	for _, c := range cached {
		if _, ok := listed[c.Code]; ok {
			continue
		}
		n := p.misses[c.Code] + 1
		if n >= p.after {
			stale = append(stale, c.Code)
			continue
		}
		next[c.Code] = n
	}
	p.misses = next
	return stale
}

func without(list []models.BlendSummary, codes []string) []models.BlendSummary {
	if len(codes) == 0 {
		return list
	}
	drop := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		drop[c] = struct{}{}
	}
	kept := make([]models.BlendSummary, 0, len(list))
	for _, s := range list {
		if _, gone := drop[s.Code]; !gone {
			kept = append(kept, s)
		}
	}
	return kept
}

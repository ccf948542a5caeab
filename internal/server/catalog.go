package server

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/shared"
)

type movie struct {
	id       string
	title    string
	year     string
	genres   []string
}

// catalog is the fixed movie set the stub recommends from.
var catalog = []movie{
	{id: "27205", title: "Inception", year: "2010-07-16", genres: []string{"Action", "Science Fiction", "Adventure"}},
	{id: "603", title: "The Matrix", year: "1999-03-31", genres: []string{"Action", "Science Fiction"}},
	{id: "157336", title: "Interstellar", year: "2014-11-05", genres: []string{"Adventure", "Drama", "Science Fiction"}},
	{id: "329865", title: "Arrival", year: "2016-11-10", genres: []string{"Drama", "Science Fiction", "Mystery"}},
	{id: "949", title: "Heat", year: "1995-12-15", genres: []string{"Action", "Crime", "Drama"}},
	{id: "348", title: "Alien", year: "1979-05-25", genres: []string{"Horror", "Science Fiction"}},
	{id: "14160", title: "Up", year: "2009-05-28", genres: []string{"Animation", "Comedy", "Family", "Adventure"}},
	{id: "120467", title: "The Grand Budapest Hotel", year: "2014-02-26", genres: []string{"Comedy", "Drama"}},
	{id: "313369", title: "La La Land", year: "2016-11-29", genres: []string{"Comedy", "Drama", "Romance", "Music"}},
	{id: "194", title: "Amélie", year: "2001-04-25", genres: []string{"Comedy", "Romance"}},
	{id: "152601", title: "Her", year: "2013-12-18", genres: []string{"Romance", "Science Fiction", "Drama"}},
	{id: "38", title: "Eternal Sunshine of the Spotless Mind", year: "2004-03-19", genres: []string{"Science Fiction", "Drama", "Romance"}},
	{id: "76", title: "Before Sunrise", year: "1995-01-27", genres: []string{"Drama", "Romance"}},
	{id: "597", title: "Titanic", year: "1997-11-18", genres: []string{"Drama", "Romance"}},
	{id: "807", title: "Se7en", year: "1995-09-22", genres: []string{"Crime", "Mystery", "Thriller"}},
	{id: "11324", title: "Shutter Island", year: "2010-02-14", genres: []string{"Drama", "Thriller", "Mystery"}},
	{id: "546554", title: "Knives Out", year: "2019-11-27", genres: []string{"Comedy", "Crime", "Mystery"}},
	{id: "210577", title: "Gone Girl", year: "2014-10-01", genres: []string{"Mystery", "Thriller", "Drama"}},
	{id: "77", title: "Memento", year: "2000-10-11", genres: []string{"Mystery", "Thriller"}},
	{id: "85", title: "Raiders of the Lost Ark", year: "1981-06-12", genres: []string{"Adventure", "Action"}},
	{id: "76341", title: "Mad Max: Fury Road", year: "2015-05-13", genres: []string{"Action", "Adventure", "Science Fiction"}},
	{id: "120", title: "The Lord of the Rings: The Fellowship of the Ring", year: "2001-12-18", genres: []string{"Adventure", "Fantasy", "Action"}},
	{id: "129", title: "Spirited Away", year: "2001-07-20", genres: []string{"Animation", "Family", "Fantasy"}},
	{id: "10681", title: "WALL·E", year: "2008-06-22", genres: []string{"Animation", "Family", "Science Fiction"}},
	{id: "8587", title: "The Lion King", year: "1994-06-24", genres: []string{"Family", "Animation", "Drama"}},
	{id: "115", title: "The Big Lebowski", year: "1998-03-06", genres: []string{"Comedy", "Crime"}},
	{id: "8363", title: "Superbad", year: "2007-08-17", genres: []string{"Comedy"}},
	{id: "18785", title: "The Hangover", year: "2009-06-02", genres: []string{"Comedy"}},
	{id: "550", title: "Fight Club", year: "1999-10-15", genres: []string{"Drama", "Thriller"}},
	{id: "496243", title: "Parasite", year: "2019-05-30", genres: []string{"Comedy", "Thriller", "Drama"}},
	{id: "13", title: "Forrest Gump", year: "1994-06-23", genres: []string{"Comedy", "Drama", "Romance"}},
	{id: "508442", title: "Soul", year: "2020-12-25", genres: []string{"Animation", "Family", "Comedy", "Fantasy"}},
	{id: "2493", title: "The Princess Bride", year: "1987-09-25", genres: []string{"Adventure", "Family", "Fantasy", "Comedy", "Romance"}},
}

// moodGenres maps the moods the web client offers onto catalog genres.
var moodGenres = map[string][]string{
	"adventurous": {"Adventure", "Action", "Fantasy"},
	"chill":       {"Animation", "Family", "Comedy"},
	"heartbreak":  {"Romance", "Drama"},
	"comedy":      {"Comedy"},
	"mystery":     {"Mystery", "Thriller", "Crime"},
	"happy":       {"Comedy", "Family", "Music"},
	"sad":         {"Drama", "Romance"},
	"scared":      {"Horror", "Thriller"},
}

var byTitle = func() map[string]movie {
	m := make(map[string]movie, len(catalog))
	for _, mv := range catalog {
		m[shared.NormalizeTitle(mv.title)] = mv
	}
	return m
}()

// genreCounts tallies the catalog genres of watched titles. Titles outside the catalog count for nothing.
func genreCounts(titles []string) map[string]int {
	counts := make(map[string]int)
	for _, t := range titles {
		mv, ok := byTitle[shared.NormalizeTitle(t)]
		if !ok {
			continue
		}
		for _, g := range mv.genres {
			counts[g]++
		}
	}
	return counts
}

// favouriteGenre is the most watched genre, ties broken alphabetically.
func favouriteGenre(titles []string) (string, bool) {
	counts := genreCounts(titles)
	best, n := "", 0
	for g, c := range counts {
		if c > n || (c == n && g < best) {
			best, n = g, c
		}
	}
	return best, n > 0
}

// userTag describes a member by taste, empty when their history says nothing.
func userTag(titles []string) string {
	g, ok := favouriteGenre(titles)
	if !ok {
		return ""
	}
	return g + " Enthusiast"
}

func seenSet(titles []string) map[string]bool {
	seen := make(map[string]bool, len(titles))
	for _, t := range titles {
		seen[shared.NormalizeTitle(t)] = true
	}
	return seen
}

func overlap(a []string, weights map[string]int) int {
	n := 0
	for _, g := range a {
		n += weights[g]
	}
	return n
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

type scored struct {
	movie
	score float64
}

func rank(candidates []scored, topN int) []scored {
	slices.SortStableFunc(candidates, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return strings.Compare(a.title, b.title)
	})
	if topN > 0 && len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}

func toRecommendations(list []scored) []models.MovieRecommendation {
	recs := make([]models.MovieRecommendation, 0, len(list))
	for _, s := range list {
		recs = append(recs, models.MovieRecommendation{
			ID:          s.id,
			Title:       s.title,
			Score:       round4(s.score),
			Genres:      slices.Clone(s.genres),
			ReleaseDate: s.year,
		})
	}
	return recs
}

// recommendByMood ranks unwatched catalog movies by the share of their genres that fit the mood.
func recommendByMood(mood string, history []string, topN int) ([]models.MovieRecommendation, error) {
	genres, ok := moodGenres[strings.ToLower(strings.TrimSpace(mood))]
	if !ok {
		return nil, fmt.Errorf("%w: unknown mood %q", shared.ErrInvalidInput, mood)
	}

	want := make(map[string]int, len(genres))
	for _, g := range genres {
		want[g] = 1
	}
	seen := seenSet(history)

	var candidates []scored
	for _, mv := range catalog {
		if seen[shared.NormalizeTitle(mv.title)] {
			continue
		}
		if n := overlap(mv.genres, want); n > 0 {
			candidates = append(candidates, scored{movie: mv, score: float64(n) / float64(len(mv.genres))})
		}
	}
	return toRecommendations(rank(candidates, topN)), nil
}

// recommendByHistory ranks unwatched catalog movies by how often their genres appear in history.
// The overall score is the mean score of what was returned.
func recommendByHistory(history []string, topN int) models.HistoryRecommendations {
	counts := genreCounts(history)
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return models.EmptyHistoryRecommendations()
	}

	seen := seenSet(history)
	var candidates []scored
	for _, mv := range catalog {
		if seen[shared.NormalizeTitle(mv.title)] {
			continue
		}
		if n := overlap(mv.genres, counts); n > 0 {
			candidates = append(candidates, scored{movie: mv, score: math.Min(1, float64(n)/float64(total))})
		}
	}

	ranked := rank(candidates, topN)
	sum := 0.0
	for _, s := range ranked {
		sum += s.score
	}
	overall := "0%"
	if len(ranked) > 0 {
		overall = models.Percent(sum / float64(len(ranked)))
	}
	return models.HistoryRecommendations{Recommendations: toRecommendations(ranked), OverallMatchScore: overall}
}

// blendRecommendations scores unwatched catalog movies by how well they suit every member at once.
//
// A movie's score is the mean, over members, of the share of its genres that member has watched. The overall
// score is the mean pairwise genre similarity of the members.
func blendRecommendations(histories [][]string, topN int) ([]models.BlendRecommendation, string) {
	if len(histories) < models.MinBlendMembers {
		return []models.BlendRecommendation{}, "0%"
	}

	tastes := make([]map[string]int, len(histories))
	var all []string
	for i, h := range histories {
		tastes[i] = genreCounts(h)
		all = append(all, h...)
	}
	seen := seenSet(all)

	var candidates []scored
	for _, mv := range catalog {
		if seen[shared.NormalizeTitle(mv.title)] {
			continue
		}
		sum := 0.0
		for _, taste := range tastes {
			hit := 0
			for _, g := range mv.genres {
				if taste[g] > 0 {
					hit++
				}
			}
			sum += float64(hit) / float64(len(mv.genres))
		}
		if score := sum / float64(len(tastes)); score > 0 {
			candidates = append(candidates, scored{movie: mv, score: score})
		}
	}

	ranked := rank(candidates, topN)
	recs := make([]models.BlendRecommendation, 0, len(ranked))
	for _, s := range ranked {
		recs = append(recs, models.BlendRecommendation{Title: s.title, Genres: slices.Clone(s.genres), MatchScore: round4(s.score)})
	}
	return recs, strconv.Itoa(similarity(tastes)) + "%"
}

// similarity is the mean pairwise Jaccard index of the members' genre sets, as a whole percentage.
func similarity(tastes []map[string]int) int {
	pairs, sum := 0, 0.0
	for i := range tastes {
		for j := i + 1; j < len(tastes); j++ {
			inter, union := 0, 0
			for g := range tastes[i] {
				union++
				if tastes[j][g] > 0 {
					inter++
				}
			}
			for g := range tastes[j] {
				if tastes[i][g] == 0 {
					union++
				}
			}
			if union > 0 {
				sum += float64(inter) / float64(union)
			}
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return int(math.Round(sum / float64(pairs) * 100))
}

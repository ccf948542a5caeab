// package formatter renders blends, watch history, recommendations and watchlists as text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/shared"
)

// Format is an output format accepted by --format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// Formats lists the supported formats in help order.
var Formats = []Format{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// ParseFormat resolves a format name. Empty input is text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, markdown, csv or json)", shared.ErrInvalidArgument, s)
	}
}

// Extension is the file extension used for exports, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// writeCSV encodes a header row and records.
func writeCSV(headers []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func genres(g []string) string {
	return strings.Join(g, ", ")
}

// BlendToText renders a blend as plain text
func BlendToText(b *models.BlendSession) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Blend: %s (%s)\n", b.Name, b.Code)
	fmt.Fprintf(&buf, "Match: %s\n", b.EffectiveMatchScore())
	fmt.Fprintf(&buf, "Members: %d\n", len(b.Users))
	for _, m := range b.Members() {
		fmt.Fprintf(&buf, "  - %s: %s\n", m.Username, m.Tag)
	}
	buf.WriteString("\n")

	if b.Waiting() {
		buf.WriteString("Waiting for members. Share the code to invite friends.\n")
		return buf.Bytes(), nil
	}

	recs := b.EffectiveRecommendations()
	if len(recs) == 0 {
		buf.WriteString("No recommendations yet.\n")
		return buf.Bytes(), nil
	}

	fmt.Fprintf(&buf, "Recommendations: %d\n", len(recs))
	for i, r := range recs {
		fmt.Fprintf(&buf, "%d. %s [%s]", i+1, r.Title, models.Percent(r.MatchScore))
		if len(r.Genres) > 0 {
			fmt.Fprintf(&buf, " - %s", genres(r.Genres))
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// BlendToMarkdown renders a blend as a Markdown document
func BlendToMarkdown(b *models.BlendSession) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", b.Name)
	fmt.Fprintf(&buf, "**Code**: `%s`\n", b.Code)
	fmt.Fprintf(&buf, "**Match**: %s\n\n", b.EffectiveMatchScore())

	buf.WriteString("## Members\n\n")
	for _, m := range b.Members() {
		tag := m.Tag
		if !m.HasTag {
			tag = "_" + tag + "_"
		}
		fmt.Fprintf(&buf, "- **%s**: %s\n", m.Username, tag)
	}
	buf.WriteString("\n## Recommendations\n\n")

	if b.Waiting() {
		buf.WriteString("_Waiting for members._\n")
		return buf.Bytes(), nil
	}

	recs := b.EffectiveRecommendations()
	if len(recs) == 0 {
		buf.WriteString("_No recommendations yet._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Title | Genres | Match |\n")
	buf.WriteString("|---|-------|--------|-------|\n")
	for i, r := range recs {
		fmt.Fprintf(&buf, "| %d | %s | %s | %s |\n", i+1, escapeCell(r.Title), escapeCell(genres(r.Genres)), models.Percent(r.MatchScore))
	}
	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// BlendToCSV renders a blend's recommendations with columns: Rank, Title, Genres, Match
func BlendToCSV(b *models.BlendSession) ([]byte, error) {
	recs := b.EffectiveRecommendations()
	records := make([][]string, 0, len(recs))
	for i, r := range recs {
		records = append(records, []string{strconv.Itoa(i + 1), r.Title, genres(r.Genres), models.Percent(r.MatchScore)})
	}
	return writeCSV([]string{"Rank", "Title", "Genres", "Match"}, records)
}

// RenderBlend renders a blend in format f
func RenderBlend(b *models.BlendSession, f Format) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		return BlendToMarkdown(b)
	case FormatCSV:
		return BlendToCSV(b)
	case FormatJSON:
		return shared.MarshalJSON(b, true)
	default:
		return BlendToText(b)
	}
}

// RenderBlendList renders blend summaries, optionally with loaded details keyed by code.
func RenderBlendList(list []models.BlendSummary, details map[string]*models.BlendSession, f Format) ([]byte, error) {
	members := func(code string) string {
		if s, ok := details[code]; ok && s != nil {
			return strconv.Itoa(len(s.Users))
		}
		return "-"
	}
	match := func(code string) string {
		if s, ok := details[code]; ok && s != nil {
			return s.EffectiveMatchScore()
		}
		return "-"
	}

	switch f {
	case FormatJSON:
		return shared.MarshalJSON(list, true)
	case FormatCSV:
		records := make([][]string, 0, len(list))
		for _, s := range list {
			records = append(records, []string{s.Code, s.Name, members(s.Code), match(s.Code)})
		}
		return writeCSV([]string{"Code", "Name", "Members", "Match"}, records)
	case FormatMarkdown:
		var buf bytes.Buffer
		buf.WriteString("| Code | Name | Members | Match |\n|------|------|---------|-------|\n")
		for _, s := range list {
			fmt.Fprintf(&buf, "| `%s` | %s | %s | %s |\n", s.Code, escapeCell(s.Name), members(s.Code), match(s.Code))
		}
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		if len(list) == 0 {
			buf.WriteString("No blends yet. Create one or join with a code.\n")
			return buf.Bytes(), nil
		}
		for _, s := range list {
			fmt.Fprintf(&buf, "%-8s %-30s members: %-3s match: %s\n", s.Code, s.Name, members(s.Code), match(s.Code))
		}
		return buf.Bytes(), nil
	}
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// RenderHistory renders the server-side watch history
func RenderHistory(items []models.WatchHistoryItem, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return shared.MarshalJSON(items, true)
	case FormatCSV:
		records := make([][]string, 0, len(items))
		for _, it := range items {
			records = append(records, []string{it.MovieID, it.MovieName, timestamp(it.WatchedAt)})
		}
		return writeCSV([]string{"MovieID", "MovieName", "WatchedAt"}, records)
	}

	var buf bytes.Buffer
	if f == FormatMarkdown {
		buf.WriteString("## Watch History\n\n")
	}
	if len(items) == 0 {
		buf.WriteString("No watch history.\n")
		return buf.Bytes(), nil
	}
	for i, it := range items {
		line := it.MovieName
		if ts := timestamp(it.WatchedAt); ts != "" {
			line += " (" + ts + ")"
		}
		fmt.Fprintf(&buf, "%d. %s\n", i+1, line)
	}
	return buf.Bytes(), nil
}

// RenderRecent renders the locally remembered titles, newest first
func RenderRecent(movies []models.RecentMovie, f Format) ([]byte, error) {
	items := make([]models.WatchHistoryItem, 0, len(movies))
	for _, m := range movies {
		items = append(items, models.WatchHistoryItem{MovieID: m.MovieID, MovieName: m.MovieName, WatchedAt: m.AddedAt})
	}
	if f == FormatJSON {
		return shared.MarshalJSON(movies, true)
	}
	return RenderHistory(items, f)
}

// RenderRecommendations renders a recommendation list. score is the overall match score and may be empty.
func RenderRecommendations(recs []models.MovieRecommendation, score string, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		if score == "" {
			return shared.MarshalJSON(models.RecommendationList{Recommendations: recs}, true)
		}
		return shared.MarshalJSON(models.HistoryRecommendations{Recommendations: recs, OverallMatchScore: score}, true)
	case FormatCSV:
		records := make([][]string, 0, len(recs))
		for i, r := range recs {
			records = append(records, []string{strconv.Itoa(i + 1), r.ID, r.Title, genres(r.Genres), models.Percent(r.Score), r.ReleaseDate})
		}
		return writeCSV([]string{"Rank", "ID", "Title", "Genres", "Score", "ReleaseDate"}, records)
	}

	var buf bytes.Buffer
	if f == FormatMarkdown {
		buf.WriteString("## Recommendations\n\n")
	}
	if score != "" {
		fmt.Fprintf(&buf, "Overall match: %s\n\n", score)
	}
	if len(recs) == 0 {
		buf.WriteString("No recommendations.\n")
		return buf.Bytes(), nil
	}
	for i, r := range recs {
		fmt.Fprintf(&buf, "%d. %s [%s]", i+1, r.Title, models.Percent(r.Score))
		if r.ReleaseDate != "" {
			fmt.Fprintf(&buf, " (%s)", r.ReleaseDate)
		}
		if len(r.Genres) > 0 {
			fmt.Fprintf(&buf, " - %s", genres(r.Genres))
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// RenderWatchlists renders watchlists; a single watchlist also lists its movies.
func RenderWatchlists(lists []models.Watchlist, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		if len(lists) == 1 {
			return shared.MarshalJSON(lists[0], true)
		}
		return shared.MarshalJSON(lists, true)
	case FormatCSV:
		var records [][]string
		for _, w := range lists {
			if len(w.Movies) == 0 {
				records = append(records, []string{w.ID, w.Name, "", ""})
			}
			for _, m := range w.Movies {
				records = append(records, []string{w.ID, w.Name, m.MovieID, m.MovieName})
			}
		}
		return writeCSV([]string{"WatchlistID", "Watchlist", "MovieID", "MovieName"}, records)
	}

	var buf bytes.Buffer
	if len(lists) == 0 {
		buf.WriteString("No watchlists.\n")
		return buf.Bytes(), nil
	}
	for _, w := range lists {
		if f == FormatMarkdown {
			fmt.Fprintf(&buf, "## %s\n\n", w.Name)
		} else {
			fmt.Fprintf(&buf, "%s  %s (%d movies)\n", w.ID, w.Name, len(w.Movies))
		}
		if len(lists) > 1 && f != FormatMarkdown {
			continue
		}
		for _, m := range w.Movies {
			fmt.Fprintf(&buf, "- %s [%s]\n", m.MovieName, m.MovieID)
		}
		if f == FormatMarkdown {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

// WriteBlendExport writes a blend to filepath in format f.
//
// Defaults to blend_{CODE}.{ext} as the filename.
func WriteBlendExport(b *models.BlendSession, filepath string, f Format) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("blend_%s.%s", b.Code, f.Extension())
	}

	data, err := RenderBlend(b, f)
	if err != nil {
		return "", fmt.Errorf("failed to render blend: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return filepath, nil
}

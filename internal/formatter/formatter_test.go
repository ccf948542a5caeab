package formatter

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/shared"
	th "github.com/desertthunder/cineai/internal/testing"
)

func fullBlend() *models.BlendSession {
	return &models.BlendSession{
		Code:     "AB12",
		Name:     "Movie Night",
		Users:    []string{"alice", "bob"},
		UserTags: map[string]string{"alice": "sci-fi fan"},
		Recommendations: []models.BlendRecommendation{
			{Title: "Arrival", Genres: []string{"Sci-Fi", "Drama"}, MatchScore: 0.91},
			{Title: "Heat | Director's Cut", Genres: []string{"Crime"}, MatchScore: 0.5},
		},
		OverallMatchScore: "87%",
	}
}

func waitingBlend() *models.BlendSession {
	return &models.BlendSession{
		Code:              "CD34",
		Name:              "Solo",
		Users:             []string{"alice"},
		Recommendations:   []models.BlendRecommendation{{Title: "Ignored", MatchScore: 1}},
		OverallMatchScore: "99%",
	}
}

func TestParseFormat(t *testing.T) {
	tt := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"txt", FormatText},
		{"MD", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{" csv ", FormatCSV},
		{"json", FormatJSON},
	}
	for _, tc := range tt {
		got, err := ParseFormat(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}

	if _, err := ParseFormat("yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if FormatMarkdown.Extension() != "md" || FormatText.Extension() != "txt" {
		t.Error("unexpected extensions")
	}
}

func TestBlendRenderers(t *testing.T) {
	t.Run("BlendToText", func(t *testing.T) {
		data, err := BlendToText(fullBlend())
		if err != nil {
			t.Fatalf("BlendToText failed: %v", err)
		}
		output := string(data)

		for _, want := range []string{
			"Blend: Movie Night (AB12)",
			"Match: 87%",
			"Members: 2",
			"  - alice: sci-fi fan",
			"  - bob: " + models.NoPreferencesTag,
			"1. Arrival [91%] - Sci-Fi, Drama",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("text missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("Waiting Blend Hides Recommendations", func(t *testing.T) {
		data, _ := BlendToText(waitingBlend())
		output := string(data)

		if strings.Contains(output, "Ignored") {
			t.Error("recommendations should be hidden while waiting for members")
		}
		if !strings.Contains(output, "Match: 0%") || !strings.Contains(output, "Waiting for members") {
			t.Errorf("unexpected output:\n%s", output)
		}
	})

	t.Run("BlendToMarkdown", func(t *testing.T) {
		data, err := BlendToMarkdown(fullBlend())
		if err != nil {
			t.Fatalf("BlendToMarkdown failed: %v", err)
		}
		output := string(data)

		for _, want := range []string{
			"# Movie Night",
			"**Code**: `AB12`",
			"- **alice**: sci-fi fan",
			"- **bob**: _" + models.NoPreferencesTag + "_",
			"| 1 | Arrival | Sci-Fi, Drama | 91% |",
			`| 2 | Heat \| Director's Cut | Crime | 50% |`,
		} {
			if !strings.Contains(output, want) {
				t.Errorf("markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("BlendToCSV", func(t *testing.T) {
		data, err := BlendToCSV(fullBlend())
		if err != nil {
			t.Fatalf("BlendToCSV failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if lines[0] != "Rank,Title,Genres,Match" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if lines[1] != `1,Arrival,"Sci-Fi, Drama",91%` {
			t.Errorf("unexpected record %q", lines[1])
		}

		data, _ = BlendToCSV(waitingBlend())
		if strings.TrimSpace(string(data)) != "Rank,Title,Genres,Match" {
			t.Errorf("waiting blend should have no rows, got %q", data)
		}
	})

	t.Run("RenderBlend JSON", func(t *testing.T) {
		data, err := RenderBlend(fullBlend(), FormatJSON)
		if err != nil {
			t.Fatalf("RenderBlend failed: %v", err)
		}

		var decoded models.BlendSession
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Code != "AB12" || len(decoded.Recommendations) != 2 {
			t.Errorf("unexpected decoded blend %+v", decoded)
		}
	})
}

func TestRenderBlendList(t *testing.T) {
	list := []models.BlendSummary{{Code: "AB12", Name: "Movie Night"}, {Code: "CD34", Name: "Solo"}}
	details := map[string]*models.BlendSession{"AB12": fullBlend()}

	t.Run("text", func(t *testing.T) {
		data, _ := RenderBlendList(list, details, FormatText)
		output := string(data)
		if !strings.Contains(output, "members: 2") || !strings.Contains(output, "match: 87%") {
			t.Errorf("loaded detail missing, got:\n%s", output)
		}
		if !strings.Contains(output, "match: -") {
			t.Errorf("unloaded detail should show a dash, got:\n%s", output)
		}
	})

	t.Run("empty", func(t *testing.T) {
		data, _ := RenderBlendList(nil, nil, FormatText)
		if !strings.Contains(string(data), "No blends yet") {
			t.Errorf("unexpected output %q", data)
		}
	})

	t.Run("csv", func(t *testing.T) {
		data, err := RenderBlendList(list, details, FormatCSV)
		if err != nil {
			t.Fatalf("RenderBlendList failed: %v", err)
		}
		if !strings.Contains(string(data), "AB12,Movie Night,2,87%") {
			t.Errorf("unexpected csv %q", data)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		data, _ := RenderBlendList(list, details, FormatMarkdown)
		if !strings.Contains(string(data), "| `CD34` | Solo | - | - |") {
			t.Errorf("unexpected markdown %q", data)
		}
	})
}

func TestRenderHistory(t *testing.T) {
	watched := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	items := []models.WatchHistoryItem{
		{MovieID: "manual_1", MovieName: "Inception", WatchedAt: watched},
		{MovieID: "manual_2", MovieName: "Heat"},
	}

	t.Run("text", func(t *testing.T) {
		data, _ := RenderHistory(items, FormatText)
		output := string(data)
		if !strings.Contains(output, "1. Inception (2024-05-01T20:00:00Z)") || !strings.Contains(output, "2. Heat\n") {
			t.Errorf("unexpected output:\n%s", output)
		}
	})

	t.Run("csv", func(t *testing.T) {
		data, _ := RenderHistory(items, FormatCSV)
		if !strings.Contains(string(data), "manual_2,Heat,\n") {
			t.Errorf("unexpected csv %q", data)
		}
	})

	t.Run("empty", func(t *testing.T) {
		data, _ := RenderHistory(nil, FormatMarkdown)
		if !strings.Contains(string(data), "No watch history.") {
			t.Errorf("unexpected output %q", data)
		}
	})

	t.Run("recent", func(t *testing.T) {
		data, _ := RenderRecent([]models.RecentMovie{{MovieID: "m", MovieName: "Alien", AddedAt: watched}}, FormatText)
		if !strings.Contains(string(data), "1. Alien") {
			t.Errorf("unexpected output %q", data)
		}
	})
}

func TestRenderRecommendations(t *testing.T) {
	recs := []models.MovieRecommendation{
		{ID: "27205", Title: "Inception", Score: 0.873, Genres: []string{"Action"}, ReleaseDate: "2010-07-16"},
	}

	t.Run("text with score", func(t *testing.T) {
		data, _ := RenderRecommendations(recs, "75%", FormatText)
		output := string(data)
		if !strings.Contains(output, "Overall match: 75%") || !strings.Contains(output, "1. Inception [87%] (2010-07-16) - Action") {
			t.Errorf("unexpected output:\n%s", output)
		}
	})

	t.Run("json without score", func(t *testing.T) {
		data, _ := RenderRecommendations(recs, "", FormatJSON)
		if strings.Contains(string(data), "overall_match_score") {
			t.Errorf("mood results have no overall score, got %s", data)
		}
	})

	t.Run("json with score", func(t *testing.T) {
		data, _ := RenderRecommendations(nil, "0%", FormatJSON)
		var decoded models.HistoryRecommendations
		if err := json.Unmarshal(data, &decoded); err != nil || decoded.OverallMatchScore != "0%" {
			t.Errorf("unexpected %s (%v)", data, err)
		}
	})

	t.Run("csv", func(t *testing.T) {
		data, _ := RenderRecommendations(recs, "", FormatCSV)
		if !strings.Contains(string(data), "1,27205,Inception,Action,87%,2010-07-16") {
			t.Errorf("unexpected csv %q", data)
		}
	})
}

func TestRenderWatchlists(t *testing.T) {
	lists := []models.Watchlist{
		{ID: "w1", Name: "Weekend", Movies: []models.WatchlistMovie{{ID: "1", MovieID: "m1", MovieName: "Up"}}},
		{ID: "w2", Name: "Empty"},
	}

	t.Run("summary text", func(t *testing.T) {
		data, _ := RenderWatchlists(lists, FormatText)
		output := string(data)
		if !strings.Contains(output, "w1  Weekend (1 movies)") || strings.Contains(output, "- Up") {
			t.Errorf("unexpected output:\n%s", output)
		}
	})

	t.Run("single text lists movies", func(t *testing.T) {
		data, _ := RenderWatchlists(lists[:1], FormatText)
		if !strings.Contains(string(data), "- Up [m1]") {
			t.Errorf("unexpected output %q", data)
		}
	})

	t.Run("csv keeps empty watchlists", func(t *testing.T) {
		data, _ := RenderWatchlists(lists, FormatCSV)
		if !strings.Contains(string(data), "w2,Empty,,") {
			t.Errorf("unexpected csv %q", data)
		}
	})
}

func TestWriteBlendExport(t *testing.T) {
	t.Run("WithDefaultPath", func(t *testing.T) {
		t.Chdir(t.TempDir())

		path, err := WriteBlendExport(fullBlend(), "", FormatMarkdown)
		if err != nil {
			t.Fatalf("WriteBlendExport failed: %v", err)
		}
		if path != "blend_AB12.md" {
			t.Errorf("unexpected default path %q", path)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "# Movie Night") {
			t.Errorf("unexpected content:\n%s", content)
		}
	})

	t.Run("WithCustomPath", func(t *testing.T) {
		path := t.TempDir() + "/night.csv"

		got, err := WriteBlendExport(fullBlend(), path, FormatCSV)
		if err != nil || got != path {
			t.Fatalf("WriteBlendExport = %q, %v", got, err)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		if _, err := WriteBlendExport(fullBlend(), t.TempDir()+"/missing/dir/out.txt", FormatText); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}

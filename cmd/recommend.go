package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cineai/internal/formatter"
	"github.com/desertthunder/cineai/internal/shared"
)

// RecommendMood asks for movies matching a mood.
//
// With --with-recent the titles added from this device steer the results.
func (r *Runner) RecommendMood(ctx context.Context, cmd *cli.Command) error {
	mood := strings.TrimSpace(cmd.StringArg("mood"))
	if mood == "" {
		return fmt.Errorf("%w: mood (for example happy, sad, adventurous)", shared.ErrMissingArgument)
	}
	f, err := r.format(cmd)
	if err != nil {
		return err
	}

	var history []string
	if cmd.Bool("with-recent") {
		history = r.recent.Titles()
		r.logger.Debug("steering with recent titles", "count", len(history))
	}

	recs, err := r.clients.Recommendations.FetchMoodRecommendations(ctx, mood, int(cmd.Int("top-n")), history)
	if err != nil {
		return err
	}

	out, err := formatter.RenderRecommendations(recs, "", f)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// RecommendHistory asks for movies based on the server-side watch history.
func (r *Runner) RecommendHistory(ctx context.Context, cmd *cli.Command) error {
	f, err := r.format(cmd)
	if err != nil {
		return err
	}

	resp, err := r.clients.Recommendations.FetchHistoryRecommendations(ctx, int(cmd.Int("top-n")))
	if err != nil {
		return err
	}

	out, err := formatter.RenderRecommendations(resp.Recommendations, resp.OverallMatchScore, f)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

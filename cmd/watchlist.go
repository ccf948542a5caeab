package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cineai/internal/formatter"
	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/shared"
)

func watchlistID(cmd *cli.Command) (string, error) {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return "", fmt.Errorf("%w: watchlist id", shared.ErrMissingArgument)
	}
	return id, nil
}

// WatchlistCreate creates an empty watchlist.
func (r *Runner) WatchlistCreate(ctx context.Context, cmd *cli.Command) error {
	wl, err := r.clients.Watchlists.CreateWatchlist(ctx, cmd.StringArg("name"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created watchlist %q (id %s)\n", wl.Name, wl.ID)
}

// WatchlistList prints every watchlist.
func (r *Runner) WatchlistList(ctx context.Context, cmd *cli.Command) error {
	f, err := r.format(cmd)
	if err != nil {
		return err
	}

	lists, err := r.clients.Watchlists.FetchWatchlists(ctx)
	if err != nil {
		return err
	}

	out, err := formatter.RenderWatchlists(lists, f)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// WatchlistShow prints one watchlist with its movies.
func (r *Runner) WatchlistShow(ctx context.Context, cmd *cli.Command) error {
	id, err := watchlistID(cmd)
	if err != nil {
		return err
	}
	f, err := r.format(cmd)
	if err != nil {
		return err
	}

	wl, err := r.clients.Watchlists.FetchWatchlist(ctx, id)
	if err != nil {
		return err
	}

	out, err := formatter.RenderWatchlists([]models.Watchlist{*wl}, f)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// WatchlistAdd saves a movie on a watchlist.
func (r *Runner) WatchlistAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := watchlistID(cmd)
	if err != nil {
		return err
	}

	movie := models.WatchlistMovieRequest{MovieID: cmd.String("movie-id"), MovieName: cmd.StringArg("title")}
	if err := r.clients.Watchlists.AddMovieToWatchlist(ctx, id, movie); err != nil {
		return err
	}
	return r.writePlain("✓ Added %q to watchlist %s\n", strings.TrimSpace(movie.MovieName), id)
}

// WatchlistRemove drops a movie from a watchlist.
func (r *Runner) WatchlistRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := watchlistID(cmd)
	if err != nil {
		return err
	}
	movieID := strings.TrimSpace(cmd.StringArg("movie-id"))
	if movieID == "" {
		return fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	}

	if err := r.clients.Watchlists.RemoveMovieFromWatchlist(ctx, id, movieID); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s from watchlist %s\n", movieID, id)
}

// WatchlistDelete removes a watchlist after confirmation.
func (r *Runner) WatchlistDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := watchlistID(cmd)
	if err != nil {
		return err
	}

	if !cmd.Bool("yes") && !r.confirm("Delete this watchlist permanently?") {
		return fmt.Errorf("%w: watchlist %s kept", shared.ErrCancelled, id)
	}

	if err := r.clients.Watchlists.DeleteWatchlist(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted watchlist %s\n", id)
}

// WatchlistWatched records a movie as watched and, unless --keep is set, takes it off the watchlist.
//
// Without --movie-id the movie is looked up on the watchlist by title.
func (r *Runner) WatchlistWatched(ctx context.Context, cmd *cli.Command) error {
	id, err := watchlistID(cmd)
	if err != nil {
		return err
	}

	entry := models.HistoryEntry{MovieID: cmd.String("movie-id"), MovieName: strings.TrimSpace(cmd.StringArg("title"))}
	if err := shared.ValidateStruct(entry); err != nil {
		return err
	}

	if entry.MovieID == "" {
		if wl := r.clients.Watchlists.GetWatchlist(ctx, id); wl != nil {
			for _, m := range wl.Movies {
				if shared.NormalizeTitle(m.MovieName) == shared.NormalizeTitle(entry.MovieName) {
					entry.MovieID = m.MovieID
					break
				}
			}
		}
	}

	from := id
	if cmd.Bool("keep") || entry.MovieID == "" {
		from = ""
	}
	if err := r.clients.Watchlists.MarkMovieAsWatched(ctx, entry, from); err != nil {
		return err
	}

	if err := r.recent.Add(models.RecentMovie{MovieID: entry.MovieID, MovieName: entry.MovieName}); err != nil {
		r.logger.Warn("failed to remember title", "title", entry.MovieName, "error", err)
	}

	if from == "" {
		return r.writePlain("✓ Marked %q as watched\n", entry.MovieName)
	}
	return r.writePlain("✓ Marked %q as watched and removed it from watchlist %s\n", entry.MovieName, id)
}

package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cineai/internal/formatter"
)

// HistoryAdd records comma separated titles as watched, one request at a time.
func (r *Runner) HistoryAdd(ctx context.Context, cmd *cli.Command) error {
	board, notices := r.board(cmd)
	defer r.flushNotices(notices)

	added, err := board.AddHistory(ctx, strings.Join(cmd.StringArgs("titles"), ","))
	if err != nil {
		if added > 0 {
			r.writePlain("%d title(s) were added before the failure.\n", added)
		}
		return err
	}

	r.flushNotices(notices)
	return r.writePlain("Added %d title(s).\n", added)
}

// HistoryList prints the server-side watch history.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	f, err := r.format(cmd)
	if err != nil {
		return err
	}

	items, err := r.clients.History.FetchHistory(ctx)
	if err != nil {
		return err
	}

	out, err := formatter.RenderHistory(items, f)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// HistoryRecent prints, or clears, the titles added from this device.
func (r *Runner) HistoryRecent(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("clear") {
		if err := r.recent.Clear(); err != nil {
			return err
		}
		return r.writePlain("✓ Recently watched titles cleared\n")
	}

	f, err := r.format(cmd)
	if err != nil {
		return err
	}

	out, err := formatter.RenderRecent(r.recent.List(), f)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cineai/internal/formatter"
	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/services"
	"github.com/desertthunder/cineai/internal/shared"
	"github.com/desertthunder/cineai/internal/tasks"
)

func blendCode(cmd *cli.Command) (string, error) {
	code := strings.TrimSpace(cmd.StringArg("code"))
	if code == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, tasks.MsgCodeRequired)
	}
	return code, nil
}

// board builds a list screen for one command.
func (r *Runner) board(cmd *cli.Command) (*tasks.BlendBoard, chan tasks.Notice) {
	opts, notices := r.screenOptions(cmd)
	return tasks.NewBlendBoard(r.deps(), opts), notices
}

// BlendCreate creates a blend and remembers it locally.
func (r *Runner) BlendCreate(ctx context.Context, cmd *cli.Command) error {
	board, notices := r.board(cmd)
	defer r.flushNotices(notices)

	session, err := board.Create(ctx, cmd.StringArg("name"))
	if err != nil {
		return err
	}

	r.flushNotices(notices)
	r.writePlain("Code: %s\n", session.Code)
	r.writePlain("Share it with `cineai blend join %s`.\n", session.Code)
	return nil
}

// BlendJoin joins a blend by code.
func (r *Runner) BlendJoin(ctx context.Context, cmd *cli.Command) error {
	board, notices := r.board(cmd)
	defer r.flushNotices(notices)

	session, err := board.Join(ctx, cmd.StringArg("code"))
	if err != nil {
		return err
	}

	r.flushNotices(notices)
	out, err := formatter.RenderBlend(session, formatter.FormatText)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// BlendInvite invites a user by username or id.
func (r *Runner) BlendInvite(ctx context.Context, cmd *cli.Command) error {
	board, notices := r.board(cmd)
	defer r.flushNotices(notices)

	_, err := board.Invite(ctx, cmd.StringArg("code"), cmd.StringArg("user"))
	return err
}

// BlendList lists blends from the server merged with the local cache, each with its detail.
func (r *Runner) BlendList(ctx context.Context, cmd *cli.Command) error {
	f, err := r.format(cmd)
	if err != nil {
		return err
	}

	board, notices := r.board(cmd)
	if err := board.Mount(ctx); err != nil {
		r.flushNotices(notices)
		return err
	}
	defer board.Unmount()

	view := board.Snapshot()
	list := make([]models.BlendSummary, 0, len(view.Cards))
	details := make(map[string]*models.BlendSession, len(view.Cards))
	for _, c := range view.Cards {
		list = append(list, c.Summary)
		if c.Session != nil {
			details[c.Summary.Code] = c.Session
		}
	}

	out, err := formatter.RenderBlendList(list, details, f)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// fetchBlend loads one blend, translating a 404 into the message the screens use.
func (r *Runner) fetchBlend(ctx context.Context, code string) (*models.BlendSession, error) {
	session, err := r.clients.Blends.GetBlend(ctx, code)
	if err != nil {
		if services.StatusCode(err) == 404 {
			return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, tasks.MsgBlendNotFound)
		}
		return nil, err
	}
	return session, nil
}

// BlendShow prints a blend's members and recommendations.
func (r *Runner) BlendShow(ctx context.Context, cmd *cli.Command) error {
	code, err := blendCode(cmd)
	if err != nil {
		return err
	}
	f, err := r.format(cmd)
	if err != nil {
		return err
	}

	session, err := r.fetchBlend(ctx, code)
	if err != nil {
		return err
	}

	out, err := formatter.RenderBlend(session, f)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// BlendDelete deletes a blend after confirmation.
func (r *Runner) BlendDelete(ctx context.Context, cmd *cli.Command) error {
	board, notices := r.board(cmd)
	defer r.flushNotices(notices)

	return board.Delete(ctx, cmd.StringArg("code"))
}

// BlendCopy puts a blend code on the clipboard.
func (r *Runner) BlendCopy(ctx context.Context, cmd *cli.Command) error {
	code, err := blendCode(cmd)
	if err != nil {
		return err
	}

	board, notices := r.board(cmd)
	defer r.flushNotices(notices)
	return board.CopyCode(code)
}

// BlendOpen opens the blend page of the web app.
func (r *Runner) BlendOpen(ctx context.Context, cmd *cli.Command) error {
	code, err := blendCode(cmd)
	if err != nil {
		return err
	}

	url, err := shared.BlendPageURL(r.config.API.WebURL, code)
	if err != nil {
		return err
	}

	r.logger.Info("opening blend", "url", url)
	if err := r.openURL(url); err != nil {
		r.writePlain("Open %s in your browser.\n", url)
		return err
	}
	return nil
}

// BlendWatch mounts a blend and reprints it whenever a poll changes it, until interrupted.
func (r *Runner) BlendWatch(ctx context.Context, cmd *cli.Command) error {
	code, err := blendCode(cmd)
	if err != nil {
		return err
	}

	opts, notices := r.screenOptions(cmd)
	changed := make(chan struct{}, 1)
	opts.Changed = changed

	room := tasks.NewBlendRoom(code, r.deps(), opts)
	if err := room.Mount(ctx); err != nil {
		r.flushNotices(notices)
		return err
	}

	done := make(chan error, 1)
	go func() { done <- room.Run(ctx) }()

	last := ""
	for {
		select {
		case n := <-notices:
			r.printNotice(n)
			if n.Navigate == tasks.RouteLogin || n.Navigate == tasks.RouteBlends {
				room.Unmount()
			}
		case <-changed:
			snap := room.Snapshot()
			if snap.Session == nil {
				continue
			}
			out, err := formatter.RenderBlend(snap.Session, formatter.FormatText)
			if err != nil {
				return err
			}
			if string(out) == last {
				continue
			}
			last = string(out)
			r.writePlainHeader(fmt.Sprintf("Blend %s (%s)", snap.Code, snap.Card))
			r.writeBytes(out)
		case err := <-done:
			r.flushNotices(notices)
			return err
		}
	}
}

// BlendExport writes a blend to a file.
func (r *Runner) BlendExport(ctx context.Context, cmd *cli.Command) error {
	code, err := blendCode(cmd)
	if err != nil {
		return err
	}
	f, err := r.format(cmd)
	if err != nil {
		return err
	}

	session, err := r.fetchBlend(ctx, code)
	if err != nil {
		return err
	}

	path, err := formatter.WriteBlendExport(session, cmd.String("output"), f)
	if err != nil {
		return err
	}

	r.logger.Info("blend exported", "code", session.Code, "path", path)
	return r.writePlain("✓ Exported blend %s to %s\n", session.Code, path)
}

// BlendHistory adds watched titles from inside a blend and schedules a reload of its recommendations.
func (r *Runner) BlendHistory(ctx context.Context, cmd *cli.Command) error {
	code, err := blendCode(cmd)
	if err != nil {
		return err
	}

	opts, notices := r.screenOptions(cmd)
	defer r.flushNotices(notices)

	room := tasks.NewBlendRoom(code, r.deps(), opts)
	added, err := room.AddHistory(ctx, strings.Join(cmd.StringArgs("titles"), ","))
	if err != nil {
		if added > 0 {
			r.writePlain("%d title(s) were added before the failure.\n", added)
		}
		return err
	}

	r.flushNotices(notices)
	r.writePlain("Added %d title(s).\n", added)
	return nil
}

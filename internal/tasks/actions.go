package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/services"
	"github.com/desertthunder/cineai/internal/shared"
)

type createInput struct {
	Name string `validate:"required" msg:"Please enter a blend name."`
}

type joinInput struct {
	Code string `validate:"required" msg:"Please enter a blend code."`
}

type inviteInput struct {
	Code   string `validate:"required" msg:"Please enter a blend code."`
	UserID string `validate:"required" msg:"Please enter a username to invite."`
}

// invalid reports a validation error as a notice and returns it.
func (c *core) invalid(err error) error {
	c.sendNotice(errorNotice("Error", err.Error()))
	return err
}

// failed reports a write failure as a notice and returns it as a [Failure].
func (c *core) failed(title, msg string, err error) error {
	c.logger.Error(msg, "error", err)
	c.sendNotice(errorNotice(title, msg))
	c.authLost(err, MsgLoginRequired)
	return &Failure{Title: title, Message: msg, Kind: shared.ErrActionFailed, Err: err}
}

func (c *core) create(ctx context.Context, name string) (*models.BlendSession, error) {
	in := createInput{Name: strings.TrimSpace(name)}
	if err := shared.ValidateStruct(in); err != nil {
		return nil, c.invalid(err)
	}

	session, err := c.deps.Blends.CreateBlend(ctx, in.Name)
	if err != nil {
		return nil, c.failed("Creation Failed", services.ErrorMessage(err, MsgCreateFailed), err)
	}

	if session.Name == "" {
		session.Name = in.Name
	}
	c.cacheUpsert(models.BlendSummary{Code: session.Code, Name: in.Name})
	return session, nil
}

func (c *core) join(ctx context.Context, code string) (*models.BlendSession, error) {
	in := joinInput{Code: strings.TrimSpace(code)}
	if err := shared.ValidateStruct(in); err != nil {
		return nil, c.invalid(err)
	}

	session, err := c.deps.Blends.JoinBlend(ctx, in.Code)
	if err != nil {
		msg := services.ErrorMessage(err, MsgJoinFailed)
		if services.StatusCode(err) == 404 {
			msg = MsgCodeNotFound
		}
		return nil, c.failed("Join Failed", msg, err)
	}

	if session.Code == "" {
		session.Code = in.Code
	}
	c.cacheUpsert(session.Summary())
	return session, nil
}

// remove asks for confirmation, deletes the blend and drops it from the cache.
func (c *core) remove(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return c.invalid(&shared.ValidationError{Field: "Code", Message: MsgCodeRequired})
	}
	if !c.confirmed(DeletePrompt) {
		return fmt.Errorf("%w: delete of %s not confirmed", shared.ErrCancelled, code)
	}

	if err := c.deps.Blends.DeleteBlend(ctx, code); err != nil {
		return c.failed("Delete Failed", services.ErrorMessage(err, MsgDeleteFailed), err)
	}

	c.cacheRemove(code)
	c.forget(code)
	return nil
}

// addHistory submits each title in input one at a time, stopping at the first failure.
//
// After at least one title was accepted, refresh runs once after delay. It returns how many titles were added.
func (c *core) addHistory(ctx context.Context, input string, delay time.Duration, refresh func(context.Context), done string) (int, error) {
	titles := ParseTitles(input)
	if len(titles) == 0 {
		return 0, c.invalid(&shared.ValidationError{Field: "Titles", Message: MsgTitlesRequired})
	}

	var limiter *rate.Limiter
	if c.opts.HistoryRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(c.opts.HistoryRate), 1)
	}

	added := 0
	var failure error
	for _, title := range titles {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				failure = fmt.Errorf("%w: %v", shared.ErrCancelled, err)
				break
			}
		}

		entry := models.HistoryEntry{MovieID: shared.ManualMovieID(), MovieName: title}
		if err := c.deps.History.AddToHistory(ctx, entry); err != nil {
			failure = err
			break
		}
		added++
		c.remember(entry)
	}

	if added > 0 {
		c.scheduleRefresh(delay, refresh)
	}
	if failure != nil {
		return added, c.failed("Error", MsgHistoryFailed, failure)
	}

	c.sendNotice(successNotice("History Added!", done))
	return added, nil
}

func (c *core) remember(entry models.HistoryEntry) {
	if c.deps.Recent == nil {
		return
	}
	if err := c.deps.Recent.Add(models.RecentMovie{MovieID: entry.MovieID, MovieName: entry.MovieName}); err != nil {
		c.logger.Warn("failed to remember title", "title", entry.MovieName, "error", err)
	}
}

func (c *core) copyCode(code string) error {
	if err := c.opts.Clipboard(code); err != nil {
		c.logger.Warn("clipboard write failed", "error", err)
		c.sendNotice(errorNotice("Copy Failed", MsgCopyFailed))
		return &Failure{Title: "Copy Failed", Message: MsgCopyFailed, Err: err}
	}
	c.sendNotice(successNotice("Copied!", MsgCopied))
	return nil
}

func (c *core) invite(ctx context.Context, code, userID string) (string, error) {
	in := inviteInput{Code: strings.TrimSpace(code), UserID: strings.TrimSpace(userID)}
	if err := shared.ValidateStruct(in); err != nil {
		return "", c.invalid(err)
	}

	resp, err := c.deps.Blends.InviteToBlend(ctx, in.Code, in.UserID)
	if err != nil {
		return "", c.failed("Invite Failed", services.ErrorMessage(err, MsgInviteFailed), err)
	}

	msg := resp.Text()
	if msg == "" {
		msg = fmt.Sprintf("Invited %s to blend %s", in.UserID, in.Code)
	}
	c.sendNotice(successNotice("Invite Sent", msg))
	return msg, nil
}

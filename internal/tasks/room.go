package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/services"
	"github.com/desertthunder/cineai/internal/shared"
)

// BlendRoom is the detail screen of a single blend.
//
// It polls only after the first successful load. Later load failures keep the last good detail on screen.
type BlendRoom struct {
	*core
	code string
}

// NewBlendRoom creates the detail screen for code.
func NewBlendRoom(code string, deps Deps, opts Options) *BlendRoom {
	return &BlendRoom{core: newCore(deps, opts), code: strings.TrimSpace(code)}
}

// RoomView is a snapshot of the detail screen.
type RoomView struct {
	State   PageState
	User    *models.User
	Code    string
	Card    CardState
	Session *models.BlendSession
}

// Code returns the blend code shown.
func (r *BlendRoom) Code() string { return r.code }

// Mount authenticates and loads the blend. A failed first load is reported to the user.
func (r *BlendRoom) Mount(ctx context.Context) error {
	life := r.mount(ctx)
	if err := r.authenticate(life, MsgLoginRequiredBlend); err != nil {
		return err
	}

	_, err := r.fetchDetail(life, r.code)
	if err == nil {
		return nil
	}
	if r.authLost(err, MsgLoginRequiredBlend) {
		return err
	}

	msg := services.ErrorMessage(err, MsgLoadFailed)
	if services.StatusCode(err) == 404 {
		msg = MsgBlendNotFound
	}
	r.sendNotice(errorNotice("Load Failed", msg))
	return &Failure{Title: "Load Failed", Message: msg, Kind: shared.ErrTransient, Err: err}
}

// Run refreshes the blend every DetailInterval until ctx ends or the room is unmounted, then unmounts.
func (r *BlendRoom) Run(ctx context.Context) error {
	defer r.Unmount()

	life, mounted := r.lifetime()
	if !mounted || r.State() != Ready {
		return fmt.Errorf("%w: blend %s is not ready", shared.ErrAuthRequired, r.code)
	}

	ticker := time.NewTicker(r.opts.DetailInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-life.Done():
			return nil
		case <-ticker.C:
			if r.State() != Ready {
				return nil
			}
			if _, session := r.card(r.code); session == nil {
				continue
			}
			r.FetchDetail(life)
		}
	}
}

// FetchDetail reloads the blend; false means a load was already in flight.
func (r *BlendRoom) FetchDetail(ctx context.Context) bool {
	started, err := r.fetchDetail(ctx, r.code)
	if err != nil {
		r.authLost(err, MsgLoginRequiredBlend)
	}
	return started
}

// Snapshot returns the current detail state.
func (r *BlendRoom) Snapshot() RoomView {
	state, session := r.card(r.code)
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomView{State: r.state, User: r.user, Code: r.code, Card: state, Session: session}
}

// AddHistory adds comma separated titles to the watch history and reloads the blend shortly after.
func (r *BlendRoom) AddHistory(ctx context.Context, input string) (int, error) {
	return r.addHistory(ctx, input, r.opts.DetailRefreshDelay, func(ctx context.Context) { r.FetchDetail(ctx) },
		"Your movie history has been added. Refreshing blend...")
}

// CopyCode puts the blend code on the clipboard.
func (r *BlendRoom) CopyCode() error {
	return r.copyCode(r.code)
}

// Invite invites userID into this blend.
func (r *BlendRoom) Invite(ctx context.Context, userID string) (string, error) {
	return r.invite(ctx, r.code, userID)
}

// Delete removes the blend after confirmation and points the user back at the list.
func (r *BlendRoom) Delete(ctx context.Context) error {
	if err := r.remove(ctx, r.code); err != nil {
		return err
	}
	r.sendNotice(Notice{Level: LevelSuccess, Title: "Deleted", Message: "Blend removed.", Navigate: RouteBlends})
	return nil
}

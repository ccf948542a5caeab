package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/shared"
)

// BlendBoard is the list of the user's blends.
//
// The list is the server's list merged with locally cached blends the server has not listed yet. Each listed
// blend's detail is loaded independently. When the list call fails, the cache is shown instead.
type BlendBoard struct {
	*core

	summaries []models.BlendSummary
	pruner    *pruner
	listMu    sync.Mutex // serialises RefreshList
}

// NewBlendBoard creates a list screen.
func NewBlendBoard(deps Deps, opts Options) *BlendBoard {
	c := newCore(deps, opts)
	return &BlendBoard{core: c, pruner: newPruner(c.opts.PruneAfter)}
}

// BlendCard is one row of the list.
type BlendCard struct {
	Summary models.BlendSummary
	State   CardState
	Session *models.BlendSession // last loaded detail, may be stale
}

// BoardView is a snapshot of the list screen.
type BoardView struct {
	State PageState
	User  *models.User
	Cards []BlendCard
}

// Mount authenticates and loads the list. On failure the board is AuthFailed and Run will not poll.
func (b *BlendBoard) Mount(ctx context.Context) error {
	life := b.mount(ctx)
	if err := b.authenticate(life, MsgLoginRequired); err != nil {
		return err
	}
	b.RefreshList(life)
	return nil
}

// Run refreshes the list every ListInterval until ctx ends or the board is unmounted, then unmounts.
func (b *BlendBoard) Run(ctx context.Context) error {
	defer b.Unmount()

	life, mounted := b.lifetime()
	if !mounted || b.State() != Ready {
		return fmt.Errorf("%w: blend list is not ready", shared.ErrAuthRequired)
	}

	ticker := time.NewTicker(b.opts.ListInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-life.Done():
			return nil
		case <-ticker.C:
			if b.State() != Ready {
				return nil
			}
			b.RefreshList(life)
		}
	}
}

// RefreshList fetches the list, merges it with the cache and loads every listed blend's detail.
//
// Failures fall back to the cache and are only logged. It returns the summaries now shown.
func (b *BlendBoard) RefreshList(ctx context.Context) []models.BlendSummary {
	b.listMu.Lock()
	defer b.listMu.Unlock()

	cached := b.deps.Cache.ReadAll()
	remote, err := b.deps.Blends.ListBlends(ctx)
	if err != nil {
		b.logger.Warn("failed to fetch blends, showing cached list", "error", err)
		b.authLost(err, MsgLoginRequired)
		b.show(cached)
		return cached
	}

	merged := MergeSummaries(remote, cached)
	if stale := b.pruner.observe(remote, cached); len(stale) > 0 {
		b.logger.Info("pruning cached blends missing from server", "codes", stale)
		if err := b.deps.Cache.RemoveAll(stale); err != nil {
			b.logger.Warn("failed to prune cached blends", "error", err)
		}
		merged = without(merged, stale)
		for _, code := range stale {
			b.forget(code)
		}
	}
	b.show(merged)

	var wg sync.WaitGroup
	for _, s := range merged {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			b.fetchDetail(ctx, code)
		}(s.Code)
	}
	wg.Wait()

	return merged
}

func (b *BlendBoard) show(list []models.BlendSummary) {
	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	b.summaries = list
	b.mu.Unlock()
	b.changed()
}

// FetchDetail loads one blend's detail; false means a load for code was already in flight.
func (b *BlendBoard) FetchDetail(ctx context.Context, code string) bool {
	started, _ := b.fetchDetail(ctx, code)
	return started
}

// Snapshot returns the current list with each card's state and detail.
func (b *BlendBoard) Snapshot() BoardView {
	b.mu.Lock()
	view := BoardView{State: b.state, User: b.user}
	summaries := append([]models.BlendSummary(nil), b.summaries...)
	b.mu.Unlock()

	view.Cards = make([]BlendCard, 0, len(summaries))
	for _, s := range summaries {
		state, session := b.card(s.Code)
		view.Cards = append(view.Cards, BlendCard{Summary: s, State: state, Session: session})
	}
	return view
}

// Create starts a blend named name, caches it and points the user at it.
func (b *BlendBoard) Create(ctx context.Context, name string) (*models.BlendSession, error) {
	session, err := b.create(ctx, name)
	if err != nil {
		return nil, err
	}

	if _, mounted := b.lifetime(); mounted {
		b.RefreshList(ctx)
	}
	b.sendNotice(Notice{
		Level:    LevelSuccess,
		Title:    "Blend Created!",
		Message:  fmt.Sprintf("Your blend %q has been created.", session.Name),
		Navigate: BlendRoute(session.Code),
	})
	return session, nil
}

// Join joins the blend with code, caches it and points the user at it.
func (b *BlendBoard) Join(ctx context.Context, code string) (*models.BlendSession, error) {
	session, err := b.join(ctx, code)
	if err != nil {
		return nil, err
	}

	if _, mounted := b.lifetime(); mounted {
		b.RefreshList(ctx)
	}
	b.sendNotice(Notice{
		Level:    LevelSuccess,
		Title:    "Joined Blend!",
		Message:  "Successfully joined blend: " + session.Code,
		Navigate: BlendRoute(session.Code),
	})
	return session, nil
}

// Delete removes a blend after confirmation. It disappears from the list immediately without a refetch.
func (b *BlendBoard) Delete(ctx context.Context, code string) error {
	if err := b.remove(ctx, code); err != nil {
		return err
	}

	b.mu.Lock()
	b.summaries = without(b.summaries, []string{code})
	b.mu.Unlock()
	b.changed()

	b.sendNotice(successNotice("Deleted", "Blend removed."))
	return nil
}

// AddHistory adds comma separated titles to the watch history and refreshes the list shortly after.
func (b *BlendBoard) AddHistory(ctx context.Context, input string) (int, error) {
	return b.addHistory(ctx, input, b.opts.ListRefreshDelay, func(ctx context.Context) { b.RefreshList(ctx) },
		"Your movie history has been added. Blend recommendations will update shortly.")
}

// CopyCode puts code on the clipboard.
func (b *BlendBoard) CopyCode(code string) error {
	return b.copyCode(code)
}

// Invite invites userID into the blend with code.
func (b *BlendBoard) Invite(ctx context.Context, code, userID string) (string, error) {
	return b.invite(ctx, code, userID)
}

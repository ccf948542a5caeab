package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/shared"
)

// PageState is the lifecycle of a blend screen.
type PageState int

const (
	Uninitialized PageState = iota
	AuthPending
	AuthFailed
	Ready
)

func (s PageState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case AuthPending:
		return "auth_pending"
	case AuthFailed:
		return "auth_failed"
	case Ready:
		return "ready"
	default:
		return ""
	}
}

// CardState is the load state of one blend's detail, tracked per code.
type CardState int

const (
	CardIdle CardState = iota
	CardLoading
	CardLoaded
	CardLoadFailed
)

func (s CardState) String() string {
	switch s {
	case CardIdle:
		return "idle"
	case CardLoading:
		return "loading"
	case CardLoaded:
		return "loaded"
	case CardLoadFailed:
		return "load_failed"
	default:
		return ""
	}
}

// BlendAPI is the subset of the blend client the screens use.
type BlendAPI interface {
	CreateBlend(ctx context.Context, name string) (*models.BlendSession, error)
	InviteToBlend(ctx context.Context, code, userID string) (*models.InviteResponse, error)
	JoinBlend(ctx context.Context, code string) (*models.BlendSession, error)
	ListBlends(ctx context.Context) ([]models.BlendSummary, error)
	GetBlend(ctx context.Context, code string) (*models.BlendSession, error)
	DeleteBlend(ctx context.Context, code string) error
}

// UserSource resolves the signed-in user.
type UserSource interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

// HistoryAdder records a watched movie.
type HistoryAdder interface {
	AddToHistory(ctx context.Context, entry models.HistoryEntry) error
}

// SummaryCache is the local blend cache.
type SummaryCache interface {
	ReadAll() []models.BlendSummary
	Upsert(summary models.BlendSummary) error
	Remove(code string) error
	RemoveAll(codes []string) error
}

// RecentRecorder remembers titles entered on this device.
type RecentRecorder interface {
	Add(movie models.RecentMovie) error
}

// Deps are the collaborators of a blend screen. Recent is optional.
type Deps struct {
	Blends  BlendAPI
	Users   UserSource
	History HistoryAdder
	Cache   SummaryCache
	Recent  RecentRecorder
}

// Options tune a blend screen. Zero values fall back to the configured defaults.
type Options struct {
	ListInterval       time.Duration
	DetailInterval     time.Duration
	ListRefreshDelay   time.Duration
	DetailRefreshDelay time.Duration
	PruneAfter         int     // consecutive lists a cached code may be missing from; 0 never prunes
	HistoryRate        float64 // history adds per second; 0 is unpaced

	Logger  *log.Logger
	Notices chan<- Notice
	Changed chan<- struct{} // signalled after any state change

	Confirm   func(prompt string) bool // nil confirms
	Clipboard func(text string) error
}

// OptionsFromConfig maps the [polling], [blend] and [history] sections onto Options.
func OptionsFromConfig(cfg *shared.Config) Options {
	return Options{
		ListInterval:       cfg.Polling.ListInterval(),
		DetailInterval:     cfg.Polling.DetailInterval(),
		ListRefreshDelay:   cfg.Polling.ListRefreshDelay(),
		DetailRefreshDelay: cfg.Polling.DetailRefreshDelay(),
		PruneAfter:         cfg.Blend.PruneAfter,
		HistoryRate:        cfg.History.RateLimit,
	}
}

func (o Options) withDefaults() Options {
	p := shared.PollingConfig{}
	if o.ListInterval <= 0 {
		o.ListInterval = p.ListInterval()
	}
	if o.DetailInterval <= 0 {
		o.DetailInterval = p.DetailInterval()
	}
	if o.ListRefreshDelay <= 0 {
		o.ListRefreshDelay = p.ListRefreshDelay()
	}
	if o.DetailRefreshDelay <= 0 {
		o.DetailRefreshDelay = p.DetailRefreshDelay()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Clipboard == nil {
		o.Clipboard = clipboard.WriteAll
	}
	return o
}

// core holds what the list and detail screens share: auth state, per-code detail loading and the mount lifetime.
type core struct {
	deps   Deps
	opts   Options
	logger *log.Logger

	mu      sync.Mutex
	state   PageState
	user    *models.User
	mounted bool
	life    context.Context
	stop    context.CancelFunc
	loading map[string]bool
	cards   map[string]CardState
	details map[string]*models.BlendSession
}

func newCore(deps Deps, opts Options) *core {
	opts = opts.withDefaults()
	return &core{
		deps:    deps,
		opts:    opts,
		logger:  opts.Logger,
		loading: make(map[string]bool),
		cards:   make(map[string]CardState),
		details: make(map[string]*models.BlendSession),
	}
}

// sendNotice sends a notice through the channel without blocking.
func (c *core) sendNotice(n Notice) {
	if c.opts.Notices == nil {
		return
	}
	select {
	case c.opts.Notices <- n:
	default:
		c.logger.Debug("notice dropped", "title", n.Title)
	}
}

func (c *core) changed() {
	if c.opts.Changed == nil {
		return
	}
	select {
	case c.opts.Changed <- struct{}{}:
	default:
	}
}

// mount starts a new lifetime derived from ctx and returns it.
func (c *core) mount(ctx context.Context) context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stop != nil {
		c.stop()
	}
	c.life, c.stop = context.WithCancel(ctx)
	c.mounted = true
	return c.life
}

// Unmount ends the lifetime: pending refreshes are cancelled and late responses are discarded.
func (c *core) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mounted = false
	if c.stop != nil {
		c.stop()
	}
}

func (c *core) lifetime() (context.Context, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.life, c.mounted
}

// State returns the page state.
func (c *core) State() PageState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// User returns the signed-in user once Ready.
func (c *core) User() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *core) authenticate(ctx context.Context, msg string) error {
	c.mu.Lock()
	c.state = AuthPending
	c.mu.Unlock()

	user, err := c.deps.Users.CurrentUser(ctx)

	c.mu.Lock()
	if err != nil {
		c.state = AuthFailed
	} else {
		c.state = Ready
		c.user = user
	}
	c.mu.Unlock()
	c.changed()

	if err != nil {
		c.logger.Warn("authentication failed", "error", err)
		n := Notice{Level: LevelError, Title: "Authentication Error", Message: msg, Navigate: RouteLogin}
		c.sendNotice(n)
		return &Failure{Title: n.Title, Message: msg, Kind: shared.ErrAuthRequired, Err: err}
	}
	return nil
}

// authLost moves a Ready page to AuthFailed when err is an authentication failure. It reports whether it did.
func (c *core) authLost(err error, msg string) bool {
	if !errors.Is(err, shared.ErrAuthRequired) {
		return false
	}

	c.mu.Lock()
	wasReady := c.state == Ready
	c.state = AuthFailed
	c.mu.Unlock()

	if wasReady {
		c.sendNotice(Notice{Level: LevelError, Title: "Authentication Error", Message: msg, Navigate: RouteLogin})
		c.changed()
	}
	return true
}

// fetchDetail loads one blend unless a load for the same code is already in flight, in which case it returns false.
// A failed load keeps the previous detail.
func (c *core) fetchDetail(ctx context.Context, code string) (bool, error) {
	c.mu.Lock()
	if c.loading[code] {
		c.mu.Unlock()
		return false, nil
	}
	c.loading[code] = true
	c.cards[code] = CardLoading
	c.mu.Unlock()
	c.changed()

	session, err := c.deps.Blends.GetBlend(ctx, code)

	c.mu.Lock()
	delete(c.loading, code)
	if !c.mounted {
		c.mu.Unlock()
		return true, err
	}
	if err != nil {
		c.cards[code] = CardLoadFailed
	} else {
		c.details[code] = session
		c.cards[code] = CardLoaded
	}
	c.mu.Unlock()
	c.changed()

	if err != nil {
		c.logger.Warn("failed to fetch blend details", "code", code, "error", err)
	}
	return true, err
}

func (c *core) card(code string) (CardState, *models.BlendSession) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session := c.details[code]
	if session != nil {
		cp := *session
		session = &cp
	}
	return c.cards[code], session
}

func (c *core) forget(code string) {
	c.mu.Lock()
	delete(c.details, code)
	delete(c.cards, code)
	c.mu.Unlock()
}

// scheduleRefresh runs fn once after delay, unless the screen is unmounted first.
func (c *core) scheduleRefresh(delay time.Duration, fn func(context.Context)) {
	life, mounted := c.lifetime()
	if !mounted || life == nil {
		return
	}

	go func() {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-life.Done():
		case <-t.C:
			fn(life)
		}
	}()
}

func (c *core) confirmed(prompt string) bool {
	if c.opts.Confirm == nil {
		return true
	}
	return c.opts.Confirm(prompt)
}

func (c *core) cacheUpsert(summary models.BlendSummary) {
	if err := c.deps.Cache.Upsert(summary); err != nil {
		c.logger.Warn("failed to cache blend", "code", summary.Code, "error", err)
	}
}

func (c *core) cacheRemove(code string) {
	if err := c.deps.Cache.Remove(code); err != nil {
		c.logger.Warn("failed to remove cached blend", "code", code, "error", err)
	}
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/shared"
)

const (
	codeLength   = 6
	codeAttempts = 3
	defaultTopN  = 10
)

var (
	errCodesExhausted = errors.New("no free blend code")
	errUsernameTaken  = errors.New("username already registered")
)

type account struct {
	id       int
	username string
	password string
}

type blend struct {
	code    string
	name    string
	members []string
}

type watchlist struct {
	id     string
	owner  string
	name   string
	movies []models.WatchlistMovie
}

// Stub is an in-memory CineAI API for offline use and tests.
//
// It keeps accounts, blends, watch histories and watchlists in memory and issues signed bearer tokens.
// Blend recommendations are assembled from member histories with a deterministic score.
type Stub struct {
	mu         sync.Mutex
	accounts   map[string]*account
	blends     map[string]*blend
	order      []string
	histories  map[string][]models.WatchHistoryItem
	watchlists map[string]*watchlist
	nextID     int

	tokens  *tokenIssuer
	logger  *log.Logger
	now     func() time.Time
	newCode func() string
	router  *BasicRouter
}

// StubOption configures a [Stub].
type StubOption func(*Stub)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) StubOption {
	return func(s *Stub) { s.logger = l }
}

// WithSecret fixes the token signing secret so tokens survive a restart.
func WithSecret(secret string) StubOption {
	return func(s *Stub) { s.tokens = newTokenIssuer(secret, s.tokens.ttl) }
}

// WithTokenTTL sets how long issued tokens are valid.
func WithTokenTTL(ttl time.Duration) StubOption {
	return func(s *Stub) { s.tokens.ttl = ttl }
}

// WithClock replaces time.Now for timestamps and token expiry.
func WithClock(now func() time.Time) StubOption {
	return func(s *Stub) { s.now = now }
}

// WithCodes replaces the blend code generator.
func WithCodes(gen func() string) StubOption {
	return func(s *Stub) { s.newCode = gen }
}

// NewStub creates an empty stub API.
func NewStub(opts ...StubOption) *Stub {
	s := &Stub{
		accounts:   make(map[string]*account),
		blends:     make(map[string]*blend),
		histories:  make(map[string][]models.WatchHistoryItem),
		watchlists: make(map[string]*watchlist),
		tokens:     newTokenIssuer("", DefaultTokenTTL),
		logger:     log.Default(),
		now:        time.Now,
		newCode:    randomCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tokens.now = s.now
	s.router = s.routes()
	return s
}

func randomCode() string {
	return strings.ToUpper(strings.ReplaceAll(shared.GenerateID(), "-", "")[:codeLength])
}

func (s *Stub) routes() *BasicRouter {
	r := NewBasicRouter()
	r.Use(Recoverer(s.logger), RequestLogger(s.logger))

	r.Handle(http.MethodGet, "/{$}", http.HandlerFunc(s.health))
	r.Handle(http.MethodPost, "/signup", http.HandlerFunc(s.signup))
	r.Handle(http.MethodPost, "/login", http.HandlerFunc(s.login))

	auth := Middleware(s.BearerAuth)
	r.Handle(http.MethodGet, "/me", http.HandlerFunc(s.me), auth)

	r.Handle(http.MethodPost, "/recommend", http.HandlerFunc(s.recommend), auth)
	r.Handle(http.MethodPost, "/recommend/history", http.HandlerFunc(s.recommendHistory), auth)

	r.Handle(http.MethodPost, "/blend/create", http.HandlerFunc(s.createBlend), auth)
	r.Handle(http.MethodPost, "/blend/invite", http.HandlerFunc(s.inviteToBlend), auth)
	r.Handle(http.MethodPost, "/blend/join", http.HandlerFunc(s.joinBlend), auth)
	r.Handle(http.MethodGet, "/blends", http.HandlerFunc(s.listBlends), auth)
	r.Handle(http.MethodGet, "/blend/{code}", http.HandlerFunc(s.getBlend), auth)
	r.Handle(http.MethodDelete, "/blend/{code}", http.HandlerFunc(s.deleteBlend), auth)

	r.Handle(http.MethodPost, "/history/add", http.HandlerFunc(s.addHistory), auth)
	r.Handle(http.MethodGet, "/history", http.HandlerFunc(s.history), auth)

	r.Handle(http.MethodPost, "/watchlists", http.HandlerFunc(s.createWatchlist), auth)
	r.Handle(http.MethodGet, "/watchlists", http.HandlerFunc(s.listWatchlists), auth)
	r.Handle(http.MethodGet, "/watchlists/{id}", http.HandlerFunc(s.getWatchlist), auth)
	r.Handle(http.MethodDelete, "/watchlists/{id}", http.HandlerFunc(s.deleteWatchlist), auth)
	r.Handle(http.MethodPost, "/watchlists/{id}/movies", http.HandlerFunc(s.addWatchlistMovie), auth)
	r.Handle(http.MethodDelete, "/watchlists/{id}/movies/{movie}", http.HandlerFunc(s.removeWatchlistMovie), auth)
	return r
}

// ServeHTTP implements [http.Handler].
func (s *Stub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the stub's router.
func (s *Stub) Handler() http.Handler { return s.router }

// Register creates an account directly and returns a token for it. Used to seed demos and tests.
func (s *Stub) Register(username, password string) (string, error) {
	s.mu.Lock()
	_, err := s.addAccount(username, password)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	return s.tokens.issue(username)
}

// Token issues a fresh token for an existing account.
func (s *Stub) Token(username string) (string, error) {
	if _, ok := s.account(username); !ok {
		return "", fmt.Errorf("%w: user %s", shared.ErrNotFound, username)
	}
	return s.tokens.issue(username)
}

func (s *Stub) account(username string) (*account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[username]
	return a, ok
}

// addAccount must be called with mu held.
func (s *Stub) addAccount(username, password string) (*account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", shared.ErrInvalidInput)
	}
	if _, taken := s.accounts[username]; taken {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, errUsernameTaken)
	}
	s.nextID++
	a := &account{id: s.nextID, username: username, password: password}
	s.accounts[username] = a
	return a, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeDetail answers in FastAPI's error shape.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return false
	}
	return true
}

type userJSON struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type authJSON struct {
	Message     string   `json:"message"`
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        userJSON `json:"user"`
}

func (s *Stub) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Movie Recommendation API is running."})
}

func (s *Stub) grant(w http.ResponseWriter, status int, a *account, msg string) {
	token, err := s.tokens.issue(a.username)
	if err != nil {
		s.logger.Error("token signing failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, status, authJSON{
		Message:     msg,
		AccessToken: token,
		TokenType:   "bearer",
		User:        userJSON{ID: a.id, Username: a.username},
	})
}

func (s *Stub) signup(w http.ResponseWriter, r *http.Request) {
	var body models.Credentials
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	a, err := s.addAccount(body.Username, body.Password)
	s.mu.Unlock()
	if err != nil {
		msg := "Username and password are required"
		if errors.Is(err, errUsernameTaken) {
			msg = "Username already registered"
		}
		writeDetail(w, http.StatusBadRequest, msg)
		return
	}
	s.grant(w, http.StatusOK, a, "User created successfully")
}

func (s *Stub) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid form body")
		return
	}

	a, ok := s.account(strings.TrimSpace(r.PostForm.Get("username")))
	if !ok || a.password != r.PostForm.Get("password") {
		writeDetail(w, http.StatusBadRequest, "Incorrect username or password")
		return
	}
	s.grant(w, http.StatusOK, a, "Login successful")
}

func (s *Stub) me(w http.ResponseWriter, r *http.Request) {
	a, _ := s.account(requestUser(r))
	writeJSON(w, http.StatusOK, map[string]userJSON{"user": {ID: a.id, Username: a.username}})
}

func (s *Stub) titles(username string) []string {
	items := s.histories[username]
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.MovieName)
	}
	return out
}

func (s *Stub) recommend(w http.ResponseWriter, r *http.Request) {
	var body models.MoodRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.TopN <= 0 {
		body.TopN = defaultTopN
	}

	recs, err := recommendByMood(body.Mood, body.UserHistory, body.TopN)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Unknown mood: %s", body.Mood))
		return
	}
	writeJSON(w, http.StatusOK, models.RecommendationList{Recommendations: recs})
}

func (s *Stub) recommendHistory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TopN int `json:"top_n"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.TopN <= 0 {
		body.TopN = defaultTopN
	}

	s.mu.Lock()
	titles := s.titles(requestUser(r))
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, recommendByHistory(titles, body.TopN))
}

// sessionJSON renders a blend the way the API does, code under blend_code.
type sessionJSON struct {
	Code              string                       `json:"blend_code"`
	Name              string                       `json:"name"`
	Users             []string                     `json:"users"`
	UserTags          map[string]string            `json:"user_tags"`
	Recommendations   []models.BlendRecommendation `json:"recommendations"`
	OverallMatchScore string                       `json:"overall_match_score"`
}

// session must be called with mu held.
func (s *Stub) session(b *blend) sessionJSON {
	tags := make(map[string]string, len(b.members))
	histories := make([][]string, 0, len(b.members))
	for _, m := range b.members {
		titles := s.titles(m)
		histories = append(histories, titles)
		if tag := userTag(titles); tag != "" {
			tags[m] = tag
		}
	}
	recs, score := blendRecommendations(histories, defaultTopN)
	return sessionJSON{
		Code:              b.code,
		Name:              b.name,
		Users:             slices.Clone(b.members),
		UserTags:          tags,
		Recommendations:   recs,
		OverallMatchScore: score,
	}
}

// lookup finds a blend the caller belongs to, answering 404 or 403 otherwise. Must be called with mu held.
func (s *Stub) lookup(w http.ResponseWriter, code, username string) (*blend, bool) {
	b, ok := s.blends[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Blend not found")
		return nil, false
	}
	if !slices.Contains(b.members, username) {
		writeDetail(w, http.StatusForbidden, "Not a member of this blend")
		return nil, false
	}
	return b, true
}

func (s *Stub) createBlend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		writeDetail(w, http.StatusBadRequest, "Blend name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := s.freeCode()
	if err != nil {
		s.logger.Error("blend code generation failed", "error", err)
		writeDetail(w, http.StatusServiceUnavailable, "Could not allocate a blend code")
		return
	}

	b := &blend{code: code, name: name, members: []string{requestUser(r)}}
	s.blends[code] = b
	s.order = append(s.order, code)
	writeJSON(w, http.StatusOK, s.session(b))
}

// freeCode draws codes until one is unused. Must be called with mu held.
func (s *Stub) freeCode() (string, error) {
	for range codeAttempts {
		code := s.newCode()
		if _, taken := s.blends[code]; !taken && code != "" {
			return code, nil
		}
	}
	return "", errCodesExhausted
}

func (s *Stub) joinBlend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blends[strings.ToUpper(strings.TrimSpace(body.Code))]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Blend not found")
		return
	}
	if user := requestUser(r); !slices.Contains(b.members, user) {
		b.members = append(b.members, user)
	}
	writeJSON(w, http.StatusOK, s.session(b))
}

func (s *Stub) inviteToBlend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code   string `json:"blend_code"`
		UserID string `json:"user_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.lookup(w, body.Code, requestUser(r))
	if !ok {
		return
	}
	invitee := s.resolveUser(body.UserID)
	if invitee == "" {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if slices.Contains(b.members, invitee) {
		writeJSON(w, http.StatusOK, models.MessageResponse{Msg: fmt.Sprintf("%s is already in this blend", invitee)})
		return
	}
	b.members = append(b.members, invitee)
	writeJSON(w, http.StatusOK, models.MessageResponse{Msg: fmt.Sprintf("Invited %s to blend %s", invitee, b.code)})
}

// resolveUser accepts a username or a numeric account id. Must be called with mu held.
func (s *Stub) resolveUser(ref string) string {
	ref = strings.TrimSpace(ref)
	if a, ok := s.accounts[ref]; ok {
		return a.username
	}
	if id, err := strconv.Atoi(ref); err == nil {
		for _, a := range s.accounts {
			if a.id == id {
				return a.username
			}
		}
	}
	return ""
}

func (s *Stub) listBlends(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	list := []models.BlendSummary{}
	for _, code := range s.order {
		if b := s.blends[code]; slices.Contains(b.members, user) {
			list = append(list, models.BlendSummary{Code: b.code, Name: b.name})
		}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Stub) getBlend(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.lookup(w, r.PathValue("code"), requestUser(r)); ok {
		writeJSON(w, http.StatusOK, s.session(b))
	}
}

func (s *Stub) deleteBlend(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.lookup(w, r.PathValue("code"), requestUser(r))
	if !ok {
		return
	}
	delete(s.blends, b.code)
	s.order = slices.DeleteFunc(s.order, func(c string) bool { return c == b.code })
	writeJSON(w, http.StatusOK, models.MessageResponse{Msg: "Blend deleted"})
}

func (s *Stub) addHistory(w http.ResponseWriter, r *http.Request) {
	var body models.HistoryEntry
	if !decodeBody(w, r, &body) {
		return
	}
	if err := shared.ValidateStruct(body); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.MovieID == "" {
		body.MovieID = shared.ManualMovieID()
	}

	user := requestUser(r)
	s.mu.Lock()
	s.histories[user] = append(s.histories[user], models.WatchHistoryItem{
		MovieID:   body.MovieID,
		MovieName: strings.TrimSpace(body.MovieName),
		WatchedAt: s.now().UTC(),
	})
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.MessageResponse{Msg: "Movie added to history"})
}

func (s *Stub) history(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := slices.Clone(s.histories[requestUser(r)])
	s.mu.Unlock()

	slices.Reverse(items)
	if items == nil {
		items = []models.WatchHistoryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (wl *watchlist) model() models.Watchlist {
	movies := slices.Clone(wl.movies)
	if movies == nil {
		movies = []models.WatchlistMovie{}
	}
	return models.Watchlist{ID: wl.id, Name: wl.name, Movies: movies}
}

// ownedWatchlist finds one of the caller's watchlists or answers 404. Must be called with mu held.
func (s *Stub) ownedWatchlist(w http.ResponseWriter, r *http.Request) (*watchlist, bool) {
	wl, ok := s.watchlists[r.PathValue("id")]
	if !ok || wl.owner != requestUser(r) {
		writeDetail(w, http.StatusNotFound, "Watchlist not found")
		return nil, false
	}
	return wl, true
}

func (s *Stub) createWatchlist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeDetail(w, http.StatusBadRequest, "Watchlist name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wl := &watchlist{id: shared.GenerateID(), owner: requestUser(r), name: strings.TrimSpace(body.Name)}
	s.watchlists[wl.id] = wl
	writeJSON(w, http.StatusOK, wl.model())
}

func (s *Stub) listWatchlists(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	lists := []models.Watchlist{}
	for _, wl := range s.watchlists {
		if wl.owner == user {
			lists = append(lists, wl.model())
		}
	}
	slices.SortFunc(lists, func(a, b models.Watchlist) int { return strings.Compare(a.Name, b.Name) })
	writeJSON(w, http.StatusOK, lists)
}

func (s *Stub) getWatchlist(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wl, ok := s.ownedWatchlist(w, r); ok {
		writeJSON(w, http.StatusOK, wl.model())
	}
}

func (s *Stub) deleteWatchlist(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wl, ok := s.ownedWatchlist(w, r); ok {
		delete(s.watchlists, wl.id)
		writeJSON(w, http.StatusOK, models.MessageResponse{Msg: "Watchlist deleted"})
	}
}

func (s *Stub) addWatchlistMovie(w http.ResponseWriter, r *http.Request) {
	var body models.WatchlistMovieRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if err := shared.ValidateStruct(body); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wl, ok := s.ownedWatchlist(w, r)
	if !ok {
		return
	}
	if body.MovieID == "" {
		body.MovieID = shared.ManualMovieID()
	}
	entry := models.WatchlistMovie{ID: shared.GenerateID(), MovieID: body.MovieID, MovieName: strings.TrimSpace(body.MovieName)}
	wl.movies = append(wl.movies, entry)
	writeJSON(w, http.StatusOK, entry)
}

func (s *Stub) removeWatchlistMovie(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wl, ok := s.ownedWatchlist(w, r)
	if !ok {
		return
	}
	ref := r.PathValue("movie")
	n := len(wl.movies)
	wl.movies = slices.DeleteFunc(wl.movies, func(m models.WatchlistMovie) bool { return m.MovieID == ref || m.ID == ref })
	if len(wl.movies) == n {
		writeDetail(w, http.StatusNotFound, "Movie not in watchlist")
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Msg: "Movie removed"})
}

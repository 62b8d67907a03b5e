// Package web serves a match to browsers on the local machine: the board, the
// pending decision, and live updates as moves are made.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/LDs31100113/TriviaFX-UCAB/boardgen"
	"github.com/LDs31100113/TriviaFX-UCAB/game"
	"github.com/LDs31100113/TriviaFX-UCAB/hub"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/websocket"
)

const tableCookie = "Table"

// Srv hosts a single table. Starting a new match replaces whatever was being
// played, like the desktop game does.
type Srv struct {
	sc  *securecookie.SecureCookie
	h   *hub.Hub
	mux *mux.Router
	db  trivia.DB
	cfg *game.Config
	log *slog.Logger

	upgrader websocket.Upgrader

	mu sync.Mutex
	g  *game.Session
}

// New returns an initialized server. Matches are created with cfg, which must
// have a question source.
func New(db trivia.DB, cfg *game.Config, sc *securecookie.SecureCookie) *Srv {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Srv{
		sc:  sc,
		h:   hub.New(logger),
		db:  db,
		cfg: cfg,
		log: logger,
	}
	s.mux = s.initMux()
	return s
}

func (s *Srv) initMux() *mux.Router {
	m := mux.NewRouter()
	m.HandleFunc("/api/board", s.handle(s.serveBoard)).Methods("GET")
	m.HandleFunc("/api/stats", s.handle(s.serveStats)).Methods("GET")

	// Roster.
	m.HandleFunc("/api/profiles", s.handle(s.serveProfiles)).Methods("GET")
	m.HandleFunc("/api/profiles", s.handle(s.serveCreateProfile)).Methods("POST")

	// New game.
	m.HandleFunc("/api/game", s.handle(s.serveCreateGame)).Methods("POST")
	// Resume the saved game.
	m.HandleFunc("/api/game/resume", s.handle(s.serveResumeGame)).Methods("POST")
	// Get game.
	m.HandleFunc("/api/game", s.handle(s.requireTable(s.serveGame))).Methods("GET")

	// Moves.
	m.HandleFunc("/api/game/roll", s.handle(s.requireTable(s.serveRoll))).Methods("POST")
	m.HandleFunc("/api/game/spoke", s.handle(s.requireTable(s.serveSpoke))).Methods("POST")
	m.HandleFunc("/api/game/answer", s.handle(s.requireTable(s.serveAnswer))).Methods("POST")
	m.HandleFunc("/api/game/category", s.handle(s.requireTable(s.serveCategory))).Methods("POST")
	m.HandleFunc("/api/game/surrender", s.handle(s.requireTable(s.serveSurrender))).Methods("POST")

	// WebSocket handler for the game.
	m.HandleFunc("/api/game/ws", s.handle(s.requireTable(s.serveData))).Methods("GET")

	return m
}

func (s *Srv) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// tableHandlerFunc is a handler for the match the caller is sitting at. It
// runs with the table locked.
type tableHandlerFunc func(w http.ResponseWriter, r *http.Request, g *game.Session) error

type httpError struct {
	code int
	msg  string
}

func (e *httpError) Error() string { return e.msg }

func httpErrorf(code int, format string, args ...interface{}) error {
	return &httpError{code: code, msg: fmt.Sprintf(format, args...)}
}

func (s *Srv) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		code := statusCode(err)
		if code >= http.StatusInternalServerError {
			s.log.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		http.Error(w, err.Error(), code)
	}
}

func statusCode(err error) int {
	var herr *httpError
	switch {
	case errors.As(err, &herr):
		return herr.code
	case errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrWrongPhase),
		errors.Is(err, game.ErrMatchOver),
		errors.Is(err, trivia.ErrProfileExists):
		return http.StatusConflict
	case errors.Is(err, trivia.ErrNoSavedState):
		return http.StatusNotFound
	case errors.Is(err, trivia.ErrInvalidArgument),
		errors.Is(err, trivia.ErrOutOfRange):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// requireTable only lets through callers holding the cookie for the match
// being played, so a tab left open on an old match can't move in the new one.
func (s *Srv) requireTable(fn tableHandlerFunc) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := s.loadTable(r)
		if err != nil {
			return err
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.g == nil {
			return httpErrorf(http.StatusNotFound, "no match is being played")
		}
		if id != s.g.ID() {
			return httpErrorf(http.StatusForbidden, "not seated at this table")
		}
		return fn(w, r, s.g)
	}
}

func (s *Srv) loadTable(r *http.Request) (trivia.MatchID, error) {
	c, err := r.Cookie(tableCookie)
	if err == http.ErrNoCookie {
		return "", httpErrorf(http.StatusForbidden, "not seated at a table")
	}
	if err != nil {
		return "", err
	}

	var id string
	if err := s.sc.Decode("table", c.Value, &id); err != nil {
		// Most likely a cookie from before the keys changed.
		return "", httpErrorf(http.StatusForbidden, "not seated at a table")
	}
	return trivia.MatchID(id), nil
}

func (s *Srv) seat(w http.ResponseWriter, id trivia.MatchID) error {
	encoded, err := s.sc.Encode("table", string(id))
	if err != nil {
		return fmt.Errorf("failed to encode table cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     tableCookie,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

func (s *Srv) serveProfiles(w http.ResponseWriter, r *http.Request) error {
	ps, err := s.db.Profiles()
	if err != nil {
		return err
	}
	if ps == nil {
		ps = []*trivia.PlayerProfile{}
	}
	jsonResp(w, ps)
	return nil
}

func (s *Srv) serveCreateProfile(w http.ResponseWriter, r *http.Request) error {
	var req trivia.PlayerProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httpErrorf(http.StatusBadRequest, "bad request: %v", err)
	}
	p := &trivia.PlayerProfile{
		Email: strings.TrimSpace(req.Email),
		Alias: strings.TrimSpace(req.Alias),
	}
	if err := s.db.NewProfile(p); err != nil {
		return err
	}
	jsonResp(w, p)
	return nil
}

func (s *Srv) serveCreateGame(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Aliases []string `json:"aliases"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httpErrorf(http.StatusBadRequest, "bad request: %v", err)
	}

	roster, err := s.db.Profiles()
	if err != nil {
		return err
	}
	byAlias := make(map[string]*trivia.PlayerProfile)
	for _, p := range roster {
		byAlias[p.Alias] = p
	}
	var profiles []*trivia.PlayerProfile
	for _, a := range req.Aliases {
		p, ok := byAlias[strings.TrimSpace(a)]
		if !ok {
			return httpErrorf(http.StatusBadRequest, "no profile with alias %q", a)
		}
		profiles = append(profiles, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := game.New(profiles, s.cfg)
	if err != nil {
		return err
	}
	// Save right away, so the new match replaces any older saved one.
	if err := s.checkpoint(g); err != nil {
		return err
	}
	return s.sit(w, g)
}

func (s *Srv) serveResumeGame(w http.ResponseWriter, r *http.Request) error {
	state, err := s.db.SavedState()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := game.FromSaved(state, s.cfg)
	if err != nil {
		return err
	}
	return s.sit(w, g)
}

// sit makes g the match being played and seats the caller at it.
func (s *Srv) sit(w http.ResponseWriter, g *game.Session) error {
	if err := s.seat(w, g.ID()); err != nil {
		return err
	}
	s.g = g
	jsonResp(w, newGameState(g))
	return nil
}

func (s *Srv) serveGame(w http.ResponseWriter, r *http.Request, g *game.Session) error {
	jsonResp(w, newGameState(g))
	return nil
}

func (s *Srv) serveRoll(w http.ResponseWriter, r *http.Request, g *game.Session) error {
	var req struct {
		Player string `json:"player"`
	}
	if err := decodeOptional(r, &req); err != nil {
		return err
	}
	return s.move(w, g, &game.Move{Player: req.Player, Action: game.ActionRoll})
}

func (s *Srv) serveSpoke(w http.ResponseWriter, r *http.Request, g *game.Session) error {
	var req struct {
		Player string `json:"player"`
		Enter  bool   `json:"enter_spoke"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httpErrorf(http.StatusBadRequest, "bad request: %v", err)
	}
	return s.move(w, g, &game.Move{Player: req.Player, Action: game.ActionChooseSpoke, EnterSpoke: req.Enter})
}

func (s *Srv) serveAnswer(w http.ResponseWriter, r *http.Request, g *game.Session) error {
	var req struct {
		Player    string `json:"player"`
		Answer    string `json:"answer"`
		ElapsedMS int64  `json:"elapsed_ms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httpErrorf(http.StatusBadRequest, "bad request: %v", err)
	}
	return s.move(w, g, &game.Move{
		Player:    req.Player,
		Action:    game.ActionAnswer,
		Answer:    req.Answer,
		ElapsedMS: req.ElapsedMS,
	})
}

func (s *Srv) serveCategory(w http.ResponseWriter, r *http.Request, g *game.Session) error {
	var req struct {
		Player   string          `json:"player"`
		Category trivia.Category `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httpErrorf(http.StatusBadRequest, "bad request: %v", err)
	}
	return s.move(w, g, &game.Move{Player: req.Player, Action: game.ActionChooseCategory, Category: req.Category})
}

func (s *Srv) serveSurrender(w http.ResponseWriter, r *http.Request, g *game.Session) error {
	var req struct {
		Player string `json:"player"`
	}
	if err := decodeOptional(r, &req); err != nil {
		return err
	}
	return s.move(w, g, &game.Move{Player: req.Player, Action: game.ActionSurrender})
}

// move plays mv, tells everyone watching and then persists the match. Save
// failures are only logged, the move has already happened.
func (s *Srv) move(w http.ResponseWriter, g *game.Session, mv *game.Move) error {
	res, status, err := g.Move(mv)
	if err != nil {
		return err
	}

	msg := &MoveMsg{Result: res, Game: newGameState(g)}
	if err := s.h.ToMatch(g.ID(), msg); err != nil {
		s.log.Error("failed to broadcast move", slog.String("match_id", string(g.ID())), slog.Any("error", err))
	}
	jsonResp(w, msg)

	if status == game.Playing {
		err = s.checkpoint(g)
	} else {
		err = g.RecordStats(s.db)
	}
	if err != nil {
		s.log.Error("failed to persist match", slog.String("match_id", string(g.ID())), slog.Any("error", err))
	}
	return nil
}

// checkpoint saves the match if it's between turns. Mid-turn states aren't
// saved, the last save stands until the turn is over.
func (s *Srv) checkpoint(g *game.Session) error {
	if g.Phase() != game.AwaitingRoll {
		return nil
	}
	state, err := g.Snapshot()
	if err != nil {
		return err
	}
	return s.db.SaveState(state)
}

func (s *Srv) serveData(w http.ResponseWriter, r *http.Request, g *game.Session) error {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		s.log.Warn("failed to upgrade connection", slog.Any("error", err))
		return nil
	}
	s.h.Register(ws, g.ID())
	if err := s.h.ToMatch(g.ID(), &StateMsg{Game: newGameState(g)}); err != nil {
		s.log.Error("failed to send state", slog.Any("error", err))
	}
	return nil
}

func (s *Srv) serveStats(w http.ResponseWriter, r *http.Request) error {
	stats, err := s.db.Stats()
	if err != nil {
		return err
	}
	if stats == nil {
		stats = []*trivia.PlayerStats{}
	}
	jsonResp(w, stats)
	return nil
}

type jsCell struct {
	Category   trivia.Category `json:"category"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Reroll     bool            `json:"reroll,omitempty"`
	SpokeEntry bool            `json:"spoke_entry,omitempty"`
}

type jsBoard struct {
	Circle []jsCell   `json:"circle"`
	Spokes [][]jsCell `json:"spokes"`
}

func (s *Srv) serveBoard(w http.ResponseWriter, r *http.Request) error {
	s.mu.Lock()
	b := s.cfg.Board
	if s.g != nil {
		b = s.g.Board()
	}
	s.mu.Unlock()
	if b == nil {
		b = boardgen.New()
	}

	jsonResp(w, toJSBoard(b))
	return nil
}

func toJSBoard(b *trivia.Board) *jsBoard {
	toJS := func(cells []trivia.Cell) []jsCell {
		out := make([]jsCell, len(cells))
		for i, c := range cells {
			out[i] = jsCell{
				Category:   c.Category,
				Name:       c.Category.String(),
				Color:      c.Category.Color(),
				Reroll:     c.Reroll,
				SpokeEntry: c.SpokeEntry,
			}
		}
		return out
	}

	jb := &jsBoard{Circle: toJS(b.Circle())}
	for _, sp := range b.Spokes() {
		jb.Spokes = append(jb.Spokes, toJS(sp))
	}
	return jb
}

// decodeOptional decodes a JSON body if there is one.
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return httpErrorf(http.StatusBadRequest, "bad request: %v", err)
	}
	return nil
}

// LoadKeys loads the cookie keys from dir, generating any that don't exist
// yet.
func LoadKeys(dir string) (*securecookie.SecureCookie, error) {
	hashKey, err := loadOrGenKey(filepath.Join(dir, "hashKey"))
	if err != nil {
		return nil, err
	}

	blockKey, err := loadOrGenKey(filepath.Join(dir, "blockKey"))
	if err != nil {
		return nil, err
	}

	return securecookie.New(hashKey, blockKey), nil
}

func loadOrGenKey(name string) ([]byte, error) {
	f, err := os.ReadFile(name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}

	dat := securecookie.GenerateRandomKey(32)
	if dat == nil {
		return nil, errors.New("failed to generate key")
	}

	if err := os.WriteFile(name, dat, 0600); err != nil {
		return nil, fmt.Errorf("failed to write key: %w", err)
	}
	return dat, nil
}

func jsonResp(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("jsonResp", slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

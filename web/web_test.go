package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LDs31100113/TriviaFX-UCAB/dice"
	"github.com/LDs31100113/TriviaFX-UCAB/game"
	"github.com/LDs31100113/TriviaFX-UCAB/memdb"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/websocket"
)

type fakeQuestions map[trivia.Category]*trivia.Question

func (f fakeQuestions) RandomQuestion(cat trivia.Category) (*trivia.Question, error) {
	q, ok := f[cat]
	if !ok {
		return nil, trivia.ErrNoQuestions
	}
	return q, nil
}

var testQuestions = fakeQuestions{
	trivia.History: {Prompt: "¿Año de la independencia?", Answer: "1811"},
	trivia.Sports:  {Prompt: "¿Deporte nacional?", Answer: "Béisbol"},
}

func TestMatch(t *testing.T) {
	env := setup(t)

	if err := env.srv.requireTable(env.srv.serveGame)(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/game", nil)); statusCode(err) != http.StatusForbidden {
		t.Errorf("loading a game without a seat = %v, want a 403", err)
	}

	st := env.createGame(t, "ana", "luis")
	want := &game.Pending{Phase: game.AwaitingRoll, Player: "ana"}
	if diff := cmp.Diff(want, st.Pending); diff != "" {
		t.Errorf("unexpected pending decision (-want +got)\n%s", diff)
	}
	if st.Status != game.Playing || len(st.Players) != 2 {
		t.Errorf("new game is %s with %d players", st.Status, len(st.Players))
	}
	if ok, err := env.db.HasSavedState(); err != nil || !ok {
		t.Errorf("HasSavedState() = %t, %v after a new game, want true", ok, err)
	}

	if err := env.tryMove(t, "answer", map[string]string{"answer": "x"}); statusCode(err) != http.StatusConflict {
		t.Errorf("answering with no question = %v, want a 409", err)
	}

	// Ana rolls a 3 out of the center, onto a Sports reroll cell.
	msg := env.move(t, "roll", nil)
	if msg.Result.Steps != 3 || !msg.Result.Moved {
		t.Errorf("unexpected roll %+v", msg.Result)
	}
	want = &game.Pending{Phase: game.PendingQuestion, Player: "ana", Category: trivia.Sports, Prompt: "¿Deporte nacional?", ExtraRoll: true}
	if diff := cmp.Diff(want, msg.Game.Pending); diff != "" {
		t.Errorf("unexpected pending decision (-want +got)\n%s", diff)
	}

	msg = env.move(t, "answer", map[string]interface{}{"answer": "Béisbol", "elapsed_ms": 1500})
	if !msg.Result.Correct || msg.Result.Expected != "Béisbol" {
		t.Errorf("unexpected answer %+v", msg.Result)
	}
	saved, err := env.db.SavedState()
	if err != nil {
		t.Fatalf("SavedState: %v", err)
	}
	if !saved.Players[0].Card.HasAcquired(trivia.Sports) {
		t.Error("saved game doesn't have Sports on ana's card")
	}

	// Then a History question, answered wrong.
	env.move(t, "roll", nil)
	msg = env.move(t, "answer", map[string]string{"answer": "1821"})
	if msg.Result.Correct || msg.Game.Pending.Player != "luis" {
		t.Errorf("after a wrong answer got %+v, %+v", msg.Result, msg.Game.Pending)
	}

	if err := env.tryMove(t, "surrender", map[string]string{"player": "ana"}); statusCode(err) != http.StatusConflict {
		t.Errorf("ana surrendering on luis' turn = %v, want a 409", err)
	}
	msg = env.move(t, "surrender", map[string]string{"player": "luis"})
	if msg.Game.Status != game.Won || msg.Result.Winner != "ana" {
		t.Errorf("after luis surrendered: %s, %+v", msg.Game.Status, msg.Result)
	}
	if ok, err := env.db.HasSavedState(); err != nil || ok {
		t.Errorf("HasSavedState() = %t, %v after the match, want false", ok, err)
	}
	if err := env.tryMove(t, "roll", nil); statusCode(err) != http.StatusConflict {
		t.Errorf("rolling after the match = %v, want a 409", err)
	}

	got := make(map[string]*trivia.PlayerStats)
	for _, st := range env.stats(t) {
		got[st.Alias] = st
	}
	wantStats := map[string]*trivia.PlayerStats{
		"ana": {
			Alias:             "ana",
			Played:            1,
			Won:               1,
			CorrectByCategory: map[trivia.Category]int{trivia.Sports: 1},
			CorrectMS:         1500,
		},
		"luis": {
			Alias:             "luis",
			Played:            1,
			Lost:              1,
			CorrectByCategory: map[trivia.Category]int{},
		},
	}
	if diff := cmp.Diff(wantStats, got); diff != "" {
		t.Errorf("unexpected stats (-want +got)\n%s", diff)
	}
}

type failingDB struct {
	*memdb.DB
}

func (failingDB) SaveState(*trivia.SavedState) error {
	return errors.New("disk full")
}

func (failingDB) SaveStats([]*trivia.PlayerStats) error {
	return errors.New("disk full")
}

func TestMove_SaveFails(t *testing.T) {
	env := setup(t)
	env.createGame(t, "ana", "luis")

	ts := httptest.NewServer(env.srv)
	defer ts.Close()
	hdr := http.Header{}
	hdr.Set("Cookie", tableCookie+"="+env.table)
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/game/ws", hdr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer ws.Close()
	readMsg(t, ws)

	env.srv.mu.Lock()
	env.srv.db = failingDB{DB: env.db}
	env.srv.mu.Unlock()

	// The roll lands mid-turn, the answer ends the turn and is saved.
	env.move(t, "roll", nil)
	if msg := readMsg(t, ws); msg.Action != "MOVE" || msg.Result.Steps != 3 {
		t.Errorf("unexpected message %s with result %+v", msg.Action, msg.Result)
	}
	msg := env.move(t, "answer", map[string]interface{}{"answer": "Béisbol", "elapsed_ms": 1500})
	if !msg.Result.Correct {
		t.Errorf("unexpected answer %+v", msg.Result)
	}
	if msg := readMsg(t, ws); msg.Action != "MOVE" || !msg.Result.Correct {
		t.Errorf("unexpected message %s with result %+v", msg.Action, msg.Result)
	}

	// Ending the match can't record stats either, but the result still goes out.
	env.move(t, "roll", nil)
	readMsg(t, ws)
	env.move(t, "answer", map[string]string{"answer": "1821"})
	readMsg(t, ws)
	msg = env.move(t, "surrender", map[string]string{"player": "luis"})
	if msg.Game.Status != game.Won || msg.Result.Winner != "ana" {
		t.Errorf("after luis surrendered: %s, %+v", msg.Game.Status, msg.Result)
	}
	if msg := readMsg(t, ws); msg.Action != "MOVE" || msg.Result.Winner != "ana" {
		t.Errorf("unexpected message %s with result %+v", msg.Action, msg.Result)
	}
}

func TestResume(t *testing.T) {
	env := setup(t)

	if err := env.srv.serveResumeGame(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/game/resume", nil)); statusCode(err) != http.StatusNotFound {
		t.Errorf("resuming with no saved game = %v, want a 404", err)
	}

	first := env.createGame(t, "ana", "luis")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/game/resume", nil)
	if err := env.srv.serveResumeGame(w, r); err != nil {
		t.Fatalf("failed to resume game: %v", err)
	}
	env.sitFrom(t, w)
	var st GameState
	fromBody(t, w, &st)
	if st.MatchID != first.MatchID || st.Pending.Player != "ana" {
		t.Errorf("resumed %q with %q up, want %q with ana up", st.MatchID, st.Pending.Player, first.MatchID)
	}
	if msg := env.move(t, "roll", nil); msg.Result.Steps != 3 {
		t.Errorf("unexpected roll after resuming %+v", msg.Result)
	}
}

func TestStaleTable(t *testing.T) {
	env := setup(t)
	env.createGame(t, "ana")

	stale, err := env.srv.sc.Encode("table", "some-old-match")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	env.table = stale
	if err := env.tryMove(t, "roll", nil); statusCode(err) != http.StatusForbidden {
		t.Errorf("rolling from an old table = %v, want a 403", err)
	}

	env.table = "garbage"
	if err := env.tryMove(t, "roll", nil); statusCode(err) != http.StatusForbidden {
		t.Errorf("rolling with a bad cookie = %v, want a 403", err)
	}
}

func TestCreateGame_Invalid(t *testing.T) {
	env := setup(t)

	for _, aliases := range [][]string{{"ana", "pedro"}, {}, {"ana", "ana"}} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/game", toBody(t, map[string][]string{"aliases": aliases}))
		if err := env.srv.serveCreateGame(w, r); statusCode(err) != http.StatusBadRequest {
			t.Errorf("creating a game for %q = %v, want a 400", aliases, err)
		}
	}
}

func TestProfiles(t *testing.T) {
	env := setup(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/profiles", toBody(t, &trivia.PlayerProfile{Email: " maria@ucab.edu.ve ", Alias: "maria"}))
	if err := env.srv.serveCreateProfile(w, r); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/api/profiles", toBody(t, &trivia.PlayerProfile{Email: "ANA@ucab.edu.ve", Alias: "ana2"}))
	if err := env.srv.serveCreateProfile(w, r); statusCode(err) != http.StatusConflict {
		t.Errorf("creating a duplicate profile = %v, want a 409", err)
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/api/profiles", toBody(t, &trivia.PlayerProfile{Email: "ana.maria@ucab.edu.ve", Alias: " ana "}))
	if err := env.srv.serveCreateProfile(w, r); statusCode(err) != http.StatusConflict {
		t.Errorf("reusing an alias = %v, want a 409", err)
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	if err := env.srv.serveProfiles(w, r); err != nil {
		t.Fatalf("failed to load profiles: %v", err)
	}
	var got []*trivia.PlayerProfile
	fromBody(t, w, &got)
	want := []*trivia.PlayerProfile{
		{Email: "ana@ucab.edu.ve", Alias: "ana"},
		{Email: "luis@ucab.edu.ve", Alias: "luis"},
		{Email: "maria@ucab.edu.ve", Alias: "maria"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected profiles (-want +got)\n%s", diff)
	}
}

func TestBoard(t *testing.T) {
	env := setup(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/board", nil)
	if err := env.srv.serveBoard(w, r); err != nil {
		t.Fatalf("failed to load board: %v", err)
	}
	var b jsBoard
	fromBody(t, w, &b)
	if len(b.Circle) != trivia.CircleSize || len(b.Spokes) != trivia.SpokeCount {
		t.Fatalf("board has %d circle cells and %d spokes", len(b.Circle), len(b.Spokes))
	}
	want := jsCell{Category: trivia.Geography, Name: "Geografía", Color: "#0D6ABF", SpokeEntry: true}
	if diff := cmp.Diff(want, b.Circle[0]); diff != "" {
		t.Errorf("unexpected first cell (-want +got)\n%s", diff)
	}
}

func TestWatch(t *testing.T) {
	env := setup(t)
	env.createGame(t, "ana", "luis")

	ts := httptest.NewServer(env.srv)
	defer ts.Close()

	hdr := http.Header{}
	hdr.Set("Cookie", tableCookie+"="+env.table)
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/game/ws", hdr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer ws.Close()

	if msg := readMsg(t, ws); msg.Action != "STATE" || msg.Game.Pending.Player != "ana" {
		t.Errorf("first message was %s for %+v, want the state", msg.Action, msg.Game.Pending)
	}

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/game/roll", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: tableCookie, Value: env.table})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to roll: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("roll returned %s", resp.Status)
	}

	msg := readMsg(t, ws)
	if msg.Action != "MOVE" || msg.Result.Steps != 3 {
		t.Errorf("unexpected message %s with result %+v", msg.Action, msg.Result)
	}
}

type wsMsg struct {
	Action string       `json:"action"`
	Result *game.Result `json:"result"`
	Game   *GameState   `json:"game"`
}

func readMsg(t *testing.T, ws *websocket.Conn) *wsMsg {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg wsMsg
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return &msg
}

func (env *testEnv) createGame(t *testing.T, aliases ...string) *GameState {
	t.Helper()
	req := struct {
		Aliases []string `json:"aliases"`
	}{aliases}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/game", toBody(t, req))
	if err := env.srv.serveCreateGame(w, r); err != nil {
		t.Fatalf("failed to create game: %v", err)
	}
	env.sitFrom(t, w)

	var st GameState
	fromBody(t, w, &st)
	return &st
}

func (env *testEnv) sitFrom(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == tableCookie {
			env.table = c.Value
			return
		}
	}
	t.Fatal("no table cookie was set")
}

func (env *testEnv) tryMove(t *testing.T, action string, body interface{}) error {
	w := httptest.NewRecorder()
	var in io.Reader
	if body != nil {
		in = toBody(t, body)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/game/"+action, in)
	env.addTable(r)

	handlers := map[string]tableHandlerFunc{
		"roll":      env.srv.serveRoll,
		"spoke":     env.srv.serveSpoke,
		"answer":    env.srv.serveAnswer,
		"category":  env.srv.serveCategory,
		"surrender": env.srv.serveSurrender,
	}
	err := env.srv.requireTable(handlers[action])(w, r)
	if err == nil {
		env.last = w
	}
	return err
}

func (env *testEnv) move(t *testing.T, action string, body interface{}) *MoveMsg {
	t.Helper()
	if err := env.tryMove(t, action, body); err != nil {
		t.Fatalf("failed to %s: %v", action, err)
	}
	var msg MoveMsg
	fromBody(t, env.last, &msg)
	return &msg
}

func (env *testEnv) stats(t *testing.T) []*trivia.PlayerStats {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	if err := env.srv.serveStats(w, r); err != nil {
		t.Fatalf("failed to get stats: %v", err)
	}
	var resp []*trivia.PlayerStats
	fromBody(t, w, &resp)
	return resp
}

func (env *testEnv) addTable(r *http.Request) {
	r.AddCookie(&http.Cookie{
		Name:  tableCookie,
		Value: env.table,
	})
}

func toBody(t *testing.T, body interface{}) io.Reader {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	return &buf
}

func fromBody(t *testing.T, w *httptest.ResponseRecorder, resp interface{}) {
	if err := json.NewDecoder(w.Body).Decode(resp); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

type testEnv struct {
	db    *memdb.DB
	srv   *Srv
	table string
	last  *httptest.ResponseRecorder
}

// setup scripts rolls of 3, 5, 1 and 2, with Ana first and leaving the
// center by spoke 0.
func setup(t *testing.T) *testEnv {
	db := memdb.New()
	for _, p := range []*trivia.PlayerProfile{
		{Email: "ana@ucab.edu.ve", Alias: "ana"},
		{Email: "luis@ucab.edu.ve", Alias: "luis"},
	} {
		if err := db.NewProfile(p); err != nil {
			t.Fatalf("NewProfile: %v", err)
		}
	}

	cfg := &game.Config{
		Questions: testQuestions,
		Die:       dice.New(dice.NewSequence(2, 4, 0, 1)),
		Rand:      rand.New(dice.NewSequence(0, 0, 1)),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	return &testEnv{
		db:  db,
		srv: New(db, cfg, setupCookies()),
	}
}

func setupCookies() *securecookie.SecureCookie {
	return securecookie.New(
		[]byte{
			1, 2, 3, 4, 5, 6, 7, 8,
			9, 10, 11, 12, 13, 14, 15, 16,
			17, 18, 19, 20, 21, 22, 23, 24,
			25, 26, 27, 28, 29, 30, 31, 32,
		},
		[]byte{
			33, 34, 35, 36, 37, 38, 39, 40,
			41, 42, 43, 44, 45, 46, 47, 48,
			49, 50, 51, 52, 53, 54, 55, 56,
			57, 58, 59, 60, 61, 62, 63, 64,
		})
}

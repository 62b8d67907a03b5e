package client

import (
	"context"
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
	"github.com/LDs31100113/TriviaFX-UCAB/web"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/securecookie"
)

type fakeQuestions map[trivia.Category]*trivia.Question

func (f fakeQuestions) RandomQuestion(cat trivia.Category) (*trivia.Question, error) {
	q, ok := f[cat]
	if !ok {
		return nil, trivia.ErrNoQuestions
	}
	return q, nil
}

// scripted answers for whoever is up, in order.
type scripted struct {
	choices   []game.Choice
	answers   []string
	announced []*game.Result
}

func (s *scripted) StartRoll(*trivia.Player) (game.Choice, error) {
	if len(s.choices) == 0 {
		return game.ChooseQuit, nil
	}
	c := s.choices[0]
	s.choices = s.choices[1:]
	return c, nil
}

func (s *scripted) ChooseSpoke(*trivia.Player, int) (bool, error) { return false, nil }

func (s *scripted) Answer(*trivia.Player, trivia.Category, string) (string, int64, error) {
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, 1000, nil
}

func (s *scripted) ChooseFinalCategory(*trivia.Player) (trivia.Category, error) {
	return trivia.Geography, nil
}

func (s *scripted) Announce(_ *trivia.Player, res *game.Result) {
	s.announced = append(s.announced, res)
}

func setup(t *testing.T) *Client {
	cfg := &game.Config{
		Questions: fakeQuestions{
			trivia.History: {Prompt: "¿Año de la independencia?", Answer: "1811"},
			trivia.Sports:  {Prompt: "¿Deporte nacional?", Answer: "Béisbol"},
		},
		// Rolls of 3 and 5, with Ana first and leaving the center by spoke 0.
		Die:    dice.New(dice.NewSequence(2, 4)),
		Rand:   rand.New(dice.NewSequence(0, 0)),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	sc := securecookie.New([]byte("0123456789abcdef0123456789abcdef"), []byte("fedcba9876543210fedcba9876543210"))
	ts := httptest.NewServer(web.New(memdb.New(), cfg, sc))
	t.Cleanup(ts.Close)

	c, err := New("http", strings.TrimPrefix(ts.URL, "http://"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, p := range []*trivia.PlayerProfile{
		{Email: "ana@ucab.edu.ve", Alias: "ana"},
		{Email: "luis@ucab.edu.ve", Alias: "luis"},
	} {
		if err := c.NewProfile(p); err != nil {
			t.Fatalf("NewProfile: %v", err)
		}
	}
	return c
}

func TestPlay(t *testing.T) {
	c := setup(t)

	if _, err := c.Game(); statusCode(err) != http.StatusForbidden {
		t.Errorf("Game() before sitting down = %v, want a 403", err)
	}
	if _, err := c.NewGame("ana", "luis"); err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	// Ana gets the Sports question on the reroll cell right, misses History,
	// then Luis gives up.
	con := &scripted{
		choices: []game.Choice{game.ChooseRoll, game.ChooseRoll, game.ChooseSurrender},
		answers: []string{"béisbol", "1821"},
	}
	st, err := c.Play(con)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if st.Status != game.Won || st.Pending.Winner != "ana" {
		t.Errorf("match ended %s with winner %q, want ana winning", st.Status, st.Pending.Winner)
	}
	if len(con.announced) != 5 {
		t.Errorf("got %d announcements, want 5", len(con.announced))
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	var won []string
	for _, s := range stats {
		if s.Won > 0 {
			won = append(won, s.Alias)
		}
	}
	if diff := cmp.Diff([]string{"ana"}, won); diff != "" {
		t.Errorf("unexpected winners in stats (-want +got)\n%s", diff)
	}
}

func TestPlay_Quit(t *testing.T) {
	c := setup(t)
	if _, err := c.NewGame("ana"); err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	st, err := c.Play(&scripted{})
	if !errors.Is(err, game.ErrQuit) {
		t.Fatalf("Play() = %v, want ErrQuit", err)
	}
	if st.Status != game.Playing {
		t.Errorf("quitting left the match %s", st.Status)
	}

	// The server kept the match.
	st, err = c.Resume()
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if st.Pending.Player != "ana" {
		t.Errorf("resumed with %q up, want ana", st.Pending.Player)
	}
}

func TestListenForUpdates(t *testing.T) {
	c := setup(t)
	if _, err := c.NewGame("ana", "luis"); err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	states := make(chan *web.GameState, 1)
	moves := make(chan *web.MoveMsg, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.ListenForUpdates(ctx, WSHooks{
			OnState: func(st *web.GameState) { states <- st },
			OnMove:  func(mm *web.MoveMsg) { moves <- mm },
		})
	}()

	select {
	case st := <-states:
		if st.Pending.Phase != game.AwaitingRoll {
			t.Errorf("first state is in %s, want %s", st.Pending.Phase, game.AwaitingRoll)
		}
	case err := <-done:
		t.Fatalf("ListenForUpdates: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("never got the state")
	}

	if _, err := c.Roll("ana"); err != nil {
		t.Fatalf("Roll: %v", err)
	}
	select {
	case mm := <-moves:
		if mm.Result.Steps != 3 || mm.Game.Pending.Category != trivia.Sports {
			t.Errorf("unexpected move %+v with pending %+v", mm.Result, mm.Game.Pending)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("never got the move")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("ListenForUpdates after cancel = %v, want nil", err)
	}
}

func statusCode(err error) int {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode
	}
	return 0
}

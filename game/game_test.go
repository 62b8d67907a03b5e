package game

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/LDs31100113/TriviaFX-UCAB/dice"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
	"github.com/google/go-cmp/cmp"
)

type fakeQuestions map[trivia.Category]*trivia.Question

func (f fakeQuestions) RandomQuestion(cat trivia.Category) (*trivia.Question, error) {
	q, ok := f[cat]
	if !ok {
		return nil, trivia.ErrNoQuestions
	}
	return q, nil
}

// Science is left out on purpose.
var testQuestions = fakeQuestions{
	trivia.Geography: {Prompt: "¿Capital de Venezuela?", Answer: "Caracas"},
	trivia.History:   {Prompt: "¿Año de la independencia?", Answer: "1811"},
	trivia.Sports:    {Prompt: "¿Deporte nacional?", Answer: "Béisbol"},
}

func profiles(aliases ...string) []*trivia.PlayerProfile {
	var out []*trivia.PlayerProfile
	for _, a := range aliases {
		out = append(out, &trivia.PlayerProfile{Email: a + "@ucab.edu.ve", Alias: a})
	}
	return out
}

// testConfig scripts the die and the random choices. Die values are faces
// minus one, rand values are returned as is by Intn.
func testConfig(dieVals, randVals []int) *Config {
	return &Config{
		Questions: testQuestions,
		Die:       dice.New(dice.NewSequence(dieVals...)),
		Rand:      rand.New(dice.NewSequence(randVals...)),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func pos(p trivia.Position) *trivia.Position { return &p }

func TestNew(t *testing.T) {
	g, err := New(profiles("ana", "luis", "eva"), testConfig([]int{0}, []int{2}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := g.CurrentPlayer().Alias; got != "eva" {
		t.Errorf("first player is %q, want eva", got)
	}
	for _, p := range g.Players() {
		if !p.Position.IsCenter() || p.Card.AcquiredCount() != 0 || p.Surrendered {
			t.Errorf("player %q didn't start fresh: %+v", p.Alias, p)
		}
	}
	if g.Status() != Playing || g.Phase() != AwaitingRoll {
		t.Errorf("new match is %s in phase %s", g.Status(), g.Phase())
	}

	bad := [][]*trivia.PlayerProfile{
		nil,
		profiles("ana", "ana"),
		{{Email: "nope", Alias: "x"}},
	}
	for _, ps := range bad {
		if _, err := New(ps, testConfig([]int{0}, []int{0})); !errors.Is(err, trivia.ErrInvalidArgument) {
			t.Errorf("New(%v) = %v, want ErrInvalidArgument", ps, err)
		}
	}
	if _, err := New(profiles("ana"), &Config{}); err == nil {
		t.Error("New without a question source didn't fail")
	}
}

func TestMovePlayer_FromCenter(t *testing.T) {
	tests := []struct {
		spoke int
		steps int
		want  trivia.Position
	}{
		{0, 1, trivia.MustCircle(0)},
		{2, 3, trivia.MustCircle(16)},
		{5, 6, trivia.MustCircle(40)},
		{5, 7, trivia.MustCircle(41)},
		// Odd-plus-two rolls can go a full segment.
		{1, 8, trivia.MustCircle(7)},
	}
	for _, test := range tests {
		g, err := New(profiles("ana"), testConfig([]int{0}, []int{0, test.spoke}))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		p := g.CurrentPlayer()
		if err := g.MovePlayer(p, test.steps, false); err != nil {
			t.Fatalf("MovePlayer(%d) via spoke %d: %v", test.steps, test.spoke, err)
		}
		if diff := cmp.Diff(test.want, p.Position); diff != "" {
			t.Errorf("unexpected position after %d steps via spoke %d (-want +got)\n%s", test.steps, test.spoke, diff)
		}
	}
}

func TestMovePlayer_OnBoard(t *testing.T) {
	g, err := New(profiles("ana"), testConfig([]int{0}, []int{0}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := g.CurrentPlayer()
	p.Position = trivia.MustCircle(40)
	if err := g.MovePlayer(p, 4, false); err != nil {
		t.Fatalf("MovePlayer: %v", err)
	}
	if diff := cmp.Diff(trivia.MustCircle(2), p.Position); diff != "" {
		t.Errorf("unexpected position (-want +got)\n%s", diff)
	}

	p.Position = trivia.MustCircle(14)
	if err := g.MovePlayer(p, 6, true); err != nil {
		t.Fatalf("MovePlayer: %v", err)
	}
	if !p.Position.IsCenter() {
		t.Errorf("overshooting spoke 2 landed on %v, want the center", p.Position)
	}

	if err := g.MovePlayer(p, 0, false); !errors.Is(err, trivia.ErrInvalidArgument) {
		t.Errorf("MovePlayer(0) = %v, want ErrInvalidArgument", err)
	}
}

func TestRollDie(t *testing.T) {
	cfg := testConfig([]int{0, 1, 4, 5}, []int{0})
	cfg.Rules = Rules{Roll: dice.OddPlusTwo}
	g, err := New(profiles("ana"), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var got []int
	for i := 0; i < 4; i++ {
		got = append(got, g.RollDie())
	}
	if diff := cmp.Diff([]int{3, 2, 7, 6}, got); diff != "" {
		t.Errorf("unexpected rolls (-want +got)\n%s", diff)
	}
}

func TestRecordAnswer(t *testing.T) {
	g, err := New(profiles("ana"), testConfig([]int{0}, []int{0}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := g.CurrentPlayer()

	g.RecordAnswer(p, trivia.History, false, 900)
	if p.Card.AcquiredCount() != 0 || p.ElapsedMS != 0 {
		t.Errorf("a wrong answer changed the player: %+v", p)
	}

	g.RecordAnswer(p, trivia.History, true, 900)
	g.RecordAnswer(p, trivia.History, true, 100)
	if n := p.Card.AcquiredCount(); n != 1 {
		t.Errorf("card has %d categories after two History answers, want 1", n)
	}
	if p.Correct[trivia.History] != 2 || p.ElapsedMS != 1000 {
		t.Errorf("unexpected counters %v, %d", p.Correct, p.ElapsedMS)
	}

	// Categories off the board are ignored, so the match can still be saved.
	g.RecordAnswer(p, trivia.Category(42), true, 500)
	if len(p.Correct) != 1 || p.ElapsedMS != 1000 {
		t.Errorf("answer in an unknown category changed the counters: %v, %d", p.Correct, p.ElapsedMS)
	}
	state, err := g.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if _, err := json.Marshal(state); err != nil {
		t.Errorf("json.Marshal(snapshot): %v", err)
	}
}

func TestAdvanceTurn(t *testing.T) {
	const n = 3
	for mask := 0; mask < 1<<n; mask++ {
		for start := 0; start < n; start++ {
			g, err := New(profiles("a", "b", "c"), testConfig([]int{0}, []int{0}))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			for i, p := range g.Players() {
				p.Surrendered = mask&(1<<i) != 0
			}
			g.current = start

			want := start
			for k := 1; k <= n; k++ {
				if j := (start + k) % n; mask&(1<<j) == 0 {
					want = j
					break
				}
			}

			g.AdvanceTurn()
			if g.current != want {
				t.Errorf("mask %03b from %d: advanced to %d, want %d", mask, start, g.current, want)
			}
		}
	}
}

func TestResolveSurrenderWinner(t *testing.T) {
	tests := []struct {
		desc        string
		counts      []int
		times       []int64
		surrendered []bool
		want        string
	}{
		{
			desc:        "best card, then fastest",
			counts:      []int{2, 4, 4},
			times:       []int64{500, 300, 700},
			surrendered: []bool{true, true, true},
			want:        "b",
		},
		{
			desc:        "full tie goes to the first",
			counts:      []int{3, 3, 1},
			times:       []int64{400, 400, 100},
			surrendered: []bool{true, true, true},
			want:        "a",
		},
		{
			desc:        "last one standing",
			counts:      []int{6, 0, 5},
			times:       []int64{100, 900, 100},
			surrendered: []bool{true, false, true},
			want:        "b",
		},
		{
			desc:        "still playing",
			counts:      []int{1, 2, 3},
			times:       []int64{1, 2, 3},
			surrendered: []bool{false, false, true},
			want:        "",
		},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			g, err := New(profiles("a", "b", "c"), testConfig([]int{0}, []int{0}))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			for i, p := range g.Players() {
				for _, cat := range trivia.Categories[:test.counts[i]] {
					p.Card.Acquire(cat)
				}
				p.ElapsedMS = test.times[i]
				p.Surrendered = test.surrendered[i]
			}
			got := ""
			if w := g.ResolveSurrenderWinner(); w != nil {
				got = w.Alias
			}
			if got != test.want {
				t.Errorf("winner is %q, want %q", got, test.want)
			}
		})
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	g, err := New(profiles("ana", "luis", "eva"), testConfig([]int{0}, []int{1}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ps := g.Players()
	ps[0].Position = trivia.MustSpoke(4, 3)
	ps[0].Card.Acquire(trivia.Science)
	ps[0].RecordCorrect(trivia.Science, 1234)
	ps[1].Position = trivia.MustCircle(33)
	ps[2].Surrendered = true

	state, err := g.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if state.MatchID != g.ID() || state.CurrentIndex != 1 {
		t.Errorf("unexpected snapshot header %q/%d", state.MatchID, state.CurrentIndex)
	}

	resumed, err := FromSaved(state, testConfig([]int{0}, []int{0}))
	if err != nil {
		t.Fatalf("FromSaved: %v", err)
	}
	if diff := cmp.Diff(g.Players(), resumed.Players()); diff != "" {
		t.Errorf("unexpected players after resume (-want +got)\n%s", diff)
	}
	if resumed.CurrentIndex() != g.CurrentIndex() || resumed.ID() != g.ID() {
		t.Errorf("resumed at %d of %q, want %d of %q", resumed.CurrentIndex(), resumed.ID(), g.CurrentIndex(), g.ID())
	}
	if resumed.Phase() != AwaitingRoll {
		t.Errorf("resumed in phase %s", resumed.Phase())
	}

	// The snapshot is a copy.
	ps[1].Card.Acquire(trivia.History)
	if state.Players[1].Card.HasAcquired(trivia.History) {
		t.Error("changing the match changed the snapshot")
	}
}

func TestFromSaved_Invalid(t *testing.T) {
	p := trivia.NewPlayer(&trivia.PlayerProfile{Email: "a@x.com", Alias: "a"})
	tests := []struct {
		desc  string
		state *trivia.SavedState
		want  error
	}{
		{"nothing saved", nil, trivia.ErrNoSavedState},
		{"no players", &trivia.SavedState{}, trivia.ErrInvalidArgument},
		{"index out of range", &trivia.SavedState{Players: []*trivia.Player{p}, CurrentIndex: 3}, trivia.ErrOutOfRange},
	}
	for _, test := range tests {
		if _, err := FromSaved(test.state, testConfig([]int{0}, []int{0})); !errors.Is(err, test.want) {
			t.Errorf("%s: FromSaved = %v, want %v", test.desc, err, test.want)
		}
	}
}

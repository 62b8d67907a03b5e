// Package dbtest holds the behaviour every trivia.DB implementation shares, so
// each store's tests can check it the same way.
package dbtest

import (
	"errors"
	"testing"
	"time"

	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// Run checks a store. newDB must return an empty store; Run closes it.
func Run(t *testing.T, newDB func(t *testing.T) trivia.DB) {
	t.Run("Profiles", func(t *testing.T) { testProfiles(t, open(t, newDB)) })
	t.Run("SavedState", func(t *testing.T) { testSavedState(t, open(t, newDB)) })
	t.Run("Stats", func(t *testing.T) { testStats(t, open(t, newDB)) })
}

func open(t *testing.T, newDB func(t *testing.T) trivia.DB) trivia.DB {
	db := newDB(t)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return db
}

func testProfiles(t *testing.T, db trivia.DB) {
	ps, err := db.Profiles()
	require.NoError(t, err)
	require.Empty(t, ps)

	ana := &trivia.PlayerProfile{Email: "ana@ucab.edu.ve", Alias: "ana"}
	luis := &trivia.PlayerProfile{Email: "luis@ucab.edu.ve", Alias: "Luis"}
	require.NoError(t, db.NewProfile(ana))
	require.NoError(t, db.NewProfile(luis))

	err = db.NewProfile(&trivia.PlayerProfile{Email: "ANA@ucab.edu.ve", Alias: "otra"})
	require.ErrorIs(t, err, trivia.ErrProfileExists)

	// Stats and seating go by alias, so two players can't share one.
	err = db.NewProfile(&trivia.PlayerProfile{Email: "otro.luis@ucab.edu.ve", Alias: "luis"})
	require.ErrorIs(t, err, trivia.ErrProfileExists)

	err = db.NewProfile(&trivia.PlayerProfile{Email: "sin-arroba", Alias: "x"})
	require.ErrorIs(t, err, trivia.ErrInvalidArgument)

	ps, err = db.Profiles()
	require.NoError(t, err)
	if diff := cmp.Diff([]*trivia.PlayerProfile{ana, luis}, ps); diff != "" {
		t.Errorf("unexpected profiles (-want +got)\n%s", diff)
	}
}

// SavedGame returns a mid-match snapshot with some state on every player.
func SavedGame() *trivia.SavedState {
	ana := trivia.NewPlayer(&trivia.PlayerProfile{Email: "ana@ucab.edu.ve", Alias: "ana"})
	ana.Card.Acquire(trivia.History)
	ana.Card.Acquire(trivia.Science)
	ana.RecordCorrect(trivia.History, 1500)
	ana.RecordCorrect(trivia.Science, 2500)
	ana.Position = trivia.MustSpoke(2, 3)

	luis := trivia.NewPlayer(&trivia.PlayerProfile{Email: "luis@ucab.edu.ve", Alias: "luis"})
	luis.Position = trivia.MustCircle(29)

	eva := trivia.NewPlayer(&trivia.PlayerProfile{Email: "eva@ucab.edu.ve", Alias: "eva"})
	eva.Surrendered = true

	return &trivia.SavedState{
		MatchID:      "4f1c2a4e-8d8e-4c0e-9a53-0c1b1c0ffee0",
		Players:      []*trivia.Player{ana, luis, eva},
		CurrentIndex: 1,
		SavedAt:      time.Date(2024, 5, 3, 14, 30, 0, 0, time.UTC),
	}
}

func testSavedState(t *testing.T, db trivia.DB) {
	has, err := db.HasSavedState()
	require.NoError(t, err)
	require.False(t, has)

	_, err = db.SavedState()
	require.True(t, errors.Is(err, trivia.ErrNoSavedState), "SavedState on an empty store = %v", err)

	want := SavedGame()
	require.NoError(t, db.SaveState(want))

	has, err = db.HasSavedState()
	require.NoError(t, err)
	require.True(t, has)

	got, err := db.SavedState()
	require.NoError(t, err)
	require.True(t, want.SavedAt.Equal(got.SavedAt), "saved at %v, want %v", got.SavedAt, want.SavedAt)
	got.SavedAt = want.SavedAt
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected saved game (-want +got)\n%s", diff)
	}

	// Saving again replaces the old game.
	next := SavedGame()
	next.CurrentIndex = 0
	require.NoError(t, db.SaveState(next))
	got, err = db.SavedState()
	require.NoError(t, err)
	require.Equal(t, 0, got.CurrentIndex)

	err = db.SaveState(&trivia.SavedState{})
	require.ErrorIs(t, err, trivia.ErrInvalidArgument)

	require.NoError(t, db.ClearSavedState())
	has, err = db.HasSavedState()
	require.NoError(t, err)
	require.False(t, has)
	// Clearing twice is fine.
	require.NoError(t, db.ClearSavedState())
}

func testStats(t *testing.T, db trivia.DB) {
	stats, err := db.Stats()
	require.NoError(t, err)
	require.Empty(t, stats)

	want := []*trivia.PlayerStats{
		{
			Alias:             "luis",
			Played:            3,
			Won:               1,
			Lost:              2,
			CorrectByCategory: map[trivia.Category]int{trivia.Sports: 4, trivia.ArtLiterature: 1},
			CorrectMS:         9000,
		},
		{
			Alias:             "ana",
			Played:            1,
			Lost:              1,
			CorrectByCategory: map[trivia.Category]int{},
		},
	}
	require.NoError(t, db.SaveStats(want))

	got, err := db.Stats()
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected stats (-want +got)\n%s", diff)
	}

	// Saving replaces everything.
	want = want[1:]
	require.NoError(t, db.SaveStats(want))
	got, err = db.Stats()
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected stats after replacing (-want +got)\n%s", diff)
	}
}

package memdb

import (
	"testing"

	"github.com/LDs31100113/TriviaFX-UCAB/internal/dbtest"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
	"github.com/stretchr/testify/require"
)

func TestDB(t *testing.T) {
	dbtest.Run(t, func(*testing.T) trivia.DB { return New() })
}

func TestClones(t *testing.T) {
	db := New()
	state := dbtest.SavedGame()
	require.NoError(t, db.SaveState(state))

	state.Players[0].Card.FillAll()
	got, err := db.SavedState()
	require.NoError(t, err)
	require.False(t, got.Players[0].Card.IsComplete(), "changing the saved game after saving changed the store")

	got.Players[1].Alias = "changed"
	again, err := db.SavedState()
	require.NoError(t, err)
	require.Equal(t, "luis", again.Players[1].Alias)
}

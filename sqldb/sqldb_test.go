package sqldb

import (
	"path/filepath"
	"testing"

	"github.com/LDs31100113/TriviaFX-UCAB/internal/dbtest"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) trivia.DB {
	db, err := New(filepath.Join(t.TempDir(), "trivia.db"))
	require.NoError(t, err)
	return db
}

func TestDB(t *testing.T) {
	dbtest.Run(t, newDB)
}

func TestReopen(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "trivia.db")

	db, err := New(fn)
	require.NoError(t, err)
	require.NoError(t, db.SaveState(dbtest.SavedGame()))
	require.NoError(t, db.NewProfile(&trivia.PlayerProfile{Email: "ana@ucab.edu.ve", Alias: "ana"}))
	require.NoError(t, db.Close())

	// Migrations are a no-op the second time round, and the data is still there.
	db, err = New(fn)
	require.NoError(t, err)
	defer db.Close()

	has, err := db.HasSavedState()
	require.NoError(t, err)
	require.True(t, has)

	ps, err := db.Profiles()
	require.NoError(t, err)
	require.Len(t, ps, 1)
}

func TestClosed(t *testing.T) {
	db, err := New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.Profiles()
	require.ErrorIs(t, err, errClosed)
}

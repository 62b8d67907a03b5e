package web

import (
	"encoding/json"

	"github.com/LDs31100113/TriviaFX-UCAB/game"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
)

// GameState is what a browser needs to draw the table.
type GameState struct {
	MatchID trivia.MatchID   `json:"match_id"`
	Status  game.Status      `json:"status"`
	Pending *game.Pending    `json:"pending"`
	Current int              `json:"current"`
	Players []*trivia.Player `json:"players"`
}

// newGameState copies the players, so the state can be encoded after the
// table is unlocked.
func newGameState(g *game.Session) *GameState {
	return &GameState{
		MatchID: g.ID(),
		Status:  g.Status(),
		Pending: g.Pending(),
		Current: g.CurrentIndex(),
		Players: trivia.ClonePlayers(g.Players()),
	}
}

// StateMsg is sent to a browser when it starts watching.
type StateMsg struct {
	Game *GameState `json:"game"`
}

func (sm *StateMsg) MarshalJSON() ([]byte, error) {
	type msg StateMsg
	return withAction("STATE", (*msg)(sm))
}

// MoveMsg is sent to everyone watching after every move.
type MoveMsg struct {
	Result *game.Result `json:"result"`
	Game   *GameState   `json:"game"`
}

func (mm *MoveMsg) MarshalJSON() ([]byte, error) {
	type msg MoveMsg
	return withAction("MOVE", (*msg)(mm))
}

// withAction adds an "action" field to msg, which must encode to an object.
func withAction(action string, msg interface{}) ([]byte, error) {
	dat, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(dat, &fields); err != nil {
		return nil, err
	}
	if fields["action"], err = json.Marshal(action); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

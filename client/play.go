package client

import (
	"fmt"

	"github.com/LDs31100113/TriviaFX-UCAB/game"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
	"github.com/LDs31100113/TriviaFX-UCAB/web"
)

// Play drives the match the client is sitting at, asking con for whatever the
// server is waiting on, until the match is over. Like Session.Play, it returns
// game.ErrQuit when con quits; the server keeps the match.
func (c *Client) Play(con game.Contestant) (*web.GameState, error) {
	st, err := c.Game()
	if err != nil {
		return nil, err
	}
	for st.Status == game.Playing {
		pend := st.Pending
		p := findPlayer(st, pend.Player)
		if p == nil {
			return nil, fmt.Errorf("server is waiting on unknown player %q", pend.Player)
		}

		var msg *web.MoveMsg
		switch pend.Phase {
		case game.AwaitingRoll:
			choice, err := con.StartRoll(p)
			if err != nil {
				return nil, fmt.Errorf("StartRoll for %q: %w", p.Alias, err)
			}
			switch choice {
			case game.ChooseQuit:
				return st, game.ErrQuit
			case game.ChooseSurrender:
				msg, err = c.Surrender(p.Alias)
			default:
				msg, err = c.Roll(p.Alias)
			}
			if err != nil {
				return nil, err
			}
		case game.PendingSpokeChoice:
			enter, err := con.ChooseSpoke(p, pend.Steps)
			if err != nil {
				return nil, fmt.Errorf("ChooseSpoke for %q: %w", p.Alias, err)
			}
			if msg, err = c.ChooseSpoke(p.Alias, enter); err != nil {
				return nil, err
			}
		case game.PendingQuestion, game.PendingFinalQuestion:
			ans, ms, err := con.Answer(p, pend.Category, pend.Prompt)
			if err != nil {
				return nil, fmt.Errorf("Answer for %q: %w", p.Alias, err)
			}
			if msg, err = c.Answer(p.Alias, ans, ms); err != nil {
				return nil, err
			}
		case game.PendingFinalCategoryChoice:
			cat, err := con.ChooseFinalCategory(p)
			if err != nil {
				return nil, fmt.Errorf("ChooseFinalCategory for %q: %w", p.Alias, err)
			}
			if msg, err = c.ChooseCategory(p.Alias, cat); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown phase %q", pend.Phase)
		}

		con.Announce(p, msg.Result)
		st = msg.Game
	}
	return st, nil
}

func findPlayer(st *web.GameState, alias string) *trivia.Player {
	for _, p := range st.Players {
		if p.Alias == alias {
			return p
		}
	}
	return nil
}

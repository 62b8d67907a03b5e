package filedb

import (
	"encoding/json"
	"fmt"

	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
)

// The desktop game writes its files with camel-cased Spanish field names and
// category keys like GEOGRAFIA. The types below decode those files so they
// can be loaded here. Anything written back uses this package's own format.

type desktopStats struct {
	Alias     string                  `json:"alias"`
	Played    int                     `json:"partidasJugadas"`
	Won       int                     `json:"partidasGanadas"`
	Lost      int                     `json:"partidasPerdidas"`
	Correct   map[trivia.Category]int `json:"correctasPorCategoria"`
	CorrectMS int64                   `json:"tiempoTotalRespuestasCorrectasMs"`
}

type desktopSave struct {
	Players      []*desktopPlayer `json:"jugadores"`
	CurrentIndex int              `json:"indiceJugadorActual"`
}

type desktopPlayer struct {
	Alias string `json:"alias"`
	Email string `json:"email"`
	Card  *struct {
		Acquired map[trivia.Category]bool `json:"categoriasObtenidas"`
	} `json:"ficha"`
	Position    *desktopPosition        `json:"posicionActual"`
	Surrendered bool                    `json:"estaRendido"`
	Correct     map[trivia.Category]int `json:"correctasEnPartida"`
	ElapsedMS   int64                   `json:"tiempoTotalEnPartidaMs"`
}

type desktopPosition struct {
	Kind   string `json:"tipo"`
	Circle int    `json:"indiceCirculo"`
	Spoke  int    `json:"indiceRayo"`
	Cell   int    `json:"indiceEnRayo"`
}

func (p *desktopPosition) position() (trivia.Position, error) {
	if p == nil {
		return trivia.Position{}, fmt.Errorf("%w: position is missing", trivia.ErrInvalidArgument)
	}
	switch p.Kind {
	case "CENTRO":
		return trivia.Center(), nil
	case "CIRCULO":
		return trivia.Circle(p.Circle)
	case "RAYO":
		return trivia.Spoke(p.Spoke, p.Cell)
	default:
		return trivia.Position{}, fmt.Errorf("%w: unknown position kind %q", trivia.ErrInvalidArgument, p.Kind)
	}
}

func (p *desktopPlayer) player() (*trivia.Player, error) {
	pos, err := p.Position.position()
	if err != nil {
		return nil, err
	}
	card := trivia.NewCard()
	if p.Card != nil {
		for cat, ok := range p.Card.Acquired {
			if ok {
				card.Acquire(cat)
			}
		}
	}
	correct := make(map[trivia.Category]int, len(p.Correct))
	for cat, n := range p.Correct {
		correct[cat] = n
	}
	return &trivia.Player{
		Alias:       p.Alias,
		Email:       p.Email,
		Card:        card,
		Position:    pos,
		Surrendered: p.Surrendered,
		Correct:     correct,
		ElapsedMS:   p.ElapsedMS,
	}, nil
}

// decodeSave reads a saved game in either format.
func decodeSave(dat []byte) (*trivia.SavedState, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(dat, &fields); err != nil {
		return nil, err
	}
	if _, ok := fields["indiceJugadorActual"]; !ok {
		var state trivia.SavedState
		if err := json.Unmarshal(dat, &state); err != nil {
			return nil, err
		}
		return &state, nil
	}

	var save desktopSave
	if err := json.Unmarshal(dat, &save); err != nil {
		return nil, err
	}
	state := &trivia.SavedState{CurrentIndex: save.CurrentIndex}
	for i, dp := range save.Players {
		if dp == nil {
			return nil, fmt.Errorf("%w: player %d is missing", trivia.ErrInvalidArgument, i)
		}
		p, err := dp.player()
		if err != nil {
			return nil, fmt.Errorf("player %d: %w", i, err)
		}
		state.Players = append(state.Players, p)
	}
	return state, nil
}

// decodeStats reads the global statistics in either format. Records that
// carry neither format's counters are rejected rather than read as zeros.
func decodeStats(dat []byte) ([]*trivia.PlayerStats, error) {
	var recs []json.RawMessage
	if err := json.Unmarshal(dat, &recs); err != nil {
		return nil, err
	}
	stats := make([]*trivia.PlayerStats, 0, len(recs))
	for i, rec := range recs {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(rec, &fields); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		_, native := fields["played"]
		_, desktop := fields["partidasJugadas"]
		switch {
		case native:
			var st trivia.PlayerStats
			if err := json.Unmarshal(rec, &st); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			stats = append(stats, &st)
		case desktop:
			var ds desktopStats
			if err := json.Unmarshal(rec, &ds); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			stats = append(stats, &trivia.PlayerStats{
				Alias:             ds.Alias,
				Played:            ds.Played,
				Won:               ds.Won,
				Lost:              ds.Lost,
				CorrectByCategory: ds.Correct,
				CorrectMS:         ds.CorrectMS,
			})
		default:
			return nil, fmt.Errorf("%w: record %d has no game counters", trivia.ErrInvalidArgument, i)
		}
	}
	return stats, nil
}

package trivia

// PlayerStats is the running record of a player across matches, keyed by
// alias.
type PlayerStats struct {
	Alias  string `json:"alias"`
	Played int    `json:"played"`
	Won    int    `json:"won"`
	Lost   int    `json:"lost"`
	// CorrectByCategory sums correct answers over every match played.
	CorrectByCategory map[Category]int `json:"correct_by_category"`
	// CorrectMS is the total time spent on correct answers.
	CorrectMS int64 `json:"correct_ms"`
}

func NewPlayerStats(alias string) *PlayerStats {
	return &PlayerStats{
		Alias:             alias,
		CorrectByCategory: make(map[Category]int),
	}
}

// RecordMatch adds one finished match to the record.
func (s *PlayerStats) RecordMatch(won bool, correct map[Category]int, elapsedMS int64) {
	s.Played++
	if won {
		s.Won++
	} else {
		s.Lost++
	}
	if s.CorrectByCategory == nil {
		s.CorrectByCategory = make(map[Category]int)
	}
	for cat, n := range correct {
		s.CorrectByCategory[cat] += n
	}
	s.CorrectMS += elapsedMS
}

// CorrectTotal is the number of correct answers across categories.
func (s *PlayerStats) CorrectTotal() int {
	n := 0
	for _, c := range s.CorrectByCategory {
		n += c
	}
	return n
}

func (s *PlayerStats) Clone() *PlayerStats {
	sc := *s
	sc.CorrectByCategory = make(map[Category]int, len(s.CorrectByCategory))
	for k, v := range s.CorrectByCategory {
		sc.CorrectByCategory[k] = v
	}
	return &sc
}

func CloneStats(stats []*PlayerStats) []*PlayerStats {
	out := make([]*PlayerStats, len(stats))
	for i, s := range stats {
		out[i] = s.Clone()
	}
	return out
}

// RecordMatchResult folds a finished match into the existing stats and returns
// the updated list. Players without a record get a new one appended. winner
// may be nil when nobody won (e.g. an abandoned match).
func RecordMatchResult(stats []*PlayerStats, players []*Player, winner *Player) []*PlayerStats {
	out := CloneStats(stats)
	byAlias := make(map[string]*PlayerStats, len(out))
	for _, s := range out {
		byAlias[s.Alias] = s
	}

	for _, p := range players {
		s, ok := byAlias[p.Alias]
		if !ok {
			s = NewPlayerStats(p.Alias)
			byAlias[p.Alias] = s
			out = append(out, s)
		}
		won := winner != nil && winner.Alias == p.Alias
		s.RecordMatch(won, p.Correct, p.ElapsedMS)
	}
	return out
}

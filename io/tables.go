package io

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
	"github.com/olekukonko/tablewriter"
)

var categoryColors = map[trivia.Category]int{
	trivia.Geography:     tablewriter.FgBlueColor,
	trivia.History:       tablewriter.FgYellowColor,
	trivia.Sports:        tablewriter.FgHiRedColor,
	trivia.Science:       tablewriter.FgGreenColor,
	trivia.ArtLiterature: tablewriter.FgMagentaColor,
	trivia.Entertainment: tablewriter.FgHiMagentaColor,
}

func duration(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).Round(100 * time.Millisecond).String()
}

// PrintScoreboard writes a row per player, marking whose turn it is.
func PrintScoreboard(w io.Writer, players []*trivia.Player, current int) {
	table := tablewriter.NewWriter(w)
	header := []string{"", "Jugador", "Posición"}
	for _, cat := range trivia.Categories {
		header = append(header, cat.String())
	}
	header = append(header, "Tiempo")
	table.SetHeader(header)

	for i, p := range players {
		turn := ""
		if i == current {
			turn = ">"
		}
		if p.Surrendered {
			turn = "x"
		}
		row := []string{turn, p.Alias, p.Position.String()}
		colors := []tablewriter.Colors{{}, {}, {}}
		for _, cat := range trivia.Categories {
			mark := "-"
			var c tablewriter.Colors
			if p.Card.HasAcquired(cat) {
				mark = "●"
				c = tablewriter.Colors{categoryColors[cat], tablewriter.Bold}
			}
			row = append(row, mark)
			colors = append(colors, c)
		}
		row = append(row, duration(p.ElapsedMS))
		colors = append(colors, tablewriter.Colors{})
		table.Rich(row, colors)
	}

	table.Render()
}

// PrintStats writes the global statistics.
func PrintStats(w io.Writer, stats []*trivia.PlayerStats) {
	if len(stats) == 0 {
		fmt.Fprintln(w, "Todavía no hay estadísticas.")
		return
	}
	table := tablewriter.NewWriter(w)
	header := []string{"Jugador", "Jugadas", "Ganadas", "Perdidas"}
	for _, cat := range trivia.Categories {
		header = append(header, cat.String())
	}
	header = append(header, "Tiempo")
	table.SetHeader(header)

	for _, st := range stats {
		row := []string{st.Alias, strconv.Itoa(st.Played), strconv.Itoa(st.Won), strconv.Itoa(st.Lost)}
		for _, cat := range trivia.Categories {
			row = append(row, strconv.Itoa(st.CorrectByCategory[cat]))
		}
		row = append(row, duration(st.CorrectMS))
		table.Append(row)
	}

	table.Render()
}

func cellLabel(c trivia.Cell) string {
	s := c.Category.String()
	switch {
	case c.SpokeEntry:
		s += " (rayo)"
	case c.Reroll:
		s += " (otra vez)"
	}
	return s
}

// PrintBoard writes the circle, a segment per row, and then the spokes.
func PrintBoard(w io.Writer, b *trivia.Board) {
	circle := tablewriter.NewWriter(w)
	header := []string{"Casillas"}
	for i := 0; i < trivia.SegmentLength; i++ {
		header = append(header, "+"+strconv.Itoa(i))
	}
	circle.SetHeader(header)
	cells := b.Circle()
	for seg := 0; seg < trivia.SpokeCount; seg++ {
		start := seg * trivia.SegmentLength
		row := []string{fmt.Sprintf("%d-%d", start+1, start+trivia.SegmentLength)}
		colors := []tablewriter.Colors{{}}
		for _, c := range cells[start : start+trivia.SegmentLength] {
			row = append(row, cellLabel(c))
			colors = append(colors, tablewriter.Colors{categoryColors[c.Category]})
		}
		circle.Rich(row, colors)
	}
	circle.Render()

	spokes := tablewriter.NewWriter(w)
	header = []string{"Rayo"}
	for i := 0; i < trivia.SpokeLength; i++ {
		header = append(header, strconv.Itoa(i+1))
	}
	spokes.SetHeader(header)
	for s, sp := range b.Spokes() {
		row := []string{strconv.Itoa(s + 1)}
		colors := []tablewriter.Colors{{}}
		for _, c := range sp {
			row = append(row, cellLabel(c))
			colors = append(colors, tablewriter.Colors{categoryColors[c.Category]})
		}
		spokes.Rich(row, colors)
	}
	spokes.Render()
}

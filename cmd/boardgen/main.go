// Command boardgen prints the board a match is played on.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/LDs31100113/TriviaFX-UCAB/boardgen"
	tio "github.com/LDs31100113/TriviaFX-UCAB/io"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
	"github.com/namsral/flag"
)

func main() {
	order := flag.String("order", "", "Comma-separated categories to cycle around the circle, e.g. GEOGRAPHY,HISTORY,SPORTS,...")
	flag.Parse()

	b := boardgen.New()
	if *order != "" {
		var cats []trivia.Category
		for _, name := range strings.Split(*order, ",") {
			c, err := trivia.ParseCategory(strings.TrimSpace(name))
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			cats = append(cats, c)
		}
		var err error
		if b, err = boardgen.NewWithOrder(cats); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	tio.PrintBoard(os.Stdout, b)
}

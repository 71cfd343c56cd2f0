package grid

import (
	"fmt"
	"io"
	"strconv"

	"github.com/logrusorgru/aurora"
)

// Render prints the board, agents by index and goals of the remaining agents
// as G. Colors are only emitted when colors is set.
func (g *GridEnvironment) Render(w io.Writer, colors bool) error {
	au := aurora.NewAurora(colors)
	goals := make(map[Position]int)
	for i, goal := range g.config.Goals {
		if !g.done[i] {
			goals[goal] = i
		}
	}

	for row := 0; row < g.config.Height; row++ {
		for col := 0; col < g.config.Width; col++ {
			p := Position{Row: row, Col: col}
			var cell aurora.Value
			if agent := g.Occupant(p); agent >= 0 {
				cell = au.Colorize(strconv.Itoa(agent%10), agentColor(agent)).Bold()
			} else if agent, ok := goals[p]; ok {
				cell = au.Colorize("G", agentColor(agent))
			} else {
				cell = au.Faint(".")
			}
			if _, err := fmt.Fprint(w, cell, " "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

var agentColors = []aurora.Color{
	aurora.CyanFg,
	aurora.MagentaFg,
	aurora.YellowFg,
	aurora.GreenFg,
	aurora.BlueFg,
	aurora.RedFg,
}

func agentColor(agent int) aurora.Color {
	return agentColors[agent%len(agentColors)]
}

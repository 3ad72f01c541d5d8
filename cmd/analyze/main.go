// Command analyze prints quick, human-readable heuristics about board
// geometries: dimensions, zone sizes, the palette dealt for each room
// capacity, and how much room each color has to move on the opening board.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/marblerace/game/config"
	"github.com/wricardo/marblerace/game/engine"
)

// ColorStats summarizes one color on an opening board
type ColorStats struct {
	Color         engine.Color
	Pieces        int
	OpeningMoves  int // legal destinations summed over every piece
	MovablePieces int
	Distance      int // engine.ZoneDistance at the start
}

// openingStats deals the palette for capacity and measures each color
func openingStats(geom *engine.Geometry, capacity int) ([]ColorStats, error) {
	palette, ok := geom.Palette(capacity)
	if !ok {
		return nil, fmt.Errorf("%s has no palette for %d seats", geom.Name(), capacity)
	}

	board := engine.InitBoard(geom, palette)
	stats := make([]ColorStats, 0, len(palette))
	for _, color := range palette {
		s := ColorStats{Color: color}
		for _, p := range engine.PiecesOf(board, color) {
			s.Pieces++
			n := len(board.LegalDestinations(p, true, map[engine.Position]bool{p: true}))
			s.OpeningMoves += n
			if n > 0 {
				s.MovablePieces++
			}
		}
		s.Distance = engine.ZoneDistance(board, geom, color)
		stats = append(stats, s)
	}
	return stats, nil
}

// analyzeGeometry writes the report for one geometry
func analyzeGeometry(w io.Writer, geom *engine.Geometry, render bool) error {
	fmt.Fprintf(w, "Name: %s\n", geom.Name())
	if desc := geom.Config().Description; desc != "" {
		fmt.Fprintf(w, "Description: %s\n", desc)
	}
	fmt.Fprintf(w, "Grid: %d x %d\n", geom.Rows(), geom.Cols())
	fmt.Fprintf(w, "Pieces per player: %d\n", geom.PiecesPerPlayer())
	fmt.Fprintf(w, "Common cells: %d\n", len(geom.CommonCells()))

	fmt.Fprintln(w, "Zones:")
	for _, zone := range geom.Config().Zones {
		fmt.Fprintf(w, "  %s %-8s home %2d cells, races to %s\n",
			zone.Key, strings.ToLower(string(zone.Color)), len(geom.Homes(zone.Color)), zone.Target)
	}

	capacities := geom.Capacities()
	for _, capacity := range capacities {
		stats, err := openingStats(geom, capacity)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "\n%d seats:\n", capacity)
		for _, s := range stats {
			fmt.Fprintf(w, "  %-8s %2d pieces, %2d movable, %3d opening moves, distance %d\n",
				strings.ToLower(string(s.Color)), s.Pieces, s.MovablePieces, s.OpeningMoves, s.Distance)
		}
		if spread := distanceSpread(stats); spread > 0 {
			fmt.Fprintf(w, "  ⚠️  starting distances differ by %d steps\n", spread)
		}
	}

	if render && len(capacities) > 0 {
		palette, _ := geom.Palette(capacities[len(capacities)-1])
		fmt.Fprintf(w, "\nOpening board (%d seats):\n", len(palette))
		fmt.Fprint(w, engine.Render(engine.InitBoard(geom, palette)))
	}
	return nil
}

// distanceSpread is the gap between the furthest and nearest starting color
func distanceSpread(stats []ColorStats) int {
	if len(stats) == 0 {
		return 0
	}
	lo, hi := stats[0].Distance, stats[0].Distance
	for _, s := range stats[1:] {
		if s.Distance < lo {
			lo = s.Distance
		}
		if s.Distance > hi {
			hi = s.Distance
		}
	}
	return hi - lo
}

func runAnalyze(ctx context.Context, cmd *cli.Command) error {
	manager, err := config.NewManager(cmd.String("dir"))
	if err != nil {
		return err
	}

	names := cmd.Args().Slice()
	if len(names) == 0 {
		configs, err := manager.ListConfigs()
		if err != nil {
			return err
		}
		for _, cfg := range configs {
			names = append(names, cfg.ConfigID)
		}
	}

	w := cmd.Root().Writer
	for _, name := range names {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", name)
		geom, err := manager.LoadConfig(name)
		if err != nil {
			fmt.Fprintf(w, "Error loading geometry: %v\n", err)
			continue
		}
		if err := analyzeGeometry(w, geom, cmd.Bool("render")); err != nil {
			return err
		}
	}
	return nil
}

func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "print heuristics about board geometries",
		ArgsUsage: "[geometry ...]",
		Writer:    w,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Value:   "configs",
				Usage:   "directory containing geometry files",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:    "render",
				Aliases: []string{"r"},
				Usage:   "print the opening board for the largest capacity",
			},
		},
		Action: runAnalyze,
	}
}

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Command validate checks board geometry JSON files. For each file it reports:
//   - JSON structure and required fields
//   - Layout consistency and allowed characters (zone keys, '.' and '*')
//   - Zone sizes matching pieces_per_player and valid zone targets
//   - Palettes for each supported room capacity
//   - Connectivity: every destination cell is reachable from its zone's home cells
//
// The init subcommand writes the built-in standard star into a directory.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/marblerace/game/config"
	"github.com/wricardo/marblerace/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Messages contains informational lines; otherwise it
// holds the validation errors that were found.
type ValidationResult struct {
	File     string
	Valid    bool
	Messages []string
}

// validateConfig loads and validates a single geometry file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:     filepath.Base(filePath),
		Valid:    true,
		Messages: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Messages = append(result.Messages, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var boardConfig engine.BoardConfig
	if err := json.Unmarshal(data, &boardConfig); err != nil {
		result.Valid = false
		result.Messages = append(result.Messages, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	geom, err := engine.NewGeometry(&boardConfig)
	if err != nil {
		result.Valid = false
		result.Messages = append(result.Messages, strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	if base := strings.TrimSuffix(result.File, ".json"); base != geom.Name() {
		result.Messages = append(result.Messages,
			fmt.Sprintf("! Name %q differs from file name; rooms select it as %q", geom.Name(), base))
	}

	result.Messages = append(result.Messages, summarize(geom)...)
	return result
}

// summarize describes a valid geometry
func summarize(geom *engine.Geometry) []string {
	lines := []string{
		fmt.Sprintf("✓ Name: %s", geom.Name()),
		fmt.Sprintf("✓ Grid: %dx%d", geom.Rows(), geom.Cols()),
		fmt.Sprintf("✓ Zones: %d of %d cells", len(geom.Colors()), geom.PiecesPerPlayer()),
		fmt.Sprintf("✓ Common cells: %d", len(geom.CommonCells())),
	}
	for _, capacity := range geom.Capacities() {
		palette, _ := geom.Palette(capacity)
		names := make([]string, len(palette))
		for i, color := range palette {
			names[i] = strings.ToLower(string(color))
		}
		lines = append(lines, fmt.Sprintf("✓ %d seats: %s", capacity, strings.Join(names, ", ")))
	}
	lines = append(lines, "✓ Connectivity: every destination reachable from its home")
	return lines
}

// configFiles returns the explicit files, or every *.json file in dir
func configFiles(dir string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("finding config files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no *.json files in %s", dir)
	}
	return files, nil
}

// report prints one result per file and whether all were valid
func report(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Messages {
				fmt.Fprintln(w, "  "+info)
			}
			continue
		}

		allValid = false
		fmt.Fprintln(w, "❌ INVALID")
		for _, msg := range result.Messages {
			fmt.Fprintln(w, "  ❌ "+msg)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All geometries are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some geometries have errors")
	}
	return allValid
}

var errInvalid = errors.New("validation failed")

func runValidate(ctx context.Context, cmd *cli.Command) error {
	files, err := configFiles(cmd.String("dir"), cmd.Args().Slice())
	if err != nil {
		return err
	}

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, validateConfig(file))
	}

	if !report(cmd.Root().Writer, results) {
		return errInvalid
	}
	return nil
}

func runInit(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	path := filepath.Join(dir, engine.DefaultGeometry+".json")
	if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}
	if err := manager.SaveConfig(engine.DefaultGeometry, engine.StandardBoardConfig()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "Wrote %s\n", path)
	return nil
}

func dirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "dir",
		Aliases: []string{"d"},
		Value:   "configs",
		Usage:   "directory containing geometry files",
		Sources: cli.EnvVars("CONFIG_DIR"),
	}
}

// newApp builds the command tree writing its report to w
func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "check board geometry files",
		ArgsUsage: "[file.json ...]",
		Writer:    w,
		Flags:     []cli.Flag{dirFlag()},
		Action:    runValidate,
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "write the built-in standard star geometry",
				Flags: []cli.Flag{
					dirFlag(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "overwrite an existing file",
					},
				},
				Action: runInit,
			},
		},
	}
}

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// Package config provides board geometry management for the marble race server.
//
// The config package handles:
//   - Loading geometry files from a JSON directory
//   - Validation through engine.NewGeometry
//   - Default geometry selection with a built-in fallback
//   - Geometry discovery and listing
//
// Geometry Format:
//
// Each file in the configs directory describes one board: a layout of
// characters ('.' invalid, '*' common, zone keys for home slots), the zones
// with their colors and target zones, capacity palettes and the neighbor
// offsets of the lattice. The standard six-pointed star is also compiled into
// the binary, so "standard" always resolves even when no file is present.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific geometry
//	geom, err := manager.LoadConfig("standard")
//
//	// List available geometries
//	configs, err := manager.ListConfigs()
//
// Loaded geometries are cached and shared read-only between rooms.
package config

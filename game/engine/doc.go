// Package engine provides the core rules for the marble race game.
//
// The engine package implements:
//   - Board geometry loading and validation (JSON layouts with zones and palettes)
//   - The cell grid with home, common and invalid cells
//   - Legal destination search (simple steps and hop chains)
//   - The per-room state machine: seating, turn order, selection and completion
//
// Core Types:
//
// A Geometry is a validated, compiled BoardConfig. InitBoard builds the
// starting Board for the colors in play. Room owns one game and turns every
// action into a list of Events addressed either to the whole room or to a
// single connection.
//
// Usage:
//
//	geom := engine.StandardGeometry()
//	room, events, err := engine.NewRoom("abc", geom, 2, connID, "alice")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	events = room.Join(otherConnID, "bob")
//	events = room.SelectOrMove(connID, engine.Position{Row: 3, Col: 9})
//
// Game Rules:
//
// Each player starts with their pieces in a home zone and races them to the
// opposite zone. On their turn a player selects one piece and either steps it
// to an adjacent empty cell, or hops it over adjacent pieces into the empty cell
// beyond, chaining hops as long as they like. A simple step ends the piece's
// movement; after a hop only further hops are offered. A player whose
// destination zone is completely filled with their own pieces is done, and the
// first such player wins.
package engine

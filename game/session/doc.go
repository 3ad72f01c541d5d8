// Package session provides room registration and result storage for the
// marble race server.
//
// The session package implements:
//   - Thread-safe room storage and retrieval
//   - Random room ID generation
//   - Connection to room bindings
//   - File-backed archive of finished games
//
// Core Types:
//
// Manager is the room registry used by the game service. It maps room ids to
// rooms and connection ids to the room they are seated in. Deleting a room
// drops every binding that points at it.
//
// FileResultStore keeps one JSON file per finished game.
//
// Room Identifiers:
//
// Rooms use 10-character ids drawn from a mixed-case alphanumeric alphabet
// with crypto/rand. Ids are case-sensitive.
//
// Usage:
//
//	rooms := session.NewManager()
//	results, err := session.NewFileResultStore("results")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	svc := service.NewGameService(rooms, configs, hub, service.Options{Results: results})
package session

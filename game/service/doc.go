// Package service provides the business logic layer for the marble race game.
//
// The service package implements:
//   - Room creation, joining and teardown
//   - Routing of player actions to the right room under that room's lock
//   - Resolution of room-wide events to the connections seated in the room
//   - The optional turn timer and idle-room cleanup
//   - Archiving of finished games
//
// Core Interfaces:
//
// GameService is the main service interface used by every transport.
// RoomRegistry stores rooms and the connection-to-room bindings.
// ConfigManager loads board geometries. ResultStore archives finished games.
// Publisher delivers events to connections; the websocket hub implements it.
//
// Concurrency:
//
// Each room has its own lock. An action takes the lock, runs the game rules,
// resolves recipients and releases the lock before any event is published, so a
// slow connection never holds up the room and actions on different rooms never
// contend.
//
// Usage:
//
//	rooms := session.NewManager()
//	configs, _ := config.NewManager("configs")
//	svc := service.NewGameService(rooms, configs, hub, service.Options{})
//
//	info, err := svc.CreateRoom(ctx, connID, "alice", 2, "")
//	if err != nil {
//		log.Fatal(err)
//	}
//	_ = svc.Click(ctx, connID, info.ID, engine.Position{Row: 3, Col: 9})
package service

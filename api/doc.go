// Package api provides the HTTP surface of the marble race server.
//
// The api package implements:
//   - Read-only room views for spectators and tooling
//   - Board geometry listing and upload
//   - Finished game results
//   - WebSocket upgrade for players
//   - Static file serving
//
// Endpoints:
//
// Rooms:
//   - GET /api/rooms - List open rooms (?status=in_progress, ?limit=N)
//   - GET /api/rooms/{id} - Room with full state
//   - DELETE /api/rooms/{id} - Close a room, notifying its seats
//   - GET /api/rooms/{id}/board - Text rendering of the board (?format=json for rows)
//
// Configuration:
//   - GET /api/configs - List available geometries
//   - GET /api/configs/{name} - Geometry document
//   - POST /api/configs - Validate and save a geometry
//
// Results:
//   - GET /api/results - Finished games, most recent first (?limit=N)
//   - GET /api/results/{id} - One finished game
//
// Other:
//   - GET /health - Liveness with room and client counts
//   - GET /ws - WebSocket endpoint, see package websocket
//
// Gameplay itself only happens over the WebSocket; the REST API never mutates
// a game except to close a room.
//
// Errors are returned as JSON with an appropriate HTTP status code:
//
//	{"error": "room not found"}
package api

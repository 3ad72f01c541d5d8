// Package mcp exposes the marble race to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a REST request against
// a running server, so an agent sees exactly what the HTTP API reports.
// Tools are read-only. Playing happens over the WebSocket endpoint.
//
// MCP Tools:
//   - list_rooms: Open rooms with seats and status
//   - get_room: Seats, current turn, selection and legal destinations
//   - board_view: Text rendering of the board with a color legend
//   - describe_cell: Zone, resting color and occupant of one cell
//   - list_configs: Available board geometries
//   - list_results: Finished games and their finishing order
//   - game_instructions: Rules of the race
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp

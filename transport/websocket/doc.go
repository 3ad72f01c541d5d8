// Package websocket provides the WebSocket transport for the marble race server.
//
// The websocket package implements:
//   - Connection identities (a uuid per socket, announced with a "connected" event)
//   - Decoding of inbound actions and dispatch to the game service
//   - Delivery of game events to the connections they address
//   - Relay of video call signaling between connections
//
// Architecture:
//
// A central Hub owns every connection. Each client has a read goroutine that
// turns frames into service calls and a write goroutine that drains its send
// buffer. The Hub doubles as the service's Publisher, so game events flow
// back through the same event loop.
//
// Message Protocol:
//
// Inbound frames are JSON objects keyed by "action":
//
//	{"action": "create_room", "player_name": "ann", "capacity": 2}
//	{"action": "join_room", "room_id": "...", "player_name": "bob"}
//	{"action": "click", "room_id": "...", "row": 3, "col": 9}
//	{"action": "end_turn", "room_id": "..."}
//	{"action": "reset", "room_id": "..."}
//	{"action": "new_video", "room_id": "..."}
//	{"action": "offer", "target": "<connection id>", "payload": {...}}
//
// Outbound frames carry one event each, identified by "type".
//
// Usage:
//
//	hub := websocket.NewHub(allowedOrigins...)
//	svc := service.NewGameService(rooms, configs, hub, opts)
//	hub.SetService(svc)
//	go hub.Run()
//
//	router.HandleFunc("/ws", hub.ServeWS)
//
// Closing a socket disconnects its seat.
package websocket

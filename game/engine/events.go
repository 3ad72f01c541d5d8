package engine

// EventType names an outbound notification
type EventType string

const (
	EventRoomJoined        EventType = "room_joined"
	EventPlayerList        EventType = "player_list"
	EventGameStarted       EventType = "game_started"
	EventPieceSelected     EventType = "piece_selected"
	EventCellRepainted     EventType = "cell_repainted"
	EventLegalDestinations EventType = "legal_destinations"
	EventTurnAdvanced      EventType = "turn_advanced"
	EventPlayerWon         EventType = "player_won"
	EventAllFinished       EventType = "all_finished"
	EventError             EventType = "error"
	EventSeatDisconnected  EventType = "seat_disconnected"
	EventBoardReset        EventType = "board_reset"
)

// Error messages surfaced to the offending connection only
const (
	MsgRoomFull          = "Room is full"
	MsgRoomNotFound      = "Room does not exist"
	MsgNotYourTurn       = "Not your turn"
	MsgNotStarted        = "Game has not started"
	MsgInvalidCapacity   = "Invalid room capacity"
	MsgNameRequired      = "Player name is required"
	MsgAlreadyInRoom     = "Already in a room"
	MsgNotInRoom         = "You are not in this room"
	MsgUnknownAction     = "Unknown action"
	MsgMalformedRequest  = "Malformed request"
	MsgUnknownConnection = "Unknown connection"
	MsgRoomClosed        = "Room was closed"
)

// Event is one outbound notification. An empty Target addresses every
// connected seat of the room; otherwise only that connection receives it.
type Event struct {
	Type      EventType  `json:"type"`
	Target    string     `json:"-"`
	RoomID    string     `json:"room_id,omitempty"`
	Board     *Board     `json:"board,omitempty"`
	Capacity  int        `json:"capacity,omitempty"`
	Names     []string   `json:"names,omitempty"`
	Seat      *SeatInfo  `json:"seat,omitempty"`
	Position  *Position  `json:"position,omitempty"`
	Positions []Position `json:"positions,omitempty"`
	Color     Color      `json:"color,omitempty"`
	Name      string     `json:"name,omitempty"`
	SeatID    string     `json:"seat_id,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// IsPrivate reports whether the event goes to a single connection
func (e Event) IsPrivate() bool {
	return e.Target != ""
}

// ErrorEvent builds a private error notification
func ErrorEvent(target, message string) Event {
	return Event{Type: EventError, Target: target, Message: message}
}

func roomJoined(target, roomID string, board *Board, capacity int) Event {
	return Event{Type: EventRoomJoined, Target: target, RoomID: roomID, Board: board.Clone(), Capacity: capacity}
}

func playerList(names []string) Event {
	return Event{Type: EventPlayerList, Names: names}
}

func gameStarted(seat SeatInfo) Event {
	return Event{Type: EventGameStarted, Seat: &seat}
}

func pieceSelected(p Position, color Color) Event {
	return Event{Type: EventPieceSelected, Position: &p, Color: color}
}

func cellRepainted(p Position, color Color) Event {
	return Event{Type: EventCellRepainted, Position: &p, Color: color}
}

func legalDestinations(positions []Position, color Color) Event {
	out := make([]Position, len(positions))
	copy(out, positions)
	return Event{Type: EventLegalDestinations, Positions: out, Color: color}
}

func turnAdvanced(seat SeatInfo) Event {
	return Event{Type: EventTurnAdvanced, Seat: &seat}
}

func playerWon(name string) Event {
	return Event{Type: EventPlayerWon, Name: name}
}

func allFinished() Event {
	return Event{Type: EventAllFinished}
}

func seatDisconnected(seatID string) Event {
	return Event{Type: EventSeatDisconnected, SeatID: seatID}
}

func boardReset(board *Board, seat SeatInfo) Event {
	return Event{Type: EventBoardReset, Board: board.Clone(), Seat: &seat}
}

package engine

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCapacity = errors.New(MsgInvalidCapacity)
	ErrNameRequired    = errors.New(MsgNameRequired)
	ErrNilGeometry     = errors.New("geometry cannot be nil")
)

// Room owns one game's lifecycle: roster, seating, turn order, the selection
// in progress and completion tracking. Room is not safe for concurrent use;
// callers serialize actions per room.
//
// Every action either applies fully or leaves the room untouched, and returns
// the notifications it produced. Rule violations never surface as Go errors.
type Room struct {
	id       string
	geom     *Geometry
	capacity int
	colors   []Color
	players  []*Player
	board    *Board
	status   Status

	current       int
	selected      *Position
	pending       []Position
	simpleOptions []Position
	canStepSimple bool
	trail         map[Position]bool

	winner   string
	finishes int
	moves    int
	turn     int
}

// NewRoom creates a room for the given capacity and seats its creator.
// Colors come from the geometry's palette for that capacity.
func NewRoom(id string, geom *Geometry, capacity int, connID, playerName string) (*Room, []Event, error) {
	if geom == nil {
		return nil, nil, ErrNilGeometry
	}
	colors, ok := geom.Palette(capacity)
	if !ok {
		return nil, nil, ErrInvalidCapacity
	}
	name := normalizeName(playerName)
	if name == "" {
		return nil, nil, ErrNameRequired
	}

	r := &Room{
		id:       id,
		geom:     geom,
		capacity: capacity,
		colors:   colors,
		board:    InitBoard(geom, colors),
		status:   WaitingForPlayers,
	}
	r.players = append(r.players, &Player{Name: name, Color: colors[0], ConnID: connID})

	return r, []Event{
		roomJoined(connID, id, r.board, capacity),
		playerList(r.names()),
	}, nil
}

// ID returns the room identifier
func (r *Room) ID() string {
	return r.id
}

// Status returns the lifecycle state
func (r *Room) Status() Status {
	return r.status
}

// Capacity returns the number of seats
func (r *Room) Capacity() int {
	return r.capacity
}

// Geometry returns the board geometry the room plays on
func (r *Room) Geometry() *Geometry {
	return r.geom
}

// Turn returns a counter that changes every time the turn changes hands
func (r *Room) Turn() int {
	return r.turn
}

// SeatOf returns the seat index bound to a connection, or -1
func (r *Room) SeatOf(connID string) int {
	for i, p := range r.players {
		if p.ConnID == connID {
			return i
		}
	}
	return -1
}

// Members returns the connection ids of every seat still connected
func (r *Room) Members() []string {
	ids := make([]string, 0, len(r.players))
	for _, p := range r.players {
		if !p.Disconnected {
			ids = append(ids, p.ConnID)
		}
	}
	return ids
}

// Seats returns the connection ids of every seat, connected or not
func (r *Room) Seats() []string {
	ids := make([]string, len(r.players))
	for i, p := range r.players {
		ids[i] = p.ConnID
	}
	return ids
}

// Join seats a new player. Once the roster reaches capacity the game starts.
func (r *Room) Join(connID, playerName string) []Event {
	name := normalizeName(playerName)
	if name == "" {
		return []Event{ErrorEvent(connID, MsgNameRequired)}
	}
	if r.SeatOf(connID) >= 0 {
		return []Event{ErrorEvent(connID, MsgAlreadyInRoom)}
	}
	if len(r.players) >= r.capacity {
		return []Event{ErrorEvent(connID, MsgRoomFull)}
	}

	seat := len(r.players)
	r.players = append(r.players, &Player{Name: name, Color: r.colors[seat], ConnID: connID})

	events := []Event{
		roomJoined(connID, r.id, r.board, r.capacity),
		playerList(r.names()),
	}
	if len(r.players) == r.capacity {
		events = append(events, r.start()...)
	}
	return events
}

// SelectOrMove handles a click on a cell by the acting connection.
// With nothing selected the click selects one of the player's own pieces;
// with a piece selected it commits a move to one of the offered destinations.
// Any other click is silently ignored.
func (r *Room) SelectOrMove(connID string, pos Position) []Event {
	seat := r.SeatOf(connID)
	if seat < 0 {
		return []Event{ErrorEvent(connID, MsgNotInRoom)}
	}
	switch r.status {
	case WaitingForPlayers:
		return []Event{ErrorEvent(connID, MsgNotStarted)}
	case Finished:
		e := allFinished()
		e.Target = connID
		return []Event{e}
	}
	if seat != r.current {
		return []Event{ErrorEvent(connID, MsgNotYourTurn)}
	}
	if !r.board.InBounds(pos) {
		return nil
	}

	if r.selected == nil {
		return r.selectPiece(r.players[seat], pos)
	}
	return r.movePiece(seat, pos)
}

// EndTurn passes the turn to the next seat that has not completed
func (r *Room) EndTurn(connID string) []Event {
	seat := r.SeatOf(connID)
	if seat < 0 {
		return []Event{ErrorEvent(connID, MsgNotInRoom)}
	}
	if r.status == WaitingForPlayers {
		return []Event{ErrorEvent(connID, MsgNotStarted)}
	}
	if r.allCompleted() {
		return []Event{allFinished()}
	}
	if seat != r.current {
		return []Event{ErrorEvent(connID, MsgNotYourTurn)}
	}
	return r.advance()
}

// ExpireTurn ends the current turn on behalf of its holder. It is a no-op unless
// turn still identifies the turn in progress, so a stale timer cannot end a later turn.
func (r *Room) ExpireTurn(turn int) []Event {
	if r.status != InProgress || turn != r.turn || r.allCompleted() {
		return nil
	}
	return r.advance()
}

// Reset starts the game over with the same roster, colors and capacity.
// Disconnected seats stay completed.
func (r *Room) Reset(connID string) []Event {
	if r.SeatOf(connID) < 0 {
		return []Event{ErrorEvent(connID, MsgNotInRoom)}
	}
	if r.status == WaitingForPlayers {
		return []Event{ErrorEvent(connID, MsgNotStarted)}
	}

	r.board = InitBoard(r.geom, r.colors)
	for _, p := range r.players {
		p.Completed = p.Disconnected
		p.Rank = 0
	}
	r.winner = ""
	r.finishes = 0
	r.moves = 0
	r.clearSelection()
	r.status = InProgress
	r.current = r.firstActiveSeat(0)
	r.turn++

	return []Event{boardReset(r.board, r.seatInfo(r.current))}
}

// Disconnect permanently marks a seat completed. It reports whether every seat
// is now completed, in which case the room should be torn down.
func (r *Room) Disconnect(connID string) ([]Event, bool) {
	seat := r.SeatOf(connID)
	if seat < 0 {
		return nil, false
	}
	p := r.players[seat]
	if p.Disconnected {
		return nil, r.allCompleted()
	}
	p.Disconnected = true
	p.Completed = true

	events := []Event{seatDisconnected(connID)}
	if r.allCompleted() {
		if r.status == InProgress && r.winner != "" {
			r.status = Finished
		}
		return events, true
	}
	if r.status == InProgress && seat == r.current {
		events = append(events, r.advance()...)
	}
	return events, false
}

// Snapshot returns a detached copy of the room state
func (r *Room) Snapshot() *RoomSnapshot {
	snap := &RoomSnapshot{
		ID:            r.id,
		Geometry:      r.geom.Name(),
		Status:        r.status,
		Capacity:      r.capacity,
		Players:       make([]Player, 0, len(r.players)),
		CurrentPlayer: r.current,
		CanStepSimple: r.canStepSimple,
		Winner:        r.winner,
		Moves:         r.moves,
		Turn:          r.turn,
		Board:         r.board.Clone(),
	}
	for _, p := range r.players {
		snap.Players = append(snap.Players, *p)
	}
	if r.selected != nil {
		sel := *r.selected
		snap.Selected = &sel
	}
	if len(r.pending) > 0 {
		snap.Pending = append([]Position(nil), r.pending...)
	}
	return snap
}

func (r *Room) start() []Event {
	r.status = InProgress
	r.current = r.firstActiveSeat(0)
	r.clearSelection()
	r.turn++
	return []Event{gameStarted(r.seatInfo(r.current))}
}

func (r *Room) selectPiece(player *Player, pos Position) []Event {
	if r.board.ColorAt(pos) != player.Color {
		return nil
	}

	sel := pos
	r.selected = &sel
	r.canStepSimple = true
	r.trail = map[Position]bool{pos: true}
	r.simpleOptions = r.board.SimpleSteps(pos)
	r.pending = r.board.LegalDestinations(pos, true, r.trail)

	events := []Event{pieceSelected(pos, player.Color)}
	if len(r.pending) > 0 {
		events = append(events, legalDestinations(r.pending, player.Color))
	}
	return events
}

func (r *Room) movePiece(seat int, pos Position) []Event {
	if !containsPosition(r.pending, pos) {
		return nil
	}
	player := r.players[seat]
	from := *r.selected
	simple := r.canStepSimple && containsPosition(r.simpleOptions, pos)

	events := r.repaintPending()
	r.board.Vacate(from)
	r.board.PlacePiece(pos, player.Color)
	r.moves++
	events = append(events,
		cellRepainted(from, r.board.RestingColor(from)),
		pieceSelected(pos, player.Color),
	)

	sel := pos
	r.selected = &sel
	r.pending = nil
	r.simpleOptions = nil
	r.canStepSimple = false
	r.trail[pos] = true

	if done, first := r.checkCompletion(seat); done {
		if first {
			events = append(events, playerWon(player.Name))
		}
		if r.allCompleted() {
			r.status = Finished
			events = append(events, cellRepainted(pos, player.Color), allFinished())
			r.clearSelection()
			return events
		}
		return append(events, r.advance()...)
	}

	if simple {
		return append(events, cellRepainted(pos, player.Color))
	}

	r.pending = r.board.LegalDestinations(pos, false, r.trail)
	if len(r.pending) == 0 {
		return append(events, cellRepainted(pos, player.Color))
	}
	return append(events, legalDestinations(r.pending, player.Color))
}

// checkCompletion marks the seat completed when every destination cell holds
// one of its pieces. It reports whether the seat completed just now and
// whether it is the first seat to finish.
func (r *Room) checkCompletion(seat int) (completed bool, first bool) {
	p := r.players[seat]
	if p.Completed {
		return false, false
	}
	dest := r.geom.Destinations(p.Color)
	if CountPiecesInZone(r.board, dest, p.Color) != r.geom.PiecesPerPlayer() {
		return false, false
	}

	first = r.winner == ""
	p.Completed = true
	r.finishes++
	p.Rank = r.finishes
	if first {
		r.winner = p.Name
	}
	return true, first
}

// advance clears the selection display and hands the turn to the next active seat
func (r *Room) advance() []Event {
	events := r.repaintPending()
	if r.selected != nil {
		events = append(events, cellRepainted(*r.selected, r.board.DisplayColor(*r.selected)))
	}

	r.current = r.nextActiveSeat(r.current)
	r.clearSelection()
	r.turn++

	return append(events, turnAdvanced(r.seatInfo(r.current)))
}

func (r *Room) repaintPending() []Event {
	events := make([]Event, 0, len(r.pending)+3)
	for _, p := range r.pending {
		events = append(events, cellRepainted(p, r.board.RestingColor(p)))
	}
	return events
}

func (r *Room) clearSelection() {
	r.selected = nil
	r.pending = nil
	r.simpleOptions = nil
	r.canStepSimple = true
	r.trail = nil
}

func (r *Room) nextActiveSeat(from int) int {
	n := len(r.players)
	next := (from + 1) % n
	if r.allCompleted() {
		return next
	}
	for r.players[next].Completed {
		next = (next + 1) % n
	}
	return next
}

func (r *Room) firstActiveSeat(from int) int {
	if !r.players[from].Completed || r.allCompleted() {
		return from
	}
	return r.nextActiveSeat(from)
}

func (r *Room) allCompleted() bool {
	for _, p := range r.players {
		if !p.Completed {
			return false
		}
	}
	return true
}

func (r *Room) seatInfo(seat int) SeatInfo {
	p := r.players[seat]
	return SeatInfo{Name: p.Name, Color: p.Color, ID: p.ConnID}
}

func (r *Room) names() []string {
	names := make([]string, len(r.players))
	for i, p := range r.players {
		names[i] = p.Name
	}
	return names
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if runes := []rune(name); len(runes) > MaxPlayerName {
		name = string(runes[:MaxPlayerName])
	}
	return name
}

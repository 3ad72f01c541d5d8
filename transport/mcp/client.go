package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/marblerace/game/engine"
	"github.com/wricardo/marblerace/game/service"
)

// Client is a thin MCP client that proxies to the REST API.
// It is read-only: agents can watch rooms but play only happens over WebSocket.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Marble Race",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Marble Race - MCP Spectator Interface

This is a thin client that proxies requests to the REST API server.
Games are played over the WebSocket endpoint; these tools observe them.

AVAILABLE TOOLS:
- list_rooms: List open rooms and their status
- get_room: Seats, turn and status of one room
- board_view: Text rendering of a room's board with a legend
- describe_cell: Detailed info about a single board cell
- list_configs: List available board geometries
- list_results: Finished games, most recent first
- game_instructions: Rules of the race`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List open rooms with their geometry, capacity, seats and status",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"status": map[string]interface{}{
					"type":        "string",
					"description": "Only rooms in this status",
					"enum":        []string{string(engine.WaitingForPlayers), string(engine.InProgress), string(engine.Finished)},
				},
			},
		},
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get seats, current turn, selection and status of a room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room ID",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleGetRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board_view",
		Description: "Render a room's board as text. Each piece shows as the first letter of its color, 'o' is an empty cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room ID",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleBoardView)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one board cell: zone, resting color, occupant and whether it is highlighted as a legal destination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room ID",
				},
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row index (0-based)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column index (0-based)",
				},
			},
			Required: []string{"room_id", "row", "col"},
		},
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List board geometries available when creating a room",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_results",
		Description: "List finished games with their winner and finishing order",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (default 10)",
				},
			},
		},
	}, c.handleListResults)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of the marble race",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/rooms"
	if status, _ := arguments(request)["status"].(string); status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var response struct {
		Count int                 `json:"count"`
		Rooms []*service.RoomInfo `json:"rooms"`
	}
	if err := c.apiCall("GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No open rooms"), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Open rooms (%d):\n", response.Count)
	for _, room := range response.Rooms {
		fmt.Fprintf(&sb, "- %s [%s] %s, %d/%d seats",
			room.ID, room.Geometry, room.Status, len(room.Players), room.Capacity)
		if names := playerNames(room.Players); names != "" {
			fmt.Fprintf(&sb, ": %s", names)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID, _ := arguments(request)["room_id"].(string)
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	var room service.RoomInfo
	if err := c.apiCall("GET", "/api/rooms/"+url.PathEscape(roomID), nil, &room); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoom(&room)), nil
}

func (c *Client) handleBoardView(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID, _ := arguments(request)["room_id"].(string)
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	var view struct {
		RoomID string        `json:"room_id"`
		Status engine.Status `json:"status"`
		Rows   []string      `json:"rows"`
		Legend []string      `json:"legend"`
	}
	if err := c.apiCall("GET", "/api/rooms/"+url.PathEscape(roomID)+"/board?format=json", nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Room %s (%s)\n", view.RoomID, view.Status)
	for i, row := range view.Rows {
		fmt.Fprintf(&sb, "%2d %s\n", i, row)
	}
	sb.WriteString("\n")
	for _, line := range view.Legend {
		sb.WriteString(line + "\n")
	}
	sb.WriteString("o = empty cell, blank = off the board\n")
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	roomID, _ := args["room_id"].(string)
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if roomID == "" || !okRow || !okCol {
		return mcp.NewToolResultError("room_id, row and col are required"), nil
	}

	var room service.RoomInfo
	if err := c.apiCall("GET", "/api/rooms/"+url.PathEscape(roomID), nil, &room); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if room.State == nil || room.State.Board == nil {
		return mcp.NewToolResultError("room has no board"), nil
	}

	board := room.State.Board
	if row < 0 || row >= board.Rows || col < 0 || col >= board.Cols {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are out of bounds. Board is %dx%d",
			row, col, board.Rows, board.Cols)), nil
	}

	return mcp.NewToolResultText(describeCell(room.State, row, col)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []*service.ConfigInfo
	if err := c.apiCall("GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	sb.WriteString("Available geometries:\n")
	for _, cfg := range configs {
		fmt.Fprintf(&sb, "- %s: %s (%dx%d, %d pieces, seats %v)\n",
			cfg.ConfigID, cfg.Name, cfg.Rows, cfg.Cols, cfg.PiecesPerPlayer, cfg.Capacities)
		if cfg.Description != "" {
			fmt.Fprintf(&sb, "  %s\n", cfg.Description)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleListResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit, ok := intArg(arguments(request), "limit")
	if !ok || limit <= 0 {
		limit = 10
	}

	var response struct {
		Count   int                   `json:"count"`
		Results []*service.GameResult `json:"results"`
	}
	if err := c.apiCall("GET", fmt.Sprintf("/api/results?limit=%d", limit), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No finished games yet"), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Finished games (%d):\n", response.Count)
	for _, result := range response.Results {
		fmt.Fprintf(&sb, "- %s room %s [%s] won by %s in %d moves (%s)\n",
			result.FinishedAt.Format(time.RFC3339), result.RoomID, result.Geometry,
			result.Winner, result.Moves, result.FinishedAt.Sub(result.StartedAt).Round(time.Second))
		for _, p := range result.Players {
			switch {
			case p.Rank > 0:
				fmt.Fprintf(&sb, "    #%d %s (%s)\n", p.Rank, p.Name, strings.ToLower(string(p.Color)))
			case p.Disconnected:
				fmt.Fprintf(&sb, "    -- %s (%s) left\n", p.Name, strings.ToLower(string(p.Color)))
			default:
				fmt.Fprintf(&sb, "    -- %s (%s)\n", p.Name, strings.ToLower(string(p.Color)))
			}
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `MARBLE RACE - RULES

OBJECTIVE:
Move all of your pieces from your home zone into your destination zone,
the zone on the opposite side of the board. The first player to fill their
destination wins; the race continues until every other seat has finished.

ROOMS:
• A room is created for 2, 3, 4 or 6 seats and starts when the last seat is taken
• Each seat is dealt a color from the geometry's palette for that capacity
• Players take turns in seat order

ON YOUR TURN:
1. Click one of your pieces to select it; its legal destinations are highlighted
2. Click a highlighted cell to move there
3. A simple step moves to an adjacent empty cell and ends your movement
4. A hop jumps over one adjacent piece (any color) into the empty cell beyond.
   After a hop the same piece stays selected and further hops are offered;
   a hop chain never lands twice on the same cell
5. End your turn once you have moved

NOTES:
• Only the seat holding the turn may act
• A seat finishes when every cell of its destination zone holds one of its pieces
• Finished and disconnected seats are skipped in the turn order

BOARD VIEW LEGEND:
• A letter is a piece: the first letter of its color (R = red, B = blue, ...)
• o is an empty playable cell
• Blank means the position is off the board

Rows alternate their offset: the six neighbors of a cell are the two cells
beside it in the same row (col ±2) and the four diagonals (row ±1, col ±1).`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func playerNames(players []engine.Player) string {
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

func formatRoom(room *service.RoomInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Room: %s\nGeometry: %s\nStatus: %s\nSeats: %d/%d\n",
		room.ID, room.Geometry, room.Status, len(room.Players), room.Capacity)

	state := room.State
	for i, p := range room.Players {
		marker := "  "
		if state != nil && room.Status == engine.InProgress && i == state.CurrentPlayer {
			marker = "> "
		}
		fmt.Fprintf(&sb, "%s%s (%s)", marker, p.Name, strings.ToLower(string(p.Color)))
		switch {
		case p.Rank > 0:
			fmt.Fprintf(&sb, " finished #%d", p.Rank)
		case p.Disconnected:
			sb.WriteString(" disconnected")
		}
		sb.WriteString("\n")
	}

	if state == nil {
		return sb.String()
	}
	fmt.Fprintf(&sb, "Moves: %d\n", state.Moves)
	if state.Winner != "" {
		fmt.Fprintf(&sb, "Winner: %s\n", state.Winner)
	}
	if state.Selected != nil {
		fmt.Fprintf(&sb, "Selected: (%d, %d)\n", state.Selected.Row, state.Selected.Col)
	}
	if len(state.Pending) > 0 {
		cells := make([]string, 0, len(state.Pending))
		for _, p := range state.Pending {
			cells = append(cells, fmt.Sprintf("(%d, %d)", p.Row, p.Col))
		}
		fmt.Fprintf(&sb, "Legal destinations: %s\n", strings.Join(cells, " "))
	}
	return sb.String()
}

func describeCell(state *engine.RoomSnapshot, row, col int) string {
	cell := state.Board.Cells[row][col]

	var zone string
	switch cell.Kind {
	case engine.Invalid:
		return fmt.Sprintf("Cell at (%d, %d) is off the board", row, col)
	case engine.Home:
		zone = fmt.Sprintf("home zone of %s", strings.ToLower(string(cell.OriginalColor)))
	case engine.Common:
		zone = "common area"
	default:
		zone = string(cell.Kind)
	}

	occupant := "empty"
	if cell.Occupant != engine.NoColor {
		occupant = strings.ToLower(string(cell.Occupant))
		for _, p := range state.Players {
			if p.Color == cell.Occupant {
				occupant = fmt.Sprintf("%s (%s)", occupant, p.Name)
				break
			}
		}
	}

	selected := state.Selected != nil && state.Selected.Row == row && state.Selected.Col == col
	legal := false
	for _, p := range state.Pending {
		if p.Row == row && p.Col == col {
			legal = true
			break
		}
	}

	return fmt.Sprintf(`Cell at (%d, %d):
Zone: %s
Resting color: %s
Occupant: %s
Legal destination: %v
Selected: %v`,
		row, col,
		zone,
		strings.ToLower(string(cell.OriginalColor)),
		occupant,
		legal,
		selected)
}

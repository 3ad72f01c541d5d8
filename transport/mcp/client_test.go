package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wricardo/marblerace/api"
	"github.com/wricardo/marblerace/game/config"
	"github.com/wricardo/marblerace/game/engine"
	"github.com/wricardo/marblerace/game/service"
	"github.com/wricardo/marblerace/game/session"
)

// backend is a real REST API over an in-memory room registry
type backend struct {
	server  *httptest.Server
	service service.GameService
	results *session.FileResultStore
}

func newBackend(t *testing.T) *backend {
	t.Helper()

	configs, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("config manager: %v", err)
	}
	results, err := session.NewFileResultStore(t.TempDir())
	if err != nil {
		t.Fatalf("result store: %v", err)
	}

	svc := service.NewGameService(session.NewManager(), configs, nil, service.Options{Results: results})
	server := httptest.NewServer(api.NewServer(svc, nil))
	t.Cleanup(server.Close)

	return &backend{server: server, service: svc, results: results}
}

// startGame creates a two seat room on the standard board and fills it
func (b *backend) startGame(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	room, err := b.service.CreateRoom(ctx, "c1", "alice", 2, "standard")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if err := b.service.JoinRoom(ctx, "c2", room.ID, "bob"); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	return room.ID
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]interface{}) (string, bool) {
	t.Helper()

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	result, err := handler(context.Background(), request)
	if err != nil {
		t.Fatalf("%s returned error: %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("%s returned no content", name)
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("%s: expected TextContent, got %T", name, result.Content[0])
	}
	return text.Text, result.IsError
}

func assertContains(t *testing.T, text string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(text, w) {
			t.Errorf("expected output to contain %q, got:\n%s", w, text)
		}
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" && r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"path": r.URL.Path})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall("GET", "/api/rooms", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["path"] != "/api/rooms" {
		t.Errorf("Expected path /api/rooms, got %v", response["path"])
	}

	if err := client.apiCall("POST", "/api/configs", map[string]string{"name": "x"}, nil); err != nil {
		t.Errorf("POST with body failed: %v", err)
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		if err := client.apiCall("GET", "/api/rooms", nil, nil); err == nil {
			t.Error("Expected error for unreachable server")
		}
	})

	t.Run("json error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "room not found"})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall("GET", "/api/rooms/x", nil, nil)
		if err == nil || err.Error() != "room not found" {
			t.Errorf("Expected 'room not found', got %v", err)
		}
	})

	t.Run("plain error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall("GET", "/api", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "500") {
			t.Errorf("Expected status code in error, got %v", err)
		}
	})
}

func TestHandleListRooms(t *testing.T) {
	b := newBackend(t)
	client := NewClient(b.server.URL)

	text, isErr := call(t, client.handleListRooms, "list_rooms", nil)
	if isErr || text != "No open rooms" {
		t.Errorf("Expected empty listing, got %q", text)
	}

	roomID := b.startGame(t)
	if _, err := b.service.CreateRoom(context.Background(), "c3", "carol", 3, "standard"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	text, isErr = call(t, client.handleListRooms, "list_rooms", map[string]interface{}{})
	if isErr {
		t.Fatalf("list_rooms failed: %s", text)
	}
	assertContains(t, text, "Open rooms (2)", roomID, "2/2 seats: alice, bob", "1/3 seats: carol")

	text, _ = call(t, client.handleListRooms, "list_rooms", map[string]interface{}{"status": "in_progress"})
	assertContains(t, text, "Open rooms (1)", roomID)
	if strings.Contains(text, "carol") {
		t.Errorf("Expected waiting room filtered out, got:\n%s", text)
	}
}

func TestHandleGetRoom(t *testing.T) {
	b := newBackend(t)
	client := NewClient(b.server.URL)
	roomID := b.startGame(t)

	if err := b.service.Click(context.Background(), "c1", roomID, engine.Position{Row: 3, Col: 9}); err != nil {
		t.Fatalf("Click: %v", err)
	}

	text, isErr := call(t, client.handleGetRoom, "get_room", map[string]interface{}{"room_id": roomID})
	if isErr {
		t.Fatalf("get_room failed: %s", text)
	}
	assertContains(t, text,
		"Room: "+roomID,
		"Status: in_progress",
		"Seats: 2/2",
		"> alice (red)",
		"  bob (blue)",
		"Selected: (3, 9)",
		"Legal destinations:",
		"(4, 8)",
	)

	text, isErr = call(t, client.handleGetRoom, "get_room", map[string]interface{}{"room_id": "missing"})
	if !isErr || !strings.Contains(text, "room not found") {
		t.Errorf("Expected room not found error, got %q", text)
	}

	if _, isErr := call(t, client.handleGetRoom, "get_room", nil); !isErr {
		t.Error("Expected error without room_id")
	}
}

func TestHandleBoardView(t *testing.T) {
	b := newBackend(t)
	client := NewClient(b.server.URL)
	roomID := b.startGame(t)

	text, isErr := call(t, client.handleBoardView, "board_view", map[string]interface{}{"room_id": roomID})
	if isErr {
		t.Fatalf("board_view failed: %s", text)
	}
	assertContains(t, text,
		"Room "+roomID+" (in_progress)",
		" 0             R",
		"16             B",
		"R = alice (red)",
		"B = bob (blue)",
		"o = empty cell",
	)
}

func TestHandleDescribeCell(t *testing.T) {
	b := newBackend(t)
	client := NewClient(b.server.URL)
	roomID := b.startGame(t)

	describe := func(row, col int) (string, bool) {
		return call(t, client.handleDescribeCell, "describe_cell", map[string]interface{}{
			"room_id": roomID,
			"row":     float64(row),
			"col":     float64(col),
		})
	}

	text, isErr := describe(0, 12)
	if isErr {
		t.Fatalf("describe_cell failed: %s", text)
	}
	assertContains(t, text, "Cell at (0, 12)", "Zone: home zone of red", "Occupant: red (alice)", "Legal destination: false")

	text, _ = describe(8, 12)
	assertContains(t, text, "Zone: common area", "Occupant: empty", "Resting color: whitesmoke")

	text, _ = describe(0, 0)
	assertContains(t, text, "off the board")

	// highlighted after selecting a piece on the red front row
	if err := b.service.Click(context.Background(), "c1", roomID, engine.Position{Row: 3, Col: 9}); err != nil {
		t.Fatalf("Click: %v", err)
	}
	text, _ = describe(4, 8)
	assertContains(t, text, "Legal destination: true")
	text, _ = describe(3, 9)
	assertContains(t, text, "Selected: true")

	text, isErr = describe(17, 0)
	if !isErr || !strings.Contains(text, "out of bounds") {
		t.Errorf("Expected out of bounds error, got %q", text)
	}

	if _, isErr := call(t, client.handleDescribeCell, "describe_cell", map[string]interface{}{"room_id": roomID}); !isErr {
		t.Error("Expected error without coordinates")
	}
}

func TestHandleListConfigs(t *testing.T) {
	b := newBackend(t)
	client := NewClient(b.server.URL)

	text, isErr := call(t, client.handleListConfigs, "list_configs", nil)
	if isErr {
		t.Fatalf("list_configs failed: %s", text)
	}
	assertContains(t, text, "- standard:", "(17x25, 10 pieces, seats [2 3 4 6])")
}

func TestHandleListResults(t *testing.T) {
	b := newBackend(t)
	client := NewClient(b.server.URL)

	text, isErr := call(t, client.handleListResults, "list_results", nil)
	if isErr || text != "No finished games yet" {
		t.Errorf("Expected no results, got %q", text)
	}

	finished := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	err := b.results.Save(&service.GameResult{
		ID:       "r1",
		RoomID:   "room1",
		Geometry: "standard",
		Capacity: 2,
		Players: []service.ResultPlayer{
			{Name: "alice", Color: "RED", Rank: 1, Completed: true},
			{Name: "bob", Color: "BLUE", Completed: true, Disconnected: true},
		},
		Winner:     "alice",
		Moves:      42,
		StartedAt:  finished.Add(-90 * time.Second),
		FinishedAt: finished,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	text, isErr = call(t, client.handleListResults, "list_results", map[string]interface{}{"limit": float64(5)})
	if isErr {
		t.Fatalf("list_results failed: %s", text)
	}
	assertContains(t, text,
		"Finished games (1)",
		"room room1 [standard] won by alice in 42 moves (1m30s)",
		"#1 alice (red)",
		"-- bob (blue) left",
	)
}

func TestHandleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:0")

	text, isErr := call(t, client.handleGameInstructions, "game_instructions", nil)
	if isErr {
		t.Fatal("game_instructions should not fail")
	}
	assertContains(t, text, "MARBLE RACE", "simple step", "hop", "destination zone")
}

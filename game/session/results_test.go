package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/marblerace/game/service"
)

func createTestResult(id string) *service.GameResult {
	return &service.GameResult{
		ID:       id,
		RoomID:   "abcDEF0123",
		Geometry: "standard",
		Capacity: 2,
		Players: []service.ResultPlayer{
			{Name: "alice", Color: "RED", Rank: 1, Completed: true},
			{Name: "bob", Color: "BLUE", Completed: true, Disconnected: true},
		},
		Winner:     "alice",
		Moves:      42,
		StartedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		FinishedAt: time.Date(2026, 1, 2, 3, 30, 0, 0, time.UTC),
	}
}

func TestFileResultStore(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewFileResultStore(filepath.Join(tempDir, "results"))
	if err != nil {
		t.Fatalf("Failed to create result store: %v", err)
	}

	result := createTestResult("result-1")

	t.Run("Save and Load Result", func(t *testing.T) {
		if err := store.Save(result); err != nil {
			t.Fatalf("Failed to save result: %v", err)
		}
		if !store.Exists("result-1") {
			t.Error("Result file should exist after save")
		}

		loaded, err := store.Load("result-1")
		if err != nil {
			t.Fatalf("Failed to load result: %v", err)
		}
		if loaded.Winner != "alice" || loaded.Moves != 42 || loaded.RoomID != result.RoomID {
			t.Errorf("Loaded result mismatch: %+v", loaded)
		}
		if len(loaded.Players) != 2 || !loaded.Players[1].Disconnected || loaded.Players[0].Rank != 1 {
			t.Errorf("Loaded players mismatch: %+v", loaded.Players)
		}
		if !loaded.FinishedAt.Equal(result.FinishedAt) {
			t.Errorf("Expected finish time %v, got %v", result.FinishedAt, loaded.FinishedAt)
		}
	})

	t.Run("List All Results", func(t *testing.T) {
		store.Save(createTestResult("result-2"))

		ids, err := store.ListAll()
		if err != nil {
			t.Fatalf("Failed to list results: %v", err)
		}
		if len(ids) != 2 {
			t.Errorf("Expected 2 results, got %d", len(ids))
		}
	})

	t.Run("Delete Result", func(t *testing.T) {
		if err := store.Delete("result-2"); err != nil {
			t.Fatalf("Failed to delete result: %v", err)
		}
		if store.Exists("result-2") {
			t.Error("Result should not exist after deletion")
		}
		if err := store.Delete("result-2"); !errors.Is(err, ErrResultNotFound) {
			t.Errorf("Expected ErrResultNotFound, got %v", err)
		}
	})

	t.Run("Load Non-existent Result", func(t *testing.T) {
		if _, err := store.Load("missing"); !errors.Is(err, ErrResultNotFound) {
			t.Errorf("Expected ErrResultNotFound, got %v", err)
		}
	})

	t.Run("Reject Unsafe IDs", func(t *testing.T) {
		if err := store.Save(createTestResult("../escape")); err == nil {
			t.Error("Expected error for unsafe id")
		}
		if err := store.Save(nil); err == nil {
			t.Error("Expected error for nil result")
		}
		if store.Exists("../results/result-1") {
			t.Error("Unsafe ids should never resolve")
		}
	})
}

func TestFileResultStoreFileStructure(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewFileResultStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create result store: %v", err)
	}

	if err := store.Save(createTestResult("structure")); err != nil {
		t.Fatalf("Failed to save result: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tempDir, "structure.json"))
	if err != nil {
		t.Fatalf("Failed to read result file: %v", err)
	}

	content := string(data)
	for _, field := range []string{`"id"`, `"room_id"`, `"geometry"`, `"players"`, `"winner"`, `"moves"`, `"finished_at"`} {
		if !strings.Contains(content, field) {
			t.Errorf("Result file should contain %s", field)
		}
	}

	// Non-JSON files and directories are ignored
	os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("x"), 0644)
	os.Mkdir(filepath.Join(tempDir, "sub.json"), 0755)

	ids, err := store.ListAll()
	if err != nil {
		t.Fatalf("Failed to list results: %v", err)
	}
	if len(ids) != 1 || ids[0] != "structure" {
		t.Errorf("Expected only 'structure', got %v", ids)
	}
}

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/marblerace/game/service"
)

var ErrResultNotFound = errors.New("result not found")

// FileResultStore implements service.ResultStore using one JSON file per game
type FileResultStore struct {
	resultsDir string
}

// NewFileResultStore creates the results directory if needed
func NewFileResultStore(resultsDir string) (*FileResultStore, error) {
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	return &FileResultStore{resultsDir: resultsDir}, nil
}

// Save writes a result to <resultsDir>/<id>.json
func (fs *FileResultStore) Save(result *service.GameResult) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}
	if !validID(result.ID) {
		return fmt.Errorf("invalid result id %q", result.ID)
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := os.WriteFile(fs.getFilePath(result.ID), jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}

	return nil
}

// Load reads a result by id
func (fs *FileResultStore) Load(id string) (*service.GameResult, error) {
	if !fs.Exists(id) {
		return nil, ErrResultNotFound
	}

	jsonData, err := os.ReadFile(fs.getFilePath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}

	var result service.GameResult
	if err := json.Unmarshal(jsonData, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

// Delete removes a result file
func (fs *FileResultStore) Delete(id string) error {
	if !fs.Exists(id) {
		return ErrResultNotFound
	}

	if err := os.Remove(fs.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove result file: %w", err)
	}

	return nil
}

// ListAll returns all stored result ids
func (fs *FileResultStore) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fs.resultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read results directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}

	return ids, nil
}

// Exists checks if a result file exists
func (fs *FileResultStore) Exists(id string) bool {
	if !validID(id) {
		return false
	}
	_, err := os.Stat(fs.getFilePath(id))
	return err == nil
}

// getFilePath returns the full file path for a result id
func (fs *FileResultStore) getFilePath(id string) string {
	return filepath.Join(fs.resultsDir, fmt.Sprintf("%s.json", id))
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && !strings.HasPrefix(id, ".")
}

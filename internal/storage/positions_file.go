package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/0xNedAlbo/duncan-ui-sub003/internal/model"
)

// FilePositionStore keeps tracked positions in a local JSON file. The file
// is also the hand-edited input format, so writes keep it indented.
type FilePositionStore struct {
	path string
}

type positionsFile struct {
	Positions []model.Position `json:"positions"`
	UpdatedAt string           `json:"updated_at,omitempty"`
}

func NewFilePositionStore(path string) *FilePositionStore {
	return &FilePositionStore{path: path}
}

// LoadPositions reads the file; a missing file is an empty store.
func (s *FilePositionStore) LoadPositions(ctx context.Context) ([]model.Position, error) {
	if s.path == "" {
		return nil, fmt.Errorf("positions path required")
	}

	stat, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat positions: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("positions path is a directory")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	var rec positionsFile
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse positions: %w", err)
	}
	return rec.Positions, nil
}

// SavePositions replaces the file contents atomically.
func (s *FilePositionStore) SavePositions(ctx context.Context, positions []model.Position) error {
	if s.path == "" {
		return fmt.Errorf("positions path required")
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create positions dir: %w", err)
		}
	}

	rec := positionsFile{
		Positions: positions,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal positions: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write positions tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename positions: %w", err)
	}

	return nil
}

package watchlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"ProfileSentinel/internal/model"
)

// Store persists the watchlist state.
type Store interface {
	Load() (*model.WatchlistState, error)
	Save(state *model.WatchlistState) error
}

// FileStore keeps the state in one JSON file.
type FileStore struct {
	Path string
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the state. A missing file yields a zero state.
func (s *FileStore) Load() (*model.WatchlistState, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.WatchlistState{}, nil
		}
		return nil, errors.Wrap(err, "read watchlist state")
	}
	var state model.WatchlistState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrapf(err, "decode %s", s.Path)
	}
	return &state, nil
}

// Save writes the state through a temp file so a crash never leaves a
// truncated file behind.
func (s *FileStore) Save(state *model.WatchlistState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode watchlist state")
	}
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create state dir")
		}
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write watchlist state")
	}
	return errors.Wrap(os.Rename(tmp, s.Path), "replace watchlist state")
}

// MemoryStore keeps the state in memory for tests. Load and Save copy the
// state, so like FileStore only a Save changes what is stored.
type MemoryStore struct {
	mu    sync.Mutex
	state model.WatchlistState
}

func (s *MemoryStore) Load() (*model.WatchlistState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state.Clone()
	return &st, nil
}

func (s *MemoryStore) Save(state *model.WatchlistState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	return nil
}

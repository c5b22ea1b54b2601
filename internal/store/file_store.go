package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"trade-journal-go/internal/models"
)

// fileState is the on-disk shape of the flat-file backend. Timestamps are
// carried as RFC3339 strings by encoding/json; the Store API always hands
// back time.Time values.
type fileState struct {
	Version string         `json:"version"`
	NextID  uint           `json:"next_id"`
	Trades  []models.Trade `json:"trades"`
}

const fileStateVersion = "1.0"

// FileStore is the fallback backend: the whole dataset lives in memory and is
// rewritten to a single JSON file synchronously after every mutation. That is
// a deliberate durability/perf tradeoff for small journals, not a bug.
type FileStore struct {
	path string
	log  *zap.Logger

	mu    sync.Mutex
	state fileState
}

// NewFileStore loads (or creates) the JSON dataset at path.
func NewFileStore(path string, log *zap.Logger) (*FileStore, error) {
	s := &FileStore{path: path, log: log}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.state = fileState{Version: fileStateVersion, NextID: 1, Trades: []models.Trade{}}
		if err := s.save(); err != nil {
			return nil, err
		}
		return s, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trade file: %w", err)
	}
	if err := json.Unmarshal(b, &s.state); err != nil {
		return nil, fmt.Errorf("failed to parse trade file: %w", err)
	}
	if s.state.NextID == 0 {
		// Older files carried no counter; rebuild it from the data.
		for i := range s.state.Trades {
			if s.state.Trades[i].ID >= s.state.NextID {
				s.state.NextID = s.state.Trades[i].ID + 1
			}
		}
		if s.state.NextID == 0 {
			s.state.NextID = 1
		}
		s.state.Version = fileStateVersion
		if err := s.save(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// save rewrites the whole dataset. Write to a temp file, sync, then rename so
// a crash mid-write cannot truncate the existing data.
func (s *FileStore) save() error {
	b, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal trades: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temp trade file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("failed to write temp trade file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp trade file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp trade file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace trade file: %w", err)
	}
	return nil
}

func (s *FileStore) Create(t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assignID(t)
	s.state.Trades = append(s.state.Trades, *t)
	return s.save()
}

func (s *FileStore) BulkCreate(ts []*models.Trade) error {
	if len(ts) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range ts {
		s.assignID(t)
		s.state.Trades = append(s.state.Trades, *t)
	}
	return s.save()
}

func (s *FileStore) assignID(t *models.Trade) {
	t.ID = s.state.NextID
	s.state.NextID++
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
}

func (s *FileStore) Query(f Filter) ([]models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Trade, 0, len(s.state.Trades))
	for i := range s.state.Trades {
		if f.matches(&s.state.Trades[i]) {
			out = append(out, s.state.Trades[i])
		}
	}
	sortByEntryDate(out)
	return out, nil
}

func (s *FileStore) Get(id uint) (*models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	t := s.state.Trades[i]
	return &t, nil
}

func (s *FileStore) Update(id uint, patch map[string]any) (*models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	applyPatch(&s.state.Trades[i], patch)
	s.state.Trades[i].UpdatedAt = time.Now()
	if err := s.save(); err != nil {
		return nil, err
	}
	t := s.state.Trades[i]
	return &t, nil
}

func (s *FileStore) Delete(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.state.Trades = append(s.state.Trades[:i], s.state.Trades[i+1:]...)
	return s.save()
}

func (s *FileStore) PurgeAll() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.state.Trades))
	s.state.Trades = []models.Trade{}
	if err := s.save(); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *FileStore) indexOf(id uint) int {
	for i := range s.state.Trades {
		if s.state.Trades[i].ID == id {
			return i
		}
	}
	return -1
}

var _ Store = (*FileStore)(nil)

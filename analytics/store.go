package analytics

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"

	models "github.com/tumaini/giving-portal-go/models"
)

// QueueStore is the persistence port for the failed-events queue. The file
// implementation backs the running portal; the memory one backs tests.
type QueueStore interface {
	Load() ([]models.QueuedEvent, error)
	Save(events []models.QueuedEvent) error
}

// FileStore keeps the queue as a JSON file next to the process.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (f *FileStore) Load() ([]models.QueuedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var events []models.QueuedEvent
	if err := json.Unmarshal(data, &events); err != nil {
		// A corrupt queue file should not wedge startup; start fresh.
		return nil, nil
	}
	return events, nil
}

func (f *FileStore) Save(events []models.QueuedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if events == nil {
		events = []models.QueuedEvent{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// MemoryStore is an in-memory QueueStore for tests.
type MemoryStore struct {
	mu     sync.Mutex
	events []models.QueuedEvent
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load() ([]models.QueuedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.QueuedEvent(nil), m.events...), nil
}

func (m *MemoryStore) Save(events []models.QueuedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append([]models.QueuedEvent(nil), events...)
	return nil
}

package shipimport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ignite/shipment-importer/internal/domain"
)

// DefaultRunTTL is how long a stored run stays retryable.
const DefaultRunTTL = 7 * 24 * time.Hour

type storedRun struct {
	data    []byte
	expires time.Time
}

// MemoryRunStore keeps runs in process memory for ttl. It backs
// single-instance deployments without Redis and the tests.
type MemoryRunStore struct {
	mu   sync.Mutex
	runs map[string]storedRun
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryRunStore returns an empty store. A zero ttl means DefaultRunTTL.
func NewMemoryRunStore(ttl time.Duration) *MemoryRunStore {
	if ttl <= 0 {
		ttl = DefaultRunTTL
	}
	return &MemoryRunStore{runs: make(map[string]storedRun), ttl: ttl, now: time.Now}
}

// Save stores a deep copy of run and drops expired runs.
func (m *MemoryRunStore) Save(_ context.Context, run *domain.ImportRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.runs {
		if !now.Before(r.expires) {
			delete(m.runs, id)
		}
	}
	m.runs[run.ID] = storedRun{data: data, expires: now.Add(m.ttl)}
	return nil
}

// Get returns a copy of the stored run, or ErrRunNotFound once it expired.
func (m *MemoryRunStore) Get(_ context.Context, id string) (*domain.ImportRun, error) {
	m.mu.Lock()
	r, ok := m.runs[id]
	if ok && !m.now().Before(r.expires) {
		delete(m.runs, id)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, ErrRunNotFound
	}

	var run domain.ImportRun
	if err := json.Unmarshal(r.data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// Len reports how many runs are held, expired ones included until swept.
func (m *MemoryRunStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

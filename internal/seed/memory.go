package seed

import (
	"context"
	"fmt"
	"sync"

	"github.com/koustreak/dbinit/internal/errs"
)

// MemoryRepository is an in-process Repository with the same guarantees the
// SQL tables carry: one row per business key per kind, generated IDs, and
// parent references that must exist. It backs dry runs.
type MemoryRepository struct {
	mu       sync.Mutex
	byKey    map[Kind]map[string]Entity
	byID     map[Kind]map[int64]bool
	seq      map[Kind]int64
	inserted []Entity
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byKey: make(map[Kind]map[string]Entity),
		byID:  make(map[Kind]map[int64]bool),
		seq:   make(map[Kind]int64),
	}
}

func (m *MemoryRepository) FindByKey(_ context.Context, kind Kind, key string) (*Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.byKey[kind][key]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, fmt.Sprintf("%s %q not found", kind, key))
	}
	return &e, nil
}

func (m *MemoryRepository) Insert(_ context.Context, e Entity) (*Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.byKey[e.Kind][e.Key]; dup {
		return nil, errs.New(errs.ErrKindConflict, fmt.Sprintf("duplicate %s key %q", e.Kind, e.Key))
	}

	if pk, ok := ParentKind(e.Kind); ok {
		if e.ParentID == nil || !m.byID[pk][*e.ParentID] {
			return nil, errs.New(errs.ErrKindQueryFailed, fmt.Sprintf("foreign key violation: %s %q has no %s parent", e.Kind, e.Key, pk))
		}
	}

	m.seq[e.Kind]++
	e.ID = m.seq[e.Kind]

	if m.byKey[e.Kind] == nil {
		m.byKey[e.Kind] = make(map[string]Entity)
		m.byID[e.Kind] = make(map[int64]bool)
	}
	m.byKey[e.Kind][e.Key] = e
	m.byID[e.Kind][e.ID] = true
	m.inserted = append(m.inserted, e)

	out := e
	return &out, nil
}

// Inserted returns every row in insertion order.
func (m *MemoryRepository) Inserted() []Entity {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entity, len(m.inserted))
	copy(out, m.inserted)
	return out
}

// Len returns the number of rows of kind.
func (m *MemoryRepository) Len(kind Kind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byKey[kind])
}

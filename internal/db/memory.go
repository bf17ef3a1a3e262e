package db

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/ukydev/equipment-maintenance/internal/models"
)

// MemoryStore keeps maintenance records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]models.MaintenanceRecord
	order   []uuid.UUID // insertion order, breaks CreatedAt ties
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]models.MaintenanceRecord)}
}

// InsertMaintenance inserts a maintenance record into the store.
func (s *MemoryStore) InsertMaintenance(ctx context.Context, rec models.MaintenanceRecord) (models.MaintenanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[rec.ID]; ok {
		if existing.Equal(rec) {
			return existing, nil
		}
		return models.MaintenanceRecord{}, ErrConflict
	}
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return rec, nil
}

// FindMaintenance queries maintenance records from the store.
func (s *MemoryStore) FindMaintenance(ctx context.Context, filter MaintenanceFilter) ([]models.MaintenanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MaintenanceRecord, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		rec := s.records[s.order[i]]
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// FindMaintenanceByID finds a maintenance record by its ID.
func (s *MemoryStore) FindMaintenanceByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

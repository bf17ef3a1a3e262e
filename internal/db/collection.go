package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ukydev/equipment-maintenance/internal/models"
)

var (
	ErrNotFound = errors.New("maintenance record not found")
	ErrConflict = errors.New("maintenance record already exists with different content")
)

// MaintenanceFilter narrows a history query. Zero fields match everything.
type MaintenanceFilter struct {
	EquipmentID uuid.UUID
	Type        string
	Date        time.Time // calendar day, see models.CalendarDate
}

// Matches reports whether rec passes the filter.
func (f MaintenanceFilter) Matches(rec models.MaintenanceRecord) bool {
	if f.EquipmentID != uuid.Nil && rec.EquipmentID != f.EquipmentID {
		return false
	}
	if f.Type != "" && rec.Type != models.NormalizeType(f.Type) {
		return false
	}
	if !f.Date.IsZero() && !models.SameCalendarDate(rec.Date, f.Date) {
		return false
	}
	return true
}

// MaintenanceStore defines the interface for maintenance record storage.
// Stored records are never modified.
type MaintenanceStore interface {
	// InsertMaintenance stores rec. Inserting an identical record again is a
	// no-op; a different record under an existing ID returns ErrConflict.
	InsertMaintenance(ctx context.Context, rec models.MaintenanceRecord) (models.MaintenanceRecord, error)
	// FindMaintenance returns matching records, newest created first.
	FindMaintenance(ctx context.Context, filter MaintenanceFilter) ([]models.MaintenanceRecord, error)
	// FindMaintenanceByID returns ErrNotFound when no record has the ID.
	FindMaintenanceByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRecord, error)
	Close(ctx context.Context) error
}

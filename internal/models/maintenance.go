package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaintenanceSubmission is a maintenance event proposed by a caller. It has no
// identity of its own until it is accepted and stored as a MaintenanceRecord.
type MaintenanceSubmission struct {
	EquipmentID   uuid.UUID `json:"equipment_id"`
	EquipmentName string    `json:"equipment_name"`
	Date          time.Time `json:"date"`
	Type          string    `json:"type"`
	Description   string    `json:"description"`
	UserID        uuid.UUID `json:"user_id"`
	UserName      string    `json:"user_name"`
}

// MaintenanceRecord represents an accepted equipment maintenance event.
// Records are never updated once created.
type MaintenanceRecord struct {
	ID            uuid.UUID `json:"id"`
	EquipmentID   uuid.UUID `json:"equipment_id"`
	EquipmentName string    `json:"equipment_name"`
	Date          time.Time `json:"date"`
	Type          string    `json:"type"` // normalized, see NormalizeType
	Description   string    `json:"description"`
	UserID        uuid.UUID `json:"user_id"`
	UserName      string    `json:"user_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewMaintenanceRecord builds the record stored for an accepted submission.
func NewMaintenanceRecord(id uuid.UUID, sub MaintenanceSubmission, createdAt time.Time) MaintenanceRecord {
	return MaintenanceRecord{
		ID:            id,
		EquipmentID:   sub.EquipmentID,
		EquipmentName: sub.EquipmentName,
		Date:          sub.Date,
		Type:          NormalizeType(sub.Type),
		Description:   sub.Description,
		UserID:        sub.UserID,
		UserName:      sub.UserName,
		CreatedAt:     createdAt,
	}
}

// Equal reports whether two records hold the same data. Times are compared as
// instants so records read back from a store compare equal to the originals.
func (r MaintenanceRecord) Equal(o MaintenanceRecord) bool {
	return r.ID == o.ID &&
		r.EquipmentID == o.EquipmentID &&
		r.EquipmentName == o.EquipmentName &&
		r.Date.Equal(o.Date) &&
		r.Type == o.Type &&
		r.Description == o.Description &&
		r.UserID == o.UserID &&
		r.UserName == o.UserName &&
		r.CreatedAt.Equal(o.CreatedAt)
}

// NormalizeType trims and lower-cases a maintenance type.
func NormalizeType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// CalendarDate returns midnight UTC of the day t falls on.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameCalendarDate reports whether a and b fall on the same UTC day.
func SameCalendarDate(a, b time.Time) bool {
	return CalendarDate(a).Equal(CalendarDate(b))
}

// Package events announces accepted maintenance records to other systems.
package events

import (
	"context"
	"time"

	"github.com/ukydev/equipment-maintenance/internal/models"
)

const EventMaintenanceCreated = "maintenance.created"

// MaintenanceEvent is published once per accepted submission.
type MaintenanceEvent struct {
	Event       string                   `json:"event"`
	Maintenance models.MaintenanceRecord `json:"maintenance"`
	Warnings    []string                 `json:"warnings"`
	PublishedAt time.Time                `json:"published_at"`
}

// NewMaintenanceCreated builds the event for a stored record.
func NewMaintenanceCreated(rec models.MaintenanceRecord, warnings []string) MaintenanceEvent {
	if warnings == nil {
		warnings = []string{}
	}
	return MaintenanceEvent{
		Event:       EventMaintenanceCreated,
		Maintenance: rec,
		Warnings:    warnings,
		PublishedAt: time.Now().UTC(),
	}
}

// Publisher delivers maintenance events.
type Publisher interface {
	Publish(ctx context.Context, event MaintenanceEvent) error
	Close()
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, MaintenanceEvent) error { return nil }
func (NopPublisher) Close()                                          {}

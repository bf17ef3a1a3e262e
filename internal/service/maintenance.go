// Package service runs the submission flow: validate a maintenance
// submission against the equipment's history, store it when it passes and
// report the outcome.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/equipment-maintenance/internal/db"
	"github.com/ukydev/equipment-maintenance/internal/events"
	"github.com/ukydev/equipment-maintenance/internal/metrics"
	"github.com/ukydev/equipment-maintenance/internal/models"
	"github.com/ukydev/equipment-maintenance/internal/validation"
)

var ErrValidation = errors.New("maintenance submission rejected")

// ValidationError carries the verdict of a rejected submission.
type ValidationError struct {
	Verdict models.Verdict
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Verdict.Errors, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// MaintenanceService validates and stores maintenance submissions.
type MaintenanceService struct {
	store     db.MaintenanceStore
	engine    *validation.Engine
	publisher events.Publisher
	locks     *keyLock
	now       func() time.Time
	newID     func() uuid.UUID
}

// Option configures a MaintenanceService.
type Option func(*MaintenanceService)

// WithPublisher sets where accepted records are announced.
func WithPublisher(p events.Publisher) Option {
	return func(s *MaintenanceService) { s.publisher = p }
}

// WithClock sets the source of record creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MaintenanceService) { s.now = now }
}

// WithIDGenerator sets how record identifiers are generated.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *MaintenanceService) { s.newID = newID }
}

// NewMaintenanceService creates a new maintenance service.
func NewMaintenanceService(store db.MaintenanceStore, engine *validation.Engine, opts ...Option) *MaintenanceService {
	s := &MaintenanceService{
		store:     store,
		engine:    engine,
		publisher: events.NopPublisher{},
		locks:     newKeyLock(),
		now:       time.Now,
		newID:     uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates sub and stores it when valid. The returned verdict is
// always populated; a rejected submission also returns a *ValidationError.
//
// Validation and the insert run while holding the lock of the submission's
// equipment, so two concurrent submissions for the same equipment and day
// cannot both pass the duplicate check.
func (s *MaintenanceService) Submit(ctx context.Context, sub models.MaintenanceSubmission) (*models.MaintenanceRecord, models.Verdict, error) {
	start := time.Now()
	defer func() { metrics.SubmissionDuration.Observe(time.Since(start).Seconds()) }()

	sub.Type = models.NormalizeType(sub.Type)

	unlock := s.locks.Lock(sub.EquipmentID)
	rec, verdict, err := s.validateAndStore(ctx, sub)
	unlock()

	if err != nil {
		return nil, verdict, err
	}
	metrics.ObserveSubmission(verdict.IsValid)
	if !verdict.IsValid {
		log.WithFields(log.Fields{
			"equipment_id": sub.EquipmentID,
			"errors":       len(verdict.Errors),
		}).Info("Maintenance submission rejected")
		return nil, verdict, &ValidationError{Verdict: verdict}
	}

	s.report(ctx, *rec, verdict.Warnings)
	return rec, verdict, nil
}

func (s *MaintenanceService) validateAndStore(ctx context.Context, sub models.MaintenanceSubmission) (*models.MaintenanceRecord, models.Verdict, error) {
	history, err := s.store.FindMaintenance(ctx, db.MaintenanceFilter{EquipmentID: sub.EquipmentID})
	if err != nil {
		return nil, models.Verdict{}, fmt.Errorf("load equipment history: %w", err)
	}

	verdict := s.engine.Evaluate(sub, history)
	if !verdict.IsValid {
		return nil, verdict, nil
	}

	rec := models.NewMaintenanceRecord(s.newID(), sub, s.now().UTC())
	saved, err := s.store.InsertMaintenance(ctx, rec)
	if err != nil {
		return nil, verdict, fmt.Errorf("store maintenance: %w", err)
	}
	return &saved, verdict, nil
}

// report logs the warnings of an accepted record and publishes it. A failed
// publish does not undo the insert.
func (s *MaintenanceService) report(ctx context.Context, rec models.MaintenanceRecord, warnings []string) {
	fields := log.Fields{
		"maintenance_id": rec.ID,
		"equipment_id":   rec.EquipmentID,
		"type":           rec.Type,
	}
	for _, w := range warnings {
		log.WithFields(fields).Warn(w)
	}
	log.WithFields(fields).Info("Maintenance recorded")

	if err := s.publisher.Publish(ctx, events.NewMaintenanceCreated(rec, warnings)); err != nil {
		metrics.PublishFailures.Inc()
		log.WithError(err).WithFields(fields).Error("Failed to publish maintenance event")
	}
}

// List returns stored records matching filter, newest first.
func (s *MaintenanceService) List(ctx context.Context, filter db.MaintenanceFilter) ([]models.MaintenanceRecord, error) {
	return s.store.FindMaintenance(ctx, filter)
}

// Get returns one stored record or db.ErrNotFound.
func (s *MaintenanceService) Get(ctx context.Context, id uuid.UUID) (*models.MaintenanceRecord, error) {
	return s.store.FindMaintenanceByID(ctx, id)
}

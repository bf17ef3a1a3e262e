package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/equipment-maintenance/internal/db"
	"github.com/ukydev/equipment-maintenance/internal/events"
	"github.com/ukydev/equipment-maintenance/internal/models"
	"github.com/ukydev/equipment-maintenance/internal/validation"
)

var fixedNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.MaintenanceEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() {
	m.Called()
}

// MockStore is a mock implementation of db.MaintenanceStore
type MockStore struct {
	mock.Mock
}

func (m *MockStore) InsertMaintenance(ctx context.Context, rec models.MaintenanceRecord) (models.MaintenanceRecord, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(models.MaintenanceRecord), args.Error(1)
}

func (m *MockStore) FindMaintenance(ctx context.Context, filter db.MaintenanceFilter) ([]models.MaintenanceRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceRecord), args.Error(1)
}

func (m *MockStore) FindMaintenanceByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceRecord), args.Error(1)
}

func (m *MockStore) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newTestService(store db.MaintenanceStore, opts ...Option) *MaintenanceService {
	engine := validation.NewEngine(validation.WithClock(clock))
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewMaintenanceService(store, engine, opts...)
}

func submission(equipmentID uuid.UUID) models.MaintenanceSubmission {
	return models.MaintenanceSubmission{
		EquipmentID:   equipmentID,
		EquipmentName: "Caldera 2",
		Date:          fixedNow,
		Type:          "Preventivo ",
		Description:   "Cambio de aceite y filtros programado",
		UserID:        uuid.New(),
		UserName:      "Marta Ruiz",
	}
}

func TestSubmit_Accepted(t *testing.T) {
	store := db.NewMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	rec, verdict, err := svc.Submit(ctx, submission(uuid.New()))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, verdict.IsValid)
	assert.Empty(t, verdict.Warnings)
	assert.Equal(t, "preventivo", rec.Type)
	assert.Equal(t, fixedNow, rec.CreatedAt)
	assert.NotEqual(t, uuid.Nil, rec.ID)

	stored, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.Equal(*rec))
}

func TestSubmit_DuplicateRejected(t *testing.T) {
	svc := newTestService(db.NewMemoryStore())
	ctx := context.Background()
	equipmentID := uuid.New()

	first, _, err := svc.Submit(ctx, submission(equipmentID))
	require.NoError(t, err)

	second := submission(equipmentID)
	second.Date = fixedNow.Add(-3 * time.Hour)
	rec, verdict, err := svc.Submit(ctx, second)
	assert.Nil(t, rec)
	assert.False(t, verdict.IsValid)
	require.Len(t, verdict.Errors, 1)
	assert.Contains(t, verdict.Errors[0], first.ID.String())

	assert.ErrorIs(t, err, ErrValidation)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, verdict, vErr.Verdict)

	all, err := svc.List(ctx, db.MaintenanceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSubmit_ConcurrentSameEquipmentDay(t *testing.T) {
	svc := newTestService(db.NewMemoryStore())
	equipmentID := uuid.New()

	const workers = 25
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub := submission(equipmentID)
			sub.Date = fixedNow.Add(-time.Duration(i) * time.Minute)
			_, _, err := svc.Submit(context.Background(), sub)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
			} else if errors.Is(err, ErrValidation) {
				rejected++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, workers-1, rejected)

	all, err := svc.List(context.Background(), db.MaintenanceFilter{EquipmentID: equipmentID})
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 0, svc.locks.size())
}

func TestSubmit_ConcurrentDistinctEquipment(t *testing.T) {
	svc := newTestService(db.NewMemoryStore())

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Submit(context.Background(), submission(uuid.New()))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	all, err := svc.List(context.Background(), db.MaintenanceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, workers)
}

func TestSubmit_PublishesWithWarnings(t *testing.T) {
	publisher := new(MockPublisher)
	svc := newTestService(db.NewMemoryStore(), WithPublisher(publisher))
	ctx := context.Background()
	equipmentID := uuid.New()

	preventive := submission(equipmentID)
	preventive.Date = fixedNow.AddDate(0, 0, -3)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e events.MaintenanceEvent) bool {
		return e.Maintenance.Type == "preventivo" && len(e.Warnings) == 0
	})).Return(nil).Once()

	_, _, err := svc.Submit(ctx, preventive)
	require.NoError(t, err)

	corrective := submission(equipmentID)
	corrective.Type = "correctivo"
	corrective.Description = "Falla en la bomba de alimentacion"
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e events.MaintenanceEvent) bool {
		return e.Event == events.EventMaintenanceCreated && e.Maintenance.Type == "correctivo" && len(e.Warnings) == 1
	})).Return(errors.New("broker down")).Once()

	rec, verdict, err := svc.Submit(ctx, corrective)
	require.NoError(t, err, "a failed publish must not reject the submission")
	require.NotNil(t, rec)
	assert.Len(t, verdict.Warnings, 1)
	assert.Contains(t, verdict.Warnings[0], "only 3 days")

	publisher.AssertExpectations(t)
}

func TestSubmit_RejectedIsNotPublished(t *testing.T) {
	publisher := new(MockPublisher)
	svc := newTestService(db.NewMemoryStore(), WithPublisher(publisher))

	sub := submission(uuid.New())
	sub.Description = "corto"
	_, verdict, err := svc.Submit(context.Background(), sub)
	assert.ErrorIs(t, err, ErrValidation)
	assert.False(t, verdict.IsValid)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestSubmit_StoreErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("history lookup", func(t *testing.T) {
		store := new(MockStore)
		store.On("FindMaintenance", mock.Anything, mock.Anything).Return(nil, errors.New("disk gone"))

		_, _, err := newTestService(store).Submit(ctx, submission(uuid.New()))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrValidation)
		assert.ErrorContains(t, err, "disk gone")
	})

	t.Run("insert", func(t *testing.T) {
		store := new(MockStore)
		store.On("FindMaintenance", mock.Anything, mock.Anything).Return([]models.MaintenanceRecord{}, nil)
		store.On("InsertMaintenance", mock.Anything, mock.Anything).Return(models.MaintenanceRecord{}, db.ErrConflict)

		rec, verdict, err := newTestService(store).Submit(ctx, submission(uuid.New()))
		assert.Nil(t, rec)
		assert.True(t, verdict.IsValid)
		assert.ErrorIs(t, err, db.ErrConflict)
		store.AssertExpectations(t)
	})
}

func TestSubmit_UsesIDGenerator(t *testing.T) {
	id := uuid.MustParse("9d4c7a3e-2b1f-4e8a-a6d5-0c9b8e7f6a5d")
	svc := newTestService(db.NewMemoryStore(), WithIDGenerator(func() uuid.UUID { return id }))

	rec, _, err := svc.Submit(context.Background(), submission(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
}

func TestKeyLock_SerializesSameKey(t *testing.T) {
	locks := newKeyLock()
	key := uuid.New()

	unlock := locks.Lock(key)
	acquired := make(chan struct{})
	go func() {
		release := locks.Lock(key)
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first was held")
	case <-time.After(50 * time.Millisecond):
	}

	other := locks.Lock(uuid.New())
	other()

	unlock()
	<-acquired
	assert.Eventually(t, func() bool { return locks.size() == 0 }, time.Second, 5*time.Millisecond)
}

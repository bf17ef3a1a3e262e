package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/equipment-maintenance/internal/config"
	"github.com/ukydev/equipment-maintenance/internal/db"
	"github.com/ukydev/equipment-maintenance/internal/events"
	"github.com/ukydev/equipment-maintenance/internal/models"
	"github.com/ukydev/equipment-maintenance/internal/service"
	"github.com/ukydev/equipment-maintenance/internal/validation"
)

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func writeJSONFile(t *testing.T, name string, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func goodSubmission() models.MaintenanceSubmission {
	return models.MaintenanceSubmission{
		EquipmentID:   uuid.New(),
		EquipmentName: "Torno CNC 1",
		Date:          time.Now().UTC().Add(-time.Hour),
		Type:          "preventivo",
		Description:   "Calibración de ejes y cambio de refrigerante",
		UserID:        uuid.New(),
		UserName:      "Marta",
	}
}

func TestRouter(t *testing.T) {
	svc := service.NewMaintenanceService(db.NewMemoryStore(), validation.NewEngine())
	r := newRouter(svc)

	body, err := json.Marshal(map[string]string{
		"equipment_id":   uuid.NewString(),
		"equipment_name": "Torno CNC 1",
		"date":           time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
		"type":           "preventivo",
		"description":    "Calibración de ejes y cambio de refrigerante",
		"user_id":        uuid.NewString(),
		"user_name":      "Marta",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/maintenance", bytes.NewReader(body)))
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for _, path := range []string{"/health", "/metrics", "/api/maintenance"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/maintenance", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestOpenStore(t *testing.T) {
	cfg := loadTestConfig(t)
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &db.MemoryStore{}, store)

	cfg.StoreBackend = "sqlite"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "m.db")
	store, err = openStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &db.SQLiteStore{}, store)
	assert.NoError(t, store.Close(ctx))

	cfg.StoreBackend = "cassandra"
	_, err = openStore(ctx, cfg)
	assert.Error(t, err)
}

func TestOpenPublisher(t *testing.T) {
	cfg := loadTestConfig(t)
	p, err := openPublisher(cfg)
	require.NoError(t, err)
	assert.Equal(t, events.NopPublisher{}, p)
}

func TestNewEngine(t *testing.T) {
	cfg := loadTestConfig(t)
	engine, err := newEngine(cfg)
	require.NoError(t, err)
	assert.Len(t, engine.Rules(), 6)

	cfg.VocabularyFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = newEngine(cfg)
	assert.Error(t, err)
}

func runCheck(t *testing.T, args ...string) (string, error) {
	t.Helper()
	loadTestConfig(t)
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"check"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	t.Run("valid submission", func(t *testing.T) {
		subFile := writeJSONFile(t, "sub.json", goodSubmission())
		out, err := runCheck(t, "--submission", subFile)
		require.NoError(t, err)

		var verdict models.Verdict
		require.NoError(t, json.Unmarshal([]byte(out), &verdict))
		assert.True(t, verdict.IsValid)
	})

	t.Run("duplicate against history", func(t *testing.T) {
		sub := goodSubmission()
		existing := models.NewMaintenanceRecord(uuid.New(), sub, time.Now().UTC())
		subFile := writeJSONFile(t, "sub.json", sub)
		histFile := writeJSONFile(t, "history.json", []models.MaintenanceRecord{existing})

		out, err := runCheck(t, "--submission", subFile, "--history", histFile)
		assert.ErrorIs(t, err, errInvalidSubmission)

		var verdict models.Verdict
		require.NoError(t, json.Unmarshal([]byte(out), &verdict))
		assert.False(t, verdict.IsValid)
		require.Len(t, verdict.Errors, 1)
		assert.Contains(t, verdict.Errors[0], existing.ID.String())
	})

	t.Run("missing flag", func(t *testing.T) {
		_, err := runCheck(t)
		assert.Error(t, err)
	})

	t.Run("unreadable file", func(t *testing.T) {
		_, err := runCheck(t, "--submission", filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, errInvalidSubmission)
	})
}

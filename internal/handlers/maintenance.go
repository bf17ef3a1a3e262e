package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/equipment-maintenance/internal/db"
	"github.com/ukydev/equipment-maintenance/internal/models"
	"github.com/ukydev/equipment-maintenance/internal/service"
)

// MaintenanceService is the submission flow the handler delegates to.
type MaintenanceService interface {
	Submit(ctx context.Context, sub models.MaintenanceSubmission) (*models.MaintenanceRecord, models.Verdict, error)
	List(ctx context.Context, filter db.MaintenanceFilter) ([]models.MaintenanceRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*models.MaintenanceRecord, error)
}

// MaintenanceHandler handles maintenance requests
type MaintenanceHandler struct {
	service MaintenanceService
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(svc MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{service: svc}
}

// RegisterRoutes mounts the maintenance endpoints on r.
func (h *MaintenanceHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/maintenance", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/api/maintenance", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/maintenance/{id}", h.Get).Methods(http.MethodGet)
}

// maintenanceRequest is the wire form of a submission. Identifiers and the
// date arrive as strings so that missing values reach the validation rules
// instead of failing JSON decoding.
type maintenanceRequest struct {
	EquipmentID   string `json:"equipment_id"`
	EquipmentName string `json:"equipment_name"`
	Date          string `json:"date"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	UserID        string `json:"user_id"`
	UserName      string `json:"user_name"`
}

// CreateResponse is returned for an accepted submission.
type CreateResponse struct {
	Maintenance models.MaintenanceRecord `json:"maintenance"`
	Warnings    []string                 `json:"warnings"`
}

// ValidationProblem is the problem details body of a rejected submission.
type ValidationProblem struct {
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Errors map[string][]string `json:"errors"`
}

func (req maintenanceRequest) submission() (models.MaintenanceSubmission, []string) {
	var problems []string
	sub := models.MaintenanceSubmission{
		EquipmentName: req.EquipmentName,
		Type:          req.Type,
		Description:   req.Description,
		UserName:      req.UserName,
	}

	var err error
	if sub.EquipmentID, err = parseOptionalUUID(req.EquipmentID); err != nil {
		problems = append(problems, "equipment_id must be a UUID.")
	}
	if sub.UserID, err = parseOptionalUUID(req.UserID); err != nil {
		problems = append(problems, "user_id must be a UUID.")
	}
	if sub.Date, err = parseOptionalTime(req.Date); err != nil {
		problems = append(problems, "date must be an RFC 3339 timestamp or a YYYY-MM-DD date.")
	}
	return sub, problems
}

func parseOptionalUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}

func parseOptionalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// Create handles maintenance submissions
func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req maintenanceRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	sub, problems := req.submission()
	if len(problems) > 0 {
		writeValidationProblem(w, problems)
		return
	}

	rec, verdict, err := h.service.Submit(r.Context(), sub)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeValidationProblem(w, verdict.Errors)
			return
		}
		log.WithError(err).WithField("equipment_id", sub.EquipmentID).Error("Failed to create maintenance")
		http.Error(w, "Failed to create maintenance", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Location", "/api/maintenance/"+rec.ID.String())
	writeJSON(w, http.StatusCreated, CreateResponse{Maintenance: *rec, Warnings: verdict.Warnings})
}

// List returns stored maintenance records, newest first
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter db.MaintenanceFilter
	q := r.URL.Query()

	if v := q.Get("equipment_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			http.Error(w, "Invalid equipment_id", http.StatusBadRequest)
			return
		}
		filter.EquipmentID = id
	}
	filter.Type = q.Get("type")
	if v := q.Get("date"); v != "" {
		day, err := time.Parse(time.DateOnly, v)
		if err != nil {
			http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.Date = day
	}

	records, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.WithError(err).Error("Failed to list maintenance")
		http.Error(w, "Failed to list maintenance", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Get returns one maintenance record
func (h *MaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid maintenance ID", http.StatusBadRequest)
		return
	}

	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Maintenance not found", http.StatusNotFound)
			return
		}
		log.WithError(err).WithField("maintenance_id", id).Error("Failed to get maintenance")
		http.Error(w, "Failed to get maintenance", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Health reports that the process is serving requests.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeValidationProblem(w http.ResponseWriter, messages []string) {
	problem := ValidationProblem{
		Type:   "https://tools.ietf.org/html/rfc9110#section-15.5.1",
		Title:  "One or more validation errors occurred.",
		Status: http.StatusBadRequest,
		Errors: make(map[string][]string, len(messages)),
	}
	for i, msg := range messages {
		problem.Errors[fmt.Sprintf("error%d", i)] = []string{msg}
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(problem)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

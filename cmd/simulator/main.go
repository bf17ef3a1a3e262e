package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Equipment is a simulated piece of plant equipment.
type Equipment struct {
	ID   uuid.UUID
	Name string
}

// Submission is the request body accepted by POST /maintenance.
type Submission struct {
	EquipmentID   string `json:"equipment_id"`
	EquipmentName string `json:"equipment_name"`
	Date          string `json:"date"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	UserID        string `json:"user_id"`
	UserName      string `json:"user_name"`
}

// Outcome is what the API said about one submission.
type Outcome struct {
	Status   int
	Warnings []string
	Errors   []string
}

// Accepted reports whether the submission was stored.
func (o Outcome) Accepted() bool { return o.Status == http.StatusCreated }

var equipmentKinds = []string{
	"Compresor", "Caldera", "Bomba hidráulica", "Torno CNC", "Generador",
	"Montacargas", "Chiller", "Transformador",
}

var technicians = []string{"Ana", "Luis", "Marta", "Jorge", "Lucía", "Pedro"}

var preventiveTasks = []string{
	"Cambio de aceite y filtros según plan anual",
	"Lubricación de rodamientos y ajuste de correas",
	"Inspección termográfica de tableros y conexiones",
	"Calibración de sensores de presión y temperatura",
	"Limpieza de intercambiadores y revisión de sellos",
}

var correctiveTasks = []string{
	"Reparación por falla en el motor principal",
	"Sustitución de válvula con defecto de cierre",
	"Corrección de fuga por sello roto en la bomba",
	"Cambio de tarjeta de control por avería eléctrica",
	"Ajuste del variador por mal funcionamiento intermitente",
}

var technicianIDs = func() map[string]uuid.UUID {
	ids := make(map[string]uuid.UUID, len(technicians))
	for _, name := range technicians {
		ids[name] = uuid.New()
	}
	return ids
}()

func newFleet(size int) []Equipment {
	fleet := make([]Equipment, 0, size)
	for i := 0; i < size; i++ {
		kind := equipmentKinds[i%len(equipmentKinds)]
		fleet = append(fleet, Equipment{
			ID:   uuid.New(),
			Name: fmt.Sprintf("%s %d", kind, i+1),
		})
	}
	return fleet
}

// newSubmission picks a type, a date in the last three weeks and a
// description matching the type.
func newSubmission(rnd *rand.Rand, eq Equipment, now time.Time) Submission {
	tech := technicians[rnd.Intn(len(technicians))]
	sub := Submission{
		EquipmentID:   eq.ID.String(),
		EquipmentName: eq.Name,
		Date:          now.Add(-time.Duration(rnd.Intn(21*24)) * time.Hour).UTC().Format(time.RFC3339),
		UserID:        technicianIDs[tech].String(),
		UserName:      tech,
	}
	if rnd.Intn(3) == 0 {
		sub.Type = "correctivo"
		sub.Description = correctiveTasks[rnd.Intn(len(correctiveTasks))]
	} else {
		sub.Type = "preventivo"
		sub.Description = preventiveTasks[rnd.Intn(len(preventiveTasks))]
	}
	return sub
}

func postSubmission(ctx context.Context, client *http.Client, apiURL string, sub Submission) (Outcome, error) {
	data, err := json.Marshal(sub)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to marshal submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/maintenance", bytes.NewReader(data))
	if err != nil {
		return Outcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to send submission: %w", err)
	}
	defer resp.Body.Close()

	out := Outcome{Status: resp.StatusCode}
	switch resp.StatusCode {
	case http.StatusCreated:
		var body struct {
			Warnings []string `json:"warnings"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return out, fmt.Errorf("failed to decode response: %w", err)
		}
		out.Warnings = body.Warnings
	case http.StatusBadRequest:
		var body struct {
			Errors map[string][]string `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			for i := 0; i < len(body.Errors); i++ {
				out.Errors = append(out.Errors, body.Errors[fmt.Sprintf("error%d", i)]...)
			}
		}
	}
	return out, nil
}

// duplicateBurst sends the same submission n times concurrently and returns
// how many were accepted. A correct server accepts at most one.
func duplicateBurst(ctx context.Context, client *http.Client, apiURL string, sub Submission, n int) int {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := postSubmission(ctx, client, apiURL, sub)
			if err != nil {
				log.WithError(err).Error("Burst submission failed")
				return
			}
			if out.Accepted() {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return accepted
}

func simulate(ctx context.Context, client *http.Client, apiURL string, fleet []Equipment, interval time.Duration, burst int) {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for round := 1; ; round++ {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}

		eq := fleet[rnd.Intn(len(fleet))]
		sub := newSubmission(rnd, eq, time.Now())

		if burst > 1 && round%10 == 0 {
			accepted := duplicateBurst(ctx, client, apiURL, sub, burst)
			entry := log.WithFields(log.Fields{"equipment_id": eq.ID, "burst": burst, "accepted": accepted})
			if accepted > 1 {
				entry.Error("Duplicate burst produced more than one record")
			} else {
				entry.Info("Duplicate burst completed")
			}
			continue
		}

		out, err := postSubmission(ctx, client, apiURL, sub)
		if err != nil {
			log.WithError(err).Error("Failed to send submission")
			continue
		}
		log.WithFields(log.Fields{
			"equipment_id": eq.ID,
			"type":         sub.Type,
			"status":       out.Status,
			"warnings":     len(out.Warnings),
			"errors":       out.Errors,
		}).Info("Sent maintenance")
	}
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 1 {
			return n
		}
	}
	return def
}

func main() {
	fleetSize := envInt("FLEET_SIZE", 10)
	burst := envInt("SIM_DUPLICATE_BURST", 5)
	interval := time.Duration(envInt("SIM_TICK_SECONDS", 2)) * time.Second

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"api_url":    apiURL,
		"interval":   interval,
		"burst":      burst,
	}).Info("Starting maintenance simulation")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 10 * time.Second}
	simulate(ctx, client, apiURL, newFleet(fleetSize), interval, burst)
	log.Info("Maintenance simulation stopped")
}

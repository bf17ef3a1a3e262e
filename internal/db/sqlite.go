package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ukydev/equipment-maintenance/internal/models"
	_ "modernc.org/sqlite"
)

const createMaintenance = `CREATE TABLE IF NOT EXISTS maintenance (
    maintenance_id TEXT PRIMARY KEY,
    equipment_id TEXT NOT NULL,
    equipment_name TEXT NOT NULL,
    maintenance_date INTEGER NOT NULL,
    maintenance_day TEXT NOT NULL,
    type TEXT NOT NULL,
    description TEXT NOT NULL,
    user_id TEXT NOT NULL,
    user_name TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_maintenance_equipment_day ON maintenance (equipment_id, maintenance_day);`

const selectMaintenance = `SELECT maintenance_id, equipment_id, equipment_name, maintenance_date,
    type, description, user_id, user_name, created_at FROM maintenance`

// SQLiteStore keeps maintenance records in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. Use ":memory:"
// for a throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createMaintenance); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// InsertMaintenance inserts a maintenance record into the database.
func (s *SQLiteStore) InsertMaintenance(ctx context.Context, rec models.MaintenanceRecord) (models.MaintenanceRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.MaintenanceRecord{}, err
	}
	defer tx.Rollback()

	existing, err := scanOne(tx.QueryRowContext(ctx, selectMaintenance+` WHERE maintenance_id = ?`, rec.ID.String()))
	switch {
	case err == nil:
		if existing.Equal(rec) {
			return existing, nil
		}
		return models.MaintenanceRecord{}, ErrConflict
	case !errors.Is(err, ErrNotFound):
		return models.MaintenanceRecord{}, err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO maintenance (maintenance_id, equipment_id, equipment_name,
    maintenance_date, maintenance_day, type, description, user_id, user_name, created_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.EquipmentID.String(), rec.EquipmentName,
		rec.Date.UnixNano(), models.CalendarDate(rec.Date).Format(time.DateOnly),
		rec.Type, rec.Description, rec.UserID.String(), rec.UserName, rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return models.MaintenanceRecord{}, fmt.Errorf("insert maintenance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.MaintenanceRecord{}, err
	}
	return rec, nil
}

// FindMaintenance queries maintenance records from the database.
func (s *SQLiteStore) FindMaintenance(ctx context.Context, filter MaintenanceFilter) ([]models.MaintenanceRecord, error) {
	var where []string
	var args []any
	if filter.EquipmentID != uuid.Nil {
		where = append(where, "equipment_id = ?")
		args = append(args, filter.EquipmentID.String())
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, models.NormalizeType(filter.Type))
	}
	if !filter.Date.IsZero() {
		where = append(where, "maintenance_day = ?")
		args = append(args, models.CalendarDate(filter.Date).Format(time.DateOnly))
	}

	query := selectMaintenance
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query maintenance: %w", err)
	}
	defer rows.Close()

	out := make([]models.MaintenanceRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FindMaintenanceByID finds a maintenance record by its ID.
func (s *SQLiteStore) FindMaintenanceByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRecord, error) {
	rec, err := scanOne(s.db.QueryRowContext(ctx, selectMaintenance+` WHERE maintenance_id = ?`, id.String()))
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (models.MaintenanceRecord, error) {
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MaintenanceRecord{}, ErrNotFound
	}
	return rec, err
}

func scanRecord(s scanner) (models.MaintenanceRecord, error) {
	var (
		rec                     models.MaintenanceRecord
		id, equipmentID, userID string
		date, createdAt         int64
	)
	err := s.Scan(&id, &equipmentID, &rec.EquipmentName, &date,
		&rec.Type, &rec.Description, &userID, &rec.UserName, &createdAt)
	if err != nil {
		return models.MaintenanceRecord{}, err
	}
	if rec.ID, err = uuid.Parse(id); err != nil {
		return models.MaintenanceRecord{}, fmt.Errorf("invalid maintenance ID %q: %w", id, err)
	}
	if rec.EquipmentID, err = uuid.Parse(equipmentID); err != nil {
		return models.MaintenanceRecord{}, fmt.Errorf("invalid equipment ID %q: %w", equipmentID, err)
	}
	if rec.UserID, err = uuid.Parse(userID); err != nil {
		return models.MaintenanceRecord{}, fmt.Errorf("invalid user ID %q: %w", userID, err)
	}
	rec.Date = time.Unix(0, date).UTC()
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	return rec, nil
}

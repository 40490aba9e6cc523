package cloud

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/GaxiSz/camping-tent-manager/internal/metrics"
	"github.com/GaxiSz/camping-tent-manager/internal/models"
)

// ListUnits returns the tenant's live units ordered by creation time.
func (s *TenantStore) ListUnits(ctx context.Context) ([]models.Unit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, name, is_deleted, created_at, updated_at
		FROM units
		WHERE tenant_id = ? AND is_deleted = 0
		ORDER BY created_at`,
		s.tenant,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []models.Unit
	for rows.Next() {
		var u models.Unit
		if err := rows.Scan(&u.ID, &u.Type, &u.Name, &u.IsDeleted, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// GetUnit returns a live unit by id, or nil when absent or deleted.
func (s *TenantStore) GetUnit(ctx context.Context, id string) (*models.Unit, error) {
	var u models.Unit
	err := s.db.QueryRowContext(ctx, `
		SELECT id, type, name, is_deleted, created_at, updated_at
		FROM units
		WHERE id = ? AND tenant_id = ? AND is_deleted = 0`,
		id, s.tenant,
	).Scan(&u.ID, &u.Type, &u.Name, &u.IsDeleted, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUnit inserts a new live unit for the tenant.
func (s *TenantStore) CreateUnit(ctx context.Context, unitType, name string) (*models.Unit, error) {
	now := time.Now()
	unit := models.Unit{
		ID:        uuid.NewString(),
		Type:      unitType,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO units (id, tenant_id, type, name, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		unit.ID, s.tenant, unit.Type, unit.Name, now, now,
	)
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// UpdateUnit patches a live unit's fields. A missing or deleted unit
// affects zero rows and is not an error.
func (s *TenantStore) UpdateUnit(ctx context.Context, id string, patch models.UnitPatch) error {
	if patch.Type == nil && patch.Name == nil {
		return nil
	}

	query := "UPDATE units SET updated_at = ?"
	args := []any{time.Now()}
	if patch.Type != nil {
		query += ", type = ?"
		args = append(args, *patch.Type)
	}
	if patch.Name != nil {
		query += ", name = ?"
		args = append(args, *patch.Name)
	}
	query += " WHERE id = ? AND tenant_id = ? AND is_deleted = 0"
	args = append(args, id, s.tenant)

	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// DeleteUnit soft-deletes a unit and ends any active booking for it.
func (s *TenantStore) DeleteUnit(ctx context.Context, id string) error {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE units SET is_deleted = 1, updated_at = ?
		WHERE id = ? AND tenant_id = ? AND is_deleted = 0`,
		now, id, s.tenant,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return nil
	}

	if err := s.FreeUnit(ctx, id); err != nil {
		return err
	}
	metrics.IncUnitDeleted("cloud")
	return nil
}

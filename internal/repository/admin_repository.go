package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
	"github.com/unclebandit/pricing-catalog-backend/internal/model"
	"github.com/unclebandit/pricing-catalog-backend/internal/pricing"
)

type TabVisibilityRepositoryInterface interface {
	List(ctx context.Context) ([]model.TabVisibility, error)
	Set(ctx context.Context, tab string, visible bool) (*model.TabVisibility, error)
}

type TabVisibilityRepository struct {
	DB *sqlx.DB
}

func (r *TabVisibilityRepository) List(ctx context.Context) ([]model.TabVisibility, error) {
	out := []model.TabVisibility{}
	err := r.DB.SelectContext(ctx, &out, `SELECT tab, visible, updated_at FROM tab_visibility ORDER BY tab`)
	if err != nil {
		return nil, fmt.Errorf("list tab visibility: %w", err)
	}
	return out, nil
}

func (r *TabVisibilityRepository) Set(ctx context.Context, tab string, visible bool) (*model.TabVisibility, error) {
	query := `
		INSERT INTO tab_visibility (tab, visible, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (tab) DO UPDATE SET visible = EXCLUDED.visible, updated_at = NOW()
		RETURNING tab, visible, updated_at
	`
	var tv model.TabVisibility
	if err := r.DB.GetContext(ctx, &tv, query, tab, visible); err != nil {
		return nil, fmt.Errorf("set tab visibility %s: %w", tab, err)
	}
	return &tv, nil
}

type PriceAdjustmentRepositoryInterface interface {
	List(ctx context.Context) ([]pricing.Adjustment, error)
	Upsert(ctx context.Context, a *pricing.Adjustment) error
	Delete(ctx context.Context, id int) error
}

type PriceAdjustmentRepository struct {
	DB *sqlx.DB
}

const adjustmentCols = `id, table_name, kind, value, min_price, max_price, updated_at`

func (r *PriceAdjustmentRepository) List(ctx context.Context) ([]pricing.Adjustment, error) {
	out := []pricing.Adjustment{}
	query := `SELECT ` + adjustmentCols + ` FROM price_adjustments ORDER BY table_name, id`
	if err := r.DB.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list price adjustments: %w", err)
	}
	return out, nil
}

// Upsert inserts a when its ID is zero and otherwise overwrites the row.
func (r *PriceAdjustmentRepository) Upsert(ctx context.Context, a *pricing.Adjustment) error {
	if a.ID == 0 {
		query := `
			INSERT INTO price_adjustments (table_name, kind, value, min_price, max_price, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			RETURNING ` + adjustmentCols
		if err := r.DB.GetContext(ctx, a, query, a.TableName, a.Kind, a.Value, a.MinPrice, a.MaxPrice); err != nil {
			return fmt.Errorf("insert price adjustment: %w", err)
		}
		return nil
	}

	query := `
		UPDATE price_adjustments
		SET table_name = $1, kind = $2, value = $3, min_price = $4, max_price = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING ` + adjustmentCols
	id := a.ID
	err := r.DB.GetContext(ctx, a, query, a.TableName, a.Kind, a.Value, a.MinPrice, a.MaxPrice, id)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.NewRecordNotFound("price adjustment", id)
	}
	if err != nil {
		return fmt.Errorf("update price adjustment %d: %w", id, err)
	}
	return nil
}

func (r *PriceAdjustmentRepository) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM price_adjustments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete price adjustment %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewRecordNotFound("price adjustment", id)
	}
	return nil
}

// AdminRepository reads the admin_users allow-list.
type AdminRepository struct {
	DB *sqlx.DB
}

func (r *AdminRepository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.DB.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM admin_users WHERE user_id = $1)`, userID)
	if err != nil {
		return false, fmt.Errorf("check admin %s: %w", userID, err)
	}
	return exists, nil
}

type AuditRepositoryInterface interface {
	Insert(ctx context.Context, e *model.AuditEntry) (bool, error)
	ListRecent(ctx context.Context, limit int) ([]model.AuditEntry, error)
}

type AuditRepository struct {
	DB *sqlx.DB
}

// Insert stores e. Redelivered events are ignored; the bool reports whether a
// row was written.
func (r *AuditRepository) Insert(ctx context.Context, e *model.AuditEntry) (bool, error) {
	query := `
		INSERT INTO audit_log (event_id, kind, record_id, action, actor, occurred_at)
		VALUES (:event_id, :kind, :record_id, :action, :actor, :occurred_at)
		ON CONFLICT (event_id) DO NOTHING
	`
	res, err := r.DB.NamedExecContext(ctx, query, e)
	if err != nil {
		return false, fmt.Errorf("insert audit entry %s: %w", e.EventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	out := []model.AuditEntry{}
	query := `
		SELECT id, event_id, kind, record_id, action, actor, occurred_at
		FROM audit_log ORDER BY occurred_at DESC, id DESC LIMIT $1
	`
	if err := r.DB.SelectContext(ctx, &out, query, limit); err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	return out, nil
}

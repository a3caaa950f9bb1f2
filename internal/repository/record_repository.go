package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
	"github.com/unclebandit/pricing-catalog-backend/internal/model"
)

// RecordRepositoryInterface is the storage contract for one catalog kind.
type RecordRepositoryInterface[T any] interface {
	List(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id int) (*T, error)
	Create(ctx context.Context, rec *T) error
	Update(ctx context.Context, rec *T) error
	Delete(ctx context.Context, id int) error
}

// RecordRepository stores one catalog kind in the table described by Table.
// T must carry db tags for id, created_at, updated_at and every Table column.
type RecordRepository[T any] struct {
	DB    *sqlx.DB
	Table model.Table

	selectCols string
}

func NewRecordRepository[T any](db *sqlx.DB, table model.Table) *RecordRepository[T] {
	cols := append([]string{"id", "created_at", "updated_at"}, table.Columns...)
	return &RecordRepository[T]{
		DB:         db,
		Table:      table,
		selectCols: strings.Join(cols, ", "),
	}
}

func (r *RecordRepository[T]) List(ctx context.Context) ([]T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, r.selectCols, r.Table.Name)

	out := []T{}
	if err := r.DB.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.Table.Kind, err)
	}
	return out, nil
}

func (r *RecordRepository[T]) GetByID(ctx context.Context, id int) (*T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, r.selectCols, r.Table.Name)

	var rec T
	if err := r.DB.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewRecordNotFound(r.Table.Kind, id)
		}
		return nil, fmt.Errorf("get %s %d: %w", r.Table.Kind, id, err)
	}
	return &rec, nil
}

// Create inserts rec and refreshes it from the stored row.
func (r *RecordRepository[T]) Create(ctx context.Context, rec *T) error {
	placeholders := make([]string, len(r.Table.Columns))
	for i, c := range r.Table.Columns {
		placeholders[i] = ":" + c
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		r.Table.Name, strings.Join(r.Table.Columns, ", "), strings.Join(placeholders, ", "), r.selectCols,
	)

	found, err := r.namedReturning(ctx, query, rec)
	if err != nil {
		return fmt.Errorf("create %s: %w", r.Table.Kind, err)
	}
	if !found {
		return fmt.Errorf("create %s: no row returned", r.Table.Kind)
	}
	return nil
}

// Update overwrites every writable column of the row with rec's id.
func (r *RecordRepository[T]) Update(ctx context.Context, rec *T) error {
	sets := make([]string, len(r.Table.Columns))
	for i, c := range r.Table.Columns {
		sets[i] = c + " = :" + c
	}
	query := fmt.Sprintf(
		`UPDATE %s SET %s, updated_at = NOW() WHERE id = :id RETURNING %s`,
		r.Table.Name, strings.Join(sets, ", "), r.selectCols,
	)

	var id int
	if ided, ok := any(*rec).(interface{ RecordID() int }); ok {
		id = ided.RecordID()
	}
	found, err := r.namedReturning(ctx, query, rec)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", r.Table.Kind, id, err)
	}
	if !found {
		return appErrors.NewRecordNotFound(r.Table.Kind, id)
	}
	return nil
}

func (r *RecordRepository[T]) Delete(ctx context.Context, id int) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.Table.Name)

	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", r.Table.Kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", r.Table.Kind, id, err)
	}
	if n == 0 {
		return appErrors.NewRecordNotFound(r.Table.Kind, id)
	}
	return nil
}

// namedReturning runs a named statement ending in RETURNING and scans the
// first row back into rec.
func (r *RecordRepository[T]) namedReturning(ctx context.Context, query string, rec *T) (bool, error) {
	rows, err := r.DB.NamedQueryContext(ctx, query, rec)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Err()
	}
	if err := rows.StructScan(rec); err != nil {
		return false, err
	}
	return true, rows.Err()
}

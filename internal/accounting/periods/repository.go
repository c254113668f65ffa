package periods

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// provisionLockClass namespaces the per-company advisory lock taken while provisioning.
const provisionLockClass = 7301

// Repository is the store boundary the period manager depends on.
type Repository interface {
	// InsertMonthlyIfAbsent inserts plan atomically when the company has no
	// periods yet and returns the created rows; it returns nothing otherwise.
	InsertMonthlyIfAbsent(ctx context.Context, companyID int64, plan []NewPeriod) ([]Period, error)
	List(ctx context.Context, companyID int64) ([]Period, error)
	Get(ctx context.Context, id int64) (Period, error)
	// CompareAndSetStatus moves the period from -> to only if it is still in
	// from, writing log in the same transaction.
	CompareAndSetStatus(ctx context.Context, id int64, from, to Status, actorID int64, at time.Time, log internalShared.AuditLog) (Period, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// Columns is the select list matching ScanRow.
const Columns = `id, company_id, name, start_date, end_date, status, soft_closed_at, soft_closed_by,
hard_closed_at, hard_closed_by, created_at, updated_at`

// ScanRow reads a period selected with Columns.
func ScanRow(row pgx.Row) (Period, error) {
	var p Period
	var status string
	err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.StartDate, &p.EndDate, &status, &p.SoftClosedAt, &p.SoftClosedBy,
		&p.HardClosedAt, &p.HardClosedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Period{}, err
	}
	if p.Status, err = ParseStatus(status); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (r *repository) InsertMonthlyIfAbsent(ctx context.Context, companyID int64, plan []NewPeriod) ([]Period, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("periods: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2::int)`, provisionLockClass, companyID); err != nil {
		return nil, err
	}
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounting_periods WHERE company_id=$1)`, companyID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}
	created := make([]Period, 0, len(plan))
	for _, np := range plan {
		row := tx.QueryRow(ctx, `INSERT INTO accounting_periods (company_id, name, start_date, end_date, status)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (company_id, start_date, end_date) DO NOTHING
RETURNING `+Columns, companyID, np.Name, np.StartDate, np.EndDate, string(np.Status))
		p, err := ScanRow(row)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		created = append(created, p)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("periods: commit tx: %w", err)
	}
	return created, nil
}

func (r *repository) List(ctx context.Context, companyID int64) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+Columns+` FROM accounting_periods WHERE company_id=$1 ORDER BY start_date`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := ScanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Period, error) {
	p, err := ScanRow(r.db.QueryRow(ctx, `SELECT `+Columns+` FROM accounting_periods WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, shared.Wrapf(shared.ErrPeriodNotFound, "period %d", id)
	}
	return p, err
}

func (r *repository) CompareAndSetStatus(ctx context.Context, id int64, from, to Status, actorID int64, at time.Time, log internalShared.AuditLog) (Period, error) {
	var out Period
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `UPDATE accounting_periods SET status=$3,
soft_closed_at = CASE WHEN $3='soft_closed' THEN $5 ELSE soft_closed_at END,
soft_closed_by = CASE WHEN $3='soft_closed' THEN $4 ELSE soft_closed_by END,
hard_closed_at = CASE WHEN $3='hard_closed' THEN $5 ELSE hard_closed_at END,
hard_closed_by = CASE WHEN $3='hard_closed' THEN $4 ELSE hard_closed_by END,
updated_at = $5
WHERE id=$1 AND status=$2
RETURNING `+Columns, id, string(from), string(to), actorID, at)
		p, err := ScanRow(row)
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.Get(ctx, id); getErr != nil {
				return getErr
			}
			return shared.Wrapf(shared.ErrInvalidTransition, "period %d is no longer %s", id, from)
		}
		if err != nil {
			return err
		}
		if err := internalShared.WriteAudit(ctx, tx, log); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

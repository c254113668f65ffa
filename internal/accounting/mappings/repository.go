package mappings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

type Repository interface {
	Get(ctx context.Context, companyID int64, t MappingType) (PayrollAccountMapping, error)
	ListPayroll(ctx context.Context, companyID int64) ([]PayrollAccountMapping, error)
	Upsert(ctx context.Context, m PayrollAccountMapping) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// Get resolves a single payroll mapping.
func (r *repository) Get(ctx context.Context, companyID int64, t MappingType) (PayrollAccountMapping, error) {
	var m PayrollAccountMapping
	var key string
	err := r.db.QueryRow(ctx, `SELECT company_id, key, account_id, created_at, updated_at FROM account_mappings
WHERE company_id=$1 AND module=$2 AND key=$3`, companyID, ModulePayroll, string(t)).
		Scan(&m.CompanyID, &key, &m.AccountID, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PayrollAccountMapping{}, shared.MissingMappingError{Type: string(t)}
	}
	if err != nil {
		return PayrollAccountMapping{}, err
	}
	m.MappingType = MappingType(key)
	return m, nil
}

func (r *repository) ListPayroll(ctx context.Context, companyID int64) ([]PayrollAccountMapping, error) {
	rows, err := r.db.Query(ctx, `SELECT company_id, key, account_id, created_at, updated_at FROM account_mappings
WHERE company_id=$1 AND module=$2 ORDER BY key`, companyID, ModulePayroll)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PayrollAccountMapping
	for rows.Next() {
		var m PayrollAccountMapping
		var key string
		if err := rows.Scan(&m.CompanyID, &key, &m.AccountID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.MappingType = MappingType(key)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) Upsert(ctx context.Context, m PayrollAccountMapping) error {
	_, err := r.db.Exec(ctx, `INSERT INTO account_mappings (company_id, module, key, account_id)
VALUES ($1,$2,$3,$4)
ON CONFLICT (company_id, module, key) DO UPDATE SET account_id = EXCLUDED.account_id, updated_at = NOW()`,
		m.CompanyID, ModulePayroll, string(m.MappingType), m.AccountID)
	return err
}

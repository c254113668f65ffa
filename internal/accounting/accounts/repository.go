package accounts

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is satisfied by both the pool and an open transaction.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Repository interface {
	List(ctx context.Context, companyID int64) ([]Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, companyID int64) ([]Account, error) {
	return Query(ctx, r.db, companyID)
}

// Query loads a company's chart through q, ordered by code.
func Query(ctx context.Context, q Querier, companyID int64) ([]Account, error) {
	rows, err := q.Query(ctx, `SELECT id, company_id, code, name, class, parent_id, allow_manual_entry, is_active,
COALESCE(classification, ''), created_at, updated_at FROM accounts WHERE company_id=$1 ORDER BY code`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		var class, classification string
		err := rows.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &class, &a.ParentID, &a.AllowManualEntry, &a.IsActive,
			&classification, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if a.Class, err = ParseClass(class); err != nil {
			return nil, err
		}
		a.Classification = Classification(classification)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

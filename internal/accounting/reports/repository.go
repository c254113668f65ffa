package reports

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
)

// Repository reads the ledger inputs of the aggregator.
type Repository interface {
	ListAccounts(ctx context.Context, companyID int64) ([]accounts.Account, error)
	ListOpenings(ctx context.Context, companyID, periodID int64) ([]OpeningBalance, error)
	// ListPostedLines returns lines of posted and reversed entries; drafts never count.
	ListPostedLines(ctx context.Context, companyID, periodID int64) ([]PostedLine, error)
	SaveOpenings(ctx context.Context, periodID int64, openings []OpeningBalance) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListAccounts(ctx context.Context, companyID int64) ([]accounts.Account, error) {
	return accounts.Query(ctx, r.db, companyID)
}

func (r *repository) ListOpenings(ctx context.Context, companyID, periodID int64) ([]OpeningBalance, error) {
	rows, err := r.db.Query(ctx, `SELECT ob.account_id, ob.period_id, ob.opening_debit, ob.opening_credit
FROM opening_balances ob
JOIN accounting_periods p ON p.id = ob.period_id
WHERE p.company_id=$1 AND ob.period_id=$2`, companyID, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OpeningBalance
	for rows.Next() {
		var ob OpeningBalance
		if err := rows.Scan(&ob.AccountID, &ob.PeriodID, &ob.OpeningDebit, &ob.OpeningCredit); err != nil {
			return nil, err
		}
		out = append(out, ob)
	}
	return out, rows.Err()
}

func (r *repository) ListPostedLines(ctx context.Context, companyID, periodID int64) ([]PostedLine, error) {
	rows, err := r.db.Query(ctx, `SELECT jl.account_id, jl.debit, jl.credit
FROM journal_lines jl
JOIN journal_entries je ON je.id = jl.je_id
WHERE je.company_id=$1 AND je.period_id=$2 AND je.status IN ('posted','reversed')`, companyID, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PostedLine
	for rows.Next() {
		var l PostedLine
		if err := rows.Scan(&l.AccountID, &l.Debit, &l.Credit); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) SaveOpenings(ctx context.Context, periodID int64, openings []OpeningBalance) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM opening_balances WHERE period_id=$1`, periodID); err != nil {
			return fmt.Errorf("reports: clear openings: %w", err)
		}
		for _, ob := range openings {
			if _, err := tx.Exec(ctx, `INSERT INTO opening_balances (account_id, period_id, opening_debit, opening_credit)
VALUES ($1,$2,$3,$4)`, ob.AccountID, periodID, ob.OpeningDebit, ob.OpeningCredit); err != nil {
				return fmt.Errorf("reports: insert opening: %w", err)
			}
		}
		return nil
	})
}

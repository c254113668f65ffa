package jobs

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CompanyDirectory lists the companies background jobs fan out over.
type CompanyDirectory struct {
	pool *pgxpool.Pool
}

// NewCompanyDirectory constructs a directory backed by Postgres.
func NewCompanyDirectory(pool *pgxpool.Pool) *CompanyDirectory {
	return &CompanyDirectory{pool: pool}
}

// CompanyIDs returns every company id in ascending order.
func (d *CompanyDirectory) CompanyIDs(ctx context.Context) ([]int64, error) {
	rows, err := d.pool.Query(ctx, `SELECT id FROM companies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type companyLister interface {
	CompanyIDs(ctx context.Context) ([]int64, error)
}

func scopeCompanies(ctx context.Context, companies companyLister, scope ScopePayload) ([]int64, error) {
	if scope.CompanyID > 0 {
		return []int64{scope.CompanyID}, nil
	}
	return companies.CompanyIDs(ctx)
}

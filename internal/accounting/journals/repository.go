package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

const sourceLinkConstraint = "source_links_module_ref_id_key"

// Repository encapsulates DB operations for journals.
type Repository interface {
	Get(ctx context.Context, id int64) (Entry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	// NextNumber allocates the next entry sequence for a company atomically.
	NextNumber(ctx context.Context, companyID int64) (int64, error)
	InsertEntry(ctx context.Context, entry Entry) (Entry, error)
	ReplaceLines(ctx context.Context, entryID int64, lines []Line) error
	UpdateDraftHeader(ctx context.Context, entry Entry) error
	DeleteEntry(ctx context.Context, entryID int64) error
	GetEntry(ctx context.Context, entryID int64) (Entry, error)
	GetEntryForUpdate(ctx context.Context, entryID int64) (Entry, error)
	MarkPosted(ctx context.Context, entryID, actorID int64, at time.Time) error
	MarkReversed(ctx context.Context, entryID, actorID int64, at time.Time) error
	LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error

	// Period operations needed within journal transactions.
	GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error)
	FindPeriodForDate(ctx context.Context, companyID int64, date time.Time) (periods.Period, error)

	ListAccounts(ctx context.Context, companyID int64) ([]accounts.Account, error)
	InsertAudit(ctx context.Context, log internalShared.AuditLog) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id int64) (Entry, error) {
	var entry Entry
	err := r.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = tx.GetEntry(ctx, id)
		return err
	})
	return entry, err
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

const entryColumns = `id, company_id, sequence, number, period_id, document_type_id, date, memo, source_module, source_id,
status, created_by, posted_at, posted_by, reversed_at, reversed_by, reversal_of, created_at, updated_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	var status string
	err := row.Scan(&e.ID, &e.CompanyID, &e.Sequence, &e.Number, &e.PeriodID, &e.DocumentTypeID, &e.Date, &e.Memo,
		&e.SourceModule, &e.SourceID, &status, &e.CreatedBy, &e.PostedAt, &e.PostedBy, &e.ReversedAt, &e.ReversedBy,
		&e.ReversalOf, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Entry{}, err
	}
	switch Status(status) {
	case StatusDraft, StatusPosted, StatusReversed:
		e.Status = Status(status)
	default:
		return Entry{}, shared.Wrapf(shared.ErrInvalidStatusValue, "journal status %q", status)
	}
	return e, nil
}

func (r *txRepository) NextNumber(ctx context.Context, companyID int64) (int64, error) {
	var next int64
	err := r.tx.QueryRow(ctx, `INSERT INTO journal_counters (company_id, last_value) VALUES ($1, 1)
ON CONFLICT (company_id) DO UPDATE SET last_value = journal_counters.last_value + 1
RETURNING last_value`, companyID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("journals: allocate number: %w", err)
	}
	return next, nil
}

func (r *txRepository) InsertEntry(ctx context.Context, entry Entry) (Entry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (company_id, sequence, number, period_id, document_type_id, date, memo,
source_module, source_id, status, created_by, posted_at, posted_by, reversal_of)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
RETURNING `+entryColumns,
		entry.CompanyID, entry.Sequence, entry.Number, entry.PeriodID, entry.DocumentTypeID, entry.Date, entry.Memo,
		entry.SourceModule, entry.SourceID, string(entry.Status), entry.CreatedBy, entry.PostedAt, entry.PostedBy, entry.ReversalOf)
	created, err := scanEntry(row)
	if err != nil {
		return Entry{}, err
	}
	if err := r.ReplaceLines(ctx, created.ID, entry.Lines); err != nil {
		return Entry{}, err
	}
	created.Lines = entry.Lines
	return created, nil
}

func (r *txRepository) ReplaceLines(ctx context.Context, entryID int64, lines []Line) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE je_id=$1`, entryID); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for idx, l := range lines {
		batch.Queue(`INSERT INTO journal_lines (je_id, line_no, account_id, debit, credit, memo) VALUES ($1,$2,$3,$4,$5,$6)`,
			entryID, idx+1, l.AccountID, l.Debit, l.Credit, l.Memo)
	}
	br := r.tx.SendBatch(ctx, batch)
	for range lines {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}

func (r *txRepository) UpdateDraftHeader(ctx context.Context, entry Entry) error {
	tag, err := r.tx.Exec(ctx, `UPDATE journal_entries SET date=$2, memo=$3, period_id=$4, updated_at=NOW()
WHERE id=$1 AND status='draft'`, entry.ID, entry.Date, entry.Memo, entry.PeriodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.Wrapf(shared.ErrInvalidStatus, "entry %d is not a draft", entry.ID)
	}
	return nil
}

func (r *txRepository) DeleteEntry(ctx context.Context, entryID int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE je_id=$1`, entryID); err != nil {
		return err
	}
	tag, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1 AND status='draft'`, entryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.Wrapf(shared.ErrInvalidStatus, "entry %d is not a draft", entryID)
	}
	return nil
}

func (r *txRepository) GetEntry(ctx context.Context, entryID int64) (Entry, error) {
	return r.loadEntry(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, entryID)
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, entryID int64) (Entry, error) {
	return r.loadEntry(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, entryID)
}

func (r *txRepository) loadEntry(ctx context.Context, query string, entryID int64) (Entry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, query, entryID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, shared.Wrapf(shared.ErrJournalNotFound, "entry %d", entryID)
	}
	if err != nil {
		return Entry{}, err
	}
	rows, err := r.tx.Query(ctx, `SELECT id, je_id, line_no, account_id, debit, credit, COALESCE(memo,'')
FROM journal_lines WHERE je_id=$1 ORDER BY line_no`, entryID)
	if err != nil {
		return Entry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.EntryID, &l.LineNo, &l.AccountID, &l.Debit, &l.Credit, &l.Memo); err != nil {
			return Entry{}, err
		}
		entry.Lines = append(entry.Lines, l)
	}
	return entry, rows.Err()
}

func (r *txRepository) MarkPosted(ctx context.Context, entryID, actorID int64, at time.Time) error {
	return r.setStatus(ctx, `UPDATE journal_entries SET status='posted', posted_at=$2, posted_by=$3, updated_at=$2
WHERE id=$1 AND status='draft'`, entryID, actorID, at)
}

func (r *txRepository) MarkReversed(ctx context.Context, entryID, actorID int64, at time.Time) error {
	return r.setStatus(ctx, `UPDATE journal_entries SET status='reversed', reversed_at=$2, reversed_by=$3, updated_at=$2
WHERE id=$1 AND status='posted'`, entryID, actorID, at)
}

func (r *txRepository) setStatus(ctx context.Context, query string, entryID, actorID int64, at time.Time) error {
	tag, err := r.tx.Exec(ctx, query, entryID, at, actorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.Wrapf(shared.ErrInvalidStatus, "entry %d", entryID)
	}
	return nil
}

func (r *txRepository) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (module, ref_id, je_id) VALUES ($1,$2,$3)`, module, ref, entryID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == sourceLinkConstraint {
		return shared.Wrapf(shared.ErrSourceAlreadyLinked, "%s/%s", module, ref)
	}
	return err
}

func (r *txRepository) GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error) {
	p, err := periods.ScanRow(r.tx.QueryRow(ctx, `SELECT `+periods.Columns+` FROM accounting_periods WHERE id=$1 FOR UPDATE`, periodID))
	if errors.Is(err, pgx.ErrNoRows) {
		return periods.Period{}, shared.Wrapf(shared.ErrPeriodNotFound, "period %d", periodID)
	}
	return p, err
}

func (r *txRepository) FindPeriodForDate(ctx context.Context, companyID int64, date time.Time) (periods.Period, error) {
	p, err := periods.ScanRow(r.tx.QueryRow(ctx, `SELECT `+periods.Columns+` FROM accounting_periods
WHERE company_id=$1 AND start_date <= $2 AND end_date >= $2 FOR UPDATE`, companyID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return periods.Period{}, shared.Wrapf(shared.ErrNoPeriodForDate, "%s", date.Format("2006-01-02"))
	}
	return p, err
}

func (r *txRepository) ListAccounts(ctx context.Context, companyID int64) ([]accounts.Account, error) {
	return accounts.Query(ctx, r.tx, companyID)
}

func (r *txRepository) InsertAudit(ctx context.Context, log internalShared.AuditLog) error {
	return internalShared.WriteAudit(ctx, r.tx, log)
}

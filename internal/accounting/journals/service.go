package journals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// CacheInvalidator is notified whenever posted balances of a company change.
type CacheInvalidator interface {
	Bump(ctx context.Context, companyID int64) error
}

type Service struct {
	repo        Repository
	invalidator CacheInvalidator
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(repo Repository, invalidator CacheInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, invalidator: invalidator, logger: logger, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get returns an entry with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Entry, error) {
	return s.repo.Get(ctx, id)
}

// CreateDraft stores an unposted entry in a writable period.
func (s *Service) CreateDraft(ctx context.Context, input DraftInput) (Entry, error) {
	if err := input.Validate(); err != nil {
		return Entry{}, err
	}
	date := periods.DateOnly(input.Date)
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := s.writablePeriod(ctx, tx, input.CompanyID, input.PeriodID, date)
		if err != nil {
			return err
		}
		seq, err := tx.NextNumber(ctx, input.CompanyID)
		if err != nil {
			return err
		}
		entry, err = tx.InsertEntry(ctx, Entry{
			CompanyID:      input.CompanyID,
			Sequence:       seq,
			Number:         FormatNumber(seq),
			PeriodID:       period.ID,
			DocumentTypeID: input.DocumentTypeID,
			Date:           date,
			Memo:           input.Memo,
			Status:         StatusDraft,
			CreatedBy:      input.CreatedBy,
			Lines:          toLines(input.postingLines()),
		})
		if err != nil {
			return err
		}
		return s.record(ctx, tx, input.CreatedBy, "journal.draft", entry, nil)
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// UpdateDraft replaces the header fields and, when supplied, the lines of a draft.
func (s *Service) UpdateDraft(ctx context.Context, input UpdateDraftInput) (Entry, error) {
	if err := validate.Struct(input); err != nil {
		return Entry{}, shared.Wrapf(shared.ErrInvalidAmount, "%v", err)
	}
	var lines []PostingLineInput
	for _, l := range input.Lines {
		lines = append(lines, l.Normalize())
	}
	if err := checkLineAmounts(lines); err != nil {
		return Entry{}, err
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := s.lockDraft(ctx, tx, input.EntryID)
		if err != nil {
			return err
		}
		if input.Date != nil {
			current.Date = periods.DateOnly(*input.Date)
		}
		if input.Memo != nil {
			current.Memo = *input.Memo
		}
		period, err := s.writablePeriod(ctx, tx, current.CompanyID, nil, current.Date)
		if err != nil {
			return err
		}
		current.PeriodID = period.ID
		if err := tx.UpdateDraftHeader(ctx, current); err != nil {
			return err
		}
		if input.Lines != nil {
			current.Lines = toLines(lines)
			if err := tx.ReplaceLines(ctx, current.ID, current.Lines); err != nil {
				return err
			}
		}
		entry = current
		return s.record(ctx, tx, input.ActorID, "journal.update", entry, nil)
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// DeleteDraft removes a draft and its lines.
func (s *Service) DeleteDraft(ctx context.Context, entryID, actorID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := s.lockDraft(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if _, err := s.writablePeriod(ctx, tx, current.CompanyID, &current.PeriodID, current.Date); err != nil {
			return err
		}
		if err := tx.DeleteEntry(ctx, entryID); err != nil {
			return err
		}
		return s.record(ctx, tx, actorID, "journal.delete", current, nil)
	})
}

// Post validates a draft under the period row lock and marks it posted.
func (s *Service) Post(ctx context.Context, input PostInput) (Entry, error) {
	if input.EntryID == 0 {
		return Entry{}, shared.NewValidation("accounting: entry id required")
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := s.lockDraft(ctx, tx, input.EntryID)
		if err != nil {
			return err
		}
		period, err := tx.GetPeriodForUpdate(ctx, current.PeriodID)
		if err != nil {
			return err
		}
		chart, err := loadChart(ctx, tx, current.CompanyID)
		if err != nil {
			return err
		}
		if err := Validate(current, period, chart); err != nil {
			return err
		}
		now := s.now()
		if err := tx.MarkPosted(ctx, current.ID, input.ActorID, now); err != nil {
			return err
		}
		current.Status = StatusPosted
		current.PostedAt = &now
		current.PostedBy = &input.ActorID
		entry = current
		return s.record(ctx, tx, input.ActorID, "journal.post", entry, nil)
	})
	if err != nil {
		return Entry{}, err
	}
	s.invalidate(ctx, entry.CompanyID)
	return entry, nil
}

// PostJournal creates and posts an entry in one transaction, linking it to
// its source document. A source can be linked only once.
func (s *Service) PostJournal(ctx context.Context, input PostingInput) (Entry, error) {
	if err := input.Validate(); err != nil {
		return Entry{}, err
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := tx.GetPeriodForUpdate(ctx, input.PeriodID)
		if err != nil {
			return err
		}
		if period.CompanyID != input.CompanyID {
			return shared.Wrapf(shared.ErrPeriodNotFound, "period %d", period.ID)
		}
		chart, err := loadChart(ctx, tx, input.CompanyID)
		if err != nil {
			return err
		}
		now := s.now()
		sourceID := input.SourceID
		candidate := Entry{
			CompanyID:      input.CompanyID,
			PeriodID:       period.ID,
			DocumentTypeID: input.DocumentTypeID,
			Date:           periods.DateOnly(input.Date),
			Memo:           input.Memo,
			SourceModule:   input.SourceModule,
			SourceID:       &sourceID,
			Status:         StatusPosted,
			CreatedBy:      input.PostedBy,
			PostedAt:       &now,
			PostedBy:       &input.PostedBy,
			Lines:          toLines(input.Lines),
		}
		if err := Validate(candidate, period, chart); err != nil {
			return err
		}
		seq, err := tx.NextNumber(ctx, input.CompanyID)
		if err != nil {
			return err
		}
		candidate.Sequence = seq
		candidate.Number = FormatNumber(seq)
		inserted, err := tx.InsertEntry(ctx, candidate)
		if err != nil {
			return err
		}
		if err := tx.LinkSource(ctx, input.SourceModule, input.SourceID, inserted.ID); err != nil {
			return err
		}
		entry = inserted
		meta := map[string]any{
			"source_module": input.SourceModule,
			"source_id":     input.SourceID.String(),
		}
		for k, v := range input.AuditMeta {
			meta[k] = v
		}
		return s.record(ctx, tx, input.PostedBy, "journal.post", entry, meta)
	})
	if err != nil {
		return Entry{}, err
	}
	s.invalidate(ctx, entry.CompanyID)
	return entry, nil
}

// Reverse marks a posted entry reversed and books its mirror image in the
// writable period covering the reversal date.
func (s *Service) Reverse(ctx context.Context, input ReverseInput) (ReverseResult, error) {
	if input.EntryID == 0 {
		return ReverseResult{}, shared.NewValidation("accounting: entry id required")
	}
	var result ReverseResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryForUpdate(ctx, input.EntryID)
		if err != nil {
			return err
		}
		if original.Status != StatusPosted {
			return shared.Wrapf(shared.ErrInvalidStatus, "entry %s is %s", original.Number, original.Status)
		}
		date := original.Date
		if input.Date != nil {
			date = periods.DateOnly(*input.Date)
		}
		target, err := tx.FindPeriodForDate(ctx, original.CompanyID, date)
		if errors.Is(err, shared.ErrNoPeriodForDate) {
			return shared.Wrapf(shared.ErrPeriodClosed, "no writable period for %s", date.Format("2006-01-02"))
		}
		if err != nil {
			return err
		}
		now := s.now()
		originalID := original.ID
		mirror := Entry{
			CompanyID:      original.CompanyID,
			PeriodID:       target.ID,
			DocumentTypeID: original.DocumentTypeID,
			Date:           date,
			Memo:           defaultReversalMemo(input.Memo, original.Number),
			SourceModule:   original.SourceModule,
			Status:         StatusPosted,
			CreatedBy:      input.ActorID,
			PostedAt:       &now,
			PostedBy:       &input.ActorID,
			ReversalOf:     &originalID,
			Lines:          mirrorLines(original.Lines),
		}
		if err := Validate(mirror, target, nil); err != nil {
			return err
		}
		seq, err := tx.NextNumber(ctx, original.CompanyID)
		if err != nil {
			return err
		}
		mirror.Sequence = seq
		mirror.Number = FormatNumber(seq)
		inserted, err := tx.InsertEntry(ctx, mirror)
		if err != nil {
			return err
		}
		if err := tx.MarkReversed(ctx, original.ID, input.ActorID, now); err != nil {
			return err
		}
		original.Status = StatusReversed
		original.ReversedAt = &now
		original.ReversedBy = &input.ActorID
		result = ReverseResult{Original: original, Reversal: inserted}
		return s.record(ctx, tx, input.ActorID, "journal.reverse", original, map[string]any{
			"reversal_id":     inserted.ID,
			"reversal_number": inserted.Number,
		})
	})
	if err != nil {
		return ReverseResult{}, err
	}
	s.invalidate(ctx, result.Original.CompanyID)
	return result, nil
}

func (s *Service) lockDraft(ctx context.Context, tx TxRepository, entryID int64) (Entry, error) {
	current, err := tx.GetEntryForUpdate(ctx, entryID)
	if err != nil {
		return Entry{}, err
	}
	if current.Status != StatusDraft {
		return Entry{}, shared.Wrapf(shared.ErrInvalidStatus, "entry %s is %s", current.Number, current.Status)
	}
	return current, nil
}

// writablePeriod locks the target period row and checks it accepts writes for date.
func (s *Service) writablePeriod(ctx context.Context, tx TxRepository, companyID int64, explicitID *int64, date time.Time) (periods.Period, error) {
	var (
		period periods.Period
		err    error
	)
	if explicitID != nil {
		period, err = tx.GetPeriodForUpdate(ctx, *explicitID)
	} else {
		period, err = tx.FindPeriodForDate(ctx, companyID, date)
	}
	if err != nil {
		return periods.Period{}, err
	}
	if period.CompanyID != companyID {
		return periods.Period{}, shared.Wrapf(shared.ErrPeriodNotFound, "period %d", period.ID)
	}
	if !periods.CanWrite(period) {
		return periods.Period{}, shared.Wrapf(shared.ErrPeriodClosed, "period %s is %s", period.Name, period.Status)
	}
	if !period.Contains(date) {
		return periods.Period{}, shared.Wrapf(shared.ErrDateOutOfRange, "%s not in %s", date.Format("2006-01-02"), period.Name)
	}
	return period, nil
}

func loadChart(ctx context.Context, tx TxRepository, companyID int64) (*accounts.Chart, error) {
	list, err := tx.ListAccounts(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return accounts.NewChart(list)
}

// record writes the audit row inside tx so the event commits or rolls back
// with the change it describes.
func (s *Service) record(ctx context.Context, tx TxRepository, actorID int64, action string, entry Entry, extra map[string]any) error {
	meta := map[string]any{"number": entry.Number, "status": string(entry.Status)}
	for k, v := range extra {
		meta[k] = v
	}
	return tx.InsertAudit(ctx, internalShared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: fmt.Sprintf("%d", entry.ID),
		Meta:     meta,
		At:       s.now(),
	})
}

func (s *Service) invalidate(ctx context.Context, companyID int64) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Bump(ctx, companyID); err != nil {
		s.logger.Warn("invalidate report cache", slog.Int64("company_id", companyID), slog.Any("error", err))
	}
}

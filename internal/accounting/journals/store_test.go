package journals

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// memoryStore is a Repository whose transactions roll back by restoring a snapshot.
type memoryStore struct {
	mu       sync.Mutex
	entries  map[int64]Entry
	periods  map[int64]periods.Period
	accounts []accounts.Account
	counters map[int64]int64
	links    map[string]int64
	audits   []internalShared.AuditLog
	auditErr error
	nextID   int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		entries:  map[int64]Entry{},
		periods:  map[int64]periods.Period{},
		counters: map[int64]int64{},
		links:    map[string]int64{},
	}
}

func (s *memoryStore) Get(ctx context.Context, id int64) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*memoryTx)(s).GetEntry(ctx, id)
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make(map[int64]Entry, len(s.entries))
	for k, v := range s.entries {
		entries[k] = v
	}
	counters := make(map[int64]int64, len(s.counters))
	for k, v := range s.counters {
		counters[k] = v
	}
	links := make(map[string]int64, len(s.links))
	for k, v := range s.links {
		links[k] = v
	}
	nextID := s.nextID
	audits := len(s.audits)
	if err := fn(ctx, (*memoryTx)(s)); err != nil {
		s.entries, s.counters, s.links, s.nextID = entries, counters, links, nextID
		s.audits = s.audits[:audits]
		return err
	}
	return nil
}

type memoryTx memoryStore

func (t *memoryTx) NextNumber(ctx context.Context, companyID int64) (int64, error) {
	t.counters[companyID]++
	return t.counters[companyID], nil
}

func (t *memoryTx) InsertEntry(ctx context.Context, entry Entry) (Entry, error) {
	t.nextID++
	entry.ID = t.nextID
	for i := range entry.Lines {
		entry.Lines[i].EntryID = entry.ID
	}
	t.entries[entry.ID] = entry
	return entry, nil
}

func (t *memoryTx) ReplaceLines(ctx context.Context, entryID int64, lines []Line) error {
	e := t.entries[entryID]
	e.Lines = lines
	t.entries[entryID] = e
	return nil
}

func (t *memoryTx) UpdateDraftHeader(ctx context.Context, entry Entry) error {
	e := t.entries[entry.ID]
	e.Date, e.Memo, e.PeriodID = entry.Date, entry.Memo, entry.PeriodID
	t.entries[entry.ID] = e
	return nil
}

func (t *memoryTx) DeleteEntry(ctx context.Context, entryID int64) error {
	delete(t.entries, entryID)
	return nil
}

func (t *memoryTx) GetEntry(ctx context.Context, entryID int64) (Entry, error) {
	e, ok := t.entries[entryID]
	if !ok {
		return Entry{}, shared.ErrJournalNotFound
	}
	e.Lines = append([]Line(nil), e.Lines...)
	return e, nil
}

func (t *memoryTx) GetEntryForUpdate(ctx context.Context, entryID int64) (Entry, error) {
	return t.GetEntry(ctx, entryID)
}

func (t *memoryTx) MarkPosted(ctx context.Context, entryID, actorID int64, at time.Time) error {
	e := t.entries[entryID]
	e.Status, e.PostedAt, e.PostedBy = StatusPosted, &at, &actorID
	t.entries[entryID] = e
	return nil
}

func (t *memoryTx) MarkReversed(ctx context.Context, entryID, actorID int64, at time.Time) error {
	e := t.entries[entryID]
	e.Status, e.ReversedAt, e.ReversedBy = StatusReversed, &at, &actorID
	t.entries[entryID] = e
	return nil
}

func (t *memoryTx) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	key := module + "/" + ref.String()
	if _, ok := t.links[key]; ok {
		return shared.ErrSourceAlreadyLinked
	}
	t.links[key] = entryID
	return nil
}

func (t *memoryTx) GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error) {
	p, ok := t.periods[periodID]
	if !ok {
		return periods.Period{}, shared.ErrPeriodNotFound
	}
	return p, nil
}

func (t *memoryTx) FindPeriodForDate(ctx context.Context, companyID int64, date time.Time) (periods.Period, error) {
	for _, p := range t.periods {
		if p.CompanyID == companyID && p.Contains(date) {
			return p, nil
		}
	}
	return periods.Period{}, shared.ErrNoPeriodForDate
}

func (t *memoryTx) ListAccounts(ctx context.Context, companyID int64) ([]accounts.Account, error) {
	return t.accounts, nil
}

func (t *memoryTx) InsertAudit(ctx context.Context, log internalShared.AuditLog) error {
	if t.auditErr != nil {
		return t.auditErr
	}
	t.audits = append(t.audits, log)
	return nil
}

type countingInvalidator struct {
	bumps map[int64]int
	err   error
}

func (c *countingInvalidator) Bump(ctx context.Context, companyID int64) error {
	if c.err != nil {
		return c.err
	}
	if c.bumps == nil {
		c.bumps = map[int64]int{}
	}
	c.bumps[companyID]++
	return nil
}

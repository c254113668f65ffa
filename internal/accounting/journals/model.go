package journals

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates journal lifecycle values.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPosted   Status = "posted"
	StatusReversed Status = "reversed"
)

// Entry captures a journal entry and its lines.
type Entry struct {
	ID             int64
	CompanyID      int64
	Sequence       int64
	Number         string
	PeriodID       int64
	DocumentTypeID *int64
	Date           time.Time
	Memo           string
	SourceModule   string
	SourceID       *uuid.UUID
	Status         Status
	CreatedBy      int64
	PostedAt       *time.Time
	PostedBy       *int64
	ReversedAt     *time.Time
	ReversedBy     *int64
	ReversalOf     *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Lines          []Line
}

// Line stores a debit or credit amount for an account.
type Line struct {
	ID        int64
	EntryID   int64
	LineNo    int
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Memo      string
}

// FormatNumber renders an allocated sequence as a human-readable entry number.
func FormatNumber(seq int64) string {
	return fmt.Sprintf("JE-%06d", seq)
}

// PostingLines returns the entry lines in posting form.
func (e Entry) PostingLines() []PostingLineInput {
	out := make([]PostingLineInput, 0, len(e.Lines))
	for _, l := range e.Lines {
		out = append(out, PostingLineInput{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit, Memo: l.Memo})
	}
	return out
}

// Totals sums both sides of the entry.
func (e Entry) Totals() (debit, credit decimal.Decimal) {
	return sumLines(e.PostingLines())
}

func toLines(in []PostingLineInput) []Line {
	out := make([]Line, 0, len(in))
	for idx, l := range in {
		out = append(out, Line{LineNo: idx + 1, AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit, Memo: l.Memo})
	}
	return out
}

// mirrorLines swaps debit and credit for a reversing entry.
func mirrorLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, Line{LineNo: l.LineNo, AccountID: l.AccountID, Debit: l.Credit, Credit: l.Debit, Memo: l.Memo})
	}
	return out
}

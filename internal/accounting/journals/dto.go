package journals

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

var validate = validator.New()

// PostingLineInput describes a normalised journal line.
type PostingLineInput struct {
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Memo      string
}

// LineInput is a raw line as received at the boundary; absent amounts are allowed.
type LineInput struct {
	AccountID int64             `json:"accountId" validate:"required,gt=0"`
	Debit     shared.NullAmount `json:"debit"`
	Credit    shared.NullAmount `json:"credit"`
	Memo      string            `json:"memo" validate:"max=255"`
}

// Normalize applies the absence-to-zero rule.
func (l LineInput) Normalize() PostingLineInput {
	return PostingLineInput{AccountID: l.AccountID, Debit: l.Debit.OrZero(), Credit: l.Credit.OrZero(), Memo: l.Memo}
}

// DraftInput groups fields required to create a draft entry.
type DraftInput struct {
	CompanyID      int64       `json:"companyId" validate:"required,gt=0"`
	PeriodID       *int64      `json:"periodId"`
	DocumentTypeID *int64      `json:"documentTypeId"`
	Date           time.Time   `json:"date" validate:"required"`
	Memo           string      `json:"memo" validate:"max=500"`
	CreatedBy      int64       `json:"-"`
	Lines          []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// Validate checks shape and per-line amounts. Drafts may be unbalanced.
func (in DraftInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return shared.Wrapf(shared.ErrInvalidAmount, "%v", err)
	}
	return checkLineAmounts(in.postingLines())
}

func (in DraftInput) postingLines() []PostingLineInput {
	out := make([]PostingLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		out = append(out, l.Normalize())
	}
	return out
}

// UpdateDraftInput replaces the mutable parts of a draft.
type UpdateDraftInput struct {
	EntryID int64       `json:"-" validate:"required,gt=0"`
	ActorID int64       `json:"-"`
	Date    *time.Time  `json:"date"`
	Memo    *string     `json:"memo"`
	Lines   []LineInput `json:"lines" validate:"omitempty,dive"`
}

// PostInput identifies the draft to post.
type PostInput struct {
	EntryID int64
	ActorID int64
}

// ReverseInput wraps parameters for reversal.
type ReverseInput struct {
	EntryID int64
	ActorID int64
	Date    *time.Time
	Memo    string
}

// ReverseResult returns both sides of a reversal.
type ReverseResult struct {
	Original Entry
	Reversal Entry
}

// PostingInput creates and posts an entry in one step for integrations.
type PostingInput struct {
	CompanyID      int64
	PeriodID       int64
	DocumentTypeID *int64
	Date           time.Time
	SourceModule   string
	SourceID       uuid.UUID
	Memo           string
	PostedBy       int64
	Lines          []PostingLineInput
	// AuditMeta is merged into the journal.post audit record.
	AuditMeta      map[string]any
}

// Validate ensures posting input meets minimum criteria before any store access.
func (in PostingInput) Validate() error {
	if in.CompanyID == 0 {
		return shared.NewValidation("accounting: company required")
	}
	if in.PeriodID == 0 {
		return shared.NewValidation("accounting: period required")
	}
	if in.SourceModule == "" {
		return shared.NewValidation("accounting: source module required")
	}
	if in.SourceID == uuid.Nil {
		return shared.NewValidation("accounting: source id required")
	}
	return CheckLines(in.Lines)
}

func defaultReversalMemo(memo, number string) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Reversal of %s", number)
}

package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind classifies ledger errors by how callers should react to them.
type Kind string

const (
	// KindValidation marks bad input; fix the input and retry.
	KindValidation Kind = "validation"
	// KindState marks a blocked precondition such as a closed period.
	KindState Kind = "state"
	// KindConfiguration marks missing setup such as account mappings.
	KindConfiguration Kind = "configuration"
	// KindExternal marks store or transport failures; propagated unchanged.
	KindExternal Kind = "external"
)

// Error attaches a Kind to a sentinel error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func validation(msg string) error    { return &Error{Kind: KindValidation, Err: errors.New(msg)} }
func state(msg string) error         { return &Error{Kind: KindState, Err: errors.New(msg)} }
func configuration(msg string) error { return &Error{Kind: KindConfiguration, Err: errors.New(msg)} }

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = validation("accounting: journal lines must balance")
	// ErrInsufficientLines indicates fewer than two lines carry an amount.
	ErrInsufficientLines = validation("accounting: journal requires at least two non-zero lines")
	// ErrInvalidAmount indicates a negative or two-sided line.
	ErrInvalidAmount = validation("accounting: invalid line amount")
	// ErrUnknownAccount indicates a line or balance references a missing account.
	ErrUnknownAccount = validation("accounting: unknown account")
	// ErrAccountNotPostable indicates a group, inactive, or locked account.
	ErrAccountNotPostable = validation("accounting: account does not accept postings")
	// ErrDateOutOfRange indicates journal date mismatch.
	ErrDateOutOfRange = validation("accounting: date outside period")
	// ErrInvalidStatusValue indicates an unrecognised persisted status.
	ErrInvalidStatusValue = validation("accounting: unrecognised status")

	// ErrPeriodClosed indicates a write into a period that is not open.
	ErrPeriodClosed = state("accounting: period is not open")
	// ErrInvalidStatus indicates the entry cannot make the requested transition.
	ErrInvalidStatus = state("accounting: invalid status transition")
	// ErrInvalidTransition indicates a disallowed period status change.
	ErrInvalidTransition = state("accounting: invalid period transition")
	// ErrNoPeriodForDate indicates no period covers the requested date.
	ErrNoPeriodForDate = state("accounting: no period for date")
	// ErrNoOpenPeriod indicates the company has no open period.
	ErrNoOpenPeriod = state("accounting: no open period")
	// ErrMultipleOpenPeriods indicates the single-open-period invariant is broken in the store.
	ErrMultipleOpenPeriods = state("accounting: more than one open period")
	// ErrSourceAlreadyLinked indicates idempotency conflict.
	ErrSourceAlreadyLinked = state("accounting: source already linked")
	// ErrPostingInProgress indicates another posting holds the period lock.
	ErrPostingInProgress = state("accounting: posting already in progress")

	// ErrPeriodNotFound indicates missing period.
	ErrPeriodNotFound = validation("accounting: period not found")
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = validation("accounting: journal entry not found")

	// ErrMappingNotFound indicates account mapping missing.
	ErrMappingNotFound = configuration("accounting: account mapping not found")
)

// UnbalancedEntryError reports the absolute debit/credit difference.
type UnbalancedEntryError struct {
	Difference decimal.Decimal
}

func (e UnbalancedEntryError) Error() string {
	return fmt.Sprintf("accounting: journal lines must balance (difference %s)", e.Difference.StringFixed(2))
}

// Kind implements kinded.
func (e UnbalancedEntryError) Kind() Kind { return KindValidation }

// Is lets errors.Is match ErrUnbalanced.
func (e UnbalancedEntryError) Is(target error) bool { return target == ErrUnbalanced }

// MissingMappingError names one unset payroll mapping type.
type MissingMappingError struct {
	Type string
}

func (e MissingMappingError) Error() string {
	return fmt.Sprintf("accounting: payroll account mapping %q not configured", e.Type)
}

// Kind implements kinded.
func (e MissingMappingError) Kind() Kind { return KindConfiguration }

// Is lets errors.Is match ErrMappingNotFound.
func (e MissingMappingError) Is(target error) bool { return target == ErrMappingNotFound }

type kinded interface {
	Kind() Kind
}

// KindOf walks the error chain and returns the first classification found.
// Unclassified errors are treated as external failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindExternal
}

// Wrapf adds detail to a sentinel while keeping its Kind.
func Wrapf(base error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))
}

// NewValidation builds a validation error from a message.
func NewValidation(msg string) error { return validation(msg) }

// NewState builds a state error from a message.
func NewState(msg string) error { return state(msg) }

// NewConfiguration builds a configuration error from a message.
func NewConfiguration(msg string) error { return configuration(msg) }

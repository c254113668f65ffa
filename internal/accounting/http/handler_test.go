package accountinghttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

type stubPeriods struct {
	provisionFn func(ctx context.Context, companyID int64) ([]periods.Period, error)
	currentFn   func(ctx context.Context, companyID int64, override, preference *int64) (periods.Period, error)
	resolveFn   func(ctx context.Context, companyID int64, explicitID *int64, date time.Time) (periods.Period, error)
	softCloseFn func(ctx context.Context, periodID, actorID int64) (periods.Period, error)
	hardCloseFn func(ctx context.Context, periodID, actorID int64) (periods.Period, error)
}

func (s *stubPeriods) AutoProvision(ctx context.Context, companyID int64) ([]periods.Period, error) {
	return s.provisionFn(ctx, companyID)
}

func (s *stubPeriods) List(ctx context.Context, companyID int64) ([]periods.Period, error) {
	return nil, nil
}

func (s *stubPeriods) Current(ctx context.Context, companyID int64, override, preference *int64) (periods.Period, error) {
	return s.currentFn(ctx, companyID, override, preference)
}

func (s *stubPeriods) ResolveForWrite(ctx context.Context, companyID int64, explicitID *int64, date time.Time) (periods.Period, error) {
	return s.resolveFn(ctx, companyID, explicitID, date)
}

func (s *stubPeriods) SoftClose(ctx context.Context, periodID, actorID int64) (periods.Period, error) {
	return s.softCloseFn(ctx, periodID, actorID)
}

func (s *stubPeriods) HardClose(ctx context.Context, periodID, actorID int64) (periods.Period, error) {
	return s.hardCloseFn(ctx, periodID, actorID)
}

type stubJournals struct {
	createFn  func(ctx context.Context, input journals.DraftInput) (journals.Entry, error)
	postFn    func(ctx context.Context, input journals.PostInput) (journals.Entry, error)
	reverseFn func(ctx context.Context, input journals.ReverseInput) (journals.ReverseResult, error)
}

func (s *stubJournals) Get(ctx context.Context, id int64) (journals.Entry, error) {
	return journals.Entry{}, shared.ErrJournalNotFound
}

func (s *stubJournals) CreateDraft(ctx context.Context, input journals.DraftInput) (journals.Entry, error) {
	return s.createFn(ctx, input)
}

func (s *stubJournals) UpdateDraft(ctx context.Context, input journals.UpdateDraftInput) (journals.Entry, error) {
	return journals.Entry{}, errors.New("not used")
}

func (s *stubJournals) DeleteDraft(ctx context.Context, entryID, actorID int64) error {
	return nil
}

func (s *stubJournals) Post(ctx context.Context, input journals.PostInput) (journals.Entry, error) {
	return s.postFn(ctx, input)
}

func (s *stubJournals) Reverse(ctx context.Context, input journals.ReverseInput) (journals.ReverseResult, error) {
	return s.reverseFn(ctx, input)
}

type stubReports struct {
	tbFn func(ctx context.Context, companyID, periodID int64) (reports.TrialBalance, error)
	bsFn func(ctx context.Context, companyID, periodID int64) (reports.BalanceSheet, error)
}

func (s *stubReports) TrialBalance(ctx context.Context, companyID, periodID int64) (reports.TrialBalance, error) {
	return s.tbFn(ctx, companyID, periodID)
}

func (s *stubReports) BalanceSheet(ctx context.Context, companyID, periodID int64) (reports.BalanceSheet, error) {
	return s.bsFn(ctx, companyID, periodID)
}

func (s *stubReports) ProfitAndLoss(ctx context.Context, companyID, periodID int64) (reports.ProfitAndLoss, error) {
	return reports.ProfitAndLoss{PeriodID: periodID}, nil
}

func (s *stubReports) RollForward(ctx context.Context, companyID, fromPeriodID, toPeriodID int64) ([]reports.OpeningBalance, error) {
	return nil, nil
}

type countingEvents map[string]int

func (c countingEvents) LedgerEvent(event string) { c[event]++ }

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)
	return r
}

func do(t *testing.T, router http.Handler, method, path, body string, actorID int64) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	}
	if actorID > 0 {
		req = req.WithContext(internalShared.ContextWithActor(req.Context(), actorID))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) httpx.ProblemDetail {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var p httpx.ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	return p
}

func date(s string) time.Time {
	d, _ := time.Parse(dateLayout, s)
	return d
}

func TestCreateDraftRequiresActor(t *testing.T) {
	h := NewHandler(nil, &stubPeriods{}, &stubJournals{}, &stubReports{}, nil)
	rec := do(t, newTestRouter(h), http.MethodPost, "/api/journals", `{}`, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateDraftPassesLinesAndActor(t *testing.T) {
	svc := &stubJournals{
		createFn: func(ctx context.Context, input journals.DraftInput) (journals.Entry, error) {
			assert.Equal(t, int64(9), input.CreatedBy)
			require.Len(t, input.Lines, 2)
			assert.False(t, input.Lines[0].Credit.Valid)
			assert.True(t, input.Lines[1].Credit.OrZero().Equal(decimal.NewFromInt(500)))
			return journals.Entry{
				ID: 1, CompanyID: input.CompanyID, Number: journals.FormatNumber(1), PeriodID: 3,
				Date: input.Date, Status: journals.StatusDraft,
				Lines: []journals.Line{
					{LineNo: 1, AccountID: 10, Debit: decimal.NewFromInt(500)},
					{LineNo: 2, AccountID: 20, Credit: decimal.NewFromInt(500)},
				},
			}, nil
		},
	}
	h := NewHandler(nil, &stubPeriods{}, svc, &stubReports{}, nil)
	body := `{"companyId":1,"date":"2024-05-10T00:00:00Z","memo":"rent","lines":[
		{"accountId":10,"debit":"500","credit":null},
		{"accountId":20,"credit":500}]}`
	rec := do(t, newTestRouter(h), http.MethodPost, "/api/journals", body, 9)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp entryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "JE-000001", resp.Number)
	assert.Equal(t, "2024-05-10", resp.Date)
	assert.Equal(t, "500.00", resp.TotalDebit)
	assert.Equal(t, "500.00", resp.TotalCredit)
}

func TestCreateDraftRejectsUnknownFields(t *testing.T) {
	h := NewHandler(nil, &stubPeriods{}, &stubJournals{}, &stubReports{}, nil)
	rec := do(t, newTestRouter(h), http.MethodPost, "/api/journals", `{"companyId":1,"bogus":true}`, 9)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostEntryMapsErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"closed period", fmt.Errorf("post: %w", shared.ErrPeriodClosed), http.StatusConflict, "period is not open"},
		{"unbalanced", shared.UnbalancedEntryError{Difference: decimal.NewFromInt(100)}, http.StatusBadRequest, "difference 100.00"},
		{"missing", shared.ErrJournalNotFound, http.StatusNotFound, "not found"},
		{"store", errors.New("conn reset by peer"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events := countingEvents{}
			svc := &stubJournals{postFn: func(ctx context.Context, input journals.PostInput) (journals.Entry, error) {
				return journals.Entry{}, tc.err
			}}
			h := NewHandler(nil, &stubPeriods{}, svc, &stubReports{}, events)
			rec := do(t, newTestRouter(h), http.MethodPost, "/api/journals/5/post", "", 2)
			require.Equal(t, tc.status, rec.Code)
			p := decodeProblem(t, rec)
			if tc.detail == "" {
				assert.Empty(t, p.Detail)
			} else {
				assert.Contains(t, p.Detail, tc.detail)
			}
			assert.Zero(t, events["journal_post"])
		})
	}
}

func TestPostEntrySuccessCountsEvent(t *testing.T) {
	events := countingEvents{}
	svc := &stubJournals{postFn: func(ctx context.Context, input journals.PostInput) (journals.Entry, error) {
		assert.Equal(t, journals.PostInput{EntryID: 5, ActorID: 2}, input)
		return journals.Entry{ID: 5, Number: "JE-000005", Status: journals.StatusPosted, Date: date("2024-05-10")}, nil
	}}
	h := NewHandler(nil, &stubPeriods{}, svc, &stubReports{}, events)
	rec := do(t, newTestRouter(h), http.MethodPost, "/api/journals/5/post", "", 2)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, events["journal_post"])
}

func TestReverseEntry(t *testing.T) {
	svc := &stubJournals{reverseFn: func(ctx context.Context, input journals.ReverseInput) (journals.ReverseResult, error) {
		require.NotNil(t, input.Date)
		assert.Equal(t, "2024-06-01", input.Date.Format(dateLayout))
		original := int64(5)
		return journals.ReverseResult{
			Original: journals.Entry{ID: 5, Status: journals.StatusReversed, Date: date("2024-05-10")},
			Reversal: journals.Entry{ID: 6, Status: journals.StatusPosted, ReversalOf: &original, Date: *input.Date},
		}, nil
	}}
	h := NewHandler(nil, &stubPeriods{}, svc, &stubReports{}, nil)
	rec := do(t, newTestRouter(h), http.MethodPost, "/api/journals/5/reverse", `{"date":"2024-06-01T00:00:00Z"}`, 2)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]entryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, journals.StatusReversed, resp["original"].Status)
	require.NotNil(t, resp["reversal"].ReversalOf)
	assert.Equal(t, int64(5), *resp["reversal"].ReversalOf)
}

func TestPeriodTransitions(t *testing.T) {
	events := countingEvents{}
	svc := &stubPeriods{
		softCloseFn: func(ctx context.Context, periodID, actorID int64) (periods.Period, error) {
			return periods.Period{}, shared.ErrInvalidTransition
		},
		hardCloseFn: func(ctx context.Context, periodID, actorID int64) (periods.Period, error) {
			return periods.Period{ID: periodID, Status: periods.StatusHardClosed, StartDate: date("2024-01-01"), EndDate: date("2024-01-31")}, nil
		},
	}
	router := newTestRouter(NewHandler(nil, svc, &stubJournals{}, &stubReports{}, events))

	rec := do(t, router, http.MethodPost, "/api/periods/4/soft-close", "", 1)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/periods/4/hard-close", "", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp periodResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, periods.StatusHardClosed, resp.Status)
	assert.False(t, resp.Can.CanCreate)
	assert.Equal(t, "2024-01-31", resp.EndDate)
	assert.Equal(t, 1, events["period_close"])
}

func TestProvisionStatus(t *testing.T) {
	calls := 0
	svc := &stubPeriods{provisionFn: func(ctx context.Context, companyID int64) ([]periods.Period, error) {
		calls++
		if calls == 1 {
			return []periods.Period{{ID: 1, CompanyID: companyID, Status: periods.StatusOpen}}, nil
		}
		return nil, nil
	}}
	router := newTestRouter(NewHandler(nil, svc, &stubJournals{}, &stubReports{}, nil))
	assert.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/companies/7/periods/provision", "", 1).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/companies/7/periods/provision", "", 1).Code)
}

func TestReports(t *testing.T) {
	svc := &stubReports{
		tbFn: func(ctx context.Context, companyID, periodID int64) (reports.TrialBalance, error) {
			if periodID == 99 {
				return reports.TrialBalance{}, shared.ErrPeriodNotFound
			}
			return reports.TrialBalance{PeriodID: periodID, IsBalanced: true, Rows: []reports.TrialBalanceRow{
				{AccountID: 1, Code: "1010", ClosingDebit: decimal.NewFromInt(5)},
			}}, nil
		},
		bsFn: func(ctx context.Context, companyID, periodID int64) (reports.BalanceSheet, error) {
			return reports.BalanceSheet{}, errors.New("redis: connection pool timeout")
		},
	}
	router := newTestRouter(NewHandler(nil, &stubPeriods{}, &stubJournals{}, svc, nil))

	rec := do(t, router, http.MethodGet, "/api/companies/1/periods/3/trial-balance?grouped=true", "", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	var grouped struct {
		TrialBalance reports.TrialBalance        `json:"trialBalance"`
		Groups       []reports.TrialBalanceGroup `json:"groups"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&grouped))
	assert.True(t, grouped.TrialBalance.IsBalanced)
	require.Len(t, grouped.Groups, 1)
	assert.Equal(t, "10", grouped.Groups[0].Key)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/companies/1/periods/99/trial-balance", "", 0).Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, router, http.MethodGet, "/api/companies/1/periods/3/balance-sheet", "", 0).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/companies/x/periods/3/profit-loss", "", 0).Code)
}

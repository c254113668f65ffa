package accountinghttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

type periodService interface {
	AutoProvision(ctx context.Context, companyID int64) ([]periods.Period, error)
	List(ctx context.Context, companyID int64) ([]periods.Period, error)
	Current(ctx context.Context, companyID int64, override, preference *int64) (periods.Period, error)
	ResolveForWrite(ctx context.Context, companyID int64, explicitID *int64, date time.Time) (periods.Period, error)
	SoftClose(ctx context.Context, periodID, actorID int64) (periods.Period, error)
	HardClose(ctx context.Context, periodID, actorID int64) (periods.Period, error)
}

type journalService interface {
	Get(ctx context.Context, id int64) (journals.Entry, error)
	CreateDraft(ctx context.Context, input journals.DraftInput) (journals.Entry, error)
	UpdateDraft(ctx context.Context, input journals.UpdateDraftInput) (journals.Entry, error)
	DeleteDraft(ctx context.Context, entryID, actorID int64) error
	Post(ctx context.Context, input journals.PostInput) (journals.Entry, error)
	Reverse(ctx context.Context, input journals.ReverseInput) (journals.ReverseResult, error)
}

type reportService interface {
	TrialBalance(ctx context.Context, companyID, periodID int64) (reports.TrialBalance, error)
	BalanceSheet(ctx context.Context, companyID, periodID int64) (reports.BalanceSheet, error)
	ProfitAndLoss(ctx context.Context, companyID, periodID int64) (reports.ProfitAndLoss, error)
	RollForward(ctx context.Context, companyID, fromPeriodID, toPeriodID int64) ([]reports.OpeningBalance, error)
}

type chartService interface {
	Chart(ctx context.Context, companyID int64) (*accounts.Chart, error)
}

type mappingService interface {
	Payroll(ctx context.Context, companyID int64) ([]mappings.Assignment, error)
	Set(ctx context.Context, companyID int64, t mappings.MappingType, accountID int64) (mappings.PayrollAccountMapping, error)
}

// EventRecorder counts successful ledger mutations.
type EventRecorder interface {
	LedgerEvent(event string)
}

// Handler exposes the ledger JSON API.
type Handler struct {
	logger   *slog.Logger
	periods  periodService
	journals journalService
	reports  reportService
	charts   chartService
	mappings mappingService
	events   EventRecorder
}

// NewHandler constructs an accounting HTTP handler.
func NewHandler(logger *slog.Logger, periodSvc periodService, journalSvc journalService, reportSvc reportService, events EventRecorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, periods: periodSvc, journals: journalSvc, reports: reportSvc, events: events}
}

// WithSetup enables the chart of accounts and payroll mapping routes.
func (h *Handler) WithSetup(charts chartService, maps mappingService) *Handler {
	h.charts = charts
	h.mappings = maps
	return h
}

// MountRoutes registers ledger routes under /api.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/periods", func(r chi.Router) {
		r.Get("/", h.listPeriods)
		r.Get("/current", h.currentPeriod)
		r.Get("/resolve", h.resolvePeriod)
		r.Post("/provision", h.provisionPeriods)
		r.Get("/{periodID}/trial-balance", h.trialBalance)
		r.Get("/{periodID}/balance-sheet", h.balanceSheet)
		r.Get("/{periodID}/profit-loss", h.profitAndLoss)
		r.Post("/{periodID}/roll-forward", h.rollForward)
	})
	if h.charts != nil {
		r.Get("/companies/{companyID}/accounts", h.listAccounts)
	}
	if h.mappings != nil {
		r.Get("/companies/{companyID}/payroll/mappings", h.listMappings)
		r.Put("/companies/{companyID}/payroll/mappings/{mappingType}", h.setMapping)
	}
	r.Post("/periods/{periodID}/soft-close", h.softClose)
	r.Post("/periods/{periodID}/hard-close", h.hardClose)
	r.Route("/journals", func(r chi.Router) {
		r.Post("/", h.createDraft)
		r.Get("/{id}", h.getEntry)
		r.Patch("/{id}", h.updateDraft)
		r.Delete("/{id}", h.deleteDraft)
		r.Post("/{id}/post", h.postEntry)
		r.Post("/{id}/reverse", h.reverseEntry)
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := httpx.StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("accounting request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) event(name string) {
	if h.events != nil {
		h.events.LedgerEvent(name)
	}
}

type periodResponse struct {
	ID        int64                `json:"id"`
	CompanyID int64                `json:"companyId"`
	Name      string               `json:"name"`
	StartDate string               `json:"startDate"`
	EndDate   string               `json:"endDate"`
	Status    periods.Status       `json:"status"`
	Can       periods.Capabilities `json:"can"`
}

func toPeriodResponse(p periods.Period) periodResponse {
	return periodResponse{
		ID:        p.ID,
		CompanyID: p.CompanyID,
		Name:      p.Name,
		StartDate: p.StartDate.Format(dateLayout),
		EndDate:   p.EndDate.Format(dateLayout),
		Status:    p.Status,
		Can:       periods.CanModify(p.Status),
	}
}

func toPeriodResponses(list []periods.Period) []periodResponse {
	out := make([]periodResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPeriodResponse(p))
	}
	return out
}

type lineResponse struct {
	LineNo    int    `json:"lineNo"`
	AccountID int64  `json:"accountId"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit"`
	Memo      string `json:"memo,omitempty"`
}

type entryResponse struct {
	ID           int64           `json:"id"`
	CompanyID    int64           `json:"companyId"`
	Number       string          `json:"number"`
	PeriodID     int64           `json:"periodId"`
	Date         string          `json:"date"`
	Memo         string          `json:"memo"`
	Status       journals.Status `json:"status"`
	SourceModule string          `json:"sourceModule,omitempty"`
	SourceID     string          `json:"sourceId,omitempty"`
	ReversalOf   *int64          `json:"reversalOf,omitempty"`
	PostedAt     *time.Time      `json:"postedAt,omitempty"`
	TotalDebit   string          `json:"totalDebit"`
	TotalCredit  string          `json:"totalCredit"`
	Lines        []lineResponse  `json:"lines"`
}

func toEntryResponse(e journals.Entry) entryResponse {
	debit, credit := e.Totals()
	resp := entryResponse{
		ID:           e.ID,
		CompanyID:    e.CompanyID,
		Number:       e.Number,
		PeriodID:     e.PeriodID,
		Date:         e.Date.Format(dateLayout),
		Memo:         e.Memo,
		Status:       e.Status,
		SourceModule: e.SourceModule,
		ReversalOf:   e.ReversalOf,
		PostedAt:     e.PostedAt,
		TotalDebit:   debit.StringFixed(2),
		TotalCredit:  credit.StringFixed(2),
		Lines:        make([]lineResponse, 0, len(e.Lines)),
	}
	if e.SourceID != nil {
		resp.SourceID = e.SourceID.String()
	}
	for _, l := range e.Lines {
		resp.Lines = append(resp.Lines, lineResponse{
			LineNo:    l.LineNo,
			AccountID: l.AccountID,
			Debit:     l.Debit.StringFixed(2),
			Credit:    l.Credit.StringFixed(2),
			Memo:      l.Memo,
		})
	}
	return resp
}

package payrollhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-books/internal/payroll"
	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// IdempotencyHeader lets clients retry a posting without booking it twice.
const IdempotencyHeader = "Idempotency-Key"

func init() {
	httpx.RegisterNotFound(payroll.ErrEmployeeNotFound)
}

type payrollService interface {
	Preview(ctx context.Context, in payroll.PreviewInput) (payroll.Preview, error)
	Post(ctx context.Context, in payroll.PostInput) (payroll.Run, error)
	Runs(ctx context.Context, companyID, periodID int64) ([]payroll.Run, error)
}

type idempotencyStore interface {
	Claim(ctx context.Context, module, key string) error
	Release(ctx context.Context, module, key string) error
}

// EventRecorder counts successful ledger mutations.
type EventRecorder interface {
	LedgerEvent(event string)
}

// Handler exposes payroll preview and posting.
type Handler struct {
	logger      *slog.Logger
	service     payrollService
	idempotency idempotencyStore
	events      EventRecorder
}

// NewHandler constructs a payroll HTTP handler.
func NewHandler(logger *slog.Logger, service payrollService, idempotency idempotencyStore, events EventRecorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, idempotency: idempotency, events: events}
}

// MountRoutes registers payroll routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/preview", h.preview)
	r.Post("/post", h.post)
	r.Get("/runs", h.runs)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := httpx.StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("payroll request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var in payroll.PreviewInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.service.Preview(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	actorID, err := httpx.RequireActor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in payroll.PostInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	in.ActorID = actorID

	key := r.Header.Get(IdempotencyHeader)
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.Claim(r.Context(), payroll.SourceModule, key); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
				return
			}
			h.fail(w, r, err)
			return
		}
	}

	run, err := h.service.Post(r.Context(), in)
	if err != nil {
		if key != "" && h.idempotency != nil {
			if releaseErr := h.idempotency.Release(context.WithoutCancel(r.Context()), payroll.SourceModule, key); releaseErr != nil {
				h.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", releaseErr))
			}
		}
		h.fail(w, r, err)
		return
	}
	if h.events != nil {
		h.events.LedgerEvent("payroll_post")
	}
	httpx.JSON(w, http.StatusCreated, run)
}

func (h *Handler) runs(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(r.URL.Query().Get("companyId"), 10, 64)
	if err != nil || companyID <= 0 {
		h.fail(w, r, httpx.ErrValidation)
		return
	}
	periodID, err := strconv.ParseInt(r.URL.Query().Get("periodId"), 10, 64)
	if err != nil || periodID <= 0 {
		h.fail(w, r, httpx.ErrValidation)
		return
	}
	list, err := h.service.Runs(r.Context(), companyID, periodID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"runs": list})
}

package accountinghttp

import (
	"net/http"

	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
)

func (h *Handler) reportParams(r *http.Request) (companyID, periodID int64, err error) {
	if companyID, err = httpx.IDParam(r, "companyID"); err != nil {
		return 0, 0, err
	}
	if periodID, err = httpx.IDParam(r, "periodID"); err != nil {
		return 0, 0, err
	}
	return companyID, periodID, nil
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	companyID, periodID, err := h.reportParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tb, err := h.reports.TrialBalance(r.Context(), companyID, periodID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if r.URL.Query().Get("grouped") == "true" {
		httpx.JSON(w, http.StatusOK, map[string]any{"trialBalance": tb, "groups": tb.Groups()})
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	companyID, periodID, err := h.reportParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bs, err := h.reports.BalanceSheet(r.Context(), companyID, periodID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bs)
}

func (h *Handler) profitAndLoss(w http.ResponseWriter, r *http.Request) {
	companyID, periodID, err := h.reportParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pl, err := h.reports.ProfitAndLoss(r.Context(), companyID, periodID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pl)
}

type rollForwardRequest struct {
	TargetPeriodID int64 `json:"targetPeriodId"`
}

func (h *Handler) rollForward(w http.ResponseWriter, r *http.Request) {
	if _, err := httpx.RequireActor(r); err != nil {
		h.fail(w, r, err)
		return
	}
	companyID, periodID, err := h.reportParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req rollForwardRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.TargetPeriodID <= 0 {
		h.fail(w, r, httpx.ErrValidation)
		return
	}
	openings, err := h.reports.RollForward(r.Context(), companyID, periodID, req.TargetPeriodID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"openings": openings})
}

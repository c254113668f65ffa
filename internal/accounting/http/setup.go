package accountinghttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
)

type accountResponse struct {
	ID             int64                   `json:"id"`
	Code           string                  `json:"code"`
	Name           string                  `json:"name"`
	Class          accounts.Class          `json:"class"`
	ParentID       *int64                  `json:"parentId,omitempty"`
	Classification accounts.Classification `json:"classification,omitempty"`
	Postable       bool                    `json:"postable"`
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.IDParam(r, "companyID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	chart, err := h.charts.Chart(r.Context(), companyID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list := chart.Accounts()
	out := make([]accountResponse, 0, len(list))
	for _, a := range list {
		out = append(out, accountResponse{
			ID:             a.ID,
			Code:           a.Code,
			Name:           a.Name,
			Class:          a.Class,
			ParentID:       a.ParentID,
			Classification: a.Classification,
			Postable:       a.Postable(),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": out})
}

func (h *Handler) listMappings(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.IDParam(r, "companyID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.mappings.Payroll(r.Context(), companyID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	missing := 0
	for _, a := range list {
		if a.AccountID == nil {
			missing++
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"mappings": list, "complete": missing == 0})
}

type setMappingRequest struct {
	AccountID int64 `json:"accountId"`
}

type mappingResponse struct {
	MappingType mappings.MappingType `json:"mappingType"`
	AccountID   int64                `json:"accountId"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

func (h *Handler) setMapping(w http.ResponseWriter, r *http.Request) {
	if _, err := httpx.RequireActor(r); err != nil {
		h.fail(w, r, err)
		return
	}
	companyID, err := httpx.IDParam(r, "companyID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	mappingType, err := mappings.ParseType(chi.URLParam(r, "mappingType"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req setMappingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	stored, err := h.mappings.Set(r.Context(), companyID, mappingType, req.AccountID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mappingResponse{MappingType: stored.MappingType, AccountID: stored.AccountID, UpdatedAt: stored.UpdatedAt})
}

package accountinghttp

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
)

func (h *Handler) listPeriods(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.IDParam(r, "companyID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.periods.List(r.Context(), companyID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"periods": toPeriodResponses(list)})
}

// currentPeriod picks the working period: a valid override wins, then the
// stored preference, then the single open period.
func (h *Handler) currentPeriod(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.IDParam(r, "companyID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	override, err := optionalID(r, "override")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	preference, err := optionalID(r, "preference")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.periods.Current(r.Context(), companyID, override, preference)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPeriodResponse(p))
}

// resolvePeriod reports which period a write dated ?date= would land in.
func (h *Handler) resolvePeriod(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.IDParam(r, "companyID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	on, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: date must be YYYY-MM-DD", httpx.ErrValidation))
		return
	}
	explicitID, err := optionalID(r, "periodId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.periods.ResolveForWrite(r.Context(), companyID, explicitID, on)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPeriodResponse(p))
}

func optionalID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: invalid %s", httpx.ErrValidation, name)
	}
	return &id, nil
}

func (h *Handler) provisionPeriods(w http.ResponseWriter, r *http.Request) {
	if _, err := httpx.RequireActor(r); err != nil {
		h.fail(w, r, err)
		return
	}
	companyID, err := httpx.IDParam(r, "companyID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created, err := h.periods.AutoProvision(r.Context(), companyID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if len(created) > 0 {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, map[string]any{"created": toPeriodResponses(created)})
}

func (h *Handler) softClose(w http.ResponseWriter, r *http.Request) {
	h.closePeriod(w, r, periods.StatusSoftClosed)
}

func (h *Handler) hardClose(w http.ResponseWriter, r *http.Request) {
	h.closePeriod(w, r, periods.StatusHardClosed)
}

func (h *Handler) closePeriod(w http.ResponseWriter, r *http.Request, target periods.Status) {
	actorID, err := httpx.RequireActor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	periodID, err := httpx.IDParam(r, "periodID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var updated periods.Period
	if target == periods.StatusHardClosed {
		updated, err = h.periods.HardClose(r.Context(), periodID, actorID)
	} else {
		updated, err = h.periods.SoftClose(r.Context(), periodID, actorID)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.event("period_close")
	httpx.JSON(w, http.StatusOK, toPeriodResponse(updated))
}

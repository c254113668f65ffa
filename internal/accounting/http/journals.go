package accountinghttp

import (
	"net/http"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
)

func (h *Handler) createDraft(w http.ResponseWriter, r *http.Request) {
	actorID, err := httpx.RequireActor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var input journals.DraftInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	input.CreatedBy = actorID
	entry, err := h.journals.CreateDraft(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	entry, err := h.journals.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) updateDraft(w http.ResponseWriter, r *http.Request) {
	actorID, err := httpx.RequireActor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var input journals.UpdateDraftInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	input.EntryID = id
	input.ActorID = actorID
	entry, err := h.journals.UpdateDraft(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) deleteDraft(w http.ResponseWriter, r *http.Request) {
	actorID, err := httpx.RequireActor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.journals.DeleteDraft(r.Context(), id, actorID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) postEntry(w http.ResponseWriter, r *http.Request) {
	actorID, err := httpx.RequireActor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	entry, err := h.journals.Post(r.Context(), journals.PostInput{EntryID: id, ActorID: actorID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.event("journal_post")
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

type reverseRequest struct {
	Date *time.Time `json:"date"`
	Memo string     `json:"memo"`
}

func (h *Handler) reverseEntry(w http.ResponseWriter, r *http.Request) {
	actorID, err := httpx.RequireActor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req reverseRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	result, err := h.journals.Reverse(r.Context(), journals.ReverseInput{EntryID: id, ActorID: actorID, Date: req.Date, Memo: req.Memo})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.event("journal_reverse")
	httpx.JSON(w, http.StatusOK, map[string]any{
		"original": toEntryResponse(result.Original),
		"reversal": toEntryResponse(result.Reversal),
	})
}

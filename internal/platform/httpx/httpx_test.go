package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{shared.ErrUnbalanced, http.StatusBadRequest},
		{fmt.Errorf("post: %w", shared.ErrPeriodClosed), http.StatusConflict},
		{shared.MissingMappingError{Type: "ipn_payable"}, http.StatusUnprocessableEntity},
		{shared.Wrapf(shared.ErrJournalNotFound, "entry 4"), http.StatusNotFound},
		{errors.New("dial tcp: refused"), http.StatusInternalServerError},
		{fmt.Errorf("%w: bad json", ErrValidation), http.StatusBadRequest},
	}
	for _, tc := range cases {
		got, _ := StatusFor(tc.err)
		assert.Equal(t, tc.want, got, tc.err.Error())
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("password=secret"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Empty(t, body.Detail)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRequireActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	_, err := RequireActor(req)
	require.ErrorIs(t, err, ErrUnauthorized)
	status, _ := StatusFor(err)
	assert.Equal(t, http.StatusUnauthorized, status)

	req = req.WithContext(internalShared.ContextWithActor(req.Context(), 42))
	id, err := RequireActor(req)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

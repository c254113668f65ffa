package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/reports"
	jobmetrics "github.com/odyssey-erp/odyssey-books/internal/jobs"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type staticCompanies []int64

func (s staticCompanies) CompanyIDs(ctx context.Context) ([]int64, error) { return s, nil }

type fakeProvisioner struct {
	calls []int64
	fail  map[int64]error
}

func (f *fakeProvisioner) AutoProvision(ctx context.Context, companyID int64) ([]periods.Period, error) {
	f.calls = append(f.calls, companyID)
	if err := f.fail[companyID]; err != nil {
		return nil, err
	}
	return []periods.Period{{ID: companyID * 10, CompanyID: companyID}}, nil
}

func TestProvisionJobFansOutAndJoinsErrors(t *testing.T) {
	boom := errors.New("deadlock detected")
	prov := &fakeProvisioner{fail: map[int64]error{2: boom}}
	job := NewProvisionJob(staticCompanies{1, 2, 3}, prov, quietLogger, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewPeriodsProvisionTask(0)
	require.NoError(t, err)
	err = job.Handle(context.Background(), task)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []int64{1, 2, 3}, prov.calls)

	prov.calls = nil
	task, err = NewPeriodsProvisionTask(3)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []int64{3}, prov.calls)
}

func TestBadPayloadSkipsRetry(t *testing.T) {
	job := NewProvisionJob(staticCompanies{1}, &fakeProvisioner{}, quietLogger, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskPeriodsProvision, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type fakePeriodLister map[int64][]periods.Period

func (f fakePeriodLister) List(ctx context.Context, companyID int64) ([]periods.Period, error) {
	return f[companyID], nil
}

type fakeBalances map[int64]reports.TrialBalance

func (f fakeBalances) Recompute(ctx context.Context, companyID, periodID int64) (reports.TrialBalance, error) {
	tb, ok := f[periodID]
	if !ok {
		return reports.TrialBalance{}, errors.New("unknown account in ledger")
	}
	return tb, nil
}

func TestIntegrityJobFlagsImbalances(t *testing.T) {
	lister := fakePeriodLister{
		1: {{ID: 10, CompanyID: 1, Name: "2024-01"}, {ID: 11, CompanyID: 1, Name: "2024-02"}},
		2: {{ID: 20, CompanyID: 2, Name: "2024-01"}},
	}
	balances := fakeBalances{
		10: {PeriodID: 10, IsBalanced: true},
		11: {PeriodID: 11, TotalClosingDebit: decimal.NewFromInt(500), TotalClosingCredit: decimal.NewFromInt(400)},
		20: {PeriodID: 20, IsBalanced: true},
	}
	job := NewIntegrityJob(staticCompanies{1, 2}, lister, balances, quietLogger, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	result, err := job.Run(context.Background(), ScopePayload{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Checked)
	require.Len(t, result.Imbalanced, 1)
	assert.Equal(t, IntegrityFinding{CompanyID: 1, PeriodID: 11, Debit: "500.00", Credit: "400.00"}, result.Imbalanced[0])

	task, err := NewGLIntegrityTask(2)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
}

func TestIntegrityJobReportsStoreFailures(t *testing.T) {
	lister := fakePeriodLister{1: {{ID: 10, CompanyID: 1}, {ID: 99, CompanyID: 1}}}
	job := NewIntegrityJob(staticCompanies{1}, lister, fakeBalances{10: {IsBalanced: true}}, quietLogger, nil)
	result, err := job.Run(context.Background(), ScopePayload{})
	require.Error(t, err)
	assert.Equal(t, 1, result.Checked)
}

type fakeCleaner struct{ got time.Duration }

func (f *fakeCleaner) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	f.got = olderThan
	return 4, nil
}

func TestCleanupJobRetention(t *testing.T) {
	cleaner := &fakeCleaner{}
	job := NewCleanupJob(cleaner, 0, quietLogger, nil)

	task, err := NewIdempotencyCleanupTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, DefaultKeyRetention, cleaner.got)

	task, err = NewIdempotencyCleanupTask(time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, time.Hour, cleaner.got)
}

func TestNewTaskNames(t *testing.T) {
	for _, name := range []string{TaskPeriodsProvision, TaskGLIntegrity, TaskIdempotencyCleanup} {
		task, err := NewTask(name)
		require.NoError(t, err)
		assert.Equal(t, name, task.Type())
	}
	_, err := NewTask("mail:send")
	assert.Error(t, err)
}

type recordingTrigger struct{ names []string }

func (r *recordingTrigger) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	r.names = append(r.names, name)
	return &asynq.TaskInfo{ID: "t-1", Queue: QueueDefault, Type: name}, nil
}

type fakeInspector struct{ err error }

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.QueueInfo{Queue: queue, Pending: 3, Retry: 1}, nil
}

func TestHandlerRoutes(t *testing.T) {
	trigger := &recordingTrigger{}
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(fakeInspector{}, trigger, quietLogger).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health queueHealth
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Equal(t, queueHealth{Queue: QueueDefault, Pending: 3, Retry: 1}, health)

	req := httptest.NewRequest(http.MethodPost, "/jobs/gl:integrity/trigger", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = req.WithContext(shared.ContextWithActor(req.Context(), 1))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{TaskGLIntegrity}, trigger.names)

	req = httptest.NewRequest(http.MethodPost, "/jobs/mail:send/trigger", nil)
	req = req.WithContext(shared.ContextWithActor(req.Context(), 1))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	failing := chi.NewRouter()
	failing.Route("/jobs", NewHandler(fakeInspector{err: errors.New("redis down")}, nil, quietLogger).MountRoutes)
	rec = httptest.NewRecorder()
	failing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

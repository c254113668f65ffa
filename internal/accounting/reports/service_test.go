package reports

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

type fakeRepo struct {
	mu       sync.Mutex
	accounts []accounts.Account
	openings map[int64][]OpeningBalance
	lines    map[int64][]PostedLine
	loads    atomic.Int32
	gate     chan struct{}
}

func (r *fakeRepo) ListAccounts(ctx context.Context, companyID int64) ([]accounts.Account, error) {
	return r.accounts, nil
}

func (r *fakeRepo) ListOpenings(ctx context.Context, companyID, periodID int64) ([]OpeningBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.openings[periodID], nil
}

func (r *fakeRepo) ListPostedLines(ctx context.Context, companyID, periodID int64) ([]PostedLine, error) {
	r.loads.Add(1)
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lines[periodID], nil
}

func (r *fakeRepo) SaveOpenings(ctx context.Context, periodID int64, openings []OpeningBalance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openings[periodID] = openings
	return nil
}

type fakePeriods map[int64]periods.Period

func (f fakePeriods) Get(ctx context.Context, id int64) (periods.Period, error) {
	p, ok := f[id]
	if !ok {
		return periods.Period{}, shared.ErrPeriodNotFound
	}
	return p, nil
}

func newFixture(t *testing.T) (*Service, *fakeRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &fakeRepo{
		accounts: []accounts.Account{
			{ID: 1, CompanyID: 1, Code: "1010", Class: accounts.ClassAsset},
			{ID: 6, CompanyID: 1, Code: "6010", Class: accounts.ClassRevenue},
			{ID: 7, CompanyID: 1, Code: "7210", Class: accounts.ClassExpense},
			{ID: 5, CompanyID: 1, Code: "5010", Class: accounts.ClassEquity},
		},
		openings: map[int64][]OpeningBalance{},
		lines: map[int64][]PostedLine{
			10: {{AccountID: 1, Debit: d("1000")}, {AccountID: 6, Credit: d("1000")}},
		},
	}
	ps := fakePeriods{
		10: {ID: 10, CompanyID: 1, Name: "2024-01", Status: periods.StatusSoftClosed},
		11: {ID: 11, CompanyID: 1, Name: "2024-02", Status: periods.StatusOpen},
		20: {ID: 20, CompanyID: 2, Name: "2024-01", Status: periods.StatusOpen},
	}
	svc := NewService(repo, ps, NewCache(client, time.Minute), nil)
	return svc, repo, mr
}

func TestServiceCachesUntilBump(t *testing.T) {
	svc, repo, _ := newFixture(t)
	ctx := context.Background()

	tb, err := svc.TrialBalance(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, tb.IsBalanced)
	_, err = svc.TrialBalance(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.loads.Load())

	repo.mu.Lock()
	repo.lines[10] = append(repo.lines[10], PostedLine{AccountID: 7, Debit: d("200")}, PostedLine{AccountID: 1, Credit: d("200")})
	repo.mu.Unlock()

	pl, err := svc.ProfitAndLoss(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, pl.NetIncome.Equal(d("1000")), "stale until the version moves")

	require.NoError(t, svc.Bump(ctx, 1))
	pl, err = svc.ProfitAndLoss(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, pl.NetIncome.Equal(d("800")))
	assert.Equal(t, int32(2), repo.loads.Load())
}

func TestServiceSingleflightSharesBuild(t *testing.T) {
	svc, repo, _ := newFixture(t)
	repo.gate = make(chan struct{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.TrialBalance(ctx, 1, 10)
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return repo.loads.Load() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(repo.gate)
	wg.Wait()
	assert.Equal(t, int32(1), repo.loads.Load())
}

func TestServiceBalanceSheetIncludesResult(t *testing.T) {
	svc, _, _ := newFixture(t)
	bs, err := svc.BalanceSheet(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.True(t, bs.IsBalanced)
	assert.True(t, bs.TotalAssets.Equal(d("1000")))
}

func TestServiceRejectsForeignPeriod(t *testing.T) {
	svc, _, _ := newFixture(t)
	_, err := svc.TrialBalance(context.Background(), 1, 20)
	require.ErrorIs(t, err, shared.ErrPeriodNotFound)
}

func TestRollForward(t *testing.T) {
	svc, repo, _ := newFixture(t)
	ctx := context.Background()

	openings, err := svc.RollForward(ctx, 1, 10, 11)
	require.NoError(t, err)
	require.Len(t, openings, 2)

	tb, err := svc.TrialBalance(ctx, 1, 11)
	require.NoError(t, err)
	assert.True(t, tb.IsBalanced)
	assert.True(t, tb.TotalOpeningDebit.Equal(d("1000")))
	assert.Len(t, repo.openings[11], 2)

	_, err = svc.RollForward(ctx, 1, 11, 10)
	require.ErrorIs(t, err, shared.ErrPeriodClosed)
}

func TestServiceWithoutRedis(t *testing.T) {
	_, repo, _ := newFixture(t)
	svc := NewService(repo, nil, nil, nil)
	tb, err := svc.TrialBalance(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Len(t, tb.Rows, 2)
	require.NoError(t, svc.Bump(context.Background(), 1))
}

func TestRecomputeBypassesCache(t *testing.T) {
	svc, repo, _ := newFixture(t)
	ctx := context.Background()

	_, err := svc.TrialBalance(ctx, 1, 10)
	require.NoError(t, err)
	tb, err := svc.Recompute(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, tb.IsBalanced)
	assert.Equal(t, int32(2), repo.loads.Load())
}

package consumption

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvindpatil/dairyos/internal/cache"
	"github.com/arvindpatil/dairyos/internal/domain/models"
	"github.com/arvindpatil/dairyos/pkg/clients/dairy"
)

// fakeClient stubs the consumption read path; the embedded interface panics
// for anything this package never calls.
type fakeClient struct {
	dairy.Client

	fetchCalls int
	records    []models.ConsumptionRecord
	fetchErr   error
}

func (f *fakeClient) FetchConsumption(_ context.Context, _ models.Month) ([]models.ConsumptionRecord, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.records, nil
}

func month(t *testing.T, s string) models.Month {
	t.Helper()
	m, err := models.ParseMonth(s)
	require.NoError(t, err)
	return m
}

func TestMonthlySummaryComputesAggregate(t *testing.T) {
	client := &fakeClient{records: []models.ConsumptionRecord{
		rec(t, "2024-06-01", "2.0"),
		rec(t, "2024-06-02", "2.0"),
		rec(t, "2024-06-03", "0"),
	}}
	store := cache.NewMemoryStore(30*time.Second, 5*time.Minute)
	svc := NewService(client, store, nil)

	summary, err := svc.MonthlySummary(context.Background(), month(t, "2024-06"))
	require.NoError(t, err)

	assert.Equal(t, "2024-06", summary.Month.String())
	assert.Len(t, summary.Records, 3)
	assert.Equal(t, 2, summary.Aggregate.ActiveDays)
	assert.Equal(t, 0, summary.Aggregate.Streak)
	assert.InDelta(t, 1.0, summary.Intensities["2024-06-01"], 1e-9)
	assert.Equal(t, float64(0), summary.Intensities["2024-06-03"])
}

func TestMonthlySummaryServesFreshCache(t *testing.T) {
	client := &fakeClient{records: []models.ConsumptionRecord{rec(t, "2024-06-01", "1")}}
	store := cache.NewMemoryStore(30*time.Second, 5*time.Minute)
	svc := NewService(client, store, nil)

	_, err := svc.MonthlySummary(context.Background(), month(t, "2024-06"))
	require.NoError(t, err)
	_, err = svc.MonthlySummary(context.Background(), month(t, "2024-06"))
	require.NoError(t, err)

	assert.Equal(t, 1, client.fetchCalls, "second read must be served from cache")
}

func TestMonthlySummaryFallsBackToStaleOnNetworkError(t *testing.T) {
	current := time.Now()
	store := cache.NewMemoryStoreWithClock(30*time.Second, 5*time.Minute, func() time.Time { return current })

	seed := &fakeClient{records: []models.ConsumptionRecord{rec(t, "2024-06-01", "1")}}
	_, err := NewService(seed, store, nil).MonthlySummary(context.Background(), month(t, "2024-06"))
	require.NoError(t, err)

	// Stale but still within the retention window.
	current = current.Add(time.Minute)

	failing := &fakeClient{fetchErr: &models.NetworkError{Op: "fetch consumption", StatusCode: 503}}
	summary, err := NewService(failing, store, nil).MonthlySummary(context.Background(), month(t, "2024-06"))
	require.NoError(t, err)
	assert.Len(t, summary.Records, 1)
	assert.Equal(t, 1, failing.fetchCalls, "the refetch was attempted before falling back")
}

func TestMonthlySummaryDoesNotServeEvictedSnapshot(t *testing.T) {
	current := time.Now()
	store := cache.NewMemoryStoreWithClock(30*time.Second, 5*time.Minute, func() time.Time { return current })

	seed := &fakeClient{records: []models.ConsumptionRecord{rec(t, "2024-06-01", "1")}}
	_, err := NewService(seed, store, nil).MonthlySummary(context.Background(), month(t, "2024-06"))
	require.NoError(t, err)

	// Past the retention window the snapshot is gone; the error surfaces.
	current = current.Add(10 * time.Minute)

	failing := &fakeClient{fetchErr: &models.NetworkError{Op: "fetch consumption", StatusCode: 503}}
	_, err = NewService(failing, store, nil).MonthlySummary(context.Background(), month(t, "2024-06"))

	var netErr *models.NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestMonthlySummaryPropagatesNonNetworkErrors(t *testing.T) {
	client := &fakeClient{fetchErr: errors.New("decode failure")}
	store := cache.NewMemoryStore(30*time.Second, 5*time.Minute)
	svc := NewService(client, store, nil)

	_, err := svc.MonthlySummary(context.Background(), month(t, "2024-06"))
	assert.Error(t, err)
}

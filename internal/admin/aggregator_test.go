package admin_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hounsou/bookstore/internal/admin"
	"github.com/hounsou/bookstore/internal/domain/models"
)

type stubStore struct {
	orders []models.Order
	events []models.AnalyticsEvent
}

func (s *stubStore) OrdersSince(t time.Time) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if !o.CreatedAt.Before(t) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubStore) EventsSince(t time.Time) ([]models.AnalyticsEvent, error) {
	var out []models.AnalyticsEvent
	for _, ev := range s.events {
		if !ev.CreatedAt.Before(t) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func TestDashboardRollup(t *testing.T) {
	now := time.Now()
	store := &stubStore{
		orders: []models.Order{
			{OID: "o1", CustomerID: "c1", Total: 5000, CreatedAt: now.Add(-2 * time.Hour)},
			{OID: "o2", CustomerID: "c2", Total: 3000, CreatedAt: now.Add(-3 * 24 * time.Hour)},
			{OID: "o3", CustomerID: "c1", Total: 1000, CreatedAt: now.Add(-5 * 24 * time.Hour)},
			// Older than the 7-day window, must not count.
			{OID: "o4", CustomerID: "c9", Total: 99999, CreatedAt: now.Add(-9 * 24 * time.Hour)},
		},
		events: []models.AnalyticsEvent{
			{Name: "page_view", SessionID: "s1", CreatedAt: now.Add(-time.Hour)},
			{Name: "page_view", SessionID: "s1", CreatedAt: now.Add(-time.Hour)},
			{Name: "page_view", SessionID: "s2", CreatedAt: now.Add(-2 * time.Hour)},
			{Name: "add_to_cart", SessionID: "s1", CreatedAt: now.Add(-time.Hour)},
			{Name: "purchase", SessionID: "s1", CreatedAt: now.Add(-time.Hour)},
		},
	}

	stats, err := admin.New(store).Dashboard()
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, int64(9000), stats.Revenue)
	assert.Equal(t, int64(3000), stats.AvgOrderValue)
	assert.Equal(t, 1, stats.OrdersSinceYesterday)
	assert.Equal(t, 2, stats.UniqueCustomers)
	assert.Equal(t, 2, stats.UniqueSessions)
	assert.Equal(t, 3, stats.PageViews)
	assert.Equal(t, 1, stats.AddToCart)
	assert.Equal(t, 1, stats.Purchases)
	assert.InDelta(t, 50.0, stats.ConversionRate, 0.001)
}

func TestConversionRateZeroSessions(t *testing.T) {
	store := &stubStore{
		events: []models.AnalyticsEvent{
			{Name: "purchase", CreatedAt: time.Now()},
		},
	}

	stats, err := admin.New(store).Dashboard()
	require.NoError(t, err)
	assert.Equal(t, float64(0), stats.ConversionRate)
}

func TestEmptyWindow(t *testing.T) {
	stats, err := admin.New(&stubStore{}).Dashboard()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalOrders)
	assert.Equal(t, int64(0), stats.AvgOrderValue)
	assert.Equal(t, float64(0), stats.ConversionRate)
}

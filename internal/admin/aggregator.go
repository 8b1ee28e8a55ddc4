package admin

import (
	"time"

	"github.com/hounsou/bookstore/internal/domain/consts"
	"github.com/hounsou/bookstore/internal/domain/models"
)

// Store supplies the raw rows the dashboard aggregates.
type Store interface {
	OrdersSince(t time.Time) ([]models.Order, error)
	EventsSince(t time.Time) ([]models.AnalyticsEvent, error)
}

// Stats is the dashboard rollup over the last seven days.
type Stats struct {
	TotalOrders          int     `json:"total_orders"`
	Revenue              int64   `json:"revenue"`
	AvgOrderValue        int64   `json:"avg_order_value"`
	OrdersSinceYesterday int     `json:"orders_since_yesterday"`
	UniqueCustomers      int     `json:"unique_customers"`
	UniqueSessions       int     `json:"unique_sessions"`
	PageViews            int     `json:"page_views"`
	AddToCart            int     `json:"add_to_cart"`
	Purchases            int     `json:"purchases"`
	ConversionRate       float64 `json:"conversion_rate"`
}

type Aggregator struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// Dashboard recomputes the rollup from scratch on every call; the handler
// polls it on a fixed interval, nothing is streamed or cached.
func (a *Aggregator) Dashboard() (Stats, error) {
	now := a.now()
	since := now.Add(-consts.DashboardWindow)

	orders, err := a.store.OrdersSince(since)
	if err != nil {
		return Stats{}, err
	}
	events, err := a.store.EventsSince(since)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	yesterday := now.Add(-24 * time.Hour)
	customers := make(map[string]bool)
	for _, o := range orders {
		stats.TotalOrders++
		stats.Revenue += o.Total
		if o.CreatedAt.After(yesterday) {
			stats.OrdersSinceYesterday++
		}
		customers[o.CustomerID] = true
	}
	stats.UniqueCustomers = len(customers)
	if stats.TotalOrders > 0 {
		stats.AvgOrderValue = stats.Revenue / int64(stats.TotalOrders)
	}

	sessions := make(map[string]bool)
	for _, ev := range events {
		if ev.SessionID != "" {
			sessions[ev.SessionID] = true
		}
		switch ev.Name {
		case "page_view":
			stats.PageViews++
		case "add_to_cart":
			stats.AddToCart++
		case "purchase":
			stats.Purchases++
		}
	}
	stats.UniqueSessions = len(sessions)
	if stats.UniqueSessions > 0 {
		stats.ConversionRate = float64(stats.Purchases) / float64(stats.UniqueSessions) * 100
	}
	return stats, nil
}

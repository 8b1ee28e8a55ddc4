package consts

import "time"

const (
	// DBCtxTimeout bounds every single storage call.
	DBCtxTimeout = 5 * time.Second

	// RecentOrdersCap bounds the notifier's most-recent-first order list.
	RecentOrdersCap = 10

	// DashboardWindow is the admin aggregation lookback.
	DashboardWindow = 7 * 24 * time.Hour

	// TokenTTL is the lifetime of issued JWT tokens.
	TokenTTL = 3 * time.Hour
)

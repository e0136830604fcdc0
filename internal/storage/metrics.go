package storage

import (
	"context"
	"fmt"
	"time"
)

// Metrics represents system-wide aggregate counts.
type Metrics struct {
	TotalUsers   int64     // Total number of users
	PremiumUsers int64     // Users with an active subscription
	ReadingsUsed int64     // Sum of usage counters across users
	Referrals    int64     // Total referral pairs recorded
	Invoices     int64     // Total invoices issued
	CollectedAt  time.Time // When these metrics were collected
}

// GetMetrics retrieves system-wide metrics.
func (s *SQLiteStorage) GetMetrics(ctx context.Context) (*Metrics, error) {
	metrics := &Metrics{
		CollectedAt: time.Now(),
	}

	now := time.Now().UTC().Truncate(time.Second)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN subscription_until > ? THEN 1 END),
			COALESCE(SUM(free_readings_used), 0)
		FROM users
	`, now).Scan(&metrics.TotalUsers, &metrics.PremiumUsers, &metrics.ReadingsUsed)
	if err != nil {
		return nil, fmt.Errorf("failed to get user metrics: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM referrals
	`).Scan(&metrics.Referrals)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals count: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM invoices
	`).Scan(&metrics.Invoices)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoices count: %w", err)
	}

	return metrics, nil
}

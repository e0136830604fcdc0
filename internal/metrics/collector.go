package metrics

import (
	"context"
	"log"
	"time"

	"astroapp-go/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
)

// StorageCollector exports aggregate storage counts as gauges on scrape.
type StorageCollector struct {
	store  *storage.SQLiteStorage
	logger *log.Logger

	users     *prometheus.Desc
	premium   *prometheus.Desc
	readings  *prometheus.Desc
	referrals *prometheus.Desc
	invoices  *prometheus.Desc
}

// NewStorageCollector creates a collector backed by the given store.
func NewStorageCollector(store *storage.SQLiteStorage, logger *log.Logger) *StorageCollector {
	return &StorageCollector{
		store:  store,
		logger: logger,
		users: prometheus.NewDesc(
			"astroapp_users", "Total number of users.", nil, nil),
		premium: prometheus.NewDesc(
			"astroapp_premium_users", "Users with an active subscription.", nil, nil),
		readings: prometheus.NewDesc(
			"astroapp_readings_used", "Sum of usage counters across users.", nil, nil),
		referrals: prometheus.NewDesc(
			"astroapp_referrals", "Total referral pairs recorded.", nil, nil),
		invoices: prometheus.NewDesc(
			"astroapp_invoices", "Total invoices issued.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *StorageCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.users
	ch <- c.premium
	ch <- c.readings
	ch <- c.referrals
	ch <- c.invoices
}

// Collect implements prometheus.Collector. A storage failure drops the scrape
// for these gauges rather than failing the whole /metrics response.
func (c *StorageCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m, err := c.store.GetMetrics(ctx)
	if err != nil {
		c.logger.Printf("storage collector: %v", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.users, prometheus.GaugeValue, float64(m.TotalUsers))
	ch <- prometheus.MustNewConstMetric(c.premium, prometheus.GaugeValue, float64(m.PremiumUsers))
	ch <- prometheus.MustNewConstMetric(c.readings, prometheus.GaugeValue, float64(m.ReadingsUsed))
	ch <- prometheus.MustNewConstMetric(c.referrals, prometheus.GaugeValue, float64(m.Referrals))
	ch <- prometheus.MustNewConstMetric(c.invoices, prometheus.GaugeValue, float64(m.Invoices))
}

package metrics

import (
	"time"

	"vsgtalent-backend/internal/logging"
)

// StatsProvider interface for collecting content library stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current library statistics
type Stats struct {
	ContentByType     map[string]int
	AttachmentsByType map[string]int
	TermsByTaxonomy   map[string]int
	ActiveSessions    int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	for t, n := range stats.ContentByType {
		ContentItemsTotal.WithLabelValues(t).Set(float64(n))
	}
	for t, n := range stats.AttachmentsByType {
		AttachmentsTotal.WithLabelValues(t).Set(float64(n))
	}
	for tax, n := range stats.TermsByTaxonomy {
		TermsTotal.WithLabelValues(tax).Set(float64(n))
	}
	ActiveSessions.Set(float64(stats.ActiveSessions))

	logging.Debug("Metrics collected: content=%v, attachments=%v, terms=%v, sessions=%d",
		stats.ContentByType, stats.AttachmentsByType, stats.TermsByTaxonomy, stats.ActiveSessions)
}

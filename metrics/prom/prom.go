// Package prom exports hierarchy statistics as Prometheus metrics.
package prom

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/cachesim/cache"
	"github.com/IvanBrykalov/cachesim/sim"
)

// Collector snapshots the hierarchy on every scrape and exposes
// accesses/misses/invalidations per {level, core}. Safe for concurrent use:
// snapshots hold each cache lock only briefly.
//
// The exported values are the raw running counters; resetting statistics
// windows (Snapshot(true), RegionEnd) makes them non-monotonic, so avoid
// mixing window resets with scraping.
type Collector struct {
	h *sim.Hierarchy

	accesses *prometheus.Desc
	misses   *prometheus.Desc
	invals   *prometheus.Desc
}

// NewCollector builds a collector for h.
//   - ns, sub:     Prometheus namespace and subsystem
//   - constLabels: static labels applied to all metrics (may be nil)
func NewCollector(h *sim.Hierarchy, ns, sub string, constLabels prometheus.Labels) *Collector {
	labels := []string{"level", "core"}
	return &Collector{
		h: h,
		accesses: prometheus.NewDesc(
			prometheus.BuildFQName(ns, sub, "accesses_total"),
			"Cache accesses", labels, constLabels),
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(ns, sub, "misses_total"),
			"Cache misses", labels, constLabels),
		invals: prometheus.NewDesc(
			prometheus.BuildFQName(ns, sub, "invalidations_total"),
			"Full-set invalidations forced by high-tag changes", labels, constLabels),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.accesses
	ch <- c.misses
	ch <- c.invals
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	rep := c.h.Snapshot(false)
	for i, row := range rep.Cores {
		core := strconv.Itoa(i)
		c.emit(ch, "l1d", core, row.L1D)
		c.emit(ch, "l1i", core, row.L1I)
		if rep.HasL2 {
			c.emit(ch, "l2", core, row.L2)
		}
	}
}

func (c *Collector) emit(ch chan<- prometheus.Metric, level, core string, ctr cache.Counters) {
	ch <- prometheus.MustNewConstMetric(c.accesses, prometheus.CounterValue,
		float64(ctr.Accesses), level, core)
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue,
		float64(ctr.Misses), level, core)
	ch <- prometheus.MustNewConstMetric(c.invals, prometheus.CounterValue,
		float64(ctr.Invalidations), level, core)
}

// Compile-time check: Collector implements prometheus.Collector.
var _ prometheus.Collector = (*Collector)(nil)

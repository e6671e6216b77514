package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesTotal counts quote computations by outcome (ok, unresolved, invalid, error).
	QuotesTotal *prometheus.CounterVec
	// QuoteUnresolvedItems counts line items no active tariff tier covered.
	QuoteUnresolvedItems prometheus.Counter
	// TariffCacheTotal tracks tariff snapshot cache lookups (hit, miss, error).
	TariffCacheTotal *prometheus.CounterVec
	// TariffCoverageGaps reports the latest audited gap count per category.
	TariffCoverageGaps *prometheus.GaugeVec
	// TariffCoverageOverlaps reports the latest audited overlap count per category.
	TariffCoverageOverlaps *prometheus.GaugeVec
	// ShipmentsCreatedTotal counts shipments persisted through the API.
	ShipmentsCreatedTotal prometheus.Counter
	// ShipmentRepriceTotal counts reprice operations by outcome.
	ShipmentRepriceTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Count of shipment quote computations by outcome.",
		}, []string{"result"})
		QuoteUnresolvedItems = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_unresolved_items_total",
			Help:      "Number of quoted line items without tariff coverage.",
		})
		TariffCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tariff_cache_total",
			Help:      "Tariff snapshot cache lookups by result.",
		}, []string{"result"})
		TariffCoverageGaps = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tariff_coverage_gaps",
			Help:      "Coverage gaps found by the latest tariff audit, per category.",
		}, []string{"category"})
		TariffCoverageOverlaps = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tariff_coverage_overlaps",
			Help:      "Coverage overlaps found by the latest tariff audit, per category.",
		}, []string{"category"})
		ShipmentsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipments_created_total",
			Help:      "Shipments persisted through the API.",
		})
		ShipmentRepriceTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipment_reprice_total",
			Help:      "Shipment reprice operations by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, QuotesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuotesTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteUnresolvedItems, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				QuoteUnresolvedItems = v
			}
		})
		mustRegisterCollector(reg, TariffCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TariffCacheTotal = v
			}
		})
		mustRegisterCollector(reg, TariffCoverageGaps, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.GaugeVec); ok {
				TariffCoverageGaps = v
			}
		})
		mustRegisterCollector(reg, TariffCoverageOverlaps, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.GaugeVec); ok {
				TariffCoverageOverlaps = v
			}
		})
		mustRegisterCollector(reg, ShipmentsCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				ShipmentsCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, ShipmentRepriceTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ShipmentRepriceTotal = v
			}
		})
	})
}

// IncQuote bumps the quote outcome counter. Safe to call before registration.
func IncQuote(result string) {
	if QuotesTotal != nil {
		QuotesTotal.WithLabelValues(result).Inc()
	}
}

// AddUnresolvedItems records line items left without coverage.
func AddUnresolvedItems(n int) {
	if QuoteUnresolvedItems != nil && n > 0 {
		QuoteUnresolvedItems.Add(float64(n))
	}
}

// IncTariffCache records a snapshot cache lookup outcome.
func IncTariffCache(result string) {
	if TariffCacheTotal != nil {
		TariffCacheTotal.WithLabelValues(result).Inc()
	}
}

// SetCoverage publishes the latest audit findings for a category.
func SetCoverage(category string, gaps, overlaps int) {
	if TariffCoverageGaps != nil {
		TariffCoverageGaps.WithLabelValues(category).Set(float64(gaps))
	}
	if TariffCoverageOverlaps != nil {
		TariffCoverageOverlaps.WithLabelValues(category).Set(float64(overlaps))
	}
}

// IncShipmentCreated records a persisted shipment.
func IncShipmentCreated() {
	if ShipmentsCreatedTotal != nil {
		ShipmentsCreatedTotal.Inc()
	}
}

// IncShipmentReprice records a reprice outcome.
func IncShipmentReprice(result string) {
	if ShipmentRepriceTotal != nil {
		ShipmentRepriceTotal.WithLabelValues(result).Inc()
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}

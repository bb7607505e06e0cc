package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics counts order lifecycle events. A nil *OrderMetrics is a no-op.
type OrderMetrics struct {
	checkouts     *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	stockDecrease *prometheus.CounterVec
	lowStock      *prometheus.CounterVec
	cancellations prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_checkout_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_item_transitions_total",
		Help: "Order item status changes by target status.",
	}, []string{"status"})
	stockDecrease := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_stock_decremented_units_total",
		Help: "Units removed from stock when sellers accept items.",
	}, []string{"kind"})
	lowStock := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_low_stock_alerts_total",
		Help: "Low stock alerts raised after acceptance.",
	}, []string{"kind"})
	cancellations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_buyer_cancellations_total",
		Help: "Orders cancelled by their buyer.",
	})
	reg.MustRegister(checkouts, transitions, stockDecrease, lowStock, cancellations)
	return &OrderMetrics{
		checkouts:     checkouts,
		transitions:   transitions,
		stockDecrease: stockDecrease,
		lowStock:      lowStock,
		cancellations: cancellations,
	}
}

func (m *OrderMetrics) IncCheckout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *OrderMetrics) IncTransition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *OrderMetrics) AddStockDecrement(kind string, units int) {
	if m == nil || m.stockDecrease == nil || units <= 0 {
		return
	}
	m.stockDecrease.WithLabelValues(normalizeLabel(kind)).Add(float64(units))
}

func (m *OrderMetrics) IncLowStock(kind string) {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *OrderMetrics) IncCancellation() {
	if m == nil || m.cancellations == nil {
		return
	}
	m.cancellations.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

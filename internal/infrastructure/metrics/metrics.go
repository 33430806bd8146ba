package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reconciliation channels, used as the "channel" label.
const (
	ChannelCreate  = "create"
	ChannelReturn  = "return"
	ChannelWebhook = "webhook"
	ChannelPoll    = "poll"
)

// PaymentMetrics holds every collector of the payment service.
// All methods are no-ops on a nil receiver.
type PaymentMetrics struct {
	Registry *prometheus.Registry

	RequestsCreatedTotal   *prometheus.CounterVec
	SettlementsTotal       *prometheus.CounterVec
	FailuresTotal          *prometheus.CounterVec
	ReconciliationNoops    *prometheus.CounterVec
	GatewayRequestDuration *prometheus.HistogramVec
	WebhooksTotal          *prometheus.CounterVec
	HooksTotal             *prometheus.CounterVec
}

func NewPaymentMetrics() *PaymentMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &PaymentMetrics{
		Registry: reg,
		RequestsCreatedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_requests_created_total",
				Help: "Ledger entries created",
			},
			[]string{"gateway"},
		),
		SettlementsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_settlements_total",
				Help: "Ledger entries settled, by the channel that won the race",
			},
			[]string{"gateway", "channel"},
		),
		FailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_failures_total",
				Help: "Ledger entries resolved as failed",
			},
			[]string{"gateway", "channel"},
		),
		ReconciliationNoops: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_reconciliation_noops_total",
				Help: "Channels that observed an already resolved entry",
			},
			[]string{"gateway", "channel"},
		),
		GatewayRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payment_gateway_request_duration_seconds",
				Help:    "Latency of gateway API calls",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"gateway", "operation", "outcome"},
		),
		WebhooksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_webhooks_total",
				Help: "Webhook deliveries by outcome",
			},
			[]string{"gateway", "outcome"},
		),
		HooksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_hooks_total",
				Help: "Success/failure hook dispatches by outcome",
			},
			[]string{"hook", "outcome"},
		),
	}
}

func (m *PaymentMetrics) RecordCreated(gateway string) {
	if m == nil {
		return
	}
	m.RequestsCreatedTotal.WithLabelValues(gateway).Inc()
}

func (m *PaymentMetrics) RecordSettlement(gateway, channel string) {
	if m == nil {
		return
	}
	m.SettlementsTotal.WithLabelValues(gateway, channel).Inc()
}

func (m *PaymentMetrics) RecordFailure(gateway, channel string) {
	if m == nil {
		return
	}
	m.FailuresTotal.WithLabelValues(gateway, channel).Inc()
}

func (m *PaymentMetrics) RecordNoop(gateway, channel string) {
	if m == nil {
		return
	}
	m.ReconciliationNoops.WithLabelValues(gateway, channel).Inc()
}

func (m *PaymentMetrics) ObserveGatewayCall(gateway, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.GatewayRequestDuration.WithLabelValues(gateway, operation, outcome).Observe(time.Since(start).Seconds())
}

func (m *PaymentMetrics) RecordWebhook(gateway, outcome string) {
	if m == nil {
		return
	}
	m.WebhooksTotal.WithLabelValues(gateway, outcome).Inc()
}

func (m *PaymentMetrics) RecordHook(hook, outcome string) {
	if m == nil {
		return
	}
	m.HooksTotal.WithLabelValues(hook, outcome).Inc()
}

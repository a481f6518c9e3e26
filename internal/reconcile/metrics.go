package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	provisionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_provision_total",
		Help: "Subscription provisioning attempts by outcome",
	}, []string{"outcome"})

	usageReportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_usage_reports_total",
		Help: "Usage report attempts by operation and outcome",
	}, []string{"operation", "outcome"})

	syncItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_sync_items_total",
		Help: "Subscription item resyncs by outcome",
	}, []string{"outcome"})

	sweepOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_coupon_sweep_outcomes_total",
		Help: "Per-workspace coupon sweep outcomes",
	}, []string{"outcome"})

	statusMirrorTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_status_mirror_total",
		Help: "Subscription status writes from webhooks by outcome",
	}, []string{"outcome"})
)

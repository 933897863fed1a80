// Package metrics defines the custom Prometheus metrics of the lead API.
// HTTP request metrics come from the echoprometheus middleware; the ones here
// count domain events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm"

// ── Lead metrics ──────────────────────────────────────────────────────────────

// LeadsCreatedTotal counts newly created leads.
// Label:
//   - source: the lead source (e.g. "Website", "Referral")
var LeadsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leads_created_total",
		Help:      "Total number of leads created, by source.",
	},
	[]string{"source"},
)

// LeadUpdatesTotal counts successful lead updates.
// Label:
//   - status: the lead status after the update
var LeadUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_updates_total",
		Help:      "Total number of lead updates, by resulting status.",
	},
	[]string{"status"},
)

var LeadNotesAddedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_notes_added_total",
		Help:      "Total number of notes appended to leads.",
	},
)

var LeadsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leads_deleted_total",
		Help:      "Total number of leads deleted.",
	},
)

// ── Analytics metrics ─────────────────────────────────────────────────────────

// AnalyticsDuration measures how long the analytics queries take end-to-end.
var AnalyticsDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analytics_duration_seconds",
		Help:      "Duration of the analytics summary computation.",
		Buckets:   prometheus.DefBuckets,
	},
)

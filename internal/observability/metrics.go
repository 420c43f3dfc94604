package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	adoptionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rio_companion",
		Subsystem: "lifecycle",
		Name:      "adoptions_total",
		Help:      "Total companion adoptions (includes replacements).",
	})
	careActionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rio_companion",
		Subsystem: "progression",
		Name:      "care_actions_total",
		Help:      "Total persisted care actions (full-health no-ops excluded).",
	})
	levelUpsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rio_companion",
		Subsystem: "progression",
		Name:      "level_ups_total",
		Help:      "Total levels gained across all companions.",
	})
	updateConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rio_companion",
		Subsystem: "storage",
		Name:      "update_conflicts_total",
		Help:      "Compare-and-swap updates lost to a concurrent writer.",
	})
)

func init() {
	prometheus.MustRegister(
		adoptionsTotal,
		careActionsTotal,
		levelUpsTotal,
		updateConflictsTotal,
	)
}

// RecordAdoption cuenta una adopción completada.
func RecordAdoption() {
	adoptionsTotal.Inc()
}

// RecordCare cuenta un cuidado persistido.
func RecordCare() {
	careActionsTotal.Inc()
}

// RecordLevelUp suma los niveles ganados en una acción.
func RecordLevelUp(levels int) {
	if levels <= 0 {
		return
	}
	levelUpsTotal.Add(float64(levels))
}

// RecordUpdateConflict cuenta un update que perdió el compare-and-swap.
func RecordUpdateConflict() {
	updateConflictsTotal.Inc()
}

// Package metrics holds the Prometheus instrumentation for the person
// import job and the HTTP endpoint serving it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Row outcomes for persondir_import_rows_total.
const (
	RowSaved   = "saved"
	RowFailed  = "failed"
	RowSkipped = "skipped"
)

// ImportMetrics counts reconciliation outcomes per row and recorded name
// changes.
type ImportMetrics struct {
	Rows *prometheus.CounterVec
	Akas prometheus.Counter
}

func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	factory := promauto.With(reg)
	return &ImportMetrics{
		Rows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "persondir_import_rows_total",
			Help: "Import job rows by outcome.",
		}, []string{"result"}),
		Akas: factory.NewCounter(prometheus.CounterOpts{
			Name: "persondir_import_akas_total",
			Help: "Prior-name (aka) records written by the import job.",
		}),
	}
}

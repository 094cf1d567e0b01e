package metrics

import "github.com/prometheus/client_golang/prometheus"

// ImportMetrics tracks CSV import outcomes. Org IDs are unbounded so rows
// are labeled only by classification bucket, never by tenant.
type ImportMetrics struct {
	rows *prometheus.CounterVec
	runs *prometheus.CounterVec
}

// NewImportMetrics registers the import metrics on the provided registerer.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	if reg == nil {
		return &ImportMetrics{}
	}
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "CSV import rows by classification bucket.",
	}, []string{"bucket"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_runs_total",
		Help: "CSV import executions by result.",
	}, []string{"result"})
	reg.MustRegister(rows, runs)
	return &ImportMetrics{rows: rows, runs: runs}
}

// AddRows records how many rows landed in a classification bucket.
func (i *ImportMetrics) AddRows(bucket string, count int) {
	if i == nil || i.rows == nil || count <= 0 {
		return
	}
	i.rows.WithLabelValues(bucket).Add(float64(count))
}

// IncRun records one finished import with its result label.
func (i *ImportMetrics) IncRun(result string) {
	if i == nil || i.runs == nil {
		return
	}
	i.runs.WithLabelValues(result).Inc()
}

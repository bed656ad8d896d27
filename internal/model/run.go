package model

// Run is the part of a Sacred run document the UI works with.
type Run struct {
	Experiment string         `json:"experiment"`
	Config     map[string]any `json:"config"`
	Metrics    any            `json:"metrics,omitempty"` // info.metrics, a list or a map depending on the Sacred version
	Result     any            `json:"result,omitempty"`  // info.result
}

type Metric struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type MetricValues struct {
	Values []any `json:"values"`
	Steps  []any `json:"steps"`
}

// RunsOverview is what the page needs to offer choices. Runs and
// MetricValues feed the tables and are not sent as they are.
type RunsOverview struct {
	Database     string                  `json:"database"`
	RunCount     int                     `json:"run_count"`
	Runs         []Run                   `json:"-"`
	ConfigKeys   []ConfigKey             `json:"config_keys"`
	MetricNames  []string                `json:"metric_names"`
	ResultKeys   []string                `json:"result_keys"`
	MetricValues map[string]MetricValues `json:"-"` // only the selected metrics
}

type RunsResponse struct {
	RunsOverview
	Table  RunsTable `json:"table"`
	Steps  RunsTable `json:"steps"`
	Status string    `json:"status"`
}

type MetricsResponse struct {
	Database string                  `json:"database"`
	Metrics  []Metric                `json:"metrics"`
	Values   map[string]MetricValues `json:"values"`
}

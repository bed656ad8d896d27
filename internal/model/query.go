package model

type RunsRequest struct {
	ConnectRequest
	Limit        int               `json:"limit"`
	SelectedKeys []string          `json:"selected_keys"`
	ResultKeys   []string          `json:"result_keys"`
	MetricNames  []string          `json:"metric_names"` // metrics shown in the steps table
	Filters      map[string]Filter `json:"filters"`
}

type ExportRequest struct {
	RunsRequest
	Filename string `json:"filename"`
}

type MetricsRequest struct {
	ConnectRequest
	Limit int      `json:"limit"`
	IDs   []string `json:"ids"`
}

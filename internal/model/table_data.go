package model

type RunsTable struct {
	Columns []Column         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

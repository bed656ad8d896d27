package model

// Column describes one column of the runs table. ID is the row key.
type Column struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// ConfigKey is a key found in the config of at least one run.
type ConfigKey struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // boolean, number, string, list, dict, unknown or mixed
	Distinct int    `json:"distinct"`
}

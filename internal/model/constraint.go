package model

// Filter restricts runs by the value of one config key. All set parts must hold.
type Filter struct {
	Mode   string   `json:"mode,omitempty"`   // "true" or "false" for boolean keys
	Min    *float64 `json:"min,omitempty"`    // numeric lower bound, inclusive
	Max    *float64 `json:"max,omitempty"`    // numeric upper bound, inclusive
	Values []string `json:"values,omitempty"` // accepted string values
}

func (f Filter) IsZero() bool {
	return f.Mode == "" && f.Min == nil && f.Max == nil && len(f.Values) == 0
}

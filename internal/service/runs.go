package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"sacredview/internal/model"
)

const (
	ExperimentColumnID = "experiment"
	ResultColumnPrefix = "result:"
	StepColumnID       = "step"
	MetricColumnPrefix = "metric:"

	DefaultCSVFilename      = "experiments.csv"
	DefaultStepsCSVFilename = "metrics_steps.csv"
)

// TypeName reports the UI type of a config value. Nil values have no type.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return ""
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "dict"
	default:
		return "unknown"
	}
}

// ConfigKeyStats annotates each key with the type of its values across runs
// and the number of distinct non-nil values.
func ConfigKeyStats(keys []string, runs []model.Run) []model.ConfigKey {
	out := make([]model.ConfigKey, 0, len(keys))
	for _, key := range keys {
		types := map[string]struct{}{}
		distinct := map[string]struct{}{}
		for _, run := range runs {
			v, ok := run.Config[key]
			if !ok || v == nil {
				continue
			}
			types[TypeName(v)] = struct{}{}
			distinct[encodeForSet(v)] = struct{}{}
		}

		typ := "unknown"
		switch len(types) {
		case 0:
		case 1:
			for t := range types {
				typ = t
			}
		default:
			typ = "mixed"
		}
		out = append(out, model.ConfigKey{Name: key, Type: typ, Distinct: len(distinct)})
	}
	return out
}

// encodeForSet gives equal values equal keys; encoding/json sorts map keys.
func encodeForSet(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// MetricIDForRun finds the metric document id a run stores for name.
// info.metrics is either a map of name to {id} (or a bare id) or a list of
// {id, name} items. It returns "" when the run has no such metric.
func MetricIDForRun(metrics any, name string) string {
	switch m := metrics.(type) {
	case map[string]any:
		switch v := m[name].(type) {
		case map[string]any:
			if id, ok := v["id"]; ok && id != nil {
				return stringify(id)
			}
		case string:
			return v
		}
	case []any:
		for _, item := range m {
			d, ok := item.(map[string]any)
			if !ok || d["name"] != name {
				continue
			}
			id := d["id"]
			if id == nil || id == "" {
				id = d["_id"]
			}
			if id == nil {
				return ""
			}
			return stringify(id)
		}
	}
	return ""
}

// CollectMetricIDs gathers the metric document ids the runs store for the
// given metric names.
func CollectMetricIDs(runs []model.Run, names []string) []string {
	names = nonBlank(names)
	ids := map[string]struct{}{}
	for _, run := range runs {
		for _, name := range names {
			if id := MetricIDForRun(run.Metrics, name); id != "" {
				ids[id] = struct{}{}
			}
		}
	}
	return sortedKeys(ids)
}

// CollectMetricNames lists the metric names referenced from runs.
func CollectMetricNames(runs []model.Run) []string {
	names := map[string]struct{}{}
	for _, run := range runs {
		switch m := run.Metrics.(type) {
		case map[string]any:
			for k := range m {
				if strings.TrimSpace(k) != "" {
					names[k] = struct{}{}
				}
			}
		case []any:
			for _, item := range m {
				if d, ok := item.(map[string]any); ok {
					if nm, ok := d["name"].(string); ok && strings.TrimSpace(nm) != "" {
						names[nm] = struct{}{}
					}
				}
			}
		}
	}
	return sortedKeys(names)
}

// CollectResultKeys lists the keys of dict-shaped run results.
func CollectResultKeys(runs []model.Run) []string {
	keys := map[string]struct{}{}
	for _, run := range runs {
		if res, ok := run.Result.(map[string]any); ok {
			for k := range res {
				if strings.TrimSpace(k) != "" {
					keys[k] = struct{}{}
				}
			}
		}
	}
	return sortedKeys(keys)
}

// PassesFilters reports whether cfg satisfies the filters of the selected keys.
// Filters on keys that are not selected are ignored.
func PassesFilters(cfg map[string]any, selected []string, filters map[string]model.Filter) bool {
	for _, key := range selected {
		f, ok := filters[key]
		if !ok || f.IsZero() {
			continue
		}
		value := cfg[key]

		if f.Mode == "true" || f.Mode == "false" {
			b, ok := value.(bool)
			if !ok || b != (f.Mode == "true") {
				return false
			}
		}

		if f.Min != nil || f.Max != nil {
			n, ok := toFloat(value)
			if !ok {
				return false
			}
			if f.Min != nil && n < *f.Min {
				return false
			}
			if f.Max != nil && n > *f.Max {
				return false
			}
		}

		if len(f.Values) > 0 {
			s, ok := value.(string)
			if !ok || !contains(f.Values, s) {
				return false
			}
		}
	}
	return true
}

// BuildRunsTable lays out the filtered runs: the experiment name, then the
// selected config keys, then the selected result keys.
func BuildRunsTable(runs []model.Run, selected, resultKeys []string, filters map[string]model.Filter) model.RunsTable {
	resultKeys = nonBlank(resultKeys)

	columns := []model.Column{{Name: "Experiment", ID: ExperimentColumnID}}
	for _, key := range selected {
		columns = append(columns, model.Column{Name: key, ID: key})
	}
	for _, key := range resultKeys {
		columns = append(columns, model.Column{Name: key, ID: ResultColumnPrefix + key})
	}

	rows := []map[string]any{}
	for _, run := range runs {
		if !PassesFilters(run.Config, selected, filters) {
			continue
		}
		row := map[string]any{ExperimentColumnID: run.Experiment}
		for _, key := range selected {
			row[key] = run.Config[key]
		}
		res, _ := run.Result.(map[string]any)
		for _, key := range resultKeys {
			row[ResultColumnPrefix+key] = resultCell(res[key])
		}
		rows = append(rows, row)
	}
	return model.RunsTable{Columns: columns, Rows: rows}
}

func resultCell(v any) any {
	switch v.(type) {
	case nil:
		return ""
	case []any, map[string]any:
		return encodeForSet(v)
	default:
		return v
	}
}

// BuildMetricStepsTable lays out one row per logged step of each filtered
// run: the experiment name, the selected config keys, the step, then one
// column per metric. The step grid is the longest step list among the run's
// metrics, or the value indexes when a metric stores no steps. Shorter series
// leave blank cells; runs with none of the metrics are left out.
func BuildMetricStepsTable(runs []model.Run, selected, metricNames []string, values map[string]model.MetricValues, filters map[string]model.Filter) model.RunsTable {
	metricNames = nonBlank(metricNames)

	columns := []model.Column{{Name: "Experiment", ID: ExperimentColumnID}}
	for _, key := range selected {
		columns = append(columns, model.Column{Name: key, ID: key})
	}
	columns = append(columns, model.Column{Name: "Step", ID: StepColumnID})
	for _, name := range metricNames {
		columns = append(columns, model.Column{Name: name, ID: MetricColumnPrefix + name})
	}

	rows := []map[string]any{}
	for _, run := range runs {
		if !PassesFilters(run.Config, selected, filters) {
			continue
		}

		var grid []any
		series := make(map[string][]any, len(metricNames))
		for _, name := range metricNames {
			var payload model.MetricValues
			if id := MetricIDForRun(run.Metrics, name); id != "" {
				payload = values[id]
			}
			steps := payload.Steps
			if len(steps) == 0 {
				steps = indexes(len(payload.Values))
			}
			series[name] = payload.Values
			if len(steps) > len(grid) {
				grid = steps
			}
		}

		for i, step := range grid {
			row := map[string]any{ExperimentColumnID: run.Experiment, StepColumnID: step}
			for _, key := range selected {
				row[key] = run.Config[key]
			}
			for _, name := range metricNames {
				var cell any = ""
				if s := series[name]; i < len(s) {
					cell = s[i]
				}
				row[MetricColumnPrefix+name] = cell
			}
			rows = append(rows, row)
		}
	}
	return model.RunsTable{Columns: columns, Rows: rows}
}

func indexes(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// WriteRunsCSV writes the table with a header row of column names.
func WriteRunsCSV(w io.Writer, table model.RunsTable) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, c := range table.Columns {
			record[i] = stringify(row[c.ID])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVFilename cleans a user supplied download name, using fallback when
// nothing usable is left.
func CSVFilename(name, fallback string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	name = strings.Map(func(r rune) rune {
		if r == '"' || r < 0x20 {
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == "/" {
		return fallback
	}
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		name += ".csv"
	}
	return name
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case []any, map[string]any:
		return encodeForSet(t)
	default:
		return fmt.Sprint(t)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

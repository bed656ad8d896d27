package service

import (
	"context"

	"sacredview/internal/model"
)

// SacredClient reads a Sacred database. One client serves one request:
// Connect, any number of reads, then Disconnect.
//
// Connect returns ConnectionError (or InvalidInput for a malformed URI) and
// releases everything it opened when it fails. Reads return QueryError.
type SacredClient interface {
	Connect(ctx context.Context, conn ResolvedConnection) error
	Disconnect(ctx context.Context) error
	ExperimentNames(ctx context.Context) ([]string, error)
	ConfigKeys(ctx context.Context) ([]string, error)
	Runs(ctx context.Context, limit int) ([]model.Run, error)
	Metrics(ctx context.Context, limit int) ([]model.Metric, error)
	MetricValues(ctx context.Context, ids []string) (map[string]model.MetricValues, error)
}

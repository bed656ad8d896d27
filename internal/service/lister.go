package service

import (
	"context"
	"time"

	"sacredview/internal/model"

	"golang.org/x/sync/errgroup"
)

// Lister runs read-only lookups against a Sacred database. Every call opens
// its own client and closes it before returning; nothing is shared between calls.
type Lister struct {
	NewClient         func() SacredClient
	DisconnectTimeout time.Duration
}

func NewLister(connectTimeout time.Duration) *Lister {
	return &Lister{
		NewClient:         func() SacredClient { return NewMongoClient(connectTimeout) },
		DisconnectTimeout: connectTimeout,
	}
}

func (l *Lister) withClient(ctx context.Context, conn ResolvedConnection, fn func(SacredClient) error) error {
	client := l.NewClient()
	if err := client.Connect(ctx, conn); err != nil {
		return err
	}
	defer func() {
		// the request context may already be done; disconnect must still run
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.disconnectTimeout())
		defer cancel()
		_ = client.Disconnect(dctx)
	}()
	return fn(client)
}

func (l *Lister) disconnectTimeout() time.Duration {
	if l.DisconnectTimeout > 0 {
		return l.DisconnectTimeout
	}
	return 5 * time.Second
}

// Ping connects and disconnects, reporting whether the database is reachable
// with the given credentials.
func (l *Lister) Ping(ctx context.Context, conn ResolvedConnection) error {
	return l.withClient(ctx, conn, func(SacredClient) error { return nil })
}

// ListExperimentNames returns the distinct experiment names stored in the
// runs collection. An empty collection is not an error.
func (l *Lister) ListExperimentNames(ctx context.Context, conn ResolvedConnection) ([]string, error) {
	var names []string
	err := l.withClient(ctx, conn, func(c SacredClient) error {
		var err error
		names, err = c.ExperimentNames(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Overview reads up to limit runs together with the config keys, then the
// step values the runs store for metricNames. No values are read when no
// metric is named.
func (l *Lister) Overview(ctx context.Context, conn ResolvedConnection, limit int, metricNames []string) (model.RunsOverview, error) {
	overview := model.RunsOverview{Database: conn.Database}
	err := l.withClient(ctx, conn, func(c SacredClient) error {
		var (
			runs []model.Run
			keys []string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			runs, err = c.Runs(gctx, limit)
			return err
		})
		g.Go(func() error {
			var err error
			keys, err = c.ConfigKeys(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		values := map[string]model.MetricValues{}
		if ids := CollectMetricIDs(runs, metricNames); len(ids) > 0 {
			var err error
			if values, err = c.MetricValues(ctx, ids); err != nil {
				return err
			}
		}

		if runs == nil {
			runs = []model.Run{}
		}
		overview.Runs = runs
		overview.RunCount = len(runs)
		overview.ConfigKeys = ConfigKeyStats(keys, runs)
		overview.MetricNames = CollectMetricNames(runs)
		overview.ResultKeys = CollectResultKeys(runs)
		overview.MetricValues = values
		return nil
	})
	if err != nil {
		return model.RunsOverview{}, err
	}
	return overview, nil
}

// Metrics returns the metric catalog and the step values of the requested ids.
func (l *Lister) Metrics(ctx context.Context, conn ResolvedConnection, limit int, ids []string) (model.MetricsResponse, error) {
	resp := model.MetricsResponse{Database: conn.Database}
	err := l.withClient(ctx, conn, func(c SacredClient) error {
		metrics, err := c.Metrics(ctx, limit)
		if err != nil {
			return err
		}
		values, err := c.MetricValues(ctx, ids)
		if err != nil {
			return err
		}
		resp.Metrics = metrics
		resp.Values = values
		return nil
	})
	if err != nil {
		return model.MetricsResponse{}, err
	}
	return resp, nil
}

package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"sacredview/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	connectErr     error
	namesFunc      func() ([]string, error)
	runsFunc       func(limit int) ([]model.Run, error)
	keysFunc       func() ([]string, error)
	metricsFunc    func(limit int) ([]model.Metric, error)
	valuesFunc     func(ids []string) (map[string]model.MetricValues, error)
	connected      atomic.Int32
	disconnections atomic.Int32
}

func (f *fakeClient) Connect(ctx context.Context, conn ResolvedConnection) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected.Add(1)
	return nil
}

func (f *fakeClient) Disconnect(ctx context.Context) error {
	f.disconnections.Add(1)
	return nil
}

func (f *fakeClient) ExperimentNames(ctx context.Context) ([]string, error) {
	if f.namesFunc != nil {
		return f.namesFunc()
	}
	return nil, nil
}

func (f *fakeClient) ConfigKeys(ctx context.Context) ([]string, error) {
	if f.keysFunc != nil {
		return f.keysFunc()
	}
	return nil, nil
}

func (f *fakeClient) Runs(ctx context.Context, limit int) ([]model.Run, error) {
	if f.runsFunc != nil {
		return f.runsFunc(limit)
	}
	return nil, nil
}

func (f *fakeClient) Metrics(ctx context.Context, limit int) ([]model.Metric, error) {
	if f.metricsFunc != nil {
		return f.metricsFunc(limit)
	}
	return nil, nil
}

func (f *fakeClient) MetricValues(ctx context.Context, ids []string) (map[string]model.MetricValues, error) {
	if f.valuesFunc != nil {
		return f.valuesFunc(ids)
	}
	return map[string]model.MetricValues{}, nil
}

func listerFor(c *fakeClient) *Lister {
	return &Lister{NewClient: func() SacredClient { return c }}
}

var testConn = ResolvedConnection{URI: "mongodb://localhost:27017/", Database: "sacred"}

func TestListExperimentNames(t *testing.T) {
	tests := []struct {
		name             string
		client           *fakeClient
		want             []string
		wantErr          error
		wantDisconnected int32
	}{
		{
			name: "names",
			client: &fakeClient{namesFunc: func() ([]string, error) {
				return []string{"exp_a", "exp_b"}, nil
			}},
			want:             []string{"exp_a", "exp_b"},
			wantDisconnected: 1,
		},
		{
			name:             "empty is not an error",
			client:           &fakeClient{},
			want:             []string{},
			wantDisconnected: 1,
		},
		{
			name:             "connect fails",
			client:           &fakeClient{connectErr: connectionError(errors.New("server selection timeout"))},
			wantErr:          ErrConnection,
			wantDisconnected: 0,
		},
		{
			name: "query fails and client is still released",
			client: &fakeClient{namesFunc: func() ([]string, error) {
				return nil, queryError(errors.New("boom"))
			}},
			wantErr:          ErrQuery,
			wantDisconnected: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := listerFor(tc.client).ListExperimentNames(context.Background(), testConn)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			}
			assert.Equal(t, tc.wantDisconnected, tc.client.disconnections.Load())
		})
	}
}

func TestListExperimentNamesFreshClientPerCall(t *testing.T) {
	var created atomic.Int32
	l := &Lister{NewClient: func() SacredClient {
		created.Add(1)
		return &fakeClient{}
	}}

	for i := 0; i < 3; i++ {
		_, err := l.ListExperimentNames(context.Background(), testConn)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), created.Load())
}

func TestOverview(t *testing.T) {
	metricID := "5f1b2c3d4e5f6a7b8c9d0e1f"
	client := &fakeClient{
		runsFunc: func(limit int) ([]model.Run, error) {
			assert.Equal(t, 50, limit)
			return []model.Run{
				{
					Experiment: "exp_a",
					Config:     map[string]any{"lr": 0.1, "opt": "adam"},
					Metrics:    []any{map[string]any{"id": metricID, "name": "loss"}},
					Result:     map[string]any{"acc": 0.9},
				},
				{Experiment: "exp_b", Config: map[string]any{"lr": "high"}},
			}, nil
		},
		keysFunc: func() ([]string, error) { return []string{"lr", "opt"}, nil },
		valuesFunc: func(ids []string) (map[string]model.MetricValues, error) {
			assert.Equal(t, []string{metricID}, ids)
			return map[string]model.MetricValues{metricID: {Values: []any{1.0}, Steps: []any{0}}}, nil
		},
	}

	overview, err := listerFor(client).Overview(context.Background(), testConn, 50, []string{"loss"})
	require.NoError(t, err)

	assert.Equal(t, "sacred", overview.Database)
	assert.Equal(t, 2, overview.RunCount)
	assert.Equal(t, []model.ConfigKey{
		{Name: "lr", Type: "mixed", Distinct: 2},
		{Name: "opt", Type: "string", Distinct: 1},
	}, overview.ConfigKeys)
	assert.Equal(t, []string{"loss"}, overview.MetricNames)
	assert.Equal(t, []string{"acc"}, overview.ResultKeys)
	assert.Contains(t, overview.MetricValues, metricID)
	assert.Equal(t, int32(1), client.disconnections.Load())
}

func TestOverviewReadsOnlySelectedMetrics(t *testing.T) {
	var calls atomic.Int32
	client := &fakeClient{
		runsFunc: func(limit int) ([]model.Run, error) {
			return []model.Run{{
				Experiment: "exp_a",
				Metrics: map[string]any{
					"loss": map[string]any{"id": "5f1b2c3d4e5f6a7b8c9d0e1f"},
					"acc":  map[string]any{"id": "5f1b2c3d4e5f6a7b8c9d0e20"},
				},
			}}, nil
		},
		valuesFunc: func(ids []string) (map[string]model.MetricValues, error) {
			calls.Add(1)
			assert.Equal(t, []string{"5f1b2c3d4e5f6a7b8c9d0e20"}, ids)
			return map[string]model.MetricValues{}, nil
		},
	}
	l := listerFor(client)

	overview, err := l.Overview(context.Background(), testConn, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(0), calls.Load())
	assert.Empty(t, overview.MetricValues)
	assert.Equal(t, []string{"acc", "loss"}, overview.MetricNames)

	_, err = l.Overview(context.Background(), testConn, 10, []string{"acc", "missing"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOverviewQueryError(t *testing.T) {
	client := &fakeClient{
		keysFunc: func() ([]string, error) { return nil, queryError(errors.New("aggregate failed")) },
	}

	_, err := listerFor(client).Overview(context.Background(), testConn, 10, nil)
	assert.ErrorIs(t, err, ErrQuery)
	assert.Equal(t, int32(1), client.disconnections.Load())
}

func TestMetrics(t *testing.T) {
	client := &fakeClient{
		metricsFunc: func(limit int) ([]model.Metric, error) {
			return []model.Metric{{ID: "1", Name: "loss"}}, nil
		},
	}

	resp, err := listerFor(client).Metrics(context.Background(), testConn, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, []model.Metric{{ID: "1", Name: "loss"}}, resp.Metrics)
	assert.Empty(t, resp.Values)
	assert.Equal(t, int32(1), client.disconnections.Load())
}

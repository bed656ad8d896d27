package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"sacredview/internal/model"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	RunsCollection    = "runs"
	MetricsCollection = "metrics"
	ExperimentField   = "experiment.name"
)

type MongoClient struct {
	timeout time.Duration
	client  *mongo.Client
	db      *mongo.Database
}

// NewMongoClient returns a client whose connect and server selection are
// bounded by timeout.
func NewMongoClient(timeout time.Duration) *MongoClient {
	return &MongoClient{timeout: timeout}
}

// NewMongoClientFromDatabase wraps an already connected database handle.
// Disconnect on the returned client is a no-op; the caller keeps ownership.
func NewMongoClientFromDatabase(db *mongo.Database) *MongoClient {
	return &MongoClient{db: db}
}

func (m *MongoClient) Connect(ctx context.Context, conn ResolvedConnection) error {
	opts := options.Client().
		ApplyURI(conn.URI).
		SetConnectTimeout(m.timeout).
		SetServerSelectionTimeout(m.timeout).
		SetMaxPoolSize(2)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		if strings.HasPrefix(conn.URI, "mongodb+srv://") {
			return connectionError(errors.Wrap(err, "resolve srv record"))
		}
		return &Error{Kind: KindInvalidInput, Err: errors.Wrap(err, "invalid connection URI")}
	}

	pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		disconnectCtx, cancelDisconnect := context.WithTimeout(context.Background(), m.timeout)
		defer cancelDisconnect()
		_ = client.Disconnect(disconnectCtx)
		return connectionError(err)
	}

	m.client = client
	m.db = client.Database(conn.Database)
	return nil
}

func (m *MongoClient) Disconnect(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	client := m.client
	m.client, m.db = nil, nil
	return client.Disconnect(ctx)
}

func (m *MongoClient) database() (*mongo.Database, error) {
	if m.db == nil {
		return nil, connectionError(errors.New("not connected"))
	}
	return m.db, nil
}

// ExperimentNames returns the distinct non-blank experiment names in
// lexicographic order. A missing collection or field yields an empty list.
func (m *MongoClient) ExperimentNames(ctx context.Context) ([]string, error) {
	db, err := m.database()
	if err != nil {
		return nil, err
	}
	values, err := db.Collection(RunsCollection).Distinct(ctx, ExperimentField, bson.D{})
	if err != nil {
		return nil, queryError(errors.Wrap(err, "distinct "+ExperimentField))
	}
	return CleanNames(values), nil
}

// ConfigKeys lists the top-level keys used in any run config, sorted.
func (m *MongoClient) ConfigKeys(ctx context.Context) ([]string, error) {
	db, err := m.database()
	if err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "config", Value: bson.D{{Key: "$type", Value: "object"}}}}}},
		{{Key: "$project", Value: bson.D{{Key: "cfg", Value: bson.D{{Key: "$objectToArray", Value: "$config"}}}}}},
		{{Key: "$unwind", Value: "$cfg"}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$cfg.k"}}}},
		{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}, {Key: "k", Value: "$_id"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "k", Value: 1}}}},
	}
	cursor, err := db.Collection(RunsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, queryError(errors.Wrap(err, "aggregate config keys"))
	}
	var rows []struct {
		K string `bson:"k"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, queryError(errors.Wrap(err, "read config keys"))
	}

	keys := make([]string, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, r.K)
	}
	return keys, nil
}

// Runs reads up to limit run documents, keeping only what the runs table needs.
func (m *MongoClient) Runs(ctx context.Context, limit int) ([]model.Run, error) {
	db, err := m.database()
	if err != nil {
		return nil, err
	}
	projection := bson.D{
		{Key: ExperimentField, Value: 1},
		{Key: "config", Value: 1},
		{Key: "info.metrics", Value: 1},
		{Key: "info.result", Value: 1},
	}
	opts := options.Find().SetProjection(projection).SetLimit(int64(limit))
	cursor, err := db.Collection(RunsCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, queryError(errors.Wrap(err, "find runs"))
	}
	defer cursor.Close(ctx)

	runs := []model.Run{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, queryError(errors.Wrap(err, "decode run"))
		}
		runs = append(runs, runFromDocument(normalizeMap(doc)))
	}
	if err := cursor.Err(); err != nil {
		return nil, queryError(errors.Wrap(err, "iterate runs"))
	}
	return runs, nil
}

// Metrics lists the metric documents, named by name, then title, then id.
func (m *MongoClient) Metrics(ctx context.Context, limit int) ([]model.Metric, error) {
	db, err := m.database()
	if err != nil {
		return nil, err
	}
	projection := bson.D{{Key: "_id", Value: 1}, {Key: "name", Value: 1}, {Key: "title", Value: 1}}
	opts := options.Find().SetProjection(projection).SetLimit(int64(limit))
	cursor, err := db.Collection(MetricsCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, queryError(errors.Wrap(err, "find metrics"))
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, queryError(errors.Wrap(err, "read metrics"))
	}

	metrics := make([]model.Metric, 0, len(docs))
	for _, doc := range docs {
		d := normalizeMap(doc)
		id := stringify(d["_id"])
		name := id
		for _, field := range []string{"name", "title"} {
			if v := stringify(d[field]); v != "" {
				name = v
				break
			}
		}
		metrics = append(metrics, model.Metric{ID: id, Name: name})
	}
	sort.SliceStable(metrics, func(i, j int) bool { return metrics[i].Name < metrics[j].Name })
	return metrics, nil
}

// MetricValues loads the step series for the given metric ids. Ids that are
// not valid ObjectIDs are skipped.
func (m *MongoClient) MetricValues(ctx context.Context, ids []string) (map[string]model.MetricValues, error) {
	db, err := m.database()
	if err != nil {
		return nil, err
	}
	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
		if err != nil {
			continue
		}
		objectIDs = append(objectIDs, oid)
	}
	values := map[string]model.MetricValues{}
	if len(objectIDs) == 0 {
		return values, nil
	}

	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: objectIDs}}}}
	opts := options.Find().SetProjection(bson.D{{Key: "values", Value: 1}, {Key: "steps", Value: 1}})
	cursor, err := db.Collection(MetricsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, queryError(errors.Wrap(err, "find metric values"))
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, queryError(errors.Wrap(err, "read metric values"))
	}
	for _, doc := range docs {
		d := normalizeMap(doc)
		vals, _ := d["values"].([]any)
		steps, _ := d["steps"].([]any)
		if vals == nil {
			vals = []any{}
		}
		if steps == nil {
			steps = []any{}
		}
		values[stringify(d["_id"])] = model.MetricValues{Values: vals, Steps: steps}
	}
	return values, nil
}

// CleanNames keeps non-blank strings, drops duplicates and sorts.
func CleanNames(values []any) []string {
	seen := make(map[string]struct{}, len(values))
	names := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}

func runFromDocument(doc map[string]any) model.Run {
	run := model.Run{Config: map[string]any{}}
	if exp, ok := doc["experiment"].(map[string]any); ok {
		if name, ok := exp["name"].(string); ok {
			run.Experiment = name
		}
	}
	if cfg, ok := doc["config"].(map[string]any); ok {
		run.Config = cfg
	}
	if info, ok := doc["info"].(map[string]any); ok {
		run.Metrics = info["metrics"]
		run.Result = info["result"]
	}
	return run
}

// normalize converts driver types into plain Go values that encode cleanly
// as JSON: documents become maps, arrays slices, ObjectIDs hex strings.
func normalize(v any) any {
	switch t := v.(type) {
	case primitive.M:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case primitive.A:
		return normalizeSlice(t)
	case []any:
		return normalizeSlice(t)
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Decimal128:
		return t.String()
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

func normalizeSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = normalize(v)
	}
	return out
}

package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
)

// MongoConfig configures a MongoStore.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	// Timeout bounds connect and ping. Zero means 10s.
	Timeout time.Duration
}

// MongoStore keeps runs in a MongoDB collection, one document per run.
// The flat columns mirror the algorithm_runs table so the collection stays
// queryable from other tools. The full run travels in Payload.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// runDocument is the stored shape of a Run.
type runDocument struct {
	ID              string    `bson:"_id"`
	CreatedAt       time.Time `bson:"created_at"`
	Kind            string    `bson:"kind"`
	Algorithm       string    `bson:"algorithm"`
	Costs           []float64 `bson:"costs"`
	Budget          float64   `bson:"budget"`
	Indices         []int     `bson:"indices"`
	TotalCost       float64   `bson:"total_cost"`
	Status          string    `bson:"status"`
	ExecutionTimeMS float64   `bson:"execution_time_ms"`
	MemoryUsedMB    float64   `bson:"memory_used_mb"`
	ComparisonID    string    `bson:"comparison_id,omitempty"`
	Payload         []byte    `bson:"payload"`
}

// OpenMongo connects to cfg.URI and ensures the created_at index exists.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errs.New(errs.ErrCodeStorage, "mongo store needs a uri")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetConnectTimeout(timeout))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "connect mongo: %v", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "ping mongo: %v", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "index %s: %v", cfg.Collection, err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

// Save implements Store.
func (s *MongoStore) Save(ctx context.Context, run *Run) error {
	prepare(run)
	doc, err := toDocument(run)
	if err != nil {
		return err
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return errs.Wrap(errs.ErrCodeStorage, err, "save run %s: %v", run.ID, err)
	}
	return nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, id string) (*Run, error) {
	var doc runDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.New(errs.ErrCodeRunNotFound, "run %s not found", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "get run %s: %v", id, err)
	}
	return doc.run()
}

// List implements Store.
func (s *MongoStore) List(ctx context.Context, limit int) ([]*Run, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(clampLimit(limit)))
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "list runs: %v", err)
	}
	defer cur.Close(ctx)

	var runs []*Run
	for cur.Next(ctx) {
		var doc runDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, errs.Wrap(errs.ErrCodeStorage, err, "decode run: %v", err)
		}
		run, err := doc.run()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "list runs: %v", err)
	}
	return runs, nil
}

// Ping implements Store.
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return errs.Wrap(errs.ErrCodeStorage, err, "ping mongo: %v", err)
	}
	return nil
}

// Close implements Store.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

func toDocument(run *Run) (*runDocument, error) {
	payload, err := encodeRun(run)
	if err != nil {
		return nil, err
	}
	costs := make([]float64, len(run.Items))
	for i, it := range run.Items {
		costs[i] = it.Cost
	}
	doc := &runDocument{
		ID:           run.ID,
		CreatedAt:    run.CreatedAt,
		Kind:         run.Kind,
		Algorithm:    string(run.Requested),
		Costs:        costs,
		Budget:       run.Budget,
		ComparisonID: run.ComparisonID,
		Payload:      payload,
	}
	if sel := run.Selection; sel != nil {
		doc.Algorithm = string(sel.AlgorithmName)
		doc.Indices = sel.SelectedIndices
		doc.TotalCost = sel.TotalCost
		doc.Status = string(sel.Status)
		doc.ExecutionTimeMS = sel.ExecutionTimeMS
		doc.MemoryUsedMB = sel.MemoryUsedMB
	}
	return doc, nil
}

func (d *runDocument) run() (*Run, error) {
	return decodeRun(d.Payload)
}

var _ Store = (*MongoStore)(nil)

package store

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/pedigree/pkg/cache"
	"github.com/matzehuels/pedigree/pkg/errors"
)

// ConnectMongo opens a client and checks the server is reachable.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, cache.Retryable(err), "ping mongodb")
	}
	return client, nil
}

// MongoStore keeps families in a MongoDB collection, one document per family.
// The graph document is stored as JSON text so it round-trips byte for byte.
type MongoStore struct {
	coll *mongo.Collection
}

type mongoRecord struct {
	ID        string    `bson:"_id"`
	Data      string    `bson:"data"`
	Image     string    `bson:"image"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore creates a store on an existing collection. The caller owns
// the client.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := errors.ValidateRecordID("family", id); err != nil {
		return nil, err
	}

	var doc mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeFamilyNotFound, "family %s not found", id)
	}
	if err != nil {
		return nil, unavailable(err, "load family %s", id)
	}
	return &Record{ID: doc.ID, Data: []byte(doc.Data), Image: doc.Image, UpdatedAt: doc.UpdatedAt}, nil
}

func (s *MongoStore) Save(ctx context.Context, r *Record) error {
	if r == nil {
		return errors.New(errors.ErrCodeInvalidInput, "record cannot be nil")
	}
	if err := errors.ValidateRecordID("family", r.ID); err != nil {
		return err
	}

	r.UpdatedAt = time.Now().UTC()
	doc := mongoRecord{ID: r.ID, Data: string(r.Data), Image: r.Image, UpdatedAt: r.UpdatedAt}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": r.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return unavailable(err, "save family %s", r.ID)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateRecordID("family", id); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return unavailable(err, "delete family %s", id)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, unavailable(err, "list families")
	}

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, unavailable(err, "list families")
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// Close does nothing; the caller disconnects the client.
func (s *MongoStore) Close() error { return nil }

// unavailable wraps a driver error as STORE_UNAVAILABLE, marking network
// failures and timeouts as retryable.
func unavailable(err error, format string, args ...any) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		err = cache.Retryable(err)
	}
	return errors.Wrap(errors.ErrCodeStoreUnavailable, err, format, args...)
}

var _ Store = (*MongoStore)(nil)

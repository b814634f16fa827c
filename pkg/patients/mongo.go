package patients

import (
	"context"
	stderrors "errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/matzehuels/pedigree/pkg/cache"
	"github.com/matzehuels/pedigree/pkg/errors"
)

// MongoRepository reads patients from a MongoDB collection keyed by _id.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates a repository on an existing collection.
func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*Patient, error) {
	if err := errors.ValidateRecordID("patient", id); err != nil {
		return nil, err
	}

	var p Patient
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodePatientNotFound, "patient %s not found", id)
	}
	if err != nil {
		if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
			err = cache.Retryable(err)
		}
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "load patient %s", id)
	}
	return &p, nil
}

var _ Repository = (*MongoRepository)(nil)

package db

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Document is implemented by models that embed models.Base.
type Document interface {
	GenID()
}

// InsertOne generates a fresh ID for doc and inserts it, regenerating the ID
// on duplicate key errors (see Try). The same pointer is returned for chaining.
func InsertOne[T Document](ctx context.Context, coll *mongo.Collection, doc T) (T, error) {
	err := Try(func() error {
		doc.GenID()
		_, err := coll.InsertOne(ctx, doc)
		return err
	})
	return doc, err
}

// InsertWithID inserts doc keeping the ID it already carries. Used when the
// caller has to reference the ID before the insert happens.
func InsertWithID[T any](ctx context.Context, coll *mongo.Collection, doc T) error {
	_, err := coll.InsertOne(ctx, doc)
	return err
}

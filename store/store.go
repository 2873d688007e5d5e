// Package store persists products, orders and users in MongoDB.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-storefront/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	ProductsCollection = "products"
	OrdersCollection   = "orders"
	UsersCollection    = "users"
)

// DefaultTimeout bounds a single store call when no timeout is configured
const DefaultTimeout = 5 * time.Second

type base struct {
	coll    *mongo.Collection
	timeout time.Duration
	now     func() time.Time
}

func newBase(coll *mongo.Collection, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return base{coll: coll, timeout: timeout, now: func() time.Time { return time.Now().UTC() }}
}

func (b base) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, b.timeout)
}

// ParseID converts a hex string to an ObjectID, reporting a validation error
// naming what the id was for.
func ParseID(hex, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.Validationf("Invalid %s ID", what)
	}
	return id, nil
}

// translate classifies driver errors. Anything unknown is wrapped as-is and
// ends up as a 500 with the driver's message.
func translate(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.Wrap(err, apperr.NotFound, notFound)
	case mongo.IsDuplicateKeyError(err):
		return apperr.Wrap(err, apperr.Conflict, "Duplicate key")
	default:
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return err
		}
		return fmt.Errorf("mongo: %w", err)
	}
}

// JoinCustomer returns the stages that attach the ordering user's id, name and
// email to each order document under "customer".
func JoinCustomer() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from": UsersCollection,
			"let":  bson.M{"uid": "$user"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$uid"}}}},
				bson.M{"$project": bson.M{"name": 1, "email": 1}},
			},
			"as": "customer",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$customer", "preserveNullAndEmptyArrays": true}}},
	}
}

// EnsureIndexes creates the indexes the stores rely on. Unique slug and email
// indexes back the uniqueness checks done before writes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		ProductsCollection: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		OrdersCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "resetToken", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
	}
	for coll, idx := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"time"

	"go-storefront/apperr"
	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderStore handles order persistence
type OrderStore struct {
	base
}

// NewOrderStore creates an OrderStore over db's orders collection
func NewOrderStore(db *mongo.Database, timeout time.Duration) *OrderStore {
	return &OrderStore{base: newBase(db.Collection(OrdersCollection), timeout)}
}

// Create inserts a new order. The order's items must not be empty.
func (s *OrderStore) Create(ctx context.Context, o models.Order) (*models.Order, error) {
	if len(o.OrderItems) == 0 {
		return nil, apperr.Validationf("No order items")
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	now := s.now()
	o.ID = primitive.NewObjectID()
	o.IsPaid, o.PaidAt, o.PaymentResult = false, nil, nil
	o.IsDelivered, o.DeliveredAt = false, nil
	o.CreatedAt, o.UpdatedAt = now, now
	if _, err := s.coll.InsertOne(ctx, o); err != nil {
		return nil, translate(err, "")
	}
	return &o, nil
}

func (s *OrderStore) aggregateWithUser(ctx context.Context, match bson.M, extra ...bson.D) ([]models.OrderWithUser, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	pipeline = append(pipeline, extra...)
	pipeline = append(pipeline, JoinCustomer()...)

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translate(err, "")
	}
	defer cursor.Close(ctx)

	var orders []models.OrderWithUser
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, translate(err, "")
	}
	if orders == nil {
		orders = []models.OrderWithUser{}
	}
	return orders, nil
}

// FindByID returns the order with its purchaser joined in
func (s *OrderStore) FindByID(ctx context.Context, id string) (*models.OrderWithUser, error) {
	oid, err := ParseID(id, "order")
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	orders, err := s.aggregateWithUser(ctx, bson.M{"_id": oid}, bson.D{{Key: "$limit", Value: 1}})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperr.NotFoundf("Order not found")
	}
	return &orders[0], nil
}

// ListByUser returns the orders placed by user, newest first
func (s *OrderStore) ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	cursor, err := s.coll.Find(ctx, bson.M{"user": user},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, translate(err, "")
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, translate(err, "")
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// ListAll returns every order, newest first, with purchasers joined in
func (s *OrderStore) ListAll(ctx context.Context) ([]models.OrderWithUser, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.aggregateWithUser(ctx, bson.M{}, bson.D{{Key: "$sort", Value: bson.M{"createdAt": -1}}})
}

// setFlags applies set once: flag must still be false for the update to match.
// Repeating a transition returns the order as it is, keeping the first timestamp.
func (s *OrderStore) setFlags(ctx context.Context, id, flag string, set bson.M) (*models.Order, error) {
	oid, err := ParseID(id, "order")
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	set[flag] = true
	set["updatedAt"] = s.now()
	var o models.Order
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid, flag: bson.M{"$ne": true}}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&o)
	}
	if err != nil {
		return nil, translate(err, "Order not found")
	}
	return &o, nil
}

// MarkPaid records a payment on the order. An order already paid keeps its
// original payment.
func (s *OrderStore) MarkPaid(ctx context.Context, id string, result models.PaymentResult) (*models.Order, error) {
	return s.setFlags(ctx, id, "isPaid", bson.M{
		"paidAt":        s.now(),
		"paymentResult": result,
	})
}

// MarkDelivered records delivery of the order
func (s *OrderStore) MarkDelivered(ctx context.Context, id string) (*models.Order, error) {
	return s.setFlags(ctx, id, "isDelivered", bson.M{
		"deliveredAt": s.now(),
	})
}

// Delete removes one order
func (s *OrderStore) Delete(ctx context.Context, id string) error {
	oid, err := ParseID(id, "order")
	if err != nil {
		return err
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return translate(err, "")
	}
	if res.DeletedCount == 0 {
		return apperr.NotFoundf("Order Not Found")
	}
	return nil
}

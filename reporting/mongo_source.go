package reporting

import (
	"context"
	"fmt"

	"go-storefront/models"
	"go-storefront/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoSource runs the dashboard pipelines against a database
type MongoSource struct {
	orders *mongo.Collection
	users  *mongo.Collection
}

// NewMongoSource creates a MongoSource over db
func NewMongoSource(db *mongo.Database) *MongoSource {
	return &MongoSource{
		orders: db.Collection(store.OrdersCollection),
		users:  db.Collection(store.UsersCollection),
	}
}

func aggregate[T any](ctx context.Context, coll *mongo.Collection, name string, pipeline mongo.Pipeline) ([]T, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var out []T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func first[T any](rows []T) *T {
	if len(rows) == 0 {
		return nil
	}
	return &rows[0]
}

// OrderTotals implements Source
func (m *MongoSource) OrderTotals(ctx context.Context) (*OrderTotals, error) {
	rows, err := aggregate[OrderTotals](ctx, m.orders, "order totals", OrderTotalsPipeline())
	return first(rows), err
}

// UserCount implements Source
func (m *MongoSource) UserCount(ctx context.Context) (int64, error) {
	n, err := m.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("user count: %w", err)
	}
	return n, nil
}

// DailyOrders implements Source
func (m *MongoSource) DailyOrders(ctx context.Context) ([]DailyOrders, error) {
	return aggregate[DailyOrders](ctx, m.orders, "daily orders", DailyOrdersPipeline())
}

// CategoryRevenue implements Source
func (m *MongoSource) CategoryRevenue(ctx context.Context) ([]CategoryRevenue, error) {
	return aggregate[CategoryRevenue](ctx, m.orders, "category revenue", CategoryRevenuePipeline(store.ProductsCollection))
}

// StatusCounts implements Source
func (m *MongoSource) StatusCounts(ctx context.Context) (*StatusCounts, error) {
	rows, err := aggregate[StatusCounts](ctx, m.orders, "status counts", StatusCountsPipeline())
	return first(rows), err
}

// RecentOrders implements Source
func (m *MongoSource) RecentOrders(ctx context.Context, limit int) ([]models.OrderWithUser, error) {
	return aggregate[models.OrderWithUser](ctx, m.orders, "recent orders", RecentOrdersPipeline(limit))
}

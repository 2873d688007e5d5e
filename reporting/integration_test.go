package reporting

import (
	"context"
	"os"
	"testing"
	"time"

	"go-storefront/models"
	"go-storefront/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	db := client.Database("storefront_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestSummaryAgainstMongo(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	buyer := models.User{ID: primitive.NewObjectID(), Name: "Amira", Email: "amira@example.com"}
	_, err := db.Collection(store.UsersCollection).InsertOne(ctx, buyer)
	require.NoError(t, err)

	cream := models.Product{ID: primitive.NewObjectID(), Name: "Snail Cream", Slug: "snail-cream", Category: "Skincare", Price: 20}
	_, err = db.Collection(store.ProductsCollection).InsertOne(ctx, cream)
	require.NoError(t, err)

	day1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	order := func(created time.Time, qty int, paid, delivered bool) interface{} {
		items := float64(qty) * cream.Price
		return models.Order{
			ID:            primitive.NewObjectID(),
			OrderItems:    []models.OrderItem{{Slug: cream.Slug, Name: cream.Name, Quantity: qty, Image: "/a.jpg", Price: cream.Price, Product: cream.ID}},
			PaymentMethod: "PayPal",
			ItemsPrice:    items,
			ShippingPrice: 10,
			TaxPrice:      float64(3 * qty),
			TotalPrice:    items + 10 + float64(3*qty),
			User:          buyer.ID,
			IsPaid:        paid,
			IsDelivered:   delivered,
			CreatedAt:     created,
			UpdatedAt:     created,
		}
	}
	_, err = db.Collection(store.OrdersCollection).InsertMany(ctx, []interface{}{
		order(day1, 1, true, false),
		order(day1.Add(time.Hour), 2, false, false),
		order(day2, 1, false, true),
	})
	require.NoError(t, err)

	s, err := NewReporter(NewMongoSource(db)).Summary(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 3, s.Overview.NumOrders)
	assert.EqualValues(t, 1, s.Overview.PaidOrders)
	assert.EqualValues(t, 1, s.Overview.DeliveredOrders)
	assert.EqualValues(t, 4, s.Overview.TotalItemsSold)
	assert.EqualValues(t, 1, s.Overview.NumUsers)
	assert.Equal(t, 30.0, s.Overview.TotalShipping)
	assert.Equal(t, 122.0, s.Overview.TotalSales)

	require.Len(t, s.Trends.DailyOrders, 2)
	assert.Equal(t, "2024-05-01", s.Trends.DailyOrders[0].Date)
	assert.EqualValues(t, 2, s.Trends.DailyOrders[0].Orders)
	assert.EqualValues(t, 3, s.Trends.DailyOrders[0].ItemsSold)

	require.Len(t, s.Trends.ProductCategories, 1)
	assert.Equal(t, "Skincare", s.Trends.ProductCategories[0].Category)
	assert.Equal(t, 80.0, s.Trends.ProductCategories[0].Revenue)

	require.Len(t, s.RecentOrders, 3)
	assert.True(t, s.RecentOrders[0].CreatedAt.Equal(day2))
	require.NotNil(t, s.RecentOrders[0].Customer)
	assert.Equal(t, "Amira", s.RecentOrders[0].Customer.Name)
}

func TestCategoryRevenueAgainstMongo(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	cream := models.Product{ID: primitive.NewObjectID(), Name: "Snail Cream", Slug: "snail-cream", Category: "Skincare", Price: 20}
	lipstick := models.Product{ID: primitive.NewObjectID(), Name: "Velvet Lipstick", Slug: "velvet-lipstick", Category: "Makeup", Price: 15}
	_, err := db.Collection(store.ProductsCollection).InsertMany(ctx, []interface{}{cream, lipstick})
	require.NoError(t, err)

	line := func(p models.Product, qty int) models.OrderItem {
		return models.OrderItem{Slug: p.Slug, Name: p.Name, Quantity: qty, Image: "/a.jpg", Price: p.Price, Product: p.ID}
	}
	removed := models.Product{ID: primitive.NewObjectID(), Name: "Old Serum", Slug: "old-serum", Price: 9}
	now := time.Now().UTC()
	_, err = db.Collection(store.OrdersCollection).InsertMany(ctx, []interface{}{
		models.Order{ID: primitive.NewObjectID(), OrderItems: []models.OrderItem{line(lipstick, 1), line(cream, 2), line(removed, 5)}, CreatedAt: now},
		models.Order{ID: primitive.NewObjectID(), OrderItems: []models.OrderItem{line(lipstick, 1)}, CreatedAt: now},
	})
	require.NoError(t, err)

	rows, err := NewMongoSource(db).CategoryRevenue(ctx)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Skincare", rows[0].Category)
	assert.Equal(t, 40.0, rows[0].Revenue)
	assert.Equal(t, "Makeup", rows[1].Category)
	assert.Equal(t, 30.0, rows[1].Revenue)
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].Revenue, rows[i].Revenue)
	}

	var counted int64
	for _, r := range rows {
		assert.NotEmpty(t, r.Category)
		counted += r.Count
	}
	assert.EqualValues(t, 4, counted)

	totals, err := NewMongoSource(db).OrderTotals(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 9, totals.TotalItemsSold)
}

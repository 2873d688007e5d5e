// Package reporting builds the admin dashboard summary out of a fixed set of
// aggregation pipelines over the orders and users collections.
package reporting

import (
	"go-storefront/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// RecentOrdersLimit is how many orders the dashboard lists
const RecentOrdersLimit = 5

// OrderTotalsPipeline collapses each order to one row before summing, so the
// order-level amounts are counted once however many lines an order has.
//
// Output: one document {numOrders, totalSales, avgOrderValue, totalItemsSold,
// totalShipping, totalTax}, or none when there are no orders.
func OrderTotalsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$orderItems"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$_id"},
			{Key: "orderTotal", Value: bson.M{"$first": "$totalPrice"}},
			{Key: "shipping", Value: bson.M{"$first": "$shippingPrice"}},
			{Key: "tax", Value: bson.M{"$first": "$taxPrice"}},
			{Key: "totalItems", Value: bson.M{"$sum": "$orderItems.quantity"}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "numOrders", Value: bson.M{"$sum": 1}},
			{Key: "totalSales", Value: bson.M{"$sum": "$orderTotal"}},
			{Key: "avgOrderValue", Value: bson.M{"$avg": "$orderTotal"}},
			{Key: "totalItemsSold", Value: bson.M{"$sum": "$totalItems"}},
			{Key: "totalShipping", Value: bson.M{"$sum": "$shipping"}},
			{Key: "totalTax", Value: bson.M{"$sum": "$tax"}},
		}}},
	}
}

// DailyOrdersPipeline groups orders by UTC calendar date.
//
// Output: {_id: "YYYY-MM-DD", orders, sales, itemsSold} per date, ascending.
func DailyOrdersPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}}},
			{Key: "orders", Value: bson.M{"$sum": 1}},
			{Key: "sales", Value: bson.M{"$sum": "$totalPrice"}},
			{Key: "itemsSold", Value: bson.M{"$sum": bson.M{"$sum": "$orderItems.quantity"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

// CategoryRevenuePipeline joins every order line back to its product to find
// the category. Lines whose product no longer exists are dropped.
//
// Output: {_id: category, count, revenue} per category, revenue descending.
func CategoryRevenuePipeline(productsCollection string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$orderItems"}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: productsCollection},
			{Key: "localField", Value: "orderItems.product"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "productDetails"},
		}}},
		{{Key: "$unwind", Value: "$productDetails"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$productDetails.category"},
			{Key: "count", Value: bson.M{"$sum": "$orderItems.quantity"}},
			{Key: "revenue", Value: bson.M{"$sum": bson.M{"$multiply": bson.A{"$orderItems.price", "$orderItems.quantity"}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "revenue", Value: -1}, {Key: "_id", Value: 1}}}},
	}
}

// StatusCountsPipeline counts paid and delivered orders.
//
// Output: one document {paidOrders, deliveredOrders}, or none when there are no orders.
func StatusCountsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "paidOrders", Value: bson.M{"$sum": bson.M{"$cond": bson.A{"$isPaid", 1, 0}}}},
			{Key: "deliveredOrders", Value: bson.M{"$sum": bson.M{"$cond": bson.A{"$isDelivered", 1, 0}}}},
		}}},
	}
}

// RecentOrdersPipeline returns the newest limit orders with the purchaser's
// name and email joined under "customer".
func RecentOrdersPipeline(limit int) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$limit", Value: int64(limit)}},
	}
	return append(pipeline, store.JoinCustomer()...)
}

package store

import (
	"context"
	"math"
	"time"

	"go-storefront/apperr"
	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultPageSize is used by ListPage when no page size is given
const DefaultPageSize = 10

// ProductPage is one page of the admin product listing
type ProductPage struct {
	Products      []models.Product `json:"products"`
	CountProducts int64            `json:"countProducts"`
	Page          int              `json:"page"`
	Pages         int              `json:"pages"`
}

// ProductStore handles catalog persistence
type ProductStore struct {
	base
}

// NewProductStore creates a ProductStore over db's products collection
func NewProductStore(db *mongo.Database, timeout time.Duration) *ProductStore {
	return &ProductStore{base: newBase(db.Collection(ProductsCollection), timeout)}
}

func (s *ProductStore) find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Product, error) {
	cursor, err := s.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, translate(err, "")
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, translate(err, "")
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// List returns every product
func (s *ProductStore) List(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.find(ctx, bson.M{})
}

// ListPage returns one page of products in insertion order along with the total count
func (s *ProductStore) ListPage(ctx context.Context, page, pageSize int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))
	products, err := s.find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	count, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, translate(err, "")
	}
	return &ProductPage{
		Products:      products,
		CountProducts: count,
		Page:          page,
		Pages:         int(math.Ceil(float64(count) / float64(pageSize))),
	}, nil
}

// Search finds products matching q
func (s *ProductStore) Search(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.find(ctx, q.Filter(), options.Find().SetSort(q.SortSpec()))
}

// FindBySlug returns the product with the given slug
func (s *ProductStore) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.findOne(ctx, bson.M{"slug": slug})
}

// FindByID returns the product with the given id
func (s *ProductStore) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := ParseID(id, "product")
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *ProductStore) findOne(ctx context.Context, filter bson.M) (*models.Product, error) {
	var p models.Product
	if err := s.coll.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, translate(err, "Product Not Found")
	}
	return &p, nil
}

func (s *ProductStore) slugTaken(ctx context.Context, slug string, except primitive.ObjectID) (bool, error) {
	filter := bson.M{"slug": slug}
	if !except.IsZero() {
		filter["_id"] = bson.M{"$ne": except}
	}
	n, err := s.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, translate(err, "")
	}
	return n > 0, nil
}

// Create validates and inserts a product. A slug already in use is a conflict.
func (s *ProductStore) Create(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	p, err := in.Product()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	taken, err := s.slugTaken(ctx, p.Slug, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflictf("Slug must be unique")
	}

	now := s.now()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Wrap(err, apperr.Conflict, "Slug must be unique")
		}
		return nil, translate(err, "")
	}
	return &p, nil
}

// CreateMany validates every product and inserts them in one ordered batch
func (s *ProductStore) CreateMany(ctx context.Context, inputs []models.ProductInput) ([]models.Product, error) {
	if len(inputs) == 0 {
		return nil, apperr.Validationf("No products provided")
	}
	now := s.now()
	products := make([]models.Product, 0, len(inputs))
	docs := make([]interface{}, 0, len(inputs))
	seen := map[string]bool{}
	for i, in := range inputs {
		p, err := in.Product()
		if err != nil {
			return nil, apperr.Validationf("Invalid Products Data: product %d: %s", i+1, apperr.Message(err))
		}
		if seen[p.Slug] {
			return nil, apperr.Conflictf("Slug must be unique: %s", p.Slug)
		}
		seen[p.Slug] = true
		p.ID = primitive.NewObjectID()
		p.CreatedAt, p.UpdatedAt = now, now
		products = append(products, p)
		docs = append(docs, p)
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Wrap(err, apperr.Conflict, "Slug must be unique")
		}
		return nil, translate(err, "")
	}
	return products, nil
}

// AddReview appends a review and recomputes rating and numReviews from the
// stored list in the same write, so concurrent reviews are all kept.
func (s *ProductStore) AddReview(ctx context.Context, productID string, review models.Review) (*models.Review, error) {
	oid, err := ParseID(productID, "product")
	if err != nil {
		return nil, err
	}
	if err := review.Validate(); err != nil {
		return nil, err
	}
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	review.CreatedAt = s.now()

	ctx, cancel := s.ctx(ctx)
	defer cancel()
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, ReviewAppendPipeline(review, s.now()))
	if err != nil {
		return nil, translate(err, "")
	}
	if res.MatchedCount == 0 {
		return nil, apperr.NotFoundf("Product Not Found")
	}
	return &review, nil
}

// ReviewAppendPipeline is the update pipeline behind AddReview: append the
// review, then derive numReviews and rating from the resulting list.
func ReviewAppendPipeline(review models.Review, now time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "reviews", Value: bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}},
				bson.A{bson.M{"$literal": review}},
			}}},
			{Key: "updatedAt", Value: now},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "numReviews", Value: bson.M{"$size": "$reviews"}},
			{Key: "rating", Value: bson.M{"$avg": "$reviews.rating"}},
		}}},
	}
}

// Update merges the provided fields into the product and returns the result
func (s *ProductStore) Update(ctx context.Context, id string, u models.ProductUpdate) (*models.Product, error) {
	oid, err := ParseID(id, "product")
	if err != nil {
		return nil, err
	}
	set, err := u.SetFields()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if slug, ok := set["slug"].(string); ok {
		taken, err := s.slugTaken(ctx, slug, oid)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Conflictf("Slug must be unique")
		}
	}
	set["updatedAt"] = s.now()

	var p models.Product
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Wrap(err, apperr.Conflict, "Slug must be unique")
		}
		return nil, translate(err, "Product Not Found")
	}
	return &p, nil
}

// Delete removes one product
func (s *ProductStore) Delete(ctx context.Context, id string) error {
	oid, err := ParseID(id, "product")
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
		return apperr.NotFoundf("Product Not Found")
	}
	return nil
}

// DeleteMany removes every product whose id is listed and returns how many went
func (s *ProductStore) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperr.Validationf("No product ids provided")
	}
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := ParseID(id, "product")
		if err != nil {
			return 0, err
		}
		oids = append(oids, oid)
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, translate(err, "")
	}
	return res.DeletedCount, nil
}

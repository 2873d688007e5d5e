package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-storefront/apperr"
	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at signup and reset
const MinPasswordLength = 6

var errBadCredentials = apperr.Unauthorizedf("Invalid email or password")

// UserStore handles account persistence and credential checks
type UserStore struct {
	base
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewUserStore creates a UserStore over db's users collection
func NewUserStore(db *mongo.Database, timeout time.Duration) *UserStore {
	return &UserStore{base: newBase(db.Collection(UsersCollection), timeout), cost: bcrypt.DefaultCost}
}

// WithCost sets the bcrypt cost used for new hashes
func (s *UserStore) WithCost(cost int) *UserStore {
	s.cost = cost
	return s
}

func (s *UserStore) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperr.Wrap(err, apperr.Internal, "Error hashing password")
	}
	return string(h), nil
}

func checkPassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperr.Validationf("Password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// Signup registers a new non-admin user
func (s *UserStore) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	name, email = strings.TrimSpace(name), models.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, apperr.Validationf("Name, email and password are required")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	hashed, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	n, err := s.coll.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return nil, translate(err, "")
	}
	if n > 0 {
		return nil, apperr.Conflictf("User already exists")
	}

	now := s.now()
	u := models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Wrap(err, apperr.Conflict, "User already exists")
		}
		return nil, translate(err, "")
	}
	return &u, nil
}

// Authenticate checks an email and password pair. Unknown emails still cost one
// bcrypt comparison.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.FindByEmail(ctx, email)
	if apperr.Is(err, apperr.NotFound) || apperr.Is(err, apperr.Validation) {
		s.dummyOnce.Do(func() {
			s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
		})
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, errBadCredentials
	}
	return u, nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, translate(err, "User not found")
	}
	return &u, nil
}

// FindByID returns the user with the given id
func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := ParseID(id, "user")
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.findOne(ctx, bson.M{"_id": oid})
}

// FindByEmail returns the user with the given address, compared lower-cased
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, apperr.Validationf("Email is required")
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.findOne(ctx, bson.M{"email": email})
}

// SetResetToken stores token as the user's only pending reset token
func (s *UserStore) SetResetToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{
		"resetToken": token,
		"updatedAt":  s.now(),
	}})
	if err != nil {
		return translate(err, "")
	}
	if res.MatchedCount == 0 {
		return apperr.NotFoundf("User not found")
	}
	return nil
}

// ResetPassword replaces the password of the user holding token and clears the
// token so it cannot be used twice.
func (s *UserStore) ResetPassword(ctx context.Context, token, password string) (*models.User, error) {
	if token == "" {
		return nil, apperr.NotFoundf("User not found")
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	u, err := s.findOne(ctx, bson.M{"resetToken": token})
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperr.Validationf("Password is required")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	hashed, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": u.ID, "resetToken": token},
		bson.M{
			"$set":   bson.M{"password": hashed, "updatedAt": s.now()},
			"$unset": bson.M{"resetToken": ""},
		},
	)
	if err != nil {
		return nil, translate(err, "")
	}
	if res.MatchedCount == 0 {
		return nil, apperr.NotFoundf("User not found")
	}
	u.Password, u.ResetToken = hashed, ""
	return u, nil
}

// List returns every user
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, translate(err, "")
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, translate(err, "")
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (s *UserStore) emailTaken(ctx context.Context, email string, except primitive.ObjectID) error {
	n, err := s.coll.CountDocuments(ctx, bson.M{"email": email, "_id": bson.M{"$ne": except}}, options.Count().SetLimit(1))
	if err != nil {
		return translate(err, "")
	}
	if n > 0 {
		return apperr.Conflictf("Email already in use")
	}
	return nil
}

func (s *UserStore) apply(ctx context.Context, oid primitive.ObjectID, set bson.M) (*models.User, error) {
	if email, ok := set["email"].(string); ok {
		if err := s.emailTaken(ctx, email, oid); err != nil {
			return nil, err
		}
	}
	set["updatedAt"] = s.now()

	var u models.User
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Wrap(err, apperr.Conflict, "Email already in use")
		}
		return nil, translate(err, "User Not Found")
	}
	return &u, nil
}

// UpdateByID is the admin edit: empty name or email keep their value, the admin
// flag is always taken from u.
func (s *UserStore) UpdateByID(ctx context.Context, id string, u models.UserUpdate) (*models.User, error) {
	oid, err := ParseID(id, "user")
	if err != nil {
		return nil, err
	}
	set := bson.M{"isAdmin": u.IsAdmin}
	if name := strings.TrimSpace(u.Name); name != "" {
		set["name"] = name
	}
	if email := models.NormalizeEmail(u.Email); email != "" {
		set["email"] = email
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.apply(ctx, oid, set)
}

// UpdateProfile is the self-service edit. A non-empty password is re-hashed.
func (s *UserStore) UpdateProfile(ctx context.Context, userID primitive.ObjectID, p models.ProfileUpdate) (*models.User, error) {
	set := bson.M{}
	if name := strings.TrimSpace(p.Name); name != "" {
		set["name"] = name
	}
	if email := models.NormalizeEmail(p.Email); email != "" {
		set["email"] = email
	}
	if p.Password != "" {
		if err := checkPassword(p.Password); err != nil {
			return nil, err
		}
		hashed, err := s.hash(p.Password)
		if err != nil {
			return nil, err
		}
		set["password"] = hashed
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.apply(ctx, userID, set)
}

// Delete removes one user
func (s *UserStore) Delete(ctx context.Context, id string) error {
	oid, err := ParseID(id, "user")
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
		return apperr.NotFoundf("User Not Found")
	}
	return nil
}

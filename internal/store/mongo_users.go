package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campusfeed/backend/internal/models"
)

type mongoUser struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	Email      string             `bson:"email"`
	Password   string             `bson:"password,omitempty"`
	Role       string             `bson:"role"`
	University string             `bson:"university"`
	Bio        string             `bson:"bio"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

func (u *mongoUser) model() *models.User {
	return &models.User{
		ID:         u.ID.Hex(),
		Name:       u.Name,
		Email:      u.Email,
		Password:   u.Password,
		Role:       u.Role,
		University: u.University,
		Bio:        u.Bio,
		CreatedAt:  u.CreatedAt,
	}
}

var withoutPassword = bson.D{{Key: "password", Value: 0}}

// MongoUserStore handles user CRUD in MongoDB.
type MongoUserStore struct {
	col *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{col: db.Collection("users")}
}

// EnsureIndexes creates the unique email index.
func (s *MongoUserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo users index: %w", err)
	}
	return nil
}

func (s *MongoUserStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	doc := mongoUser{
		Name:       u.Name,
		Email:      u.Email,
		Password:   u.Password,
		Role:       u.Role,
		University: u.University,
		Bio:        u.Bio,
		CreatedAt:  time.Now().UTC(),
	}
	res, err := s.col.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil, models.ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("mongo create user: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.model(), nil
}

// GetUserByEmail includes the password hash.
func (s *MongoUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc mongoUser
	if err := s.col.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		return nil, notFound(err, "mongo get user by email")
	}
	return doc.model(), nil
}

func (s *MongoUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	var doc mongoUser
	opts := options.FindOne().SetProjection(withoutPassword)
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		return nil, notFound(err, "mongo get user")
	}
	return doc.model(), nil
}

func (s *MongoUserStore) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	if upd.Empty() {
		return s.GetUserByID(ctx, id)
	}

	set := bson.M{}
	for field, v := range map[string]*string{
		"name":       upd.Name,
		"email":      upd.Email,
		"role":       upd.Role,
		"university": upd.University,
		"bio":        upd.Bio,
	} {
		if v != nil {
			set[field] = *v
		}
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutPassword)
	var doc mongoUser
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil, models.ErrEmailTaken
	}
	if err != nil {
		return nil, notFound(err, "mongo update user")
	}
	return doc.model(), nil
}

// UsersByIDs returns the users found among ids, keyed by id. Ids that are
// not ObjectIDs are skipped.
func (s *MongoUserStore) UsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return out, nil
	}

	opts := options.Find().SetProjection(withoutPassword)
	cur, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo users by ids: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo users by ids: %w", err)
	}
	for i := range docs {
		u := docs[i].model()
		out[u.ID] = u
	}
	return out, nil
}

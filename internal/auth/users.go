package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"essence_back_end/internal/models"
)

const usersCollection = "users"

var ErrUserNotFound = errors.New("utilisateur non trouvé")

// ProfileUpdate - champs modifiables par l'utilisateur, nil = inchangé
type ProfileUpdate struct {
	Name        *string           `json:"name"`
	Avatar      *string           `json:"avatar"`
	Address     *string           `json:"address"`
	Preferences map[string]string `json:"preferences"`
}

// Set construit le $set MongoDB, vide si rien ne change
func (p ProfileUpdate) Set() bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Avatar != nil {
		set["avatar"] = strings.TrimSpace(*p.Avatar)
	}
	if p.Address != nil {
		set["address"] = strings.TrimSpace(*p.Address)
	}
	if p.Preferences != nil {
		set["preferences"] = p.Preferences
	}
	return set
}

type UserStore interface {
	FindByIdentity(ctx context.Context, id Identity) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	RecordLogin(ctx context.Context, id primitive.ObjectID, role string, at time.Time) error
	UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (*models.User, error)
}

type MongoUserStore struct {
	coll *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{coll: db.Collection(usersCollection)}
}

// EnsureIndexes - unicité de l'email et du téléphone quand ils sont renseignés
func (m *MongoUserStore) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	})
	return err
}

func (m *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := m.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (m *MongoUserStore) FindByIdentity(ctx context.Context, id Identity) (*models.User, error) {
	return m.findOne(ctx, bson.M{id.Kind: id.Value})
}

func (m *MongoUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return m.findOne(ctx, bson.M{"_id": oid})
}

func (m *MongoUserStore) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if _, err := m.coll.InsertOne(ctx, u); err != nil {
		return fmt.Errorf("création utilisateur: %w", err)
	}
	return nil
}

func (m *MongoUserStore) RecordLogin(ctx context.Context, id primitive.ObjectID, role string, at time.Time) error {
	_, err := m.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"role": role, "lastLoginAt": at}})
	return err
}

func (m *MongoUserStore) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	set := p.Set()
	if len(set) == 0 {
		return m.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := m.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

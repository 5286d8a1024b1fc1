package orders

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"essence_back_end/internal/models"
)

const ordersCollection = "orders"

// MongoStore - registre des commandes dans MongoDB
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(ordersCollection)}
}

// EnsureIndexes crée les index utilisés par les listes
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

func (m *MongoStore) Create(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := m.coll.InsertOne(ctx, order)
	return err
}

func (m *MongoStore) FindByID(ctx context.Context, id string) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	var order models.Order
	if err := m.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (m *MongoStore) FindByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return m.find(ctx, bson.M{"userId": userID})
}

func (m *MongoStore) FindAll(ctx context.Context, f Filter) ([]models.Order, error) {
	return m.find(ctx, AdminFilter(f))
}

func (m *MongoStore) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("décodage commandes: %w", err)
	}
	return orders, nil
}

func (m *MongoStore) UpdateStatus(ctx context.Context, id string, from models.OrderStatus, change models.StatusChange) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	update := bson.M{
		"$set":  bson.M{"status": change.To, "updatedAt": change.ChangedAt},
		"$push": bson.M{"statusHistory": change},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err = m.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid, "status": from}, update, opts).Decode(&order)
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// Le filtre n'a rien trouvé : commande absente ou statut changé entre-temps
	n, err := m.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrOrderNotFound
	}
	return nil, ErrStatusConflict
}

// AdminFilter construit le filtre MongoDB de la liste admin
func AdminFilter(f Filter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"customer.name": pattern},
			bson.M{"customer.email": pattern},
		}
	}
	return filter
}

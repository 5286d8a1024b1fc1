package offers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"essence_back_end/internal/models"
)

const offersCollection = "offers"

var (
	ErrOfferNotFound = errors.New("offre non trouvée")
	ErrInvalidOffer  = errors.New("offre invalide")
)

// ShortageError - réservation refusée, la quantité restante est trop basse
type ShortageError struct {
	Requested int
	Available int
}

func (e *ShortageError) Error() string {
	return fmt.Sprintf("quantité insuffisante: demandé %d, disponible %d", e.Requested, e.Available)
}

// MongoStore - offres dans MongoDB
type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(offersCollection), now: time.Now}
}

func (m *MongoStore) Get(ctx context.Context, id string) (*models.Offer, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOfferNotFound
	}

	var offer models.Offer
	if err := m.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&offer); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return &offer, nil
}

// List retourne les offres, uniquement les actives si activeOnly
func (m *MongoStore) List(ctx context.Context, activeOnly bool) ([]models.Offer, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	offers := []models.Offer{}
	if err := cursor.All(ctx, &offers); err != nil {
		return nil, fmt.Errorf("décodage offres: %w", err)
	}
	return offers, nil
}

// Validate vérifie une offre avant création
func Validate(o *models.Offer) error {
	o.ItemName = strings.TrimSpace(o.ItemName)
	switch {
	case o.ItemName == "":
		return fmt.Errorf("%w: nom requis", ErrInvalidOffer)
	case o.MRP < 0:
		return fmt.Errorf("%w: prix négatif", ErrInvalidOffer)
	case o.Quantity < 0:
		return fmt.Errorf("%w: quantité négative", ErrInvalidOffer)
	}
	return nil
}

func (m *MongoStore) Create(ctx context.Context, o *models.Offer) error {
	if err := Validate(o); err != nil {
		return err
	}
	now := m.now()
	o.ID = primitive.NewObjectID()
	o.CreatedAt, o.UpdatedAt = now, now
	if _, err := m.coll.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("création offre: %w", err)
	}
	log.Printf("✅ Offre créée: %s (%d en stock)", o.ItemName, o.Quantity)
	return nil
}

// SetQuantity fixe la quantité restante (opération admin)
func (m *MongoStore) SetQuantity(ctx context.Context, id string, qty int) (*models.Offer, error) {
	if qty < 0 {
		return nil, fmt.Errorf("%w: quantité négative", ErrInvalidOffer)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOfferNotFound
	}

	update := bson.M{"$set": bson.M{"quantity": qty, "updatedAt": m.now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var offer models.Offer
	if err := m.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&offer); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return &offer, nil
}

// ReserveFilter ne correspond qu'à une offre ayant encore au moins qty unités
func ReserveFilter(id primitive.ObjectID, qty int) bson.M {
	return bson.M{"_id": id, "quantity": bson.M{"$gte": qty}}
}

// QuantityUpdate incrémente (delta > 0) ou décrémente la quantité
func QuantityUpdate(delta int, now time.Time) bson.M {
	return bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"updatedAt": now},
	}
}

// Reserve décrémente la quantité en une seule opération conditionnelle
func (m *MongoStore) Reserve(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := m.coll.UpdateOne(ctx, ReserveFilter(id, qty), QuantityUpdate(-qty, m.now()))
	if err != nil {
		return fmt.Errorf("réservation offre: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	// rien n'a matché : offre absente ou quantité insuffisante
	offer, err := m.Get(ctx, id.Hex())
	if err != nil {
		return err
	}
	return &ShortageError{Requested: qty, Available: offer.Quantity}
}

func (m *MongoStore) Release(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := m.coll.UpdateOne(ctx, bson.M{"_id": id}, QuantityUpdate(qty, m.now()))
	if err != nil {
		return fmt.Errorf("restitution offre: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrOfferNotFound
	}
	return nil
}

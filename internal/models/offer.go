package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Offer - article vendable hors catalogue, avec son propre stock
type Offer struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ItemName  string             `bson:"itemName" json:"item_name"`
	Size      string             `bson:"size" json:"size"`
	Category  string             `bson:"category" json:"category"`
	MRP       float64            `bson:"mrp" json:"mrp"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	IsActive  bool               `bson:"isActive" json:"is_active"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updated_at"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"user_id"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role        string             `bson:"role" json:"role"`
	Name        string             `bson:"name,omitempty" json:"name,omitempty"`
	Avatar      string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Address     string             `bson:"address,omitempty" json:"address,omitempty"`
	Preferences map[string]string  `bson:"preferences,omitempty" json:"preferences,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	LastLoginAt time.Time          `bson:"lastLoginAt" json:"last_login_at"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the closed set of portal roles. Roles are resolved once when a
// token is parsed, never re-derived from free-form strings in handlers.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
	RoleDonor Role = "donor"
)

// ParseRole maps a stored role string onto the closed enum.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleStaff, RoleDonor:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// CanManage reports whether the role may use the admin CRUD surface.
func (r Role) CanManage() bool {
	return r == RoleAdmin || r == RoleStaff
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

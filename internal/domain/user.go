package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleCoach  Role = "COACH"
	RoleClient Role = "CLIENT"
)

// ValidRole reports whether r is one of the two known roles.
func ValidRole(r Role) bool {
	return r == RoleCoach || r == RoleClient
}

// User represents a user in the system (either a Coach or a Client).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName    string             `bson:"firstName" json:"firstName"`
	LastName     string             `bson:"lastName" json:"lastName"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Coach-specific ---
	// Stores ObjectIDs of Clients managed by this Coach.
	ClientIDs []primitive.ObjectID `bson:"clientIds,omitempty" json:"clientIds,omitempty"`

	// --- Client-specific ---
	// Stores the ObjectID of the Coach managing this Client.
	CoachID *primitive.ObjectID `bson:"coachId,omitempty" json:"coachId,omitempty"`
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

// FullName joins first and last name; used as part of client template slug bases.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is a flat catalog record referenced by exercise slots.
// Coaches either pick an existing record by id or create one inline
// by supplying a name and category.
type Exercise struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Category  string             `bson:"category" json:"category"` // e.g., "Lower Back", "Chest"
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckIn is a periodic review window tied 1:1 to a client template.
// The window is derived at assignment time: it opens on the assignment
// date and closes one day per session later. A check-in only becomes
// actionable once its end date has passed; it is completed exclusively
// by an explicit submission, never by the date elapsing.
type CheckIn struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientTemplateID primitive.ObjectID `bson:"clientTemplateId" json:"clientTemplateId"`
	ClientID         primitive.ObjectID `bson:"clientId" json:"clientId"` // Denormalized for per-client listings
	StartDate        time.Time          `bson:"startDate" json:"startDate"`
	EndDate          time.Time          `bson:"endDate" json:"endDate"`
	Completed        bool               `bson:"completed" json:"completed"`
	CoachComment     *string            `bson:"coachComment,omitempty" json:"coachComment"`
	ClientComment    *string            `bson:"clientComment,omitempty" json:"clientComment"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WindowElapsed reports whether the check-in's window has passed as of
// the given date.
func (c *CheckIn) WindowElapsed(today time.Time) bool {
	return c.EndDate.Before(today)
}

package domain

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientExercise is a per-client copy of an exercise slot with the
// client-specific execution parameters applied.
type ClientExercise struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Category string             `bson:"category" json:"category"`
	Sets     int                `bson:"sets" json:"sets"`
	Reps     int                `bson:"reps" json:"reps"`
	Weight   int                `bson:"weight" json:"weight"`
	Order    int                `bson:"order" json:"order"`
}

// TrainingEntry is a free-form exercise a client logged outside the
// template structure.
type TrainingEntry struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Category string             `bson:"category" json:"category"`
	Sets     int                `bson:"sets" json:"sets"`
	Reps     int                `bson:"reps" json:"reps"`
	Weight   int                `bson:"weight" json:"weight"`
	Order    int                `bson:"order" json:"order"`
}

// ClientSession is one scheduled workout day within a client template.
type ClientSession struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Slug            string             `bson:"slug" json:"slug"` // unique within the parent client template
	Order           int                `bson:"order" json:"order"`
	Completed       bool               `bson:"completed" json:"completed"`
	CompletedDate   *time.Time         `bson:"completedDate,omitempty" json:"completedDate,omitempty"`
	Exercises       []ClientExercise   `bson:"exercises" json:"exercises"`
	TrainingEntries []TrainingEntry    `bson:"trainingEntries" json:"trainingEntries"`
}

// ClientTemplate is a client-owned, independently mutable instantiation
// of a coach Template (or an ad hoc equivalent authored directly for
// one client, in which case SourceTemplateID is nil).
type ClientTemplate struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID         primitive.ObjectID  `bson:"clientId" json:"clientId"`
	SourceTemplateID *primitive.ObjectID `bson:"sourceTemplateId,omitempty" json:"sourceTemplateId,omitempty"`
	Name             string              `bson:"name" json:"name"`
	Slug             string              `bson:"slug" json:"slug"` // unique within the owning client
	Active           bool                `bson:"active" json:"active"`
	Completed        bool                `bson:"completed" json:"completed"`
	StartDate        time.Time           `bson:"startDate" json:"startDate"`
	Sessions         []ClientSession     `bson:"sessions" json:"sessions"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// SessionByID returns the embedded session with the given id, or nil.
func (t *ClientTemplate) SessionByID(id primitive.ObjectID) *ClientSession {
	for i := range t.Sessions {
		if t.Sessions[i].ID == id {
			return &t.Sessions[i]
		}
	}
	return nil
}

// SessionBySlug returns the embedded session with the given slug, or nil.
func (t *ClientTemplate) SessionBySlug(slug string) *ClientSession {
	for i := range t.Sessions {
		if t.Sessions[i].Slug == slug {
			return &t.Sessions[i]
		}
	}
	return nil
}

// HasSessionNamed reports whether a session with the given name already
// exists in the template, excluding the session with id skip.
func (t *ClientTemplate) HasSessionNamed(name string, skip primitive.ObjectID) bool {
	for i := range t.Sessions {
		if t.Sessions[i].Name == name && t.Sessions[i].ID != skip {
			return true
		}
	}
	return false
}

// NextPendingSession returns the lowest-order session that is not yet
// completed, or nil when every session is done.
func (t *ClientTemplate) NextPendingSession() *ClientSession {
	var next *ClientSession
	for i := range t.Sessions {
		s := &t.Sessions[i]
		if s.Completed {
			continue
		}
		if next == nil || s.Order < next.Order {
			next = s
		}
	}
	return next
}

// SessionDueDate is the target completion date for a session of the
// given order: the template start date plus the order in days. The
// stamp does not depend on when the session is actually completed.
func (t *ClientTemplate) SessionDueDate(order int) time.Time {
	return t.StartDate.AddDate(0, 0, order)
}

// SortSessions re-sorts the embedded sessions by their order field.
func (t *ClientTemplate) SortSessions() {
	sort.SliceStable(t.Sessions, func(i, j int) bool {
		return t.Sessions[i].Order < t.Sessions[j].Order
	})
}

package domain

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseSlot places a catalog exercise at a position within a session.
type ExerciseSlot struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Order      int                `bson:"order" json:"order"`
}

// Session is one scheduled workout day within a coach template.
// Order is 1-based and dense; it doubles as the day offset from the
// start date once the template is assigned.
type Session struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Slug  string             `bson:"slug" json:"slug"` // unique within the parent template
	Order int                `bson:"order" json:"order"`
	Slots []ExerciseSlot     `bson:"slots" json:"slots"`
}

// Template is a coach-authored reusable workout blueprint. It is never
// executed by a client directly; assignment produces an independently
// mutable ClientTemplate copy.
type Template struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID   primitive.ObjectID `bson:"coachId" json:"coachId"`
	Name      string             `bson:"name" json:"name"`
	Slug      string             `bson:"slug" json:"slug"` // unique across all templates
	Sessions  []Session          `bson:"sessions" json:"sessions"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SessionByID returns the embedded session with the given id, or nil.
func (t *Template) SessionByID(id primitive.ObjectID) *Session {
	for i := range t.Sessions {
		if t.Sessions[i].ID == id {
			return &t.Sessions[i]
		}
	}
	return nil
}

// SessionBySlug returns the embedded session with the given slug, or nil.
func (t *Template) SessionBySlug(slug string) *Session {
	for i := range t.Sessions {
		if t.Sessions[i].Slug == slug {
			return &t.Sessions[i]
		}
	}
	return nil
}

// SortSessions re-sorts the embedded sessions by their order field.
func (t *Template) SortSessions() {
	sort.SliceStable(t.Sessions, func(i, j int) bool {
		return t.Sessions[i].Order < t.Sessions[j].Order
	})
}

// HasSessionNamed reports whether a session with the given name already
// exists in the template, excluding the session with id skip.
func (t *Template) HasSessionNamed(name string, skip primitive.ObjectID) bool {
	for i := range t.Sessions {
		if t.Sessions[i].Name == name && t.Sessions[i].ID != skip {
			return true
		}
	}
	return false
}

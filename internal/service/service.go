package service

import (
	"time"

	"peakform/coaching-app/internal/domain"
	"peakform/coaching-app/internal/slug"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Caller identifies the authenticated user an operation runs as. A
// CLIENT caller is implicitly scoped to their own data; a COACH may act
// across clients.
type Caller struct {
	UserID primitive.ObjectID
	Role   domain.Role
}

func (c Caller) mayAccessClient(clientID primitive.ObjectID) bool {
	return c.Role == domain.RoleCoach || c.UserID == clientID
}

// today returns the current UTC date at midnight. All scheduling
// arithmetic (start dates, check-in windows, completion stamps) works
// in whole days, so the time-of-day component is always zeroed.
func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// generateSlug adapts a fallible existence check (usually a repository
// lookup) to the pure slug generator.
func generateSlug(base string, exists func(candidate string) (bool, error)) (string, error) {
	var checkErr error
	result := slug.Generate(base, func(candidate string) bool {
		if checkErr != nil {
			return false
		}
		var taken bool
		taken, checkErr = exists(candidate)
		return taken
	})
	if checkErr != nil {
		return "", checkErr
	}
	return result, nil
}

// SessionExerciseInput is one exercise row supplied by a caller when
// building or replacing a session's exercise list. ExerciseID
// optionally points at a catalog record; otherwise Name+Category are
// used to resolve or create one where catalog resolution applies.
type SessionExerciseInput struct {
	ExerciseID *primitive.ObjectID `json:"exerciseId,omitempty"`
	Name       string              `json:"name"`
	Category   string              `json:"category"`
	Sets       int                 `json:"sets"`
	Reps       int                 `json:"reps"`
	Weight     int                 `json:"weight"`
	Order      int                 `json:"order"`
}

// SessionOrder reassigns the order of one session within a template.
type SessionOrder struct {
	SessionID primitive.ObjectID `json:"sessionId"`
	Order     int                `json:"order"`
}

package repository

import (
	"context"

	"peakform/coaching-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Transactor runs fn within a single store transaction. Every write fn
// performs through a repository must either commit as a whole or not at
// all; concurrent readers never observe a partial graph.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddClientIDToCoach(ctx context.Context, coachID, clientID primitive.ObjectID) error
	SetCoachForClient(ctx context.Context, clientID, coachID primitive.ObjectID) error
	GetClientsByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
}

// ExerciseRepository defines the interface for the flat exercise catalog.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByNameAndCategory(ctx context.Context, name, category string) (*domain.Exercise, error)
	GetAll(ctx context.Context) ([]domain.Exercise, error)
}

// TemplateRepository stores coach template graphs. A template document
// embeds its full session/slot subtree, so Update persists the whole
// graph and Delete cascades to all owned children by construction.
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Template, error)
	GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) (*domain.Template, error)
	GetAll(ctx context.Context) ([]domain.Template, error)
	Update(ctx context.Context, template *domain.Template) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// ClientTemplateRepository stores client template graphs, embedded the
// same way. Slugs are scoped per owning client.
type ClientTemplateRepository interface {
	Create(ctx context.Context, template *domain.ClientTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientTemplate, error)
	GetBySlug(ctx context.Context, clientID primitive.ObjectID, slug string) (*domain.ClientTemplate, error)
	GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) (*domain.ClientTemplate, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.ClientTemplate, error)
	GetActiveByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.ClientTemplate, error)
	Update(ctx context.Context, template *domain.ClientTemplate) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	SlugExists(ctx context.Context, clientID primitive.ObjectID, slug string) (bool, error)
}

// CheckInRepository defines the interface for check-in data.
type CheckInRepository interface {
	Create(ctx context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CheckIn, error)
	GetByClientTemplateID(ctx context.Context, templateID primitive.ObjectID) (*domain.CheckIn, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.CheckIn, error)
	GetAll(ctx context.Context) ([]domain.CheckIn, error)
	Update(ctx context.Context, checkIn *domain.CheckIn) error
}

// UploadRepository defines the interface for progress photo metadata.
type UploadRepository interface {
	Create(ctx context.Context, upload *domain.Upload) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Upload, error)
	GetByCheckInID(ctx context.Context, checkInID primitive.ObjectID) ([]domain.Upload, error)
}

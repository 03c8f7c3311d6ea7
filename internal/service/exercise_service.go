package service

import (
	"context"
	"errors"

	"peakform/coaching-app/internal/domain"
	"peakform/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseService exposes the flat exercise catalog. The catalog has no
// interesting invariants of its own; templates reference it by id and
// coaches create records inline while editing sessions.
type ExerciseService interface {
	Create(ctx context.Context, name, category string) (*domain.Exercise, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	List(ctx context.Context) ([]domain.Exercise, error)
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(exerciseRepo repository.ExerciseRepository) ExerciseService {
	return &exerciseService{exerciseRepo: exerciseRepo}
}

// Create adds a catalog record, returning the existing one when the
// name+category pair is already present.
func (s *exerciseService) Create(ctx context.Context, name, category string) (*domain.Exercise, error) {
	if name == "" || category == "" {
		return nil, domain.Validationf("exercise name and category are required")
	}
	return resolveExercise(ctx, s.exerciseRepo, nil, name, category)
}

// Get retrieves a single catalog record.
func (s *exerciseService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("exercise %s not found", id.Hex())
		}
		return nil, err
	}
	return exercise, nil
}

// List retrieves the whole catalog.
func (s *exerciseService) List(ctx context.Context) ([]domain.Exercise, error) {
	return s.exerciseRepo.GetAll(ctx)
}

// resolveExercise implements the resolve-or-create contract used during
// template authoring and assignment: an explicit id must exist, while a
// name+category pair resolves to the matching record or creates one.
func resolveExercise(ctx context.Context, repo repository.ExerciseRepository, id *primitive.ObjectID, name, category string) (*domain.Exercise, error) {
	if id != nil {
		exercise, err := repo.GetByID(ctx, *id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, domain.NotFoundf("exercise %s not found", id.Hex())
			}
			return nil, err
		}
		return exercise, nil
	}

	if name == "" || category == "" {
		return nil, domain.Validationf("exercise requires an id or a name and category")
	}

	exercise, err := repo.GetByNameAndCategory(ctx, name, category)
	if err == nil {
		return exercise, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	exercise = &domain.Exercise{Name: name, Category: category}
	exerciseID, err := repo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	exercise.ID = exerciseID
	return exercise, nil
}

package service

import (
	"context"
	"errors"
	"time"

	"peakform/coaching-app/internal/domain"
	"peakform/coaching-app/internal/repository"
	"peakform/coaching-app/internal/slug"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientTemplateUpdate mutates a client template partially: only
// supplied fields change. SessionOrders reassigns the order of the
// named sessions; sessions not listed keep their prior order.
type ClientTemplateUpdate struct {
	Name          *string        `json:"name,omitempty"`
	Active        *bool          `json:"active,omitempty"`
	StartDate     *time.Time     `json:"startDate,omitempty"`
	SessionOrders []SessionOrder `json:"sessionOrders,omitempty"`
}

// ClientSessionInput adds a session to an existing client template.
// The caller's role decides where the exercise rows land: a coach
// authors structured template exercises, a client logs free-form
// training entries.
type ClientSessionInput struct {
	Name      string                 `json:"name"`
	Order     int                    `json:"order"`
	Exercises []SessionExerciseInput `json:"exercises"`
}

// ClientSessionUpdate mutates one client session. A non-nil exercise or
// training-entry list replaces the prior list wholesale; rows omitted
// from the update are removed. Completed=true stamps the completion
// date from the owning template's start date and the session's order;
// any other value leaves completion state untouched.
type ClientSessionUpdate struct {
	Name            *string                `json:"name,omitempty"`
	Completed       *bool                  `json:"completed,omitempty"`
	Exercises       []SessionExerciseInput `json:"exercises,omitempty"`
	TrainingEntries []SessionExerciseInput `json:"trainingEntries,omitempty"`
}

// ClientService covers the client-side surface: the client's template
// graphs and the progression tracker over them.
type ClientService interface {
	ListTemplates(ctx context.Context, clientID primitive.ObjectID) ([]domain.ClientTemplate, error)
	GetTemplate(ctx context.Context, clientID primitive.ObjectID, ref TemplateRef) (*domain.ClientTemplate, error)
	GetActiveTemplate(ctx context.Context, clientID primitive.ObjectID) (*domain.ClientTemplate, error)
	UpdateTemplate(ctx context.Context, caller Caller, templateID primitive.ObjectID, update ClientTemplateUpdate) (*domain.ClientTemplate, error)
	DeleteTemplate(ctx context.Context, caller Caller, templateID primitive.ObjectID) error

	CreateSession(ctx context.Context, caller Caller, templateID primitive.ObjectID, input ClientSessionInput) (*domain.ClientTemplate, error)
	UpdateSession(ctx context.Context, caller Caller, sessionID primitive.ObjectID, update ClientSessionUpdate) (*domain.ClientSession, error)

	NextSession(ctx context.Context, clientID primitive.ObjectID) (*domain.ClientSession, error)
	TrainingLog(ctx context.Context, clientID primitive.ObjectID, page, pageSize int) ([]domain.ClientSession, error)
}

// clientService implements the ClientService interface.
type clientService struct {
	clientTemplateRepo repository.ClientTemplateRepository
	exerciseRepo       repository.ExerciseRepository
}

// NewClientService creates a new instance of clientService.
func NewClientService(
	clientTemplateRepo repository.ClientTemplateRepository,
	exerciseRepo repository.ExerciseRepository,
) ClientService {
	return &clientService{
		clientTemplateRepo: clientTemplateRepo,
		exerciseRepo:       exerciseRepo,
	}
}

// === Template Store ===

// ListTemplates retrieves all templates owned by the client.
func (s *clientService) ListTemplates(ctx context.Context, clientID primitive.ObjectID) ([]domain.ClientTemplate, error) {
	if clientID == primitive.NilObjectID {
		return nil, domain.Validationf("client id is required")
	}
	return s.clientTemplateRepo.GetByClientID(ctx, clientID)
}

// GetTemplate retrieves one of the client's templates by id or slug.
func (s *clientService) GetTemplate(ctx context.Context, clientID primitive.ObjectID, ref TemplateRef) (*domain.ClientTemplate, error) {
	if clientID == primitive.NilObjectID {
		return nil, domain.Validationf("client id is required")
	}
	if err := ref.validate(); err != nil {
		return nil, err
	}

	var (
		template *domain.ClientTemplate
		err      error
	)
	if ref.ID != nil {
		template, err = s.clientTemplateRepo.GetByID(ctx, *ref.ID)
		if err == nil && template.ClientID != clientID {
			return nil, domain.Authorizationf("template belongs to a different client")
		}
	} else {
		template, err = s.clientTemplateRepo.GetBySlug(ctx, clientID, ref.Slug)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("client template not found")
		}
		return nil, err
	}
	template.SortSessions()
	return template, nil
}

// GetActiveTemplate resolves the client's single active template. Zero
// active templates is a not-found; more than one is the surfaced
// invariant violation, never resolved by an arbitrary pick.
func (s *clientService) GetActiveTemplate(ctx context.Context, clientID primitive.ObjectID) (*domain.ClientTemplate, error) {
	return activeTemplate(ctx, s.clientTemplateRepo, clientID)
}

// activeTemplate centralizes the single-active invariant check so every
// read path surfaces a violation the same way.
func activeTemplate(ctx context.Context, repo repository.ClientTemplateRepository, clientID primitive.ObjectID) (*domain.ClientTemplate, error) {
	if clientID == primitive.NilObjectID {
		return nil, domain.Validationf("client id is required")
	}

	active, err := repo.GetActiveByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	switch len(active) {
	case 0:
		return nil, domain.NotFoundf("no active template for client %s", clientID.Hex())
	case 1:
		active[0].SortSessions()
		return &active[0], nil
	default:
		return nil, domain.Conflictf("client %s has %d active templates", clientID.Hex(), len(active))
	}
}

// UpdateTemplate applies a partial update to a client template.
func (s *clientService) UpdateTemplate(ctx context.Context, caller Caller, templateID primitive.ObjectID, update ClientTemplateUpdate) (*domain.ClientTemplate, error) {
	if templateID == primitive.NilObjectID {
		return nil, domain.Validationf("template id is required")
	}

	template, err := s.clientTemplateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("client template %s not found", templateID.Hex())
		}
		return nil, err
	}
	if !caller.mayAccessClient(template.ClientID) {
		return nil, domain.Authorizationf("template belongs to a different client")
	}

	if update.Name != nil && *update.Name != template.Name {
		if *update.Name == "" {
			return nil, domain.Validationf("template name cannot be empty")
		}
		// The template's own slug does not count as a collision, so a
		// rename to an equivalent name keeps it.
		newSlug, err := generateSlug(*update.Name, func(candidate string) (bool, error) {
			if candidate == template.Slug {
				return false, nil
			}
			return s.clientTemplateRepo.SlugExists(ctx, template.ClientID, candidate)
		})
		if err != nil {
			return nil, err
		}
		template.Name = *update.Name
		template.Slug = newSlug
	}
	if update.Active != nil {
		template.Active = *update.Active
	}
	if update.StartDate != nil {
		template.StartDate = *update.StartDate
	}

	for _, so := range update.SessionOrders {
		session := template.SessionByID(so.SessionID)
		if session == nil {
			return nil, domain.NotFoundf("session %s not found in template %s", so.SessionID.Hex(), templateID.Hex())
		}
		session.Order = so.Order
	}
	template.SortSessions()

	if err := s.clientTemplateRepo.Update(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// DeleteTemplate removes a client template graph and everything under it.
func (s *clientService) DeleteTemplate(ctx context.Context, caller Caller, templateID primitive.ObjectID) error {
	if templateID == primitive.NilObjectID {
		return domain.Validationf("template id is required")
	}

	template, err := s.clientTemplateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFoundf("client template %s not found", templateID.Hex())
		}
		return err
	}
	if !caller.mayAccessClient(template.ClientID) {
		return domain.Authorizationf("template belongs to a different client")
	}

	err = s.clientTemplateRepo.Delete(ctx, templateID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFoundf("client template %s not found", templateID.Hex())
	}
	return err
}

// === Session Authoring ===

// CreateSession appends a session to a client template. Coach-authored
// sessions carry structured exercises resolved against the catalog;
// client-authored sessions carry free-form training entries.
func (s *clientService) CreateSession(ctx context.Context, caller Caller, templateID primitive.ObjectID, input ClientSessionInput) (*domain.ClientTemplate, error) {
	if templateID == primitive.NilObjectID {
		return nil, domain.Validationf("template id is required")
	}
	if input.Name == "" {
		return nil, domain.Validationf("session name is required")
	}

	template, err := s.clientTemplateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("client template %s not found", templateID.Hex())
		}
		return nil, err
	}
	if !caller.mayAccessClient(template.ClientID) {
		return nil, domain.Authorizationf("template belongs to a different client")
	}
	if template.HasSessionNamed(input.Name, primitive.NilObjectID) {
		return nil, domain.Conflictf("session named %q already exists in template %q", input.Name, template.Name)
	}

	session := domain.ClientSession{
		ID:    primitive.NewObjectID(),
		Name:  input.Name,
		Order: input.Order,
	}
	session.Slug = slug.Generate(input.Name, func(candidate string) bool {
		return template.SessionBySlug(candidate) != nil
	})

	if caller.Role == domain.RoleCoach {
		for _, exerciseInput := range input.Exercises {
			exercise, err := resolveExercise(ctx, s.exerciseRepo, exerciseInput.ExerciseID, exerciseInput.Name, exerciseInput.Category)
			if err != nil {
				return nil, err
			}
			session.Exercises = append(session.Exercises, domain.ClientExercise{
				ID:       primitive.NewObjectID(),
				Name:     exercise.Name,
				Category: exercise.Category,
				Sets:     exerciseInput.Sets,
				Reps:     exerciseInput.Reps,
				Weight:   exerciseInput.Weight,
				Order:    exerciseInput.Order,
			})
		}
	} else {
		session.TrainingEntries = buildTrainingEntries(input.Exercises)
	}

	template.Sessions = append(template.Sessions, session)
	template.SortSessions()

	if err := s.clientTemplateRepo.Update(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// UpdateSession applies completion/rename/replacement semantics to one
// client session and persists the owning template graph.
func (s *clientService) UpdateSession(ctx context.Context, caller Caller, sessionID primitive.ObjectID, update ClientSessionUpdate) (*domain.ClientSession, error) {
	if sessionID == primitive.NilObjectID {
		return nil, domain.Validationf("session id is required")
	}

	template, err := s.clientTemplateRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("session %s not found", sessionID.Hex())
		}
		return nil, err
	}
	if !caller.mayAccessClient(template.ClientID) {
		return nil, domain.Authorizationf("session belongs to a different client")
	}

	session, err := applyClientSessionUpdate(template, sessionID, update)
	if err != nil {
		return nil, err
	}
	if err := s.clientTemplateRepo.Update(ctx, template); err != nil {
		return nil, err
	}
	return session, nil
}

// applyClientSessionUpdate mutates the embedded session in place. The
// check-in submission path applies the same semantics inside its own
// transaction, so the logic lives here once.
func applyClientSessionUpdate(template *domain.ClientTemplate, sessionID primitive.ObjectID, update ClientSessionUpdate) (*domain.ClientSession, error) {
	session := template.SessionByID(sessionID)
	if session == nil {
		return nil, domain.NotFoundf("session %s not found", sessionID.Hex())
	}

	if update.Name != nil && *update.Name != session.Name {
		if *update.Name == "" {
			return nil, domain.Validationf("session name cannot be empty")
		}
		if template.HasSessionNamed(*update.Name, session.ID) {
			return nil, domain.Conflictf("session named %q already exists in template %q", *update.Name, template.Name)
		}
		session.Name = *update.Name
		session.Slug = slug.Generate(*update.Name, func(candidate string) bool {
			other := template.SessionBySlug(candidate)
			return other != nil && other.ID != session.ID
		})
	}

	if update.Exercises != nil {
		session.Exercises = buildClientExercises(update.Exercises)
	}
	if update.TrainingEntries != nil {
		session.TrainingEntries = buildTrainingEntries(update.TrainingEntries)
	}

	// The completion stamp is the session's scheduled date, not the
	// wall-clock time the flag was flipped.
	if update.Completed != nil && *update.Completed && !session.Completed {
		session.Completed = true
		completedDate := template.SessionDueDate(session.Order)
		session.CompletedDate = &completedDate
	}
	return session, nil
}

func buildClientExercises(inputs []SessionExerciseInput) []domain.ClientExercise {
	exercises := make([]domain.ClientExercise, 0, len(inputs))
	for _, in := range inputs {
		exercises = append(exercises, domain.ClientExercise{
			ID:       primitive.NewObjectID(),
			Name:     in.Name,
			Category: in.Category,
			Sets:     in.Sets,
			Reps:     in.Reps,
			Weight:   in.Weight,
			Order:    in.Order,
		})
	}
	return exercises
}

func buildTrainingEntries(inputs []SessionExerciseInput) []domain.TrainingEntry {
	entries := make([]domain.TrainingEntry, 0, len(inputs))
	for _, in := range inputs {
		entries = append(entries, domain.TrainingEntry{
			ID:       primitive.NewObjectID(),
			Name:     in.Name,
			Category: in.Category,
			Sets:     in.Sets,
			Reps:     in.Reps,
			Weight:   in.Weight,
			Order:    in.Order,
		})
	}
	return entries
}

// === Progression Tracker ===

// NextSession returns the lowest-order pending session of the client's
// active template. A nil session with a nil error means every session
// is complete, which is distinct from having no active template.
func (s *clientService) NextSession(ctx context.Context, clientID primitive.ObjectID) (*domain.ClientSession, error) {
	template, err := activeTemplate(ctx, s.clientTemplateRepo, clientID)
	if err != nil {
		return nil, err
	}
	return template.NextPendingSession(), nil
}

// TrainingLog returns the completed sessions of the client's active
// template ordered by session order, windowed by a 1-based page and
// page size. Non-positive page or size returns everything.
func (s *clientService) TrainingLog(ctx context.Context, clientID primitive.ObjectID, page, pageSize int) ([]domain.ClientSession, error) {
	template, err := activeTemplate(ctx, s.clientTemplateRepo, clientID)
	if err != nil {
		return nil, err
	}

	completed := make([]domain.ClientSession, 0, len(template.Sessions))
	for _, session := range template.Sessions {
		if session.Completed {
			completed = append(completed, session)
		}
	}

	if page <= 0 || pageSize <= 0 {
		return completed, nil
	}
	start := (page - 1) * pageSize
	if start >= len(completed) {
		return []domain.ClientSession{}, nil
	}
	end := start + pageSize
	if end > len(completed) {
		end = len(completed)
	}
	return completed[start:end], nil
}

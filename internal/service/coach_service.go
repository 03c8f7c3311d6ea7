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

// TemplateRef identifies a template by numeric id or by slug. Exactly
// one of the two must be supplied.
type TemplateRef struct {
	ID   *primitive.ObjectID
	Slug string
}

func (r TemplateRef) validate() error {
	if (r.ID == nil) == (r.Slug == "") {
		return domain.Validationf("exactly one of id or slug must be supplied")
	}
	return nil
}

// TemplateSlotInput places one catalog exercise in a session being
// authored. Either ExerciseID or Name+Category resolves the record.
type TemplateSlotInput struct {
	ExerciseID *primitive.ObjectID `json:"exerciseId,omitempty"`
	Name       string              `json:"name"`
	Category   string              `json:"category"`
	Order      int                 `json:"order"`
}

// TemplateSessionInput is one session of a coach template being authored.
type TemplateSessionInput struct {
	Name  string              `json:"name"`
	Order int                 `json:"order"`
	Slots []TemplateSlotInput `json:"slots"`
}

// TemplateInput creates a coach template graph.
type TemplateInput struct {
	Name     string                 `json:"name"`
	Sessions []TemplateSessionInput `json:"sessions"`
}

// TemplateUpdate mutates a coach template partially: only supplied
// fields change. SessionOrders reassigns the order of the named
// sessions; sessions not listed keep their prior order.
type TemplateUpdate struct {
	Name          *string        `json:"name,omitempty"`
	SessionOrders []SessionOrder `json:"sessionOrders,omitempty"`
}

// TemplateSessionUpdate mutates one coach session partially. A non-nil
// Slots list replaces the slot list wholesale.
type TemplateSessionUpdate struct {
	Name  *string             `json:"name,omitempty"`
	Slots []TemplateSlotInput `json:"slots,omitempty"`
}

// ExerciseOverride is the client-specific execution triple applied to
// one source slot during assignment.
type ExerciseOverride struct {
	Sets   int `json:"sets"`
	Reps   int `json:"reps"`
	Weight int `json:"weight"`
}

// AdHocSessionInput is one inline session definition on the ad hoc
// assignment path.
type AdHocSessionInput struct {
	Name      string                 `json:"name"`
	Order     int                    `json:"order"`
	Exercises []SessionExerciseInput `json:"exercises"`
}

// AssignmentInput instantiates a client template. Exactly one source
// must be supplied: SourceID (with SourceRole selecting whether it
// names a coach Template or a prior ClientTemplate) or inline Sessions.
// On the coach-template copy path Overrides must contain an entry for
// every slot of the source template, keyed by the slot id hex.
type AssignmentInput struct {
	ClientID   primitive.ObjectID          `json:"clientId"`
	SourceRole domain.Role                 `json:"role"`
	SourceID   *primitive.ObjectID         `json:"sourceId,omitempty"`
	Sessions   []AdHocSessionInput         `json:"sessions,omitempty"`
	Overrides  map[string]ExerciseOverride `json:"overrides,omitempty"`
	StartDate  *time.Time                  `json:"startDate,omitempty"`
}

// CoachService covers the coach-side surface: managed clients, template
// authoring and the assignment engine.
type CoachService interface {
	// Client management
	AddClientByEmail(ctx context.Context, coachID primitive.ObjectID, clientEmail string) (*domain.User, error)
	GetClients(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)

	// Template authoring
	CreateTemplate(ctx context.Context, coachID primitive.ObjectID, input TemplateInput) (*domain.Template, error)
	GetTemplate(ctx context.Context, ref TemplateRef) (*domain.Template, error)
	ListTemplates(ctx context.Context) ([]domain.Template, error)
	UpdateTemplate(ctx context.Context, templateID primitive.ObjectID, update TemplateUpdate) (*domain.Template, error)
	DeleteTemplate(ctx context.Context, templateID primitive.ObjectID) error

	// Session authoring
	AddSession(ctx context.Context, templateID primitive.ObjectID, input TemplateSessionInput) (*domain.Template, error)
	UpdateSession(ctx context.Context, sessionID primitive.ObjectID, update TemplateSessionUpdate) (*domain.Template, error)

	// Assignment engine
	AssignTemplate(ctx context.Context, input AssignmentInput) (*domain.ClientTemplate, error)
}

// coachService implements the CoachService interface.
type coachService struct {
	userRepo           repository.UserRepository
	templateRepo       repository.TemplateRepository
	clientTemplateRepo repository.ClientTemplateRepository
	checkInRepo        repository.CheckInRepository
	exerciseRepo       repository.ExerciseRepository
	transactor         repository.Transactor
}

// NewCoachService creates a new instance of coachService.
func NewCoachService(
	userRepo repository.UserRepository,
	templateRepo repository.TemplateRepository,
	clientTemplateRepo repository.ClientTemplateRepository,
	checkInRepo repository.CheckInRepository,
	exerciseRepo repository.ExerciseRepository,
	transactor repository.Transactor,
) CoachService {
	return &coachService{
		userRepo:           userRepo,
		templateRepo:       templateRepo,
		clientTemplateRepo: clientTemplateRepo,
		checkInRepo:        checkInRepo,
		exerciseRepo:       exerciseRepo,
		transactor:         transactor,
	}
}

// === Client Management ===

// AddClientByEmail finds a client by email and assigns them to the coach.
func (s *coachService) AddClientByEmail(ctx context.Context, coachID primitive.ObjectID, clientEmail string) (*domain.User, error) {
	if coachID == primitive.NilObjectID || clientEmail == "" {
		return nil, domain.Validationf("coach id and client email are required")
	}

	client, err := s.userRepo.GetByEmail(ctx, clientEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("no user with email %s", clientEmail)
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, domain.Validationf("user %s is not a client", clientEmail)
	}

	if client.CoachID != nil && *client.CoachID != primitive.NilObjectID {
		if *client.CoachID == coachID {
			client.PasswordHash = ""
			return client, nil
		}
		return nil, domain.Conflictf("client %s already has a coach", clientEmail)
	}

	// Both user records change; keep them consistent.
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.AddClientIDToCoach(ctx, coachID, client.ID); err != nil {
			return err
		}
		return s.userRepo.SetCoachForClient(ctx, client.ID, coachID)
	})
	if err != nil {
		return nil, err
	}

	client.CoachID = &coachID
	client.PasswordHash = ""
	return client, nil
}

// GetClients retrieves the list of clients managed by the coach.
func (s *coachService) GetClients(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	if coachID == primitive.NilObjectID {
		return nil, domain.Validationf("coach id is required")
	}
	clients, err := s.userRepo.GetClientsByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		clients[i].PasswordHash = ""
	}
	return clients, nil
}

// === Template Authoring ===

// CreateTemplate builds and persists a coach template graph.
func (s *coachService) CreateTemplate(ctx context.Context, coachID primitive.ObjectID, input TemplateInput) (*domain.Template, error) {
	if coachID == primitive.NilObjectID {
		return nil, domain.Validationf("coach id is required")
	}
	if input.Name == "" {
		return nil, domain.Validationf("template name is required")
	}

	templateSlug, err := generateSlug(input.Name, func(candidate string) (bool, error) {
		return s.templateRepo.SlugExists(ctx, candidate)
	})
	if err != nil {
		return nil, err
	}

	template := &domain.Template{
		CoachID: coachID,
		Name:    input.Name,
		Slug:    templateSlug,
	}
	for _, sessionInput := range input.Sessions {
		session, err := s.buildSession(ctx, template, sessionInput)
		if err != nil {
			return nil, err
		}
		template.Sessions = append(template.Sessions, *session)
	}
	template.SortSessions()

	templateID, err := s.templateRepo.Create(ctx, template)
	if err != nil {
		return nil, err
	}
	template.ID = templateID
	return template, nil
}

// buildSession validates one session definition against the template
// built so far and materializes it with fresh ids and a scoped slug.
func (s *coachService) buildSession(ctx context.Context, template *domain.Template, input TemplateSessionInput) (*domain.Session, error) {
	if input.Name == "" {
		return nil, domain.Validationf("session name is required")
	}
	if template.HasSessionNamed(input.Name, primitive.NilObjectID) {
		return nil, domain.Conflictf("session named %q already exists in template %q", input.Name, template.Name)
	}

	session := &domain.Session{
		ID:    primitive.NewObjectID(),
		Name:  input.Name,
		Order: input.Order,
	}
	session.Slug = slug.Generate(input.Name, func(candidate string) bool {
		return template.SessionBySlug(candidate) != nil
	})

	for _, slotInput := range input.Slots {
		exercise, err := resolveExercise(ctx, s.exerciseRepo, slotInput.ExerciseID, slotInput.Name, slotInput.Category)
		if err != nil {
			return nil, err
		}
		session.Slots = append(session.Slots, domain.ExerciseSlot{
			ID:         primitive.NewObjectID(),
			ExerciseID: exercise.ID,
			Order:      slotInput.Order,
		})
	}
	return session, nil
}

// GetTemplate retrieves a template graph by id or slug.
func (s *coachService) GetTemplate(ctx context.Context, ref TemplateRef) (*domain.Template, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}

	var (
		template *domain.Template
		err      error
	)
	if ref.ID != nil {
		template, err = s.templateRepo.GetByID(ctx, *ref.ID)
	} else {
		template, err = s.templateRepo.GetBySlug(ctx, ref.Slug)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("template not found")
		}
		return nil, err
	}
	template.SortSessions()
	return template, nil
}

// ListTemplates retrieves all coach templates.
func (s *coachService) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	return s.templateRepo.GetAll(ctx)
}

// UpdateTemplate applies a partial update to a coach template.
func (s *coachService) UpdateTemplate(ctx context.Context, templateID primitive.ObjectID, update TemplateUpdate) (*domain.Template, error) {
	if templateID == primitive.NilObjectID {
		return nil, domain.Validationf("template id is required")
	}

	template, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("template %s not found", templateID.Hex())
		}
		return nil, err
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
			return s.templateRepo.SlugExists(ctx, candidate)
		})
		if err != nil {
			return nil, err
		}
		template.Name = *update.Name
		template.Slug = newSlug
	}

	for _, so := range update.SessionOrders {
		session := template.SessionByID(so.SessionID)
		if session == nil {
			return nil, domain.NotFoundf("session %s not found in template %s", so.SessionID.Hex(), templateID.Hex())
		}
		session.Order = so.Order
	}
	template.SortSessions()

	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// DeleteTemplate removes a template graph; embedded sessions and slots
// go with it.
func (s *coachService) DeleteTemplate(ctx context.Context, templateID primitive.ObjectID) error {
	if templateID == primitive.NilObjectID {
		return domain.Validationf("template id is required")
	}
	err := s.templateRepo.Delete(ctx, templateID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFoundf("template %s not found", templateID.Hex())
	}
	return err
}

// AddSession appends a session to an existing template.
func (s *coachService) AddSession(ctx context.Context, templateID primitive.ObjectID, input TemplateSessionInput) (*domain.Template, error) {
	if templateID == primitive.NilObjectID {
		return nil, domain.Validationf("template id is required")
	}

	template, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("template %s not found", templateID.Hex())
		}
		return nil, err
	}

	session, err := s.buildSession(ctx, template, input)
	if err != nil {
		return nil, err
	}
	template.Sessions = append(template.Sessions, *session)
	template.SortSessions()

	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// UpdateSession applies a partial update to one coach session. A
// supplied slot list replaces the existing slots wholesale.
func (s *coachService) UpdateSession(ctx context.Context, sessionID primitive.ObjectID, update TemplateSessionUpdate) (*domain.Template, error) {
	if sessionID == primitive.NilObjectID {
		return nil, domain.Validationf("session id is required")
	}

	template, err := s.templateRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("session %s not found", sessionID.Hex())
		}
		return nil, err
	}
	session := template.SessionByID(sessionID)

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

	if update.Slots != nil {
		slots := make([]domain.ExerciseSlot, 0, len(update.Slots))
		for _, slotInput := range update.Slots {
			exercise, err := resolveExercise(ctx, s.exerciseRepo, slotInput.ExerciseID, slotInput.Name, slotInput.Category)
			if err != nil {
				return nil, err
			}
			slots = append(slots, domain.ExerciseSlot{
				ID:         primitive.NewObjectID(),
				ExerciseID: exercise.ID,
				Order:      slotInput.Order,
			})
		}
		session.Slots = slots
	}

	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// === Assignment Engine ===

// AssignTemplate instantiates a client-owned template copy, either from
// a source template graph or from inline ad hoc sessions, and creates
// the associated check-in in the same transaction. A prior active
// template is deliberately left untouched: deactivating it would
// silently discard in-progress client data, so a double assignment
// surfaces as a conflict on the active-template read instead.
func (s *coachService) AssignTemplate(ctx context.Context, input AssignmentInput) (*domain.ClientTemplate, error) {
	if input.ClientID == primitive.NilObjectID {
		return nil, domain.Validationf("client id is required")
	}
	if (input.SourceID == nil) == (len(input.Sessions) == 0) {
		return nil, domain.Validationf("exactly one of a source template id or inline sessions must be supplied")
	}
	if input.SourceID != nil && !domain.ValidRole(input.SourceRole) {
		return nil, domain.Validationf("role must be %s or %s", domain.RoleCoach, domain.RoleClient)
	}

	client, err := s.userRepo.GetByID(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("client %s not found", input.ClientID.Hex())
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, domain.Validationf("user %s is not a client", input.ClientID.Hex())
	}

	startDate := today()
	if input.StartDate != nil {
		startDate = *input.StartDate
	}

	clientTemplate := &domain.ClientTemplate{
		ClientID:  input.ClientID,
		Active:    true,
		Completed: false,
		StartDate: startDate,
	}

	switch {
	case input.SourceID == nil:
		err = s.buildAdHocSessions(ctx, clientTemplate, input.Sessions)
		if err != nil {
			return nil, err
		}
		clientTemplate.Name = client.FullName() + " program"
	case input.SourceRole == domain.RoleClient:
		err = s.copyFromClientTemplate(ctx, clientTemplate, *input.SourceID, input.Overrides)
		if err != nil {
			return nil, err
		}
	default:
		err = s.copyFromTemplate(ctx, clientTemplate, *input.SourceID, input.Overrides)
		if err != nil {
			return nil, err
		}
	}

	// Repeated assignment of the same template to the same client stays
	// slug-distinguishable via the numeric-suffix rule.
	slugBase := clientTemplate.Name + " " + client.FullName()
	clientTemplate.Slug, err = generateSlug(slugBase, func(candidate string) (bool, error) {
		return s.clientTemplateRepo.SlugExists(ctx, input.ClientID, candidate)
	})
	if err != nil {
		return nil, err
	}

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		templateID, err := s.clientTemplateRepo.Create(ctx, clientTemplate)
		if err != nil {
			return err
		}
		clientTemplate.ID = templateID

		checkIn := &domain.CheckIn{
			ClientTemplateID: templateID,
			ClientID:         input.ClientID,
			StartDate:        startDate,
			EndDate:          startDate.AddDate(0, 0, len(clientTemplate.Sessions)),
			Completed:        false,
		}
		_, err = s.checkInRepo.Create(ctx, checkIn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return clientTemplate, nil
}

// copyFromTemplate deep-copies a coach template graph, applying the
// per-slot override triple. Every slot must have an override entry.
func (s *coachService) copyFromTemplate(ctx context.Context, target *domain.ClientTemplate, templateID primitive.ObjectID, overrides map[string]ExerciseOverride) error {
	source, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFoundf("template %s not found", templateID.Hex())
		}
		return err
	}
	source.SortSessions()

	target.Name = source.Name
	target.SourceTemplateID = &source.ID

	for _, sourceSession := range source.Sessions {
		session := domain.ClientSession{
			ID:    primitive.NewObjectID(),
			Name:  sourceSession.Name,
			Slug:  sourceSession.Slug,
			Order: sourceSession.Order,
		}
		for _, slot := range sourceSession.Slots {
			override, ok := overrides[slot.ID.Hex()]
			if !ok {
				return domain.Validationf("missing sets/reps/weight for exercise slot %s", slot.ID.Hex())
			}
			exercise, err := s.exerciseRepo.GetByID(ctx, slot.ExerciseID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.NotFoundf("exercise %s not found", slot.ExerciseID.Hex())
				}
				return err
			}
			session.Exercises = append(session.Exercises, domain.ClientExercise{
				ID:       primitive.NewObjectID(),
				Name:     exercise.Name,
				Category: exercise.Category,
				Sets:     override.Sets,
				Reps:     override.Reps,
				Weight:   override.Weight,
				Order:    slot.Order,
			})
		}
		target.Sessions = append(target.Sessions, session)
	}
	return nil
}

// copyFromClientTemplate re-instantiates a prior client template as a
// fresh copy with completion state reset. Overrides are optional here:
// exercises keep their prior parameters unless one is supplied.
func (s *coachService) copyFromClientTemplate(ctx context.Context, target *domain.ClientTemplate, sourceID primitive.ObjectID, overrides map[string]ExerciseOverride) error {
	source, err := s.clientTemplateRepo.GetByID(ctx, sourceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFoundf("client template %s not found", sourceID.Hex())
		}
		return err
	}
	if source.ClientID != target.ClientID {
		return domain.Authorizationf("client template %s belongs to a different client", sourceID.Hex())
	}
	source.SortSessions()

	target.Name = source.Name
	target.SourceTemplateID = source.SourceTemplateID

	for _, sourceSession := range source.Sessions {
		session := domain.ClientSession{
			ID:    primitive.NewObjectID(),
			Name:  sourceSession.Name,
			Slug:  sourceSession.Slug,
			Order: sourceSession.Order,
		}
		for _, sourceExercise := range sourceSession.Exercises {
			exercise := domain.ClientExercise{
				ID:       primitive.NewObjectID(),
				Name:     sourceExercise.Name,
				Category: sourceExercise.Category,
				Sets:     sourceExercise.Sets,
				Reps:     sourceExercise.Reps,
				Weight:   sourceExercise.Weight,
				Order:    sourceExercise.Order,
			}
			if override, ok := overrides[sourceExercise.ID.Hex()]; ok {
				exercise.Sets = override.Sets
				exercise.Reps = override.Reps
				exercise.Weight = override.Weight
			}
			session.Exercises = append(session.Exercises, exercise)
		}
		target.Sessions = append(target.Sessions, session)
	}
	return nil
}

// buildAdHocSessions materializes inline session definitions for a
// one-off program authored directly for a single client.
func (s *coachService) buildAdHocSessions(ctx context.Context, target *domain.ClientTemplate, inputs []AdHocSessionInput) error {
	if len(inputs) == 0 {
		return domain.Validationf("at least one session is required")
	}

	for _, sessionInput := range inputs {
		if sessionInput.Name == "" {
			return domain.Validationf("session name is required")
		}
		if target.HasSessionNamed(sessionInput.Name, primitive.NilObjectID) {
			return domain.Conflictf("session named %q supplied twice", sessionInput.Name)
		}

		session := domain.ClientSession{
			ID:    primitive.NewObjectID(),
			Name:  sessionInput.Name,
			Order: sessionInput.Order,
		}
		session.Slug = slug.Generate(sessionInput.Name, func(candidate string) bool {
			return target.SessionBySlug(candidate) != nil
		})

		for _, exerciseInput := range sessionInput.Exercises {
			exercise, err := resolveExercise(ctx, s.exerciseRepo, exerciseInput.ExerciseID, exerciseInput.Name, exerciseInput.Category)
			if err != nil {
				return err
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
		target.Sessions = append(target.Sessions, session)
	}
	target.SortSessions()
	return nil
}

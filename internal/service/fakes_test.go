package service

import (
	"context"
	"fmt"
	"time"

	"peakform/coaching-app/internal/domain"
	"peakform/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the persistence contract the
// mongo implementations provide: documents are stored and returned by
// value, so mutations only stick after an explicit Update.

type fakeUserRepo struct {
	users map[primitive.ObjectID]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := user
	return &u, nil
}

func (r *fakeUserRepo) AddClientIDToCoach(_ context.Context, coachID, clientID primitive.ObjectID) error {
	coach, ok := r.users[coachID]
	if !ok {
		return repository.ErrNotFound
	}
	coach.ClientIDs = append(coach.ClientIDs, clientID)
	r.users[coachID] = coach
	return nil
}

func (r *fakeUserRepo) SetCoachForClient(_ context.Context, clientID, coachID primitive.ObjectID) error {
	client, ok := r.users[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	client.CoachID = &coachID
	r.users[clientID] = client
	return nil
}

func (r *fakeUserRepo) GetClientsByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	var clients []domain.User
	for _, user := range r.users {
		if user.CoachID != nil && *user.CoachID == coachID {
			clients = append(clients, user)
		}
	}
	return clients, nil
}

type fakeExerciseRepo struct {
	exercises map[primitive.ObjectID]domain.Exercise
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{exercises: make(map[primitive.ObjectID]domain.Exercise)}
}

func (r *fakeExerciseRepo) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	exercise.ID = primitive.NewObjectID()
	exercise.CreatedAt = time.Now().UTC()
	r.exercises[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (r *fakeExerciseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	exercise, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e := exercise
	return &e, nil
}

func (r *fakeExerciseRepo) GetByNameAndCategory(_ context.Context, name, category string) (*domain.Exercise, error) {
	for _, exercise := range r.exercises {
		if exercise.Name == name && exercise.Category == category {
			e := exercise
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeExerciseRepo) GetAll(_ context.Context) ([]domain.Exercise, error) {
	all := make([]domain.Exercise, 0, len(r.exercises))
	for _, exercise := range r.exercises {
		all = append(all, exercise)
	}
	return all, nil
}

type fakeTemplateRepo struct {
	templates map[primitive.ObjectID]domain.Template
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: make(map[primitive.ObjectID]domain.Template)}
}

func cloneTemplate(t domain.Template) domain.Template {
	t.Sessions = append([]domain.Session(nil), t.Sessions...)
	for i := range t.Sessions {
		t.Sessions[i].Slots = append([]domain.ExerciseSlot(nil), t.Sessions[i].Slots...)
	}
	return t
}

func (r *fakeTemplateRepo) Create(_ context.Context, template *domain.Template) (primitive.ObjectID, error) {
	template.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now
	r.templates[template.ID] = cloneTemplate(*template)
	return template.ID, nil
}

func (r *fakeTemplateRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Template, error) {
	template, ok := r.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t := cloneTemplate(template)
	return &t, nil
}

func (r *fakeTemplateRepo) GetBySlug(_ context.Context, slug string) (*domain.Template, error) {
	for _, template := range r.templates {
		if template.Slug == slug {
			t := cloneTemplate(template)
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTemplateRepo) GetBySessionID(_ context.Context, sessionID primitive.ObjectID) (*domain.Template, error) {
	for _, template := range r.templates {
		for _, session := range template.Sessions {
			if session.ID == sessionID {
				t := cloneTemplate(template)
				return &t, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTemplateRepo) GetAll(_ context.Context) ([]domain.Template, error) {
	all := make([]domain.Template, 0, len(r.templates))
	for _, template := range r.templates {
		all = append(all, cloneTemplate(template))
	}
	return all, nil
}

func (r *fakeTemplateRepo) Update(_ context.Context, template *domain.Template) error {
	if _, ok := r.templates[template.ID]; !ok {
		return repository.ErrNotFound
	}
	template.UpdatedAt = time.Now().UTC()
	r.templates[template.ID] = cloneTemplate(*template)
	return nil
}

func (r *fakeTemplateRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.templates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

func (r *fakeTemplateRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, template := range r.templates {
		if template.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

type fakeClientTemplateRepo struct {
	templates map[primitive.ObjectID]domain.ClientTemplate
}

func newFakeClientTemplateRepo() *fakeClientTemplateRepo {
	return &fakeClientTemplateRepo{templates: make(map[primitive.ObjectID]domain.ClientTemplate)}
}

func cloneClientTemplate(t domain.ClientTemplate) domain.ClientTemplate {
	t.Sessions = append([]domain.ClientSession(nil), t.Sessions...)
	for i := range t.Sessions {
		t.Sessions[i].Exercises = append([]domain.ClientExercise(nil), t.Sessions[i].Exercises...)
		t.Sessions[i].TrainingEntries = append([]domain.TrainingEntry(nil), t.Sessions[i].TrainingEntries...)
	}
	return t
}

func (r *fakeClientTemplateRepo) Create(_ context.Context, template *domain.ClientTemplate) (primitive.ObjectID, error) {
	template.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now
	r.templates[template.ID] = cloneClientTemplate(*template)
	return template.ID, nil
}

func (r *fakeClientTemplateRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ClientTemplate, error) {
	template, ok := r.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t := cloneClientTemplate(template)
	return &t, nil
}

func (r *fakeClientTemplateRepo) GetBySlug(_ context.Context, clientID primitive.ObjectID, slug string) (*domain.ClientTemplate, error) {
	for _, template := range r.templates {
		if template.ClientID == clientID && template.Slug == slug {
			t := cloneClientTemplate(template)
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeClientTemplateRepo) GetBySessionID(_ context.Context, sessionID primitive.ObjectID) (*domain.ClientTemplate, error) {
	for _, template := range r.templates {
		for _, session := range template.Sessions {
			if session.ID == sessionID {
				t := cloneClientTemplate(template)
				return &t, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeClientTemplateRepo) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.ClientTemplate, error) {
	var all []domain.ClientTemplate
	for _, template := range r.templates {
		if template.ClientID == clientID {
			all = append(all, cloneClientTemplate(template))
		}
	}
	return all, nil
}

func (r *fakeClientTemplateRepo) GetActiveByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.ClientTemplate, error) {
	var active []domain.ClientTemplate
	for _, template := range r.templates {
		if template.ClientID == clientID && template.Active {
			active = append(active, cloneClientTemplate(template))
		}
	}
	return active, nil
}

func (r *fakeClientTemplateRepo) Update(_ context.Context, template *domain.ClientTemplate) error {
	if _, ok := r.templates[template.ID]; !ok {
		return repository.ErrNotFound
	}
	template.UpdatedAt = time.Now().UTC()
	r.templates[template.ID] = cloneClientTemplate(*template)
	return nil
}

func (r *fakeClientTemplateRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.templates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

func (r *fakeClientTemplateRepo) SlugExists(_ context.Context, clientID primitive.ObjectID, slug string) (bool, error) {
	for _, template := range r.templates {
		if template.ClientID == clientID && template.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

type fakeCheckInRepo struct {
	checkIns map[primitive.ObjectID]domain.CheckIn
}

func newFakeCheckInRepo() *fakeCheckInRepo {
	return &fakeCheckInRepo{checkIns: make(map[primitive.ObjectID]domain.CheckIn)}
}

func (r *fakeCheckInRepo) Create(_ context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error) {
	checkIn.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	checkIn.CreatedAt = now
	checkIn.UpdatedAt = now
	r.checkIns[checkIn.ID] = *checkIn
	return checkIn.ID, nil
}

func (r *fakeCheckInRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.CheckIn, error) {
	checkIn, ok := r.checkIns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := checkIn
	return &c, nil
}

func (r *fakeCheckInRepo) GetByClientTemplateID(_ context.Context, templateID primitive.ObjectID) (*domain.CheckIn, error) {
	for _, checkIn := range r.checkIns {
		if checkIn.ClientTemplateID == templateID {
			c := checkIn
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCheckInRepo) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.CheckIn, error) {
	var all []domain.CheckIn
	for _, checkIn := range r.checkIns {
		if checkIn.ClientID == clientID {
			all = append(all, checkIn)
		}
	}
	return all, nil
}

func (r *fakeCheckInRepo) GetAll(_ context.Context) ([]domain.CheckIn, error) {
	all := make([]domain.CheckIn, 0, len(r.checkIns))
	for _, checkIn := range r.checkIns {
		all = append(all, checkIn)
	}
	return all, nil
}

func (r *fakeCheckInRepo) Update(_ context.Context, checkIn *domain.CheckIn) error {
	if _, ok := r.checkIns[checkIn.ID]; !ok {
		return repository.ErrNotFound
	}
	checkIn.UpdatedAt = time.Now().UTC()
	r.checkIns[checkIn.ID] = *checkIn
	return nil
}

type fakeUploadRepo struct {
	uploads map[primitive.ObjectID]domain.Upload
}

func newFakeUploadRepo() *fakeUploadRepo {
	return &fakeUploadRepo{uploads: make(map[primitive.ObjectID]domain.Upload)}
}

func (r *fakeUploadRepo) Create(_ context.Context, upload *domain.Upload) (primitive.ObjectID, error) {
	upload.ID = primitive.NewObjectID()
	upload.UploadedAt = time.Now().UTC()
	r.uploads[upload.ID] = *upload
	return upload.ID, nil
}

func (r *fakeUploadRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Upload, error) {
	upload, ok := r.uploads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := upload
	return &u, nil
}

func (r *fakeUploadRepo) GetByCheckInID(_ context.Context, checkInID primitive.ObjectID) ([]domain.Upload, error) {
	var all []domain.Upload
	for _, upload := range r.uploads {
		if upload.CheckInID == checkInID {
			all = append(all, upload)
		}
	}
	return all, nil
}

// passTransactor runs the callback directly; the services under test
// only care that everything inside either ran or did not.
type passTransactor struct{}

func (passTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeFileStorage hands out deterministic URLs.
type fakeFileStorage struct{}

func (fakeFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.test/upload/%s", objectKey), nil
}

func (fakeFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.test/download/%s", objectKey), nil
}

func (fakeFileStorage) DeleteObject(_ context.Context, _ string) error {
	return nil
}

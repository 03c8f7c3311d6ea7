package service

import (
	"context"
	"testing"

	"peakform/coaching-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type coachFixture struct {
	users           *fakeUserRepo
	templates       *fakeTemplateRepo
	clientTemplates *fakeClientTemplateRepo
	checkIns        *fakeCheckInRepo
	exercises       *fakeExerciseRepo
	svc             CoachService

	coachID  primitive.ObjectID
	clientID primitive.ObjectID
}

func newCoachFixture(t *testing.T) *coachFixture {
	t.Helper()
	f := &coachFixture{
		users:           newFakeUserRepo(),
		templates:       newFakeTemplateRepo(),
		clientTemplates: newFakeClientTemplateRepo(),
		checkIns:        newFakeCheckInRepo(),
		exercises:       newFakeExerciseRepo(),
	}
	f.svc = NewCoachService(f.users, f.templates, f.clientTemplates, f.checkIns, f.exercises, passTransactor{})

	ctx := context.Background()
	coach := &domain.User{FirstName: "Pat", LastName: "Coach", Email: "coach@test.dev", Role: domain.RoleCoach}
	coachID, err := f.users.Create(ctx, coach)
	require.NoError(t, err)
	f.coachID = coachID

	client := &domain.User{FirstName: "Alex", LastName: "Doe", Email: "alex@test.dev", Role: domain.RoleClient}
	clientID, err := f.users.Create(ctx, client)
	require.NoError(t, err)
	f.clientID = clientID
	return f
}

// createTemplate builds a three-session template with one slot each.
func (f *coachFixture) createTemplate(t *testing.T, name string) *domain.Template {
	t.Helper()
	template, err := f.svc.CreateTemplate(context.Background(), f.coachID, TemplateInput{
		Name: name,
		Sessions: []TemplateSessionInput{
			{Name: "Push Day", Order: 1, Slots: []TemplateSlotInput{{Name: "Bench Press", Category: "Chest", Order: 1}}},
			{Name: "Pull Day", Order: 2, Slots: []TemplateSlotInput{{Name: "Deadlift", Category: "Lower Back", Order: 1}}},
			{Name: "Leg Day", Order: 3, Slots: []TemplateSlotInput{{Name: "Squat", Category: "Legs", Order: 1}}},
		},
	})
	require.NoError(t, err)
	return template
}

func fullOverrides(template *domain.Template) map[string]ExerciseOverride {
	overrides := make(map[string]ExerciseOverride)
	for _, session := range template.Sessions {
		for _, slot := range session.Slots {
			overrides[slot.ID.Hex()] = ExerciseOverride{Sets: 3, Reps: 10, Weight: 60}
		}
	}
	return overrides
}

func TestCreateTemplateResolvesCatalogAndSlugs(t *testing.T) {
	f := newCoachFixture(t)
	template := f.createTemplate(t, "Strength Block")

	assert.Equal(t, "strength-block", template.Slug)
	require.Len(t, template.Sessions, 3)
	assert.Equal(t, "push-day", template.Sessions[0].Slug)

	// Slots point at real catalog records.
	catalog, err := f.exercises.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, catalog, 3)
}

func TestCreateTemplateDuplicateSessionName(t *testing.T) {
	f := newCoachFixture(t)
	_, err := f.svc.CreateTemplate(context.Background(), f.coachID, TemplateInput{
		Name: "Block",
		Sessions: []TemplateSessionInput{
			{Name: "Push Day", Order: 1},
			{Name: "Push Day", Order: 2},
		},
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConflict))
	assert.Empty(t, f.templates.templates)
}

func TestAssignTemplateCreatesCopyAndCheckIn(t *testing.T) {
	f := newCoachFixture(t)
	template := f.createTemplate(t, "Strength Block")
	ctx := context.Background()

	clientTemplate, err := f.svc.AssignTemplate(ctx, AssignmentInput{
		ClientID:   f.clientID,
		SourceRole: domain.RoleCoach,
		SourceID:   &template.ID,
		Overrides:  fullOverrides(template),
	})
	require.NoError(t, err)

	assert.True(t, clientTemplate.Active)
	assert.False(t, clientTemplate.Completed)
	assert.Equal(t, today(), clientTemplate.StartDate)
	assert.Equal(t, "Strength Block", clientTemplate.Name)
	assert.Equal(t, "strength-block-alex-doe", clientTemplate.Slug)
	require.NotNil(t, clientTemplate.SourceTemplateID)
	assert.Equal(t, template.ID, *clientTemplate.SourceTemplateID)

	require.Len(t, clientTemplate.Sessions, 3)
	for i, session := range clientTemplate.Sessions {
		assert.Equal(t, i+1, session.Order)
		assert.False(t, session.Completed)
		require.Len(t, session.Exercises, 1)
		assert.Equal(t, 3, session.Exercises[0].Sets)
		assert.Equal(t, 10, session.Exercises[0].Reps)
		assert.Equal(t, 60, session.Exercises[0].Weight)
	}
	// Exercise names come from the catalog, not the slot.
	assert.Equal(t, "Bench Press", clientTemplate.Sessions[0].Exercises[0].Name)

	// One check-in, window = start date + session count in days.
	checkIn, err := f.checkIns.GetByClientTemplateID(ctx, clientTemplate.ID)
	require.NoError(t, err)
	assert.Equal(t, today(), checkIn.StartDate)
	assert.Equal(t, today().AddDate(0, 0, 3), checkIn.EndDate)
	assert.False(t, checkIn.Completed)
}

func TestAssignTemplateMissingOverrideLeavesNothingBehind(t *testing.T) {
	f := newCoachFixture(t)
	template := f.createTemplate(t, "Strength Block")

	overrides := fullOverrides(template)
	delete(overrides, template.Sessions[1].Slots[0].ID.Hex())

	_, err := f.svc.AssignTemplate(context.Background(), AssignmentInput{
		ClientID:   f.clientID,
		SourceRole: domain.RoleCoach,
		SourceID:   &template.ID,
		Overrides:  overrides,
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	assert.Empty(t, f.clientTemplates.templates)
	assert.Empty(t, f.checkIns.checkIns)
}

func TestAssignTemplateTwiceGetsSuffixedSlug(t *testing.T) {
	f := newCoachFixture(t)
	template := f.createTemplate(t, "Strength Block")
	ctx := context.Background()

	first, err := f.svc.AssignTemplate(ctx, AssignmentInput{
		ClientID: f.clientID, SourceRole: domain.RoleCoach, SourceID: &template.ID, Overrides: fullOverrides(template),
	})
	require.NoError(t, err)
	second, err := f.svc.AssignTemplate(ctx, AssignmentInput{
		ClientID: f.clientID, SourceRole: domain.RoleCoach, SourceID: &template.ID, Overrides: fullOverrides(template),
	})
	require.NoError(t, err)

	assert.Equal(t, "strength-block-alex-doe", first.Slug)
	assert.Equal(t, "strength-block-alex-doe-1", second.Slug)
	// Both stay active; the conflict surfaces on the read path instead.
	active, err := f.clientTemplates.GetActiveByClientID(ctx, f.clientID)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestAssignTemplateExplicitStartDate(t *testing.T) {
	f := newCoachFixture(t)
	template := f.createTemplate(t, "Strength Block")
	ctx := context.Background()

	start := today().AddDate(0, 0, 14)
	clientTemplate, err := f.svc.AssignTemplate(ctx, AssignmentInput{
		ClientID:   f.clientID,
		SourceRole: domain.RoleCoach,
		SourceID:   &template.ID,
		Overrides:  fullOverrides(template),
		StartDate:  &start,
	})
	require.NoError(t, err)
	assert.Equal(t, start, clientTemplate.StartDate)

	checkIn, err := f.checkIns.GetByClientTemplateID(ctx, clientTemplate.ID)
	require.NoError(t, err)
	assert.Equal(t, start, checkIn.StartDate)
	assert.Equal(t, start.AddDate(0, 0, 3), checkIn.EndDate)
}

func TestAssignTemplateRejectsUnknownSourceRole(t *testing.T) {
	f := newCoachFixture(t)
	template := f.createTemplate(t, "Strength Block")

	_, err := f.svc.AssignTemplate(context.Background(), AssignmentInput{
		ClientID:   f.clientID,
		SourceRole: domain.Role("USER"),
		SourceID:   &template.ID,
		Overrides:  fullOverrides(template),
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	assert.Empty(t, f.clientTemplates.templates)
	assert.Empty(t, f.checkIns.checkIns)
}

func TestAssignTemplateUnknownSource(t *testing.T) {
	f := newCoachFixture(t)
	missing := primitive.NewObjectID()
	_, err := f.svc.AssignTemplate(context.Background(), AssignmentInput{
		ClientID: f.clientID, SourceRole: domain.RoleCoach, SourceID: &missing,
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestAssignAdHocSessions(t *testing.T) {
	f := newCoachFixture(t)
	ctx := context.Background()

	_, err := f.svc.AssignTemplate(ctx, AssignmentInput{ClientID: f.clientID})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	clientTemplate, err := f.svc.AssignTemplate(ctx, AssignmentInput{
		ClientID: f.clientID,
		Sessions: []AdHocSessionInput{
			{Name: "Day One", Order: 1, Exercises: []SessionExerciseInput{
				{Name: "Row", Category: "Back", Sets: 4, Reps: 8, Weight: 40, Order: 1},
			}},
			{Name: "Day Two", Order: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, clientTemplate.Sessions, 2)
	assert.Nil(t, clientTemplate.SourceTemplateID)
	assert.Equal(t, 4, clientTemplate.Sessions[0].Exercises[0].Sets)

	checkIn, err := f.checkIns.GetByClientTemplateID(ctx, clientTemplate.ID)
	require.NoError(t, err)
	assert.Equal(t, today().AddDate(0, 0, 2), checkIn.EndDate)
}

func TestAssignAdHocDuplicateSessionName(t *testing.T) {
	f := newCoachFixture(t)
	_, err := f.svc.AssignTemplate(context.Background(), AssignmentInput{
		ClientID: f.clientID,
		Sessions: []AdHocSessionInput{
			{Name: "Day One", Order: 1},
			{Name: "Day One", Order: 2},
		},
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConflict))
	assert.Empty(t, f.clientTemplates.templates)
	assert.Empty(t, f.checkIns.checkIns)
}

func TestAssignFromPriorClientTemplate(t *testing.T) {
	f := newCoachFixture(t)
	template := f.createTemplate(t, "Strength Block")
	ctx := context.Background()

	first, err := f.svc.AssignTemplate(ctx, AssignmentInput{
		ClientID: f.clientID, SourceRole: domain.RoleCoach, SourceID: &template.ID, Overrides: fullOverrides(template),
	})
	require.NoError(t, err)

	// Progress the first round, then re-assign from it.
	stored, err := f.clientTemplates.GetByID(ctx, first.ID)
	require.NoError(t, err)
	stored.Sessions[0].Completed = true
	require.NoError(t, f.clientTemplates.Update(ctx, stored))

	override := ExerciseOverride{Sets: 5, Reps: 5, Weight: 80}
	second, err := f.svc.AssignTemplate(ctx, AssignmentInput{
		ClientID:   f.clientID,
		SourceRole: domain.RoleClient,
		SourceID:   &first.ID,
		Overrides:  map[string]ExerciseOverride{first.Sessions[0].Exercises[0].ID.Hex(): override},
	})
	require.NoError(t, err)

	require.Len(t, second.Sessions, 3)
	// Completion state resets on the fresh copy.
	assert.False(t, second.Sessions[0].Completed)
	// Overridden exercise picks up the new triple, the rest keep theirs.
	assert.Equal(t, 5, second.Sessions[0].Exercises[0].Sets)
	assert.Equal(t, 3, second.Sessions[1].Exercises[0].Sets)
}

func TestUpdateTemplateReorderIsIdempotent(t *testing.T) {
	f := newCoachFixture(t)
	template := f.createTemplate(t, "Strength Block")
	ctx := context.Background()

	reorder := TemplateUpdate{SessionOrders: []SessionOrder{
		{SessionID: template.Sessions[0].ID, Order: 3},
		{SessionID: template.Sessions[2].ID, Order: 1},
	}}

	updated, err := f.svc.UpdateTemplate(ctx, template.ID, reorder)
	require.NoError(t, err)
	again, err := f.svc.UpdateTemplate(ctx, template.ID, reorder)
	require.NoError(t, err)

	firstNames := make([]string, 0, len(updated.Sessions))
	for _, s := range updated.Sessions {
		firstNames = append(firstNames, s.Name)
	}
	secondNames := make([]string, 0, len(again.Sessions))
	for _, s := range again.Sessions {
		secondNames = append(secondNames, s.Name)
	}
	assert.Equal(t, []string{"Leg Day", "Pull Day", "Push Day"}, firstNames)
	assert.Equal(t, firstNames, secondNames)
}

func TestUpdateTemplateRenameToEquivalentNameKeepsSlug(t *testing.T) {
	f := newCoachFixture(t)
	template := f.createTemplate(t, "Strength Block")

	name := "Strength  Block"
	updated, err := f.svc.UpdateTemplate(context.Background(), template.ID, TemplateUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, "strength-block", updated.Slug)
}

func TestAddSessionDuplicateNameRejected(t *testing.T) {
	f := newCoachFixture(t)
	template := f.createTemplate(t, "Strength Block")

	_, err := f.svc.AddSession(context.Background(), template.ID, TemplateSessionInput{Name: "Push Day", Order: 4})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	stored, getErr := f.templates.GetByID(context.Background(), template.ID)
	require.NoError(t, getErr)
	assert.Len(t, stored.Sessions, 3)
}

func TestAddClientByEmail(t *testing.T) {
	f := newCoachFixture(t)
	ctx := context.Background()

	client, err := f.svc.AddClientByEmail(ctx, f.coachID, "alex@test.dev")
	require.NoError(t, err)
	require.NotNil(t, client.CoachID)
	assert.Equal(t, f.coachID, *client.CoachID)

	clients, err := f.svc.GetClients(ctx, f.coachID)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Empty(t, clients[0].PasswordHash)

	// A second coach cannot poach the client.
	otherID, err := f.users.Create(ctx, &domain.User{FirstName: "Sam", Email: "sam@test.dev", Role: domain.RoleCoach})
	require.NoError(t, err)
	_, err = f.svc.AddClientByEmail(ctx, otherID, "alex@test.dev")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConflict))
}

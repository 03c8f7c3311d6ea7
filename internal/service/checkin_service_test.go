package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"peakform/coaching-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type checkInFixture struct {
	checkIns        *fakeCheckInRepo
	clientTemplates *fakeClientTemplateRepo
	uploads         *fakeUploadRepo
	svc             CheckInService
}

func newCheckInFixture() *checkInFixture {
	f := &checkInFixture{
		checkIns:        newFakeCheckInRepo(),
		clientTemplates: newFakeClientTemplateRepo(),
		uploads:         newFakeUploadRepo(),
	}
	f.svc = NewCheckInService(f.checkIns, f.clientTemplates, f.uploads, fakeFileStorage{}, passTransactor{})
	return f
}

func (f *checkInFixture) seedCheckIn(t *testing.T, clientID, templateID primitive.ObjectID, start, end time.Time, completed bool) *domain.CheckIn {
	t.Helper()
	checkIn := &domain.CheckIn{
		ClientTemplateID: templateID,
		ClientID:         clientID,
		StartDate:        start,
		EndDate:          end,
		Completed:        completed,
	}
	_, err := f.checkIns.Create(context.Background(), checkIn)
	require.NoError(t, err)
	return checkIn
}

func TestListBucketsByCompletionAndWindow(t *testing.T) {
	f := newCheckInFixture()
	clientID := primitive.NewObjectID()

	done := f.seedCheckIn(t, clientID, primitive.NewObjectID(), today().AddDate(0, 0, -10), today().AddDate(0, 0, -3), true)
	overdue := f.seedCheckIn(t, clientID, primitive.NewObjectID(), today().AddDate(0, 0, -10), today().AddDate(0, 0, -1), false)
	// Window still open: lands in neither bucket.
	f.seedCheckIn(t, clientID, primitive.NewObjectID(), today(), today().AddDate(0, 0, 7), false)
	// Window ends today: not elapsed yet.
	f.seedCheckIn(t, clientID, primitive.NewObjectID(), today().AddDate(0, 0, -7), today(), false)

	buckets, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, buckets.Completed, 1)
	assert.Equal(t, done.ID, buckets.Completed[0].ID)
	require.Len(t, buckets.Uncompleted, 1)
	assert.Equal(t, overdue.ID, buckets.Uncompleted[0].ID)
}

func TestListDoesNotMutateStoredFlags(t *testing.T) {
	f := newCheckInFixture()
	clientID := primitive.NewObjectID()
	overdue := f.seedCheckIn(t, clientID, primitive.NewObjectID(), today().AddDate(0, 0, -10), today().AddDate(0, 0, -1), false)

	_, err := f.svc.List(context.Background())
	require.NoError(t, err)

	stored, err := f.checkIns.GetByID(context.Background(), overdue.ID)
	require.NoError(t, err)
	assert.False(t, stored.Completed)
}

func TestGetRefValidation(t *testing.T) {
	f := newCheckInFixture()
	ctx := context.Background()

	_, err := f.svc.Get(ctx, CheckInRef{})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	id := primitive.NewObjectID()
	clientID := primitive.NewObjectID()
	_, err = f.svc.Get(ctx, CheckInRef{CheckInID: &id, ClientID: &clientID})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestGetByClientResolvesThroughActiveTemplate(t *testing.T) {
	f := newCheckInFixture()
	clientID := primitive.NewObjectID()
	template := seedClientTemplate(t, f.clientTemplates, clientID, today(), true, 2, 0)
	seeded := f.seedCheckIn(t, clientID, template.ID, today(), today().AddDate(0, 0, 2), false)

	checkIn, err := f.svc.Get(context.Background(), CheckInRef{ClientID: &clientID})
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, checkIn.ID)
}

func TestGetByClientWithoutActiveTemplate(t *testing.T) {
	f := newCheckInFixture()
	clientID := primitive.NewObjectID()

	_, err := f.svc.Get(context.Background(), CheckInRef{ClientID: &clientID})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestSubmitClosesSessionsWithCheckIn(t *testing.T) {
	f := newCheckInFixture()
	clientID := primitive.NewObjectID()
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	template := seedClientTemplate(t, f.clientTemplates, clientID, start, true, 3, 0)
	seeded := f.seedCheckIn(t, clientID, template.ID, start, start.AddDate(0, 0, 3), false)
	ctx := context.Background()

	completed := true
	comment := "Felt strong this week"
	checkIn, err := f.svc.Submit(ctx, CheckInRef{CheckInID: &seeded.ID}, CheckInSubmission{
		Completed:     &completed,
		ClientComment: &comment,
		Sessions: []CheckInSessionPayload{
			{SessionID: template.Sessions[1].ID, ClientSessionUpdate: ClientSessionUpdate{Completed: &completed}},
		},
	})
	require.NoError(t, err)

	assert.True(t, checkIn.Completed)
	require.NotNil(t, checkIn.ClientComment)
	assert.Equal(t, comment, *checkIn.ClientComment)

	storedTemplate, err := f.clientTemplates.GetByID(ctx, template.ID)
	require.NoError(t, err)
	session := storedTemplate.SessionByID(template.Sessions[1].ID)
	require.NotNil(t, session)
	assert.True(t, session.Completed)
	require.NotNil(t, session.CompletedDate)
	assert.Equal(t, start.AddDate(0, 0, 2), *session.CompletedDate)
}

func TestSubmitUnknownSessionLeavesCheckInUntouched(t *testing.T) {
	f := newCheckInFixture()
	clientID := primitive.NewObjectID()
	template := seedClientTemplate(t, f.clientTemplates, clientID, today(), true, 2, 0)
	seeded := f.seedCheckIn(t, clientID, template.ID, today(), today().AddDate(0, 0, 2), false)
	ctx := context.Background()

	completed := true
	_, err := f.svc.Submit(ctx, CheckInRef{CheckInID: &seeded.ID}, CheckInSubmission{
		Completed: &completed,
		Sessions: []CheckInSessionPayload{
			{SessionID: primitive.NewObjectID(), ClientSessionUpdate: ClientSessionUpdate{Completed: &completed}},
		},
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	stored, err := f.checkIns.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.False(t, stored.Completed)
}

func TestRequestPhotoUpload(t *testing.T) {
	f := newCheckInFixture()
	clientID := primitive.NewObjectID()
	seeded := f.seedCheckIn(t, clientID, primitive.NewObjectID(), today(), today().AddDate(0, 0, 7), false)
	ctx := context.Background()

	response, err := f.svc.RequestPhotoUpload(ctx, clientID, seeded.ID, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(response.ObjectKey, "checkins/"+clientID.Hex()+"/"+seeded.ID.Hex()+"/"))
	assert.True(t, strings.HasSuffix(response.ObjectKey, ".jpeg"))
	assert.Equal(t, "https://storage.test/upload/"+response.ObjectKey, response.UploadURL)

	_, err = f.svc.RequestPhotoUpload(ctx, clientID, seeded.ID, "application/pdf")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	// Someone else's check-in.
	_, err = f.svc.RequestPhotoUpload(ctx, primitive.NewObjectID(), seeded.ID, "image/png")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindAuthorization))
}

func TestConfirmAndListPhotos(t *testing.T) {
	f := newCheckInFixture()
	clientID := primitive.NewObjectID()
	seeded := f.seedCheckIn(t, clientID, primitive.NewObjectID(), today(), today().AddDate(0, 0, 7), false)
	ctx := context.Background()

	objectKey := "checkins/" + clientID.Hex() + "/" + seeded.ID.Hex() + "/photo.jpeg"
	upload, err := f.svc.ConfirmPhotoUpload(ctx, clientID, seeded.ID, objectKey, "front.jpeg", 2048, "image/jpeg")
	require.NoError(t, err)
	assert.False(t, upload.ID.IsZero())

	owner := Caller{UserID: clientID, Role: domain.RoleClient}
	photos, err := f.svc.GetPhotos(ctx, owner, seeded.ID)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, objectKey, photos[0].S3ObjectKey)
	assert.Equal(t, "https://storage.test/download/"+objectKey, photos[0].DownloadURL)

	// Coaches can review any client's photos; other clients cannot.
	coach := Caller{UserID: primitive.NewObjectID(), Role: domain.RoleCoach}
	_, err = f.svc.GetPhotos(ctx, coach, seeded.ID)
	require.NoError(t, err)

	intruder := Caller{UserID: primitive.NewObjectID(), Role: domain.RoleClient}
	_, err = f.svc.GetPhotos(ctx, intruder, seeded.ID)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindAuthorization))
}

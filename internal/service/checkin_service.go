package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"peakform/coaching-app/internal/domain"
	"peakform/coaching-app/internal/repository"
	"peakform/coaching-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckInRef identifies a check-in directly by id or indirectly by
// client id, in which case resolution goes through the client's single
// active template. Exactly one of the two must be supplied.
type CheckInRef struct {
	CheckInID *primitive.ObjectID
	ClientID  *primitive.ObjectID
}

func (r CheckInRef) validate() error {
	if (r.CheckInID == nil) == (r.ClientID == nil) {
		return domain.Validationf("exactly one of check-in id or client id must be supplied")
	}
	return nil
}

// CheckInBuckets splits check-ins into the two actionable groups:
// already completed, and uncompleted with an elapsed window. Check-ins
// whose window has not yet passed appear in neither bucket.
type CheckInBuckets struct {
	Completed   []domain.CheckIn `json:"completed"`
	Uncompleted []domain.CheckIn `json:"uncompleted"`
}

// CheckInSessionPayload closes out one session alongside a check-in
// submission, with the same semantics as a direct session update.
type CheckInSessionPayload struct {
	SessionID primitive.ObjectID `json:"sessionId"`
	ClientSessionUpdate
}

// CheckInSubmission updates a check-in's completion flag and comments,
// optionally closing out sessions in the same transaction.
type CheckInSubmission struct {
	Completed     *bool                   `json:"completed,omitempty"`
	CoachComment  *string                 `json:"coachComment,omitempty"`
	ClientComment *string                 `json:"clientComment,omitempty"`
	Sessions      []CheckInSessionPayload `json:"sessions,omitempty"`
}

// UploadURLResponse carries a presigned upload URL and the object key
// the client reports back on confirm.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// CheckInPhoto is upload metadata enriched with a temporary viewing URL.
type CheckInPhoto struct {
	domain.Upload
	DownloadURL string `json:"downloadUrl"`
}

// CheckInService covers the check-in scheduler surface: listings with
// lazy window expiry, submissions, and progress photo attachments.
type CheckInService interface {
	List(ctx context.Context) (*CheckInBuckets, error)
	ListForClient(ctx context.Context, clientID primitive.ObjectID) (*CheckInBuckets, error)
	Get(ctx context.Context, ref CheckInRef) (*domain.CheckIn, error)
	Submit(ctx context.Context, ref CheckInRef, submission CheckInSubmission) (*domain.CheckIn, error)

	RequestPhotoUpload(ctx context.Context, clientID, checkInID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmPhotoUpload(ctx context.Context, clientID, checkInID primitive.ObjectID, objectKey, fileName string, size int64, contentType string) (*domain.Upload, error)
	GetPhotos(ctx context.Context, caller Caller, checkInID primitive.ObjectID) ([]CheckInPhoto, error)
}

// checkInService implements the CheckInService interface.
type checkInService struct {
	checkInRepo        repository.CheckInRepository
	clientTemplateRepo repository.ClientTemplateRepository
	uploadRepo         repository.UploadRepository
	fileStorage        storage.FileStorage
	transactor         repository.Transactor
}

// NewCheckInService creates a new instance of checkInService.
func NewCheckInService(
	checkInRepo repository.CheckInRepository,
	clientTemplateRepo repository.ClientTemplateRepository,
	uploadRepo repository.UploadRepository,
	fileStorage storage.FileStorage,
	transactor repository.Transactor,
) CheckInService {
	return &checkInService{
		checkInRepo:        checkInRepo,
		clientTemplateRepo: clientTemplateRepo,
		uploadRepo:         uploadRepo,
		fileStorage:        fileStorage,
		transactor:         transactor,
	}
}

// === Listings ===

// List buckets every check-in across all clients.
func (s *checkInService) List(ctx context.Context) (*CheckInBuckets, error) {
	checkIns, err := s.checkInRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return bucketCheckIns(checkIns), nil
}

// ListForClient buckets one client's check-ins.
func (s *checkInService) ListForClient(ctx context.Context, clientID primitive.ObjectID) (*CheckInBuckets, error) {
	if clientID == primitive.NilObjectID {
		return nil, domain.Validationf("client id is required")
	}
	checkIns, err := s.checkInRepo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return bucketCheckIns(checkIns), nil
}

// bucketCheckIns evaluates window expiry lazily against the current
// date; nothing ever flips a stored flag on the read path.
func bucketCheckIns(checkIns []domain.CheckIn) *CheckInBuckets {
	buckets := &CheckInBuckets{
		Completed:   []domain.CheckIn{},
		Uncompleted: []domain.CheckIn{},
	}
	now := today()
	for _, checkIn := range checkIns {
		switch {
		case checkIn.Completed:
			buckets.Completed = append(buckets.Completed, checkIn)
		case checkIn.WindowElapsed(now):
			buckets.Uncompleted = append(buckets.Uncompleted, checkIn)
		}
	}
	return buckets
}

// Get resolves a check-in by id, or via the client's active template.
func (s *checkInService) Get(ctx context.Context, ref CheckInRef) (*domain.CheckIn, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}

	if ref.CheckInID != nil {
		checkIn, err := s.checkInRepo.GetByID(ctx, *ref.CheckInID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, domain.NotFoundf("check-in %s not found", ref.CheckInID.Hex())
			}
			return nil, err
		}
		return checkIn, nil
	}

	template, err := activeTemplate(ctx, s.clientTemplateRepo, *ref.ClientID)
	if err != nil {
		return nil, err
	}
	checkIn, err := s.checkInRepo.GetByClientTemplateID(ctx, template.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("no check-in for client %s", ref.ClientID.Hex())
		}
		return nil, err
	}
	return checkIn, nil
}

// === Submission ===

// Submit updates the check-in and closes out any supplied sessions in
// one transaction: either the check-in and every session change commit
// together, or none of them do.
func (s *checkInService) Submit(ctx context.Context, ref CheckInRef, submission CheckInSubmission) (*domain.CheckIn, error) {
	checkIn, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	var template *domain.ClientTemplate
	if len(submission.Sessions) > 0 {
		template, err = s.clientTemplateRepo.GetByID(ctx, checkIn.ClientTemplateID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, domain.NotFoundf("client template %s not found", checkIn.ClientTemplateID.Hex())
			}
			return nil, err
		}
		for _, payload := range submission.Sessions {
			if _, err := applyClientSessionUpdate(template, payload.SessionID, payload.ClientSessionUpdate); err != nil {
				return nil, err
			}
		}
	}

	if submission.Completed != nil {
		checkIn.Completed = *submission.Completed
	}
	if submission.CoachComment != nil {
		checkIn.CoachComment = submission.CoachComment
	}
	if submission.ClientComment != nil {
		checkIn.ClientComment = submission.ClientComment
	}

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if template != nil {
			if err := s.clientTemplateRepo.Update(ctx, template); err != nil {
				return err
			}
		}
		return s.checkInRepo.Update(ctx, checkIn)
	})
	if err != nil {
		return nil, err
	}
	return checkIn, nil
}

// === Progress Photos ===

// RequestPhotoUpload generates a presigned URL for attaching a progress
// photo to the client's check-in.
func (s *checkInService) RequestPhotoUpload(ctx context.Context, clientID, checkInID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, domain.Validationf("an image content type is required")
	}
	if _, err := s.ownedCheckIn(ctx, clientID, checkInID); err != nil {
		return nil, err
	}

	fileExtension := ""
	if parts := strings.Split(contentType, "/"); len(parts) == 2 {
		fileExtension = parts[1]
	}
	objectKey := path.Join("checkins", clientID.Hex(), checkInID.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), fileExtension))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}
	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmPhotoUpload records photo metadata after the client finished
// the direct-to-bucket upload.
func (s *checkInService) ConfirmPhotoUpload(ctx context.Context, clientID, checkInID primitive.ObjectID, objectKey, fileName string, size int64, contentType string) (*domain.Upload, error) {
	if objectKey == "" {
		return nil, domain.Validationf("object key is required")
	}
	if _, err := s.ownedCheckIn(ctx, clientID, checkInID); err != nil {
		return nil, err
	}

	upload := &domain.Upload{
		CheckInID:   checkInID,
		ClientID:    clientID,
		S3ObjectKey: objectKey,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
	}
	uploadID, err := s.uploadRepo.Create(ctx, upload)
	if err != nil {
		return nil, err
	}
	upload.ID = uploadID
	return upload, nil
}

// GetPhotos lists a check-in's photos with temporary viewing URLs. A
// client caller only sees photos on their own check-ins.
func (s *checkInService) GetPhotos(ctx context.Context, caller Caller, checkInID primitive.ObjectID) ([]CheckInPhoto, error) {
	if checkInID == primitive.NilObjectID {
		return nil, domain.Validationf("check-in id is required")
	}

	checkIn, err := s.checkInRepo.GetByID(ctx, checkInID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("check-in %s not found", checkInID.Hex())
		}
		return nil, err
	}
	if !caller.mayAccessClient(checkIn.ClientID) {
		return nil, domain.Authorizationf("check-in belongs to a different client")
	}

	uploads, err := s.uploadRepo.GetByCheckInID(ctx, checkInID)
	if err != nil {
		return nil, err
	}

	photos := make([]CheckInPhoto, 0, len(uploads))
	for _, upload := range uploads {
		downloadURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, upload.S3ObjectKey, storage.DefaultPresignedURLExpiry)
		if err != nil {
			return nil, err
		}
		photos = append(photos, CheckInPhoto{Upload: upload, DownloadURL: downloadURL})
	}
	return photos, nil
}

// ownedCheckIn loads a check-in and verifies the client owns it.
func (s *checkInService) ownedCheckIn(ctx context.Context, clientID, checkInID primitive.ObjectID) (*domain.CheckIn, error) {
	if clientID == primitive.NilObjectID || checkInID == primitive.NilObjectID {
		return nil, domain.Validationf("client id and check-in id are required")
	}
	checkIn, err := s.checkInRepo.GetByID(ctx, checkInID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("check-in %s not found", checkInID.Hex())
		}
		return nil, err
	}
	if checkIn.ClientID != clientID {
		return nil, domain.Authorizationf("check-in belongs to a different client")
	}
	return checkIn, nil
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Upload holds metadata for a progress photo a client attached to a
// check-in. The object itself lives in S3 under S3ObjectKey.
type Upload struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CheckInID   primitive.ObjectID `bson:"checkInId" json:"checkInId"`
	ClientID    primitive.ObjectID `bson:"clientId" json:"clientId"`
	S3ObjectKey string             `bson:"s3ObjectKey" json:"-"`
	FileName    string             `bson:"fileName" json:"fileName"`
	ContentType string             `bson:"contentType" json:"contentType"`
	Size        int64              `bson:"size" json:"size"`
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}

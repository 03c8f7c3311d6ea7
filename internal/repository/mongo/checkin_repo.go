package mongo

import (
	"context"
	"errors"
	"time"

	"peakform/coaching-app/internal/domain"
	"peakform/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const checkInCollectionName = "checkins"

// mongoCheckInRepository implements repository.CheckInRepository
type mongoCheckInRepository struct {
	collection *mongo.Collection
}

// NewMongoCheckInRepository creates a new CheckIn repository backed by MongoDB.
func NewMongoCheckInRepository(db *mongo.Database) repository.CheckInRepository {
	return &mongoCheckInRepository{
		collection: db.Collection(checkInCollectionName),
	}
}

// Create inserts a new check-in.
func (r *mongoCheckInRepository) Create(ctx context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error) {
	if checkIn.ClientTemplateID == primitive.NilObjectID || checkIn.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("check-in requires clientTemplateId and clientId")
	}

	checkIn.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	checkIn.CreatedAt = now
	checkIn.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, checkIn)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted check-in ID")
	}
	return insertedID, nil
}

// GetByID retrieves a check-in by its ID.
func (r *mongoCheckInRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CheckIn, error) {
	var checkIn domain.CheckIn
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&checkIn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &checkIn, nil
}

// GetByClientTemplateID retrieves the check-in created for a client template.
func (r *mongoCheckInRepository) GetByClientTemplateID(ctx context.Context, templateID primitive.ObjectID) (*domain.CheckIn, error) {
	var checkIn domain.CheckIn
	err := r.collection.FindOne(ctx, bson.M{"clientTemplateId": templateID}).Decode(&checkIn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &checkIn, nil
}

// GetByClientID retrieves all check-ins belonging to one client.
func (r *mongoCheckInRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.CheckIn, error) {
	return r.findAll(ctx, bson.M{"clientId": clientID})
}

// GetAll retrieves every check-in across all clients.
func (r *mongoCheckInRepository) GetAll(ctx context.Context) ([]domain.CheckIn, error) {
	return r.findAll(ctx, bson.M{})
}

func (r *mongoCheckInRepository) findAll(ctx context.Context, filter bson.M) ([]domain.CheckIn, error) {
	var checkIns []domain.CheckIn
	findOptions := options.Find().SetSort(bson.D{{Key: "endDate", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &checkIns); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return checkIns, nil
}

// Update persists the check-in's completion flag and comments.
func (r *mongoCheckInRepository) Update(ctx context.Context, checkIn *domain.CheckIn) error {
	if checkIn.ID == primitive.NilObjectID {
		return errors.New("check-in ID is required for update")
	}

	filter := bson.M{"_id": checkIn.ID}
	updateFields := bson.M{
		"completed": checkIn.Completed,
		"updatedAt": time.Now().UTC(),
	}
	if checkIn.CoachComment != nil {
		updateFields["coachComment"] = *checkIn.CoachComment
	}
	if checkIn.ClientComment != nil {
		updateFields["clientComment"] = *checkIn.ClientComment
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": updateFields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureCheckInIndexes creates necessary indexes for the checkins collection.
func EnsureCheckInIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientTemplateId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "completed", Value: 1}, {Key: "endDate", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

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

const clientTemplateCollectionName = "client_templates"

// mongoClientTemplateRepository implements repository.ClientTemplateRepository.
// The full session/exercise/training-entry subtree is embedded in one
// document per client template.
type mongoClientTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoClientTemplateRepository creates a new ClientTemplate repository backed by MongoDB.
func NewMongoClientTemplateRepository(db *mongo.Database) repository.ClientTemplateRepository {
	return &mongoClientTemplateRepository{
		collection: db.Collection(clientTemplateCollectionName),
	}
}

// Create inserts a new client template graph.
func (r *mongoClientTemplateRepository) Create(ctx context.Context, template *domain.ClientTemplate) (primitive.ObjectID, error) {
	if template.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("client template requires clientId")
	}
	if template.Name == "" || template.Slug == "" {
		return primitive.NilObjectID, errors.New("client template requires name and slug")
	}

	template.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, template)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted client template ID")
	}
	return insertedID, nil
}

// GetByID retrieves a client template graph by its ID.
func (r *mongoClientTemplateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientTemplate, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetBySlug retrieves a client template by slug. Slugs are unique only
// within one client's templates, so the owner scopes the lookup.
func (r *mongoClientTemplateRepository) GetBySlug(ctx context.Context, clientID primitive.ObjectID, slug string) (*domain.ClientTemplate, error) {
	return r.findOne(ctx, bson.M{"clientId": clientID, "slug": slug})
}

// GetBySessionID retrieves the client template containing an embedded session.
func (r *mongoClientTemplateRepository) GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) (*domain.ClientTemplate, error) {
	return r.findOne(ctx, bson.M{"sessions._id": sessionID})
}

func (r *mongoClientTemplateRepository) findOne(ctx context.Context, filter bson.M) (*domain.ClientTemplate, error) {
	var template domain.ClientTemplate
	err := r.collection.FindOne(ctx, filter).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// GetByClientID retrieves all templates owned by a client.
func (r *mongoClientTemplateRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.ClientTemplate, error) {
	return r.findAll(ctx, bson.M{"clientId": clientID})
}

// GetActiveByClientID retrieves every template with active=true for the
// client. The single-active invariant is derived at read time; this
// method deliberately returns all matches so the caller can surface a
// violation instead of picking one arbitrarily.
func (r *mongoClientTemplateRepository) GetActiveByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.ClientTemplate, error) {
	return r.findAll(ctx, bson.M{"clientId": clientID, "active": true})
}

func (r *mongoClientTemplateRepository) findAll(ctx context.Context, filter bson.M) ([]domain.ClientTemplate, error) {
	var templates []domain.ClientTemplate
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}

// Update persists the template's mutable fields and its full session
// subtree wholesale.
func (r *mongoClientTemplateRepository) Update(ctx context.Context, template *domain.ClientTemplate) error {
	if template.ID == primitive.NilObjectID {
		return errors.New("client template ID is required for update")
	}

	filter := bson.M{"_id": template.ID}
	update := bson.M{"$set": bson.M{
		"name":      template.Name,
		"slug":      template.Slug,
		"active":    template.Active,
		"completed": template.Completed,
		"startDate": template.StartDate,
		"sessions":  template.Sessions,
		"updatedAt": time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the client template document and its whole subtree.
func (r *mongoClientTemplateRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SlugExists reports whether the client already owns a template with the slug.
func (r *mongoClientTemplateRepository) SlugExists(ctx context.Context, clientID primitive.ObjectID, slug string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"clientId": clientID, "slug": slug})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EnsureClientTemplateIndexes creates necessary indexes for the client_templates collection.
func EnsureClientTemplateIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "active", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "sessions._id", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

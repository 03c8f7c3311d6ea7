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

const templateCollectionName = "templates"

// mongoTemplateRepository implements repository.TemplateRepository.
// A coach template is one document embedding its session/slot subtree,
// so subtree writes are atomic and deletes cascade for free.
type mongoTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoTemplateRepository creates a new Template repository backed by MongoDB.
func NewMongoTemplateRepository(db *mongo.Database) repository.TemplateRepository {
	return &mongoTemplateRepository{
		collection: db.Collection(templateCollectionName),
	}
}

// Create inserts a new template graph.
func (r *mongoTemplateRepository) Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error) {
	if template.Name == "" || template.Slug == "" {
		return primitive.NilObjectID, errors.New("template requires name and slug")
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
		return primitive.NilObjectID, errors.New("failed to convert inserted template ID")
	}
	return insertedID, nil
}

// GetByID retrieves a template graph by its ID.
func (r *mongoTemplateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetBySlug retrieves a template graph by its slug. Template slugs are
// unique across all templates.
func (r *mongoTemplateRepository) GetBySlug(ctx context.Context, slug string) (*domain.Template, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

// GetBySessionID retrieves the template containing an embedded session.
func (r *mongoTemplateRepository) GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) (*domain.Template, error) {
	return r.findOne(ctx, bson.M{"sessions._id": sessionID})
}

func (r *mongoTemplateRepository) findOne(ctx context.Context, filter bson.M) (*domain.Template, error) {
	var template domain.Template
	err := r.collection.FindOne(ctx, filter).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// GetAll retrieves every coach template.
func (r *mongoTemplateRepository) GetAll(ctx context.Context) ([]domain.Template, error) {
	var templates []domain.Template
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
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
func (r *mongoTemplateRepository) Update(ctx context.Context, template *domain.Template) error {
	if template.ID == primitive.NilObjectID {
		return errors.New("template ID is required for update")
	}

	filter := bson.M{"_id": template.ID}
	update := bson.M{"$set": bson.M{
		"name":      template.Name,
		"slug":      template.Slug,
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

// Delete removes the template document and, with it, every owned
// session and slot.
func (r *mongoTemplateRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SlugExists reports whether any template already uses the slug.
func (r *mongoTemplateRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"slug": slug})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EnsureTemplateIndexes creates necessary indexes for the templates collection.
func EnsureTemplateIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "sessions._id", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

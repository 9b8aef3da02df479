package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/HSouheill/homeservices_backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ProvidersCollection = "providers"

type ProviderRepository struct {
	collection *mongo.Collection
}

func NewProviderRepository(db *mongo.Database) *ProviderRepository {
	return &ProviderRepository{
		collection: db.Collection(ProvidersCollection),
	}
}

func (r *ProviderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.ProviderProfile, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ProviderRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.ProviderProfile, error) {
	return r.findOne(ctx, bson.M{"userId": userID})
}

func (r *ProviderRepository) List(ctx context.Context) ([]models.ProviderProfile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{}, opts)
}

func (r *ProviderRepository) FindNearby(ctx context.Context, q NearbyQuery) ([]models.ProviderProfile, error) {
	filter := bson.M{
		"categories":         q.Category,
		"verificationStatus": models.VerificationApproved,
		"availability":       models.AvailabilityAvailable,
		"isActive":           true,
		"location": bson.M{
			"$near": bson.M{
				"$geometry":    q.Point,
				"$maxDistance": q.MaxDistanceMeters,
			},
		},
	}
	return r.find(ctx, filter, options.Find().SetLimit(int64(q.Limit)))
}

func (r *ProviderRepository) UpdateAvailability(ctx context.Context, userID primitive.ObjectID, availability models.Availability) (*models.ProviderProfile, error) {
	update := bson.M{"$set": bson.M{
		"availability": availability,
		"updatedAt":    time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var provider models.ProviderProfile
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&provider)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *ProviderRepository) findOne(ctx context.Context, filter bson.M) (*models.ProviderProfile, error) {
	var provider models.ProviderProfile
	err := r.collection.FindOne(ctx, filter).Decode(&provider)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *ProviderRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.ProviderProfile, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	providers := []models.ProviderProfile{}
	if err := cursor.All(ctx, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

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

const RequestsCollection = "serviceRequests"

type RequestRepository struct {
	collection *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) *RequestRepository {
	return &RequestRepository{
		collection: db.Collection(RequestsCollection),
	}
}

func (r *RequestRepository) Insert(ctx context.Context, req *models.ServiceRequest) error {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, req)
	return err
}

func (r *RequestRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) ListByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]models.ServiceRequest, error) {
	return r.find(ctx, bson.M{"customerId": customerID}, newestFirst())
}

func (r *RequestRepository) ListAll(ctx context.Context) ([]models.ServiceRequest, error) {
	return r.find(ctx, bson.M{}, newestFirst())
}

// FindOpenNear uses the 2dsphere index on customerLocation; $near already
// orders by distance.
func (r *RequestRepository) FindOpenNear(ctx context.Context, q OpenRequestQuery) ([]models.ServiceRequest, error) {
	filter := bson.M{
		"status":   models.StatusRequestSent,
		"category": bson.M{"$in": q.Categories},
		"customerLocation": bson.M{
			"$near": bson.M{
				"$geometry":    q.Point,
				"$maxDistance": q.MaxDistanceMeters,
			},
		},
	}
	return r.find(ctx, filter, options.Find().SetLimit(int64(q.Limit)))
}

func (r *RequestRepository) AssignProvider(ctx context.Context, id, providerID primitive.ObjectID) (*models.ServiceRequest, error) {
	filter := bson.M{
		"_id":                id,
		"status":             models.StatusRequestSent,
		"assignedProviderId": nil,
	}
	update := bson.M{"$set": bson.M{
		"assignedProviderId": providerID,
		"status":             models.StatusAccepted,
		"updatedAt":          time.Now(),
	}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *RequestRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.RequestStatus) (*models.ServiceRequest, error) {
	filter := bson.M{
		"_id":                id,
		"status":             from,
		"assignedProviderId": bson.M{"$ne": nil},
	}
	update := bson.M{"$set": bson.M{
		"status":    to,
		"updatedAt": time.Now(),
	}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *RequestRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.ServiceRequest, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var req models.ServiceRequest
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.ServiceRequest, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	requests := []models.ServiceRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

// config/db.go
package config

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/HSouheill/homeservices_backend/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB establishes connection to MongoDB and makes sure the indexes the
// geo queries depend on exist.
func ConnectDB(s Settings) *mongo.Client {
	mongoURI := s.MongoURI
	if mongoURI == "" {
		if s.IsProduction() {
			log.Fatal("MONGO_URI or MONGODB_URI environment variable is required for production")
		}
		mongoURI = "mongodb://localhost:27017"
	}

	log.Printf("Connecting to MongoDB at: %s", maskMongoURI(mongoURI))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("MongoDB ping error:", err)
	}
	log.Println("Connected to MongoDB")

	setupCollections(client.Database(s.DBName))
	return client
}

// setupCollections ensures all necessary indexes exist
func setupCollections(db *mongo.Database) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		repositories.ProvidersCollection: {
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		repositories.RequestsCollection: {
			{Keys: bson.D{{Key: "customerLocation", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "category", Value: 1}}},
		},
	}
	for collName, models := range indexes {
		if _, err := db.Collection(collName).Indexes().CreateMany(ctx, models); err != nil {
			log.Printf("Error creating indexes for %s: %v", collName, err)
		}
	}

	log.Println("Database collections and indexes setup complete")
}

// maskMongoURI masks the password in MongoDB URI for logging
func maskMongoURI(uri string) string {
	if idx := strings.Index(uri, "@"); idx > 0 {
		if colonIdx := strings.LastIndex(uri[:idx], ":"); colonIdx > 0 {
			return uri[:colonIdx+1] + "***" + uri[idx:]
		}
	}
	return uri
}

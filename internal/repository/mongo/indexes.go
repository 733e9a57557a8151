package mongo

import (
	"context"
	"log"

	"alcyxob/fitness-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the document queries rely on.
// Call this once during application startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	ensure(ctx, db.Collection(repository.ProfilesCollection), []mongo.IndexModel{
		{Keys: bson.D{{Key: repository.FieldOwnerID, Value: 1}}},
	})
	ensure(ctx, db.Collection(repository.WorkoutsCollection), []mongo.IndexModel{
		{Keys: bson.D{{Key: repository.FieldOwnerID, Value: 1}, {Key: repository.FieldProfileID, Value: 1}}},
	})
	ensure(ctx, db.Collection(repository.TemplatesCollection), []mongo.IndexModel{
		{Keys: bson.D{{Key: repository.FieldOwnerID, Value: 1}, {Key: repository.FieldProfileID, Value: 1}}},
	})
	ensure(ctx, db.Collection(repository.UsersCollection), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: repository.FieldEmail, Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}

func ensure(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) {
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for %s collection: %v", collection.Name(), err)
		return
	}
	log.Printf("INFO: Indexes ensured for %s collection", collection.Name())
}

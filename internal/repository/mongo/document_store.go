package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"alcyxob/fitness-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoDocumentStore implements repository.DocumentStore on a MongoDB database.
// The document id is stored as _id and mirrored in the "id" field.
type mongoDocumentStore struct {
	db *mongo.Database
}

// NewMongoDocumentStore creates a document store backed by db.
func NewMongoDocumentStore(db *mongo.Database) repository.DocumentStore {
	return &mongoDocumentStore{db: db}
}

// WriteDocument replaces the whole document, inserting it when missing.
func (s *mongoDocumentStore) WriteDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	doc := bson.M{}
	for k, v := range fields {
		doc[k] = v
	}
	doc["_id"] = id
	doc[repository.FieldID] = id

	_, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return &repository.OperationError{Op: "write", Collection: collection, Err: err}
	}
	return nil
}

// DeleteDocument removes a document. A missing document is not an error.
func (s *mongoDocumentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return &repository.OperationError{Op: "delete", Collection: collection, Err: err}
	}
	return nil
}

// QueryByFields returns the documents matching every predicate, ordered by id.
func (s *mongoDocumentStore) QueryByFields(ctx context.Context, collection string, predicates ...repository.Predicate) ([]repository.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(collection).Find(ctx, filterFor(predicates), opts)
	if err != nil {
		return nil, &repository.OperationError{Op: "query", Collection: collection, Err: err}
	}
	defer cursor.Close(ctx)

	docs := []repository.Document{}
	for cursor.Next(ctx) {
		doc, err := decodeRaw(cursor.Current)
		if err != nil {
			return nil, &repository.OperationError{Op: "query", Collection: collection, Err: err}
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, &repository.OperationError{Op: "query", Collection: collection, Err: err}
	}
	return docs, nil
}

// Subscribe opens a change stream on the collection and re-runs the query after every
// relevant event. Deletes carry no document body, so every delete triggers a re-query.
func (s *mongoDocumentStore) Subscribe(ctx context.Context, collection string, predicates []repository.Predicate, onChange repository.ChangeHandler, onError repository.ErrorHandler) (repository.Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(context.Background())

	matchers := bson.A{bson.M{"operationType": "delete"}}
	if len(predicates) > 0 {
		full := bson.M{}
		for _, p := range predicates {
			full["fullDocument."+p.Field] = p.Value
		}
		matchers = append(matchers, full)
	} else {
		matchers = append(matchers, bson.M{"operationType": bson.M{"$in": bson.A{"insert", "replace", "update"}}})
	}
	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.M{"$or": matchers}}}}

	stream, err := s.db.Collection(collection).Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancel()
		return nil, &repository.OperationError{Op: "subscribe", Collection: collection, Err: err}
	}

	go func() {
		defer stream.Close(context.Background())

		deliver := func() bool {
			docs, err := s.QueryByFields(subCtx, collection, predicates...)
			if err != nil {
				if subCtx.Err() == nil {
					onError(err)
				}
				return false
			}
			if subCtx.Err() != nil {
				return false
			}
			onChange(docs)
			return true
		}

		if !deliver() {
			return
		}
		for stream.Next(subCtx) {
			if !deliver() {
				return
			}
		}
		if err := stream.Err(); err != nil && subCtx.Err() == nil && !errors.Is(err, context.Canceled) {
			log.Printf("WARN: change stream on %s ended: %v", collection, err)
			onError(&repository.OperationError{Op: "subscribe", Collection: collection, Err: err})
		}
	}()

	return repository.Unsubscribe(cancel), nil
}

func filterFor(predicates []repository.Predicate) bson.M {
	filter := bson.M{}
	for _, p := range predicates {
		filter[p.Field] = p.Value
	}
	return filter
}

// decodeRaw converts a BSON document to the JSON-shaped field map used by every backend.
func decodeRaw(raw bson.Raw) (repository.Document, error) {
	ext, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return repository.Document{}, fmt.Errorf("failed to convert document: %w", err)
	}
	fields := make(map[string]interface{})
	if err := json.Unmarshal(ext, &fields); err != nil {
		return repository.Document{}, fmt.Errorf("failed to decode document: %w", err)
	}
	id, _ := fields["_id"].(string)
	delete(fields, "_id")
	return repository.Document{ID: id, Fields: fields}, nil
}

// Package firestore implements the document store on Cloud Firestore. Live subscriptions
// use query snapshot listeners.
package firestore

import (
	"context"
	"errors"
	"log"

	"alcyxob/fitness-tracker/internal/repository"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreDocumentStore struct {
	client *firestore.Client
}

// NewFirestoreDocumentStore creates a document store backed by client.
func NewFirestoreDocumentStore(client *firestore.Client) repository.DocumentStore {
	return &firestoreDocumentStore{client: client}
}

func (s *firestoreDocumentStore) WriteDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	data := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		data[k] = v
	}
	data[repository.FieldID] = id
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return &repository.OperationError{Op: "write", Collection: collection, Err: err}
	}
	return nil
}

func (s *firestoreDocumentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return &repository.OperationError{Op: "delete", Collection: collection, Err: err}
	}
	return nil
}

func (s *firestoreDocumentStore) query(collection string, predicates []repository.Predicate) firestore.Query {
	q := s.client.Collection(collection).Query
	for _, p := range predicates {
		q = q.Where(p.Field, "==", p.Value)
	}
	return q.OrderBy(firestore.DocumentID, firestore.Asc)
}

func (s *firestoreDocumentStore) QueryByFields(ctx context.Context, collection string, predicates ...repository.Predicate) ([]repository.Document, error) {
	snaps, err := s.query(collection, predicates).Documents(ctx).GetAll()
	if err != nil {
		return nil, &repository.OperationError{Op: "query", Collection: collection, Err: err}
	}
	return toDocuments(snaps), nil
}

// Subscribe starts a snapshot listener. The listener goroutine owns the iterator and
// stops it on exit; unsubscribing cancels the listener context.
func (s *firestoreDocumentStore) Subscribe(ctx context.Context, collection string, predicates []repository.Predicate, onChange repository.ChangeHandler, onError repository.ErrorHandler) (repository.Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(context.Background())
	it := s.query(collection, predicates).Snapshots(subCtx)

	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if subCtx.Err() != nil || status.Code(err) == codes.Canceled || errors.Is(err, iterator.Done) {
					return
				}
				log.Printf("WARN: snapshot listener on %s ended: %v", collection, err)
				onError(&repository.OperationError{Op: "subscribe", Collection: collection, Err: err})
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				if subCtx.Err() == nil {
					onError(&repository.OperationError{Op: "subscribe", Collection: collection, Err: err})
				}
				return
			}
			if subCtx.Err() != nil {
				return
			}
			onChange(toDocuments(docs))
		}
	}()

	return repository.Unsubscribe(cancel), nil
}

func toDocuments(snaps []*firestore.DocumentSnapshot) []repository.Document {
	docs := make([]repository.Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, repository.Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs
}

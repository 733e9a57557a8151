// Package memory is an in-process DocumentStore. It backs tests and offline development
// and behaves like the cloud backends: writes are upserts and subscribers are notified
// asynchronously with the full matching set.
package memory

import (
	"context"
	"sort"
	"sync"

	"alcyxob/fitness-tracker/internal/repository"
)

// DocumentStore keeps collections in maps guarded by a mutex.
type DocumentStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
	subscribers map[int]*subscription
	nextSubID   int
	failure     error
}

type subscription struct {
	collection string
	predicates []repository.Predicate
	onChange   repository.ChangeHandler
	onError    repository.ErrorHandler
	signal     chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
}

// NewDocumentStore creates an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		collections: make(map[string]map[string]map[string]interface{}),
		subscribers: make(map[int]*subscription),
	}
}

// SetFailure makes every following operation fail with err, and ends live subscriptions
// through their error handlers. Pass nil to recover.
func (s *DocumentStore) SetFailure(err error) {
	s.mu.Lock()
	s.failure = err
	var failed []*subscription
	if err != nil {
		for id, sub := range s.subscribers {
			failed = append(failed, sub)
			delete(s.subscribers, id)
		}
	}
	s.mu.Unlock()

	for _, sub := range failed {
		sub.stop()
		go sub.onError(err)
	}
}

// WriteDocument upserts a full document.
func (s *DocumentStore) WriteDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	if s.failure != nil {
		s.mu.Unlock()
		return s.failure
	}
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]map[string]interface{})
		s.collections[collection] = docs
	}
	docs[id] = copyFields(fields)
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

// DeleteDocument removes a document. Deleting a missing document is not an error.
func (s *DocumentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	if s.failure != nil {
		s.mu.Unlock()
		return s.failure
	}
	delete(s.collections[collection], id)
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

// QueryByFields returns the matching documents ordered by id.
func (s *DocumentStore) QueryByFields(ctx context.Context, collection string, predicates ...repository.Predicate) ([]repository.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	return s.match(collection, predicates), nil
}

// match must be called with the lock held.
func (s *DocumentStore) match(collection string, predicates []repository.Predicate) []repository.Document {
	out := []repository.Document{}
	for id, fields := range s.collections[collection] {
		if repository.Matches(fields, predicates) {
			out = append(out, repository.Document{ID: id, Fields: copyFields(fields)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Subscribe delivers the current matching set right away and again after every write or
// delete in the collection. Notifications coalesce: a slow handler sees the latest set,
// not every intermediate one.
func (s *DocumentStore) Subscribe(ctx context.Context, collection string, predicates []repository.Predicate, onChange repository.ChangeHandler, onError repository.ErrorHandler) (repository.Unsubscribe, error) {
	s.mu.Lock()
	if s.failure != nil {
		s.mu.Unlock()
		return nil, s.failure
	}
	sub := &subscription{
		collection: collection,
		predicates: predicates,
		onChange:   onChange,
		onError:    onError,
		signal:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = sub
	s.mu.Unlock()

	sub.signal <- struct{}{}
	go s.run(sub)

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
		sub.stop()
	}, nil
}

func (s *DocumentStore) run(sub *subscription) {
	for {
		select {
		case <-sub.done:
			return
		case <-sub.signal:
		}
		s.mu.RLock()
		docs := s.match(sub.collection, sub.predicates)
		s.mu.RUnlock()

		select {
		case <-sub.done:
			return
		default:
			sub.onChange(docs)
		}
	}
}

func (s *DocumentStore) notify(collection string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subscribers {
		if sub.collection != collection {
			continue
		}
		select {
		case sub.signal <- struct{}{}:
		default: // a delivery is already pending
		}
	}
}

// SubscriberCount reports live subscriptions, for tests.
func (s *DocumentStore) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

func (sub *subscription) stop() {
	sub.stopOnce.Do(func() { close(sub.done) })
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

package cloudsync

import (
	"context"
	"fmt"
	"log"
	"sort"

	"alcyxob/fitness-tracker/internal/domain"
	"alcyxob/fitness-tracker/internal/metrics"
	"alcyxob/fitness-tracker/internal/repository"
)

// Remote is the typed view of the document store. Every document it writes is tagged with
// the owner id, and workouts and templates also with their profile id; every read is scoped
// by owner.
type Remote struct {
	docs repository.DocumentStore
}

// NewRemote wraps a document store.
func NewRemote(docs repository.DocumentStore) *Remote {
	return &Remote{docs: docs}
}

func observe(op, collection string, err error) error {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailure
	}
	metrics.RemoteOperationsTotal.WithLabelValues(op, collection, result).Inc()
	return err
}

func (r *Remote) write(ctx context.Context, collection, id string, v interface{}, tags map[string]string) error {
	fields, err := repository.ToFields(v)
	if err != nil {
		return err
	}
	for k, val := range tags {
		fields[k] = val
	}
	return observe(metrics.OpWrite, collection, r.docs.WriteDocument(ctx, collection, id, fields))
}

func (r *Remote) delete(ctx context.Context, collection, id string) error {
	return observe(metrics.OpDelete, collection, r.docs.DeleteDocument(ctx, collection, id))
}

func (r *Remote) query(ctx context.Context, collection string, predicates ...repository.Predicate) ([]repository.Document, error) {
	docs, err := r.docs.QueryByFields(ctx, collection, predicates...)
	return docs, observe(metrics.OpQuery, collection, err)
}

// --- Profiles ---

// WriteProfile upserts a profile owned by ownerID.
func (r *Remote) WriteProfile(ctx context.Context, ownerID string, p domain.Profile) error {
	p.OwnerID = ownerID
	return r.write(ctx, repository.ProfilesCollection, p.ID, p, nil)
}

// DeleteProfile removes a profile together with its workouts and templates. The cascade is
// not atomic: a failure part-way leaves the remaining documents in place.
func (r *Remote) DeleteProfile(ctx context.Context, ownerID, profileID string) error {
	scope := []repository.Predicate{
		repository.Eq(repository.FieldOwnerID, ownerID),
		repository.Eq(repository.FieldProfileID, profileID),
	}
	for _, collection := range []string{repository.WorkoutsCollection, repository.TemplatesCollection} {
		docs, err := r.query(ctx, collection, scope...)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if err := r.delete(ctx, collection, doc.ID); err != nil {
				return err
			}
		}
	}
	return r.delete(ctx, repository.ProfilesCollection, profileID)
}

// WatchProfiles subscribes to the owner's profiles.
func (r *Remote) WatchProfiles(ctx context.Context, ownerID string, onChange func([]domain.Profile), onError repository.ErrorHandler) (repository.Unsubscribe, error) {
	preds := []repository.Predicate{repository.Eq(repository.FieldOwnerID, ownerID)}
	unsub, err := r.docs.Subscribe(ctx, repository.ProfilesCollection, preds, func(docs []repository.Document) {
		profiles := make([]domain.Profile, 0, len(docs))
		for _, doc := range docs {
			var p domain.Profile
			if err := repository.DecodeDocument(doc, &p); err != nil {
				log.Printf("WARN: Skipping undecodable profile %s: %v", doc.ID, err)
				continue
			}
			profiles = append(profiles, p)
		}
		onChange(profiles)
	}, onError)
	return unsub, observe(metrics.OpSubscribe, repository.ProfilesCollection, err)
}

// --- Workouts ---

// WriteWorkout upserts a workout of a profile.
func (r *Remote) WriteWorkout(ctx context.Context, ownerID, profileID string, w domain.Workout) error {
	return r.write(ctx, repository.WorkoutsCollection, w.ID, w, map[string]string{
		repository.FieldOwnerID:   ownerID,
		repository.FieldProfileID: profileID,
	})
}

// DeleteWorkout removes a workout.
func (r *Remote) DeleteWorkout(ctx context.Context, workoutID string) error {
	return r.delete(ctx, repository.WorkoutsCollection, workoutID)
}

// WatchWorkouts subscribes to one profile's workouts. Deliveries are ordered newest first.
func (r *Remote) WatchWorkouts(ctx context.Context, ownerID, profileID string, onChange func([]domain.Workout), onError repository.ErrorHandler) (repository.Unsubscribe, error) {
	preds := []repository.Predicate{
		repository.Eq(repository.FieldOwnerID, ownerID),
		repository.Eq(repository.FieldProfileID, profileID),
	}
	unsub, err := r.docs.Subscribe(ctx, repository.WorkoutsCollection, preds, func(docs []repository.Document) {
		workouts := make([]domain.Workout, 0, len(docs))
		for _, doc := range docs {
			var w domain.Workout
			if err := repository.DecodeDocument(doc, &w); err != nil {
				log.Printf("WARN: Skipping undecodable workout %s: %v", doc.ID, err)
				continue
			}
			workouts = append(workouts, w)
		}
		SortNewestFirst(workouts)
		onChange(workouts)
	}, onError)
	return unsub, observe(metrics.OpSubscribe, repository.WorkoutsCollection, err)
}

// SortNewestFirst orders workouts by date descending, breaking ties by id descending.
func SortNewestFirst(workouts []domain.Workout) {
	sort.SliceStable(workouts, func(i, j int) bool {
		if !workouts[i].Date.Equal(workouts[j].Date) {
			return workouts[i].Date.After(workouts[j].Date)
		}
		return workouts[i].ID > workouts[j].ID
	})
}

// --- Templates ---

// WriteTemplate upserts a template of a profile.
func (r *Remote) WriteTemplate(ctx context.Context, ownerID, profileID string, t domain.Template) error {
	return r.write(ctx, repository.TemplatesCollection, t.ID, t, map[string]string{
		repository.FieldOwnerID:   ownerID,
		repository.FieldProfileID: profileID,
	})
}

// DeleteTemplate removes a template.
func (r *Remote) DeleteTemplate(ctx context.Context, templateID string) error {
	return r.delete(ctx, repository.TemplatesCollection, templateID)
}

// FetchTemplates reads all of the owner's templates, grouped by profile id.
func (r *Remote) FetchTemplates(ctx context.Context, ownerID string) (map[string][]domain.Template, error) {
	docs, err := r.query(ctx, repository.TemplatesCollection, repository.Eq(repository.FieldOwnerID, ownerID))
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]domain.Template)
	for _, doc := range docs {
		profileID, _ := doc.Fields[repository.FieldProfileID].(string)
		if profileID == "" {
			continue
		}
		var t domain.Template
		if err := repository.DecodeDocument(doc, &t); err != nil {
			return nil, fmt.Errorf("template %s: %w", doc.ID, err)
		}
		grouped[profileID] = append(grouped[profileID], t)
	}
	return grouped, nil
}

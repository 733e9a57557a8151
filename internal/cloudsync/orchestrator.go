// Package cloudsync mirrors a signed-in user's remote documents into the application state.
// The Orchestrator listens to the owner's profiles, keeps exactly one workout subscription
// per known profile, and fetches templates once per profile.
package cloudsync

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"alcyxob/fitness-tracker/internal/domain"
	"alcyxob/fitness-tracker/internal/identity"
	"alcyxob/fitness-tracker/internal/metrics"
	"alcyxob/fitness-tracker/internal/notify"
	"alcyxob/fitness-tracker/internal/repository"
	"alcyxob/fitness-tracker/internal/state"
)

// StarterProfileName is the profile created for a user who has none.
const StarterProfileName = "You"

// Status summarizes the sync side of the session.
type Status struct {
	SignedIn      bool   `json:"signedIn"`
	UserID        string `json:"userId,omitempty"`
	SyncFailed    bool   `json:"syncFailed"`
	Subscriptions int    `json:"subscriptions"`
}

// MigrateResult counts the documents a migration wrote.
type MigrateResult struct {
	Profiles  int `json:"profiles"`
	Workouts  int `json:"workouts"`
	Templates int `json:"templates"`
}

// Orchestrator implements identity.Listener.
type Orchestrator struct {
	remote   *Remote
	state    *state.State
	notifier notify.Notifier
	now      func() time.Time

	mu sync.Mutex
	// generation increases on every sign-in and sign-out; callbacks carrying an older
	// generation are dropped.
	generation      uint64
	user            *identity.User
	profileUnsub    repository.Unsubscribe
	workoutUnsubs   map[string]repository.Unsubscribe // nil value: subscription starting
	templatesSeen   map[string]bool
	creatingStarter bool
}

// NewOrchestrator creates an idle orchestrator.
func NewOrchestrator(remote *Remote, st *state.State, notifier notify.Notifier) *Orchestrator {
	return &Orchestrator{
		remote:        remote,
		state:         st,
		notifier:      notifier,
		now:           time.Now,
		workoutUnsubs: make(map[string]repository.Unsubscribe),
		templatesSeen: make(map[string]bool),
	}
}

// OnSignedIn clears the state and starts listening to the user's profiles.
func (o *Orchestrator) OnSignedIn(ctx context.Context, user identity.User) error {
	o.mu.Lock()
	o.stopLocked()
	o.generation++
	gen := o.generation
	o.user = &user
	o.mu.Unlock()

	o.state.Clear()

	unsub, err := o.remote.WatchProfiles(ctx, user.ID,
		func(profiles []domain.Profile) { o.handleProfiles(gen, user, profiles) },
		func(err error) { o.handleSubscriptionError(gen, repository.ProfilesCollection, err) },
	)
	if err != nil {
		o.handleSubscriptionError(gen, repository.ProfilesCollection, err)
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		unsub()
		return nil
	}
	o.profileUnsub = unsub
	metrics.ActiveSubscriptions.Inc()
	log.Printf("INFO: Sync started for user %s", user.ID)
	return nil
}

// OnSignedOut stops every subscription and clears the state.
func (o *Orchestrator) OnSignedOut() {
	o.mu.Lock()
	o.stopLocked()
	o.generation++
	o.user = nil
	o.mu.Unlock()

	o.state.Clear()
	log.Println("INFO: Sync stopped")
}

// stopLocked must be called with the lock held. Unsubscribing never blocks.
func (o *Orchestrator) stopLocked() {
	if o.profileUnsub != nil {
		o.profileUnsub()
		o.profileUnsub = nil
		metrics.ActiveSubscriptions.Dec()
	}
	for pid, unsub := range o.workoutUnsubs {
		if unsub != nil {
			unsub()
			metrics.ActiveSubscriptions.Dec()
		}
		delete(o.workoutUnsubs, pid)
	}
	o.templatesSeen = make(map[string]bool)
	o.creatingStarter = false
}

func (o *Orchestrator) handleProfiles(gen uint64, user identity.User, profiles []domain.Profile) {
	o.mu.Lock()
	if o.generation != gen {
		o.mu.Unlock()
		return
	}

	if len(profiles) == 0 {
		for pid, unsub := range o.workoutUnsubs {
			if unsub != nil {
				unsub()
				metrics.ActiveSubscriptions.Dec()
			}
			delete(o.workoutUnsubs, pid)
		}
		o.templatesSeen = make(map[string]bool)
		o.state.SetProfiles(nil)
		if o.creatingStarter {
			o.mu.Unlock()
			return
		}
		o.creatingStarter = true
		o.mu.Unlock()
		o.createStarter(gen, user)
		return
	}
	o.creatingStarter = false

	domain.SortProfiles(profiles)
	wanted := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		wanted[p.ID] = true
	}

	// Reconcile: stop only removed profiles, start only new ones.
	for pid, unsub := range o.workoutUnsubs {
		if wanted[pid] {
			continue
		}
		if unsub != nil {
			unsub()
			metrics.ActiveSubscriptions.Dec()
		}
		delete(o.workoutUnsubs, pid)
		delete(o.templatesSeen, pid)
	}
	var toStart, needTemplates []string
	for _, p := range profiles {
		if _, ok := o.workoutUnsubs[p.ID]; !ok {
			o.workoutUnsubs[p.ID] = nil
			toStart = append(toStart, p.ID)
		}
		if !o.templatesSeen[p.ID] {
			o.templatesSeen[p.ID] = true
			needTemplates = append(needTemplates, p.ID)
		}
	}
	o.state.SetProfiles(profiles)
	o.mu.Unlock()

	for _, pid := range toStart {
		o.watchWorkouts(gen, user, pid)
	}
	if len(needTemplates) > 0 {
		o.loadTemplates(gen, user, needTemplates)
	}
}

// createStarter writes the starter profile. The profile subscription delivers it back.
func (o *Orchestrator) createStarter(gen uint64, user identity.User) {
	starter := domain.NewProfile(StarterProfileName, "", "", o.now().UTC())
	err := o.remote.WriteProfile(context.Background(), user.ID, starter)
	if err == nil {
		log.Printf("INFO: Created starter profile %s for user %s", starter.ID, user.ID)
		return
	}

	o.mu.Lock()
	stale := o.generation != gen
	o.creatingStarter = false
	o.mu.Unlock()
	if stale {
		return
	}
	log.Printf("ERROR: Failed to create starter profile for user %s: %v", user.ID, err)
	o.notifier.Notify(notify.LevelError, "Could not create your first profile")
}

func (o *Orchestrator) watchWorkouts(gen uint64, user identity.User, profileID string) {
	unsub, err := o.remote.WatchWorkouts(context.Background(), user.ID, profileID,
		func(workouts []domain.Workout) { o.handleWorkouts(gen, profileID, workouts) },
		func(err error) { o.handleSubscriptionError(gen, repository.WorkoutsCollection, err) },
	)
	if err != nil {
		o.handleSubscriptionError(gen, repository.WorkoutsCollection, err)
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	current, ok := o.workoutUnsubs[profileID]
	if o.generation != gen || !ok || current != nil {
		unsub()
		return
	}
	o.workoutUnsubs[profileID] = unsub
	metrics.ActiveSubscriptions.Inc()
}

func (o *Orchestrator) handleWorkouts(gen uint64, profileID string, workouts []domain.Workout) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		return
	}
	if _, ok := o.workoutUnsubs[profileID]; !ok {
		return
	}
	o.state.SetWorkouts(profileID, workouts)
}

// loadTemplates does the one-time template fetch for newly seen profiles.
func (o *Orchestrator) loadTemplates(gen uint64, user identity.User, profileIDs []string) {
	grouped, err := o.remote.FetchTemplates(context.Background(), user.ID)
	if err != nil {
		log.Printf("ERROR: Failed to fetch templates for user %s: %v", user.ID, err)
		o.mu.Lock()
		for _, pid := range profileIDs {
			delete(o.templatesSeen, pid)
		}
		o.mu.Unlock()
		o.notifier.Notify(notify.LevelError, "Could not load templates")
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		return
	}
	for _, pid := range profileIDs {
		if _, ok := o.workoutUnsubs[pid]; !ok {
			continue
		}
		templates := grouped[pid]
		if templates == nil {
			templates = []domain.Template{}
		}
		o.state.SetTemplates(pid, templates)
	}
}

func (o *Orchestrator) handleSubscriptionError(gen uint64, collection string, err error) {
	o.mu.Lock()
	stale := o.generation != gen
	o.mu.Unlock()
	if stale {
		return
	}
	log.Printf("ERROR: Subscription to %s failed: %v", collection, err)
	metrics.SubscriptionErrorsTotal.WithLabelValues(collection).Inc()
	o.state.SetSyncFailed(true)
	o.notifier.Notify(notify.LevelError, "Sync failed. Changes may not be up to date.")
}

// Migrate copies a local data set into the user's remote documents. Writes are upserts keyed
// by the local ids, so repeating a migration does not duplicate anything, and no remote
// document is ever deleted. The first failed write stops the migration.
func (o *Orchestrator) Migrate(ctx context.Context, user identity.User, snap domain.Snapshot) (MigrateResult, error) {
	var result MigrateResult
	for _, p := range snap.Profiles {
		if err := o.remote.WriteProfile(ctx, user.ID, p); err != nil {
			return result, fmt.Errorf("profile %s: %w", p.ID, err)
		}
		result.Profiles++
		for _, w := range snap.ProfileWorkouts[p.ID] {
			if err := o.remote.WriteWorkout(ctx, user.ID, p.ID, w); err != nil {
				return result, fmt.Errorf("workout %s: %w", w.ID, err)
			}
			result.Workouts++
		}
		for _, t := range snap.ProfileTemplates[p.ID] {
			if err := o.remote.WriteTemplate(ctx, user.ID, p.ID, t); err != nil {
				return result, fmt.Errorf("template %s: %w", t.ID, err)
			}
			result.Templates++
		}
	}
	log.Printf("INFO: Migrated %d profiles, %d workouts, %d templates for user %s",
		result.Profiles, result.Workouts, result.Templates, user.ID)
	return result, nil
}

// Status reports the current sync status.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := Status{SyncFailed: o.state.SyncFailed()}
	if o.user != nil {
		st.SignedIn = true
		st.UserID = o.user.ID
	}
	if o.profileUnsub != nil {
		st.Subscriptions++
	}
	for _, unsub := range o.workoutUnsubs {
		if unsub != nil {
			st.Subscriptions++
		}
	}
	return st
}

// WorkoutSubscriptions returns the profile ids that currently have a workout subscription
// registered or starting.
func (o *Orchestrator) WorkoutSubscriptions() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.workoutUnsubs))
	for pid := range o.workoutUnsubs {
		ids = append(ids, pid)
	}
	return ids
}

package cloudsync

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"alcyxob/fitness-tracker/internal/domain"
	"alcyxob/fitness-tracker/internal/identity"
	"alcyxob/fitness-tracker/internal/notify"
	"alcyxob/fitness-tracker/internal/repository"
	"alcyxob/fitness-tracker/internal/repository/memory"
	"alcyxob/fitness-tracker/internal/state"
)

type captureNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (c *captureNotifier) Notify(level notify.Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, string(level)+":"+message)
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func setup(t *testing.T) (*memory.DocumentStore, *Remote, *state.State, *Orchestrator, *captureNotifier) {
	t.Helper()
	store := memory.NewDocumentStore()
	remote := NewRemote(store)
	st := state.New(domain.Snapshot{})
	notifier := &captureNotifier{}
	orch := NewOrchestrator(remote, st, notifier)
	t.Cleanup(orch.OnSignedOut)
	return store, remote, st, orch, notifier
}

func profileAt(id string, minute int) domain.Profile {
	return domain.Profile{ID: id, Name: id, CreatedAt: time.Date(2024, 1, 1, 0, minute, 0, 0, time.UTC)}
}

func sorted(ids []string) []string {
	sort.Strings(ids)
	return ids
}

func TestSignInCreatesStarterProfile(t *testing.T) {
	store, _, st, orch, _ := setup(t)
	user := identity.User{ID: "u1"}

	if err := orch.OnSignedIn(context.Background(), user); err != nil {
		t.Fatalf("Failed to start sync: %v", err)
	}
	waitFor(t, "starter profile", func() bool { return len(st.Profiles()) == 1 })

	p := st.Profiles()[0]
	if p.Name != StarterProfileName {
		t.Errorf("Expected starter profile %q, got %q", StarterProfileName, p.Name)
	}
	if st.CurrentProfileID() != p.ID {
		t.Errorf("Expected starter to become current, got %q", st.CurrentProfileID())
	}

	// Exactly one starter was written.
	docs, _ := store.QueryByFields(context.Background(), repository.ProfilesCollection, repository.Eq(repository.FieldOwnerID, "u1"))
	if len(docs) != 1 {
		t.Errorf("Expected one remote profile, got %d", len(docs))
	}
}

func TestWorkoutSubscriptionsReconcileByDiff(t *testing.T) {
	store, remote, st, orch, _ := setup(t)
	ctx := context.Background()
	user := identity.User{ID: "u1"}

	remote.WriteProfile(ctx, "u1", profileAt("b", 1))
	remote.WriteProfile(ctx, "u1", profileAt("a", 0))
	remote.WriteProfile(ctx, "other", profileAt("x", 0))
	remote.WriteWorkout(ctx, "u1", "a", domain.Workout{ID: "w1", Entry: domain.Entry{Type: domain.TypeGym, Exercise: "Bench"}, Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)})
	remote.WriteWorkout(ctx, "u1", "a", domain.Workout{ID: "w2", Entry: domain.Entry{Type: domain.TypeGym, Exercise: "Squat"}, Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)})
	remote.WriteTemplate(ctx, "u1", "b", domain.Template{ID: "t1", Name: "Push"})

	if err := orch.OnSignedIn(ctx, user); err != nil {
		t.Fatalf("Failed to start sync: %v", err)
	}
	waitFor(t, "profiles", func() bool { return len(st.Profiles()) == 2 })
	if st.CurrentProfileID() != "a" {
		t.Errorf("Expected earliest profile a to be current, got %q", st.CurrentProfileID())
	}
	waitFor(t, "workouts", func() bool { return len(st.Workouts("a")) == 2 })
	if ws := st.Workouts("a"); ws[0].ID != "w2" {
		t.Errorf("Expected newest workout first, got %s", ws[0].ID)
	}
	waitFor(t, "templates", func() bool { return len(st.Templates("b")) == 1 })
	waitFor(t, "two workout subscriptions", func() bool { return orch.Status().Subscriptions == 3 })

	// Adding a profile starts only one subscription; the memory store counts live ones.
	before := store.SubscriberCount()
	remote.WriteProfile(ctx, "u1", profileAt("c", 2))
	waitFor(t, "third subscription", func() bool { return store.SubscriberCount() == before+1 })
	if got := sorted(orch.WorkoutSubscriptions()); len(got) != 3 {
		t.Errorf("Expected subscriptions for a, b, c, got %v", got)
	}

	// Removing a profile stops only its subscription.
	remote.DeleteProfile(ctx, "u1", "b")
	waitFor(t, "profile removal", func() bool { return len(st.Profiles()) == 2 })
	waitFor(t, "subscription removal", func() bool { return store.SubscriberCount() == before })
	got := sorted(orch.WorkoutSubscriptions())
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("Expected subscriptions for a and c, got %v", got)
	}
	if docs, _ := store.QueryByFields(ctx, repository.TemplatesCollection); len(docs) != 0 {
		t.Errorf("Expected cascade delete of b's templates, got %d", len(docs))
	}
}

// profileWriteFailer refuses profile writes while failing is set.
type profileWriteFailer struct {
	*memory.DocumentStore
	failing atomic.Bool
}

func (f *profileWriteFailer) WriteDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if collection == repository.ProfilesCollection && f.failing.Load() {
		return errors.New("quota exceeded")
	}
	return f.DocumentStore.WriteDocument(ctx, collection, id, fields)
}

func TestDeletingLastProfileStopsItsWorkoutSubscription(t *testing.T) {
	store := &profileWriteFailer{DocumentStore: memory.NewDocumentStore()}
	remote := NewRemote(store)
	st := state.New(domain.Snapshot{})
	notifier := &captureNotifier{}
	orch := NewOrchestrator(remote, st, notifier)
	t.Cleanup(orch.OnSignedOut)
	ctx := context.Background()

	remote.WriteProfile(ctx, "u1", profileAt("a", 0))
	if err := orch.OnSignedIn(ctx, identity.User{ID: "u1"}); err != nil {
		t.Fatalf("Failed to start sync: %v", err)
	}
	waitFor(t, "profile and workout subscriptions", func() bool { return store.SubscriberCount() == 2 })

	// The replacement starter cannot be written, so nothing else resets the subscriptions.
	store.failing.Store(true)
	if err := store.DeleteDocument(ctx, repository.ProfilesCollection, "a"); err != nil {
		t.Fatalf("Failed to delete profile: %v", err)
	}
	waitFor(t, "starter failure notification", func() bool { return notifier.count() > 0 })
	waitFor(t, "workout subscription stopped", func() bool { return store.SubscriberCount() == 1 })
	if got := orch.WorkoutSubscriptions(); len(got) != 0 {
		t.Errorf("Expected no workout subscriptions, got %v", got)
	}

	remote.WriteWorkout(ctx, "u1", "a", domain.Workout{ID: "w1", Entry: domain.Entry{Type: domain.TypeGym, Exercise: "Bench"}})
	time.Sleep(20 * time.Millisecond)
	if _, ok := st.Snapshot().ProfileWorkouts["a"]; ok {
		t.Error("Expected no workouts kept for the deleted profile")
	}
	if len(st.Profiles()) != 0 {
		t.Errorf("Expected no profiles, got %d", len(st.Profiles()))
	}
}

func TestSignOutClearsStateAndSubscriptions(t *testing.T) {
	store, remote, st, orch, _ := setup(t)
	ctx := context.Background()
	remote.WriteProfile(ctx, "u1", profileAt("a", 0))

	orch.OnSignedIn(ctx, identity.User{ID: "u1"})
	waitFor(t, "profiles", func() bool { return len(st.Profiles()) == 1 })
	waitFor(t, "subscriptions", func() bool { return store.SubscriberCount() == 2 })

	orch.OnSignedOut()
	if store.SubscriberCount() != 0 {
		t.Errorf("Expected no subscriptions after sign-out, got %d", store.SubscriberCount())
	}
	if len(st.Profiles()) != 0 {
		t.Errorf("Expected state cleared, got %d profiles", len(st.Profiles()))
	}
	if orch.Status().SignedIn {
		t.Error("Expected status signed out")
	}

	// Late remote changes no longer reach the state.
	remote.WriteProfile(ctx, "u1", profileAt("late", 5))
	time.Sleep(20 * time.Millisecond)
	if len(st.Profiles()) != 0 {
		t.Errorf("Expected stale callbacks to be dropped, got %d profiles", len(st.Profiles()))
	}
}

func TestSubscriptionErrorSetsStickyFlag(t *testing.T) {
	store, remote, st, orch, notifier := setup(t)
	ctx := context.Background()
	remote.WriteProfile(ctx, "u1", profileAt("a", 0))

	orch.OnSignedIn(ctx, identity.User{ID: "u1"})
	waitFor(t, "profiles", func() bool { return len(st.Profiles()) == 1 })

	store.SetFailure(errors.New("permission denied"))
	waitFor(t, "sync failed flag", func() bool { return st.SyncFailed() })
	if !orch.Status().SyncFailed {
		t.Error("Expected status to report the failure")
	}
	if notifier.count() == 0 {
		t.Error("Expected a failure notification")
	}

	store.SetFailure(nil)
	time.Sleep(20 * time.Millisecond)
	if !st.SyncFailed() {
		t.Error("Expected failure flag to stay set until the next sign-in")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store, _, _, orch, _ := setup(t)
	ctx := context.Background()
	snap := domain.Snapshot{
		Profiles: []domain.Profile{profileAt("p1", 0)},
		ProfileWorkouts: map[string][]domain.Workout{
			"p1": {{ID: "w1", Entry: domain.Entry{Type: domain.TypeCardio, CardioType: domain.CardioRunning}}},
		},
		ProfileTemplates: map[string][]domain.Template{
			"p1": {{ID: "t1", Name: "Run"}},
		},
	}

	for i := 0; i < 2; i++ {
		result, err := orch.Migrate(ctx, identity.User{ID: "u1"}, snap)
		if err != nil {
			t.Fatalf("Failed to migrate: %v", err)
		}
		if result.Profiles != 1 || result.Workouts != 1 || result.Templates != 1 {
			t.Errorf("Expected 1/1/1 documents, got %+v", result)
		}
	}

	workouts, _ := store.QueryByFields(ctx, repository.WorkoutsCollection, repository.Eq(repository.FieldOwnerID, "u1"))
	if len(workouts) != 1 {
		t.Fatalf("Expected one remote workout after two migrations, got %d", len(workouts))
	}
	if workouts[0].Fields[repository.FieldProfileID] != "p1" {
		t.Errorf("Expected workout tagged with profile p1, got %v", workouts[0].Fields[repository.FieldProfileID])
	}
}

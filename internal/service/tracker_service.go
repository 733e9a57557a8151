package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"alcyxob/fitness-tracker/internal/backup"
	"alcyxob/fitness-tracker/internal/cloudsync"
	"alcyxob/fitness-tracker/internal/domain"
	"alcyxob/fitness-tracker/internal/identity"
	"alcyxob/fitness-tracker/internal/localstore"
	"alcyxob/fitness-tracker/internal/notify"
	"alcyxob/fitness-tracker/internal/records"
	"alcyxob/fitness-tracker/internal/state"
	"alcyxob/fitness-tracker/internal/storage"
)

// CalendarDays is the length of the activity calendar.
const CalendarDays = 30

// ProfileSummary is a profile with its workout count, for the profile picker.
type ProfileSummary struct {
	domain.Profile
	WorkoutCount int  `json:"workoutCount"`
	Current      bool `json:"current"`
}

// Stats is everything the progress view shows for the current profile.
type Stats struct {
	Counters          records.Counters                            `json:"counters"`
	Records           map[string]records.Record                   `json:"records"`
	ExerciseSeries    map[string][]records.ExercisePoint          `json:"exerciseSeries"`
	CardioSeries      map[domain.CardioType][]records.CardioPoint `json:"cardioSeries"`
	Calendar          []records.CalendarDay                       `json:"calendar"`
	SuggestedBodyPart domain.BodyPart                             `json:"suggestedBodyPart"`
}

// SessionReader exposes who is signed in.
type SessionReader interface {
	CurrentUser() (identity.User, bool)
}

// TrackerService is the application's use-case layer. While nobody is signed in every
// change is applied to the state and persisted locally; while signed in, profile and
// workout changes are written remotely and arrive back through the sync subscriptions.
type TrackerService interface {
	Init() (localstore.LoadResult, error)

	// Profiles
	ListProfiles() []ProfileSummary
	CurrentProfile() (domain.Profile, error)
	CreateProfile(ctx context.Context, name, color, emoji string) (domain.Profile, error)
	SwitchProfile(ctx context.Context, profileID string) error
	DeleteProfile(ctx context.Context, profileID string) error

	// Workouts (current profile)
	ListWorkouts() ([]domain.Workout, error)
	AddWorkout(ctx context.Context, requestID string, entry domain.Entry) (domain.Workout, error)
	UpdateWorkout(ctx context.Context, workoutID string, entry domain.Entry) (domain.Workout, error)
	DeleteWorkout(ctx context.Context, workoutID string) error
	RepeatLast() (domain.Entry, error)
	SuggestBodyPart() (domain.BodyPart, error)

	// Templates (current profile)
	ListTemplates() ([]domain.Template, error)
	SaveTemplate(ctx context.Context, name string, exercises []domain.Entry) (domain.Template, error)
	DeleteTemplate(ctx context.Context, templateID string) error
	LoadTemplate(templateID string) (domain.Entry, error)

	// Progress
	Stats() (Stats, error)

	// Backup and sync
	Export() ([]byte, error)
	ExportToStorage(ctx context.Context) (storage.ExportLink, error)
	Import(ctx context.Context, data []byte, mode backup.Mode) error
	MigrateToCloud(ctx context.Context) (cloudsync.MigrateResult, error)
	SyncStatus() cloudsync.Status

	// identity.Listener
	OnSignedIn(ctx context.Context, user identity.User) error
	OnSignedOut()
}

// ExportOptions configures uploaded exports. A nil Storage disables them.
type ExportOptions struct {
	Storage   storage.ArtifactStorage
	Prefix    string
	URLExpiry time.Duration
}

// trackerService implements TrackerService.
type trackerService struct {
	state        *state.State
	local        *localstore.Store
	remote       *cloudsync.Remote
	orchestrator *cloudsync.Orchestrator
	session      SessionReader
	notifier     notify.Notifier
	exports      ExportOptions
	now          func() time.Time

	inflightMu sync.Mutex
	inflight   map[string]bool
}

// NewTrackerService wires the service. The orchestrator must share st.
func NewTrackerService(
	st *state.State,
	local *localstore.Store,
	remote *cloudsync.Remote,
	orchestrator *cloudsync.Orchestrator,
	session SessionReader,
	notifier notify.Notifier,
	exports ExportOptions,
) TrackerService {
	return &trackerService{
		state:        st,
		local:        local,
		remote:       remote,
		orchestrator: orchestrator,
		session:      session,
		notifier:     notifier,
		exports:      exports,
		now:          time.Now,
		inflight:     make(map[string]bool),
	}
}

// Init loads the local snapshot into the state.
func (s *trackerService) Init() (localstore.LoadResult, error) {
	snap, result, err := s.local.Load()
	if err != nil {
		log.Printf("ERROR: Failed to load local data: %v", err)
		return result, err
	}
	s.state.Replace(snap)
	log.Printf("INFO: Local data loaded (%s): %d profiles", result, len(snap.Profiles))
	return result, nil
}

// --- Mode helpers ---

func (s *trackerService) cloudUser() (identity.User, bool) {
	if s.session == nil {
		return identity.User{}, false
	}
	return s.session.CurrentUser()
}

// persist saves the state locally when in local mode. Failures are logged by the store
// and otherwise ignored.
func (s *trackerService) persist() {
	if _, signedIn := s.cloudUser(); signedIn {
		return
	}
	_ = s.local.Save(s.state.Snapshot())
}

func (s *trackerService) remoteFailed(action string, err error) error {
	log.Printf("ERROR: Remote %s failed: %v", action, err)
	s.notifier.Notify(notify.LevelError, "Could not "+action)
	return fmt.Errorf("%w: %s: %v", ErrRemoteOperation, action, err)
}

func (s *trackerService) currentProfileID() (string, error) {
	id := s.state.CurrentProfileID()
	if id == "" {
		return "", ErrNoCurrentProfile
	}
	return id, nil
}

// --- Profiles ---

func (s *trackerService) ListProfiles() []ProfileSummary {
	snap := s.state.Snapshot()
	out := make([]ProfileSummary, 0, len(snap.Profiles))
	for _, p := range snap.Profiles {
		out = append(out, ProfileSummary{
			Profile:      p,
			WorkoutCount: len(snap.ProfileWorkouts[p.ID]),
			Current:      p.ID == snap.Current(),
		})
	}
	return out
}

func (s *trackerService) CurrentProfile() (domain.Profile, error) {
	id, err := s.currentProfileID()
	if err != nil {
		return domain.Profile{}, err
	}
	p, ok := s.state.Profile(id)
	if !ok {
		return domain.Profile{}, ErrProfileNotFound
	}
	return p, nil
}

// CreateProfile adds a profile and selects it. Cloud users get exactly one profile.
func (s *trackerService) CreateProfile(ctx context.Context, name, color, emoji string) (domain.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Profile{}, fmt.Errorf("%w: profile name is required", ErrValidationFailed)
	}
	p := domain.NewProfile(name, strings.TrimSpace(color), strings.TrimSpace(emoji), s.now().UTC())

	if user, signedIn := s.cloudUser(); signedIn {
		if len(s.state.Profiles()) >= 1 {
			return domain.Profile{}, ErrProfileLimit
		}
		if err := s.remote.WriteProfile(ctx, user.ID, p); err != nil {
			return domain.Profile{}, s.remoteFailed("create profile", err)
		}
		p.OwnerID = user.ID
	} else {
		s.state.AddProfile(p)
		s.state.SetCurrentProfile(p.ID)
		s.persist()
	}
	s.notifier.Notify(notify.LevelSuccess, "Profile created")
	return p, nil
}

func (s *trackerService) SwitchProfile(ctx context.Context, profileID string) error {
	if !s.state.SetCurrentProfile(profileID) {
		return ErrProfileNotFound
	}
	s.persist()
	s.notifier.Notify(notify.LevelInfo, "Switched profile")
	return nil
}

// DeleteProfile removes a profile with its workouts and templates.
func (s *trackerService) DeleteProfile(ctx context.Context, profileID string) error {
	if _, ok := s.state.Profile(profileID); !ok {
		return ErrProfileNotFound
	}
	if user, signedIn := s.cloudUser(); signedIn {
		if err := s.remote.DeleteProfile(ctx, user.ID, profileID); err != nil {
			return s.remoteFailed("delete profile", err)
		}
	} else {
		s.state.RemoveProfile(profileID)
		s.persist()
	}
	s.notifier.Notify(notify.LevelInfo, "Profile deleted")
	return nil
}

// --- Workouts ---

func (s *trackerService) ListWorkouts() ([]domain.Workout, error) {
	pid, err := s.currentProfileID()
	if err != nil {
		return nil, err
	}
	return s.state.Workouts(pid), nil
}

func validEntry(entry domain.Entry) (domain.Entry, error) {
	entry = entry.Normalize()
	if err := entry.Validate(); err != nil {
		return entry, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return entry, nil
}

// beginSubmit claims requestID. An empty id is never guarded.
func (s *trackerService) beginSubmit(requestID string) (func(), error) {
	if requestID == "" {
		return func() {}, nil
	}
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if s.inflight[requestID] {
		return nil, ErrDuplicateSubmit
	}
	s.inflight[requestID] = true
	return func() {
		s.inflightMu.Lock()
		delete(s.inflight, requestID)
		s.inflightMu.Unlock()
	}, nil
}

// AddWorkout logs a new workout on the current profile. While a submission with the same
// non-empty requestID is in flight, a second one fails with ErrDuplicateSubmit.
func (s *trackerService) AddWorkout(ctx context.Context, requestID string, entry domain.Entry) (domain.Workout, error) {
	entry, err := validEntry(entry)
	if err != nil {
		return domain.Workout{}, err
	}
	pid, err := s.currentProfileID()
	if err != nil {
		return domain.Workout{}, err
	}
	done, err := s.beginSubmit(requestID)
	if err != nil {
		return domain.Workout{}, err
	}
	defer done()

	w := domain.NewWorkout(entry, s.now().UTC())
	if user, signedIn := s.cloudUser(); signedIn {
		if err := s.remote.WriteWorkout(ctx, user.ID, pid, w); err != nil {
			return domain.Workout{}, s.remoteFailed("save workout", err)
		}
	} else {
		s.state.PrependWorkout(pid, w)
		s.persist()
	}
	s.notifier.Notify(notify.LevelSuccess, "Workout added")
	return w, nil
}

func (s *trackerService) findWorkout(pid, workoutID string) (domain.Workout, bool) {
	for _, w := range s.state.Workouts(pid) {
		if w.ID == workoutID {
			return w, true
		}
	}
	return domain.Workout{}, false
}

// UpdateWorkout replaces the entry of a workout. Id, date and time of day are kept.
func (s *trackerService) UpdateWorkout(ctx context.Context, workoutID string, entry domain.Entry) (domain.Workout, error) {
	entry, err := validEntry(entry)
	if err != nil {
		return domain.Workout{}, err
	}
	pid, err := s.currentProfileID()
	if err != nil {
		return domain.Workout{}, err
	}
	w, ok := s.findWorkout(pid, workoutID)
	if !ok {
		return domain.Workout{}, ErrWorkoutNotFound
	}
	w.Entry = entry

	if user, signedIn := s.cloudUser(); signedIn {
		if err := s.remote.WriteWorkout(ctx, user.ID, pid, w); err != nil {
			return domain.Workout{}, s.remoteFailed("update workout", err)
		}
	} else {
		s.state.ReplaceWorkout(pid, w)
		s.persist()
	}
	s.notifier.Notify(notify.LevelSuccess, "Workout updated")
	return w, nil
}

func (s *trackerService) DeleteWorkout(ctx context.Context, workoutID string) error {
	pid, err := s.currentProfileID()
	if err != nil {
		return err
	}
	if _, ok := s.findWorkout(pid, workoutID); !ok {
		return ErrWorkoutNotFound
	}
	if _, signedIn := s.cloudUser(); signedIn {
		if err := s.remote.DeleteWorkout(ctx, workoutID); err != nil {
			return s.remoteFailed("delete workout", err)
		}
	} else {
		s.state.RemoveWorkout(pid, workoutID)
		s.persist()
	}
	s.notifier.Notify(notify.LevelInfo, "Workout deleted")
	return nil
}

// RepeatLast returns the newest gym workout as a prefilled entry.
func (s *trackerService) RepeatLast() (domain.Entry, error) {
	workouts, err := s.ListWorkouts()
	if err != nil {
		return domain.Entry{}, err
	}
	entry, ok := records.LastGymEntry(workouts)
	if !ok {
		return domain.Entry{}, ErrNothingToRepeat
	}
	return entry, nil
}

func (s *trackerService) SuggestBodyPart() (domain.BodyPart, error) {
	workouts, err := s.ListWorkouts()
	if err != nil {
		return "", err
	}
	return records.SuggestBodyPart(workouts), nil
}

// --- Templates ---

func (s *trackerService) ListTemplates() ([]domain.Template, error) {
	pid, err := s.currentProfileID()
	if err != nil {
		return nil, err
	}
	return s.state.Templates(pid), nil
}

// SaveTemplate stores a named preset of one or more entries on the current profile.
func (s *trackerService) SaveTemplate(ctx context.Context, name string, exercises []domain.Entry) (domain.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Template{}, fmt.Errorf("%w: template name is required", ErrValidationFailed)
	}
	if len(exercises) == 0 {
		return domain.Template{}, fmt.Errorf("%w: a template needs at least one exercise", ErrValidationFailed)
	}
	cleaned := make([]domain.Entry, 0, len(exercises))
	for _, e := range exercises {
		e = e.Normalize()
		if err := e.ValidateEnums(); err != nil {
			return domain.Template{}, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		cleaned = append(cleaned, e)
	}
	pid, err := s.currentProfileID()
	if err != nil {
		return domain.Template{}, err
	}

	t := domain.NewTemplate(name, cleaned)
	if user, signedIn := s.cloudUser(); signedIn {
		if err := s.remote.WriteTemplate(ctx, user.ID, pid, t); err != nil {
			return domain.Template{}, s.remoteFailed("save template", err)
		}
		// Templates are fetched once per session, so the state is updated directly.
		s.state.AppendTemplate(pid, t)
	} else {
		s.state.AppendTemplate(pid, t)
		s.persist()
	}
	s.notifier.Notify(notify.LevelSuccess, "Template saved")
	return t, nil
}

func (s *trackerService) findTemplate(pid, templateID string) (domain.Template, bool) {
	for _, t := range s.state.Templates(pid) {
		if t.ID == templateID {
			return t, true
		}
	}
	return domain.Template{}, false
}

func (s *trackerService) DeleteTemplate(ctx context.Context, templateID string) error {
	pid, err := s.currentProfileID()
	if err != nil {
		return err
	}
	if _, ok := s.findTemplate(pid, templateID); !ok {
		return ErrTemplateNotFound
	}
	if _, signedIn := s.cloudUser(); signedIn {
		if err := s.remote.DeleteTemplate(ctx, templateID); err != nil {
			return s.remoteFailed("delete template", err)
		}
		s.state.RemoveTemplate(pid, templateID)
	} else {
		s.state.RemoveTemplate(pid, templateID)
		s.persist()
	}
	s.notifier.Notify(notify.LevelInfo, "Template deleted")
	return nil
}

// LoadTemplate returns the template's first entry as a prefilled form.
func (s *trackerService) LoadTemplate(templateID string) (domain.Entry, error) {
	pid, err := s.currentProfileID()
	if err != nil {
		return domain.Entry{}, err
	}
	t, ok := s.findTemplate(pid, templateID)
	if !ok {
		return domain.Entry{}, ErrTemplateNotFound
	}
	if len(t.Exercises) == 0 {
		return domain.Entry{}, fmt.Errorf("%w: template has no exercises", ErrValidationFailed)
	}
	s.notifier.Notify(notify.LevelInfo, "Template loaded")
	return t.Exercises[0].Normalize(), nil
}

// --- Progress ---

func (s *trackerService) Stats() (Stats, error) {
	workouts, err := s.ListWorkouts()
	if err != nil {
		return Stats{}, err
	}
	now := s.now()
	return Stats{
		Counters:          records.ComputeCounters(workouts, now),
		Records:           records.ComputeRecords(workouts),
		ExerciseSeries:    records.BuildExerciseSeries(workouts),
		CardioSeries:      records.BuildCardioSeries(workouts),
		Calendar:          records.ActivityCalendar(workouts, now, CalendarDays),
		SuggestedBodyPart: records.SuggestBodyPart(workouts),
	}, nil
}

// --- Backup and sync ---

// Export renders the whole state as the backup artifact.
func (s *trackerService) Export() ([]byte, error) {
	return backup.Encode(s.state.Snapshot())
}

// ExportToStorage uploads the backup artifact and returns a presigned download link.
func (s *trackerService) ExportToStorage(ctx context.Context) (storage.ExportLink, error) {
	if s.exports.Storage == nil {
		return storage.ExportLink{}, ErrExportStorageMissing
	}
	data, err := s.Export()
	if err != nil {
		return storage.ExportLink{}, err
	}
	owner := ""
	if user, signedIn := s.cloudUser(); signedIn {
		owner = user.ID
	}
	key := storage.NewObjectKey(s.exports.Prefix, owner, backup.Filename)
	link, err := storage.UploadArtifact(ctx, s.exports.Storage, key, "application/json", data, s.exports.URLExpiry)
	if err != nil {
		return storage.ExportLink{}, s.remoteFailed("upload export", err)
	}
	s.notifier.Notify(notify.LevelSuccess, "Export uploaded")
	return link, nil
}

// Import replaces or merges the local data set with a backup. Cloud data is never
// imported into: signed-in users migrate their local data instead.
func (s *trackerService) Import(ctx context.Context, data []byte, mode backup.Mode) error {
	if _, signedIn := s.cloudUser(); signedIn {
		return ErrImportWhileSignedIn
	}
	incoming, err := backup.Decode(data)
	if err != nil {
		return err
	}
	s.state.Replace(backup.Apply(mode, s.state.Snapshot(), incoming))
	s.persist()
	if mode == backup.ModeReplace {
		s.notifier.Notify(notify.LevelSuccess, "Imported (replaced)")
	} else {
		s.notifier.Notify(notify.LevelSuccess, "Imported (merged)")
	}
	return nil
}

// MigrateToCloud uploads the locally stored data set under the signed-in user.
func (s *trackerService) MigrateToCloud(ctx context.Context) (cloudsync.MigrateResult, error) {
	user, signedIn := s.cloudUser()
	if !signedIn {
		return cloudsync.MigrateResult{}, ErrNotSignedIn
	}
	snap, _, err := s.local.Load()
	if err != nil {
		return cloudsync.MigrateResult{}, err
	}
	result, err := s.orchestrator.Migrate(ctx, user, snap)
	if err != nil {
		return result, s.remoteFailed("migrate local data", err)
	}
	s.notifier.Notify(notify.LevelSuccess, "Local data migrated to the cloud")
	return result, nil
}

func (s *trackerService) SyncStatus() cloudsync.Status {
	return s.orchestrator.Status()
}

// OnSignedIn does nothing: the orchestrator takes over the state.
func (s *trackerService) OnSignedIn(ctx context.Context, user identity.User) error {
	return nil
}

// OnSignedOut reloads the local data set after the orchestrator cleared the state.
func (s *trackerService) OnSignedOut() {
	if _, err := s.Init(); err != nil {
		log.Printf("WARN: Local data not restored after sign-out: %v", err)
	}
}

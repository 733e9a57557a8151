package service

import "errors"

// --- Error Definitions ---
var (
	ErrValidationFailed     = errors.New("validation failed")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrWorkoutNotFound      = errors.New("workout not found")
	ErrTemplateNotFound     = errors.New("template not found")
	ErrNoCurrentProfile     = errors.New("no profile selected")
	ErrDuplicateSubmit      = errors.New("a submission with this request id is already in progress")
	ErrProfileLimit         = errors.New("cloud accounts are limited to one profile")
	ErrRemoteOperation      = errors.New("remote operation failed")
	ErrNotSignedIn          = errors.New("not signed in")
	ErrImportWhileSignedIn  = errors.New("import is only available in local mode; sign out or migrate instead")
	ErrExportStorageMissing = errors.New("export storage is not configured")
	ErrNothingToRepeat      = errors.New("no gym workout to repeat")
)

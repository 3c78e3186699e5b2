package invoice

import (
	"errors"
	"fmt"

	"invoicetools/internal/lock"
	"invoicetools/internal/render"
	"invoicetools/internal/storage"
	"invoicetools/pkg/models"
)

// Common invoice errors. Store, lock and render errors are re-exported so
// callers only need this package to classify failures.
var (
	// ErrNotFound is returned when the requested invoice does not exist.
	ErrNotFound = storage.ErrNotFound

	// ErrCorrupt is returned when a persisted invoice cannot be read back.
	ErrCorrupt = storage.ErrCorrupt

	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = models.ErrValidation

	// ErrLockTimeout is returned when the write lock is not acquired in time.
	ErrLockTimeout = lock.ErrLockTimeout

	// ErrIllegalTransition is returned for final -> draft.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrImmutableRecord is returned when editing or deleting a final invoice.
	ErrImmutableRecord = errors.New("invoice is final and cannot be changed")

	// ErrForbiddenFieldChange is matched by every *ForbiddenFieldChangeError.
	ErrForbiddenFieldChange = errors.New("field cannot be changed")

	// ErrAlreadyExists is returned when a freshly minted id is already taken.
	ErrAlreadyExists = errors.New("invoice already exists")

	// ErrWritesDisabled is returned by mutations when writes are switched off.
	ErrWritesDisabled = errors.New("write operations are disabled; set ENABLE_WRITES=1 to allow writes")
)

// ForbiddenFieldChangeError names the field a draft edit tried to change.
type ForbiddenFieldChangeError struct {
	Field    string
	Expected string
	Got      string
}

// Error implements the error interface.
func (e *ForbiddenFieldChangeError) Error() string {
	return fmt.Sprintf("draft edits cannot change %s: expected '%s', got '%s'", e.Field, e.Expected, e.Got)
}

// Is makes errors.Is(err, ErrForbiddenFieldChange) hold.
func (e *ForbiddenFieldChangeError) Is(target error) bool {
	return target == ErrForbiddenFieldChange
}

// OperationError wraps a failure with the operation and invoice it concerns.
type OperationError struct {
	// Op is the operation that failed (e.g. "create", "update_status").
	Op string

	// ID is the invoice id, if known.
	ID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("invoice: %s %s failed: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("invoice: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OperationError) Unwrap() error {
	return e.Err
}

// wrapOp wraps err as an OperationError if it isn't already one.
func wrapOp(op, id string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return err
	}
	return &OperationError{Op: op, ID: id, Err: err}
}

// Error kinds as reported to callers.
const (
	KindValidation           = "ValidationError"
	KindNotFound             = "NotFound"
	KindCorrupt              = "Corrupt"
	KindIllegalTransition    = "IllegalTransition"
	KindImmutableRecord      = "ImmutableRecord"
	KindForbiddenFieldChange = "ForbiddenFieldChange"
	KindLockTimeout          = "LockTimeout"
	KindToolingUnavailable   = "ToolingUnavailable"
	KindTemplateMissing      = "TemplateMissing"
	KindCompileFailed        = "CompileFailed"
	KindWritesDisabled       = "WritesDisabled"
	KindAlreadyExists        = "AlreadyExists"
	KindInternal             = "Internal"
)

// kinds is ordered: a corrupt record wraps its validation error and must be
// reported as Corrupt.
var kinds = []struct {
	err  error
	kind string
}{
	{ErrCorrupt, KindCorrupt},
	{ErrNotFound, KindNotFound},
	{ErrIllegalTransition, KindIllegalTransition},
	{ErrImmutableRecord, KindImmutableRecord},
	{ErrForbiddenFieldChange, KindForbiddenFieldChange},
	{ErrLockTimeout, KindLockTimeout},
	{render.ErrToolingUnavailable, KindToolingUnavailable},
	{render.ErrTemplateMissing, KindTemplateMissing},
	{render.ErrCompileFailed, KindCompileFailed},
	{ErrWritesDisabled, KindWritesDisabled},
	{ErrAlreadyExists, KindAlreadyExists},
	{ErrValidation, KindValidation},
	{storage.ErrInvalidID, KindValidation},
}

// Kind classifies err into one of the Kind* names.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

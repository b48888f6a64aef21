package reconcile

import (
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-reconciler/internal/database"
	"github.com/iliyamo/cinema-reconciler/internal/item"
	"github.com/iliyamo/cinema-reconciler/internal/repository"
)

// Failure classes.  Every error returned by Pipeline.Handle is an *ItemError
// that unwraps to at most one of these.
var (
	// ErrMalformed means the record itself is unusable.  Retrying cannot help.
	ErrMalformed = errors.New("malformed input")

	// ErrStorageConflict means the transaction lost a race or a lock.  Nothing
	// was applied; retrying reconciles against the winner.
	ErrStorageConflict = errors.New("storage conflict")

	// ErrStorageUnavailable means the store could not be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ItemError reports a failed item with the entity kind and business key.
type ItemError struct {
	Kind  item.Kind
	Key   string
	Class error // one of the failure classes, nil when unclassified
	Err   error
}

func (e *ItemError) Error() string {
	key := e.Key
	if key == "" {
		key = "-"
	}
	if e.Class != nil {
		return fmt.Sprintf("%s [%s]: %v: %v", e.Kind, key, e.Class, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Kind, key, e.Err)
}

func (e *ItemError) Unwrap() []error {
	if e.Class == nil {
		return []error{e.Err}
	}
	return []error{e.Class, e.Err}
}

// Outcome names the failure class of err for logs and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrStorageConflict):
		return "conflict"
	case errors.Is(err, ErrStorageUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func classify(err error) error {
	switch {
	case errors.Is(err, item.ErrInvalid):
		return ErrMalformed
	case errors.Is(err, repository.ErrConflict), database.IsTransient(err):
		return ErrStorageConflict
	case database.IsUnavailable(err):
		return ErrStorageUnavailable
	}
	return nil
}

func wrap(kind item.Kind, key string, err error) error {
	if err == nil {
		return nil
	}
	var ie *ItemError
	if errors.As(err, &ie) {
		return err
	}
	if key == "" {
		var ve *item.ValidationError
		if errors.As(err, &ve) {
			key = ve.Key
		}
	}
	return &ItemError{Kind: kind, Key: key, Class: classify(err), Err: err}
}

package reconcile

import (
	"errors"

	"github.com/dori/todoql/internal/store"
)

var (
	ErrDuplicateName = store.ErrDuplicateName
	ErrMissingID     = store.ErrMissingID
	ErrInvalidName   = errors.New("invalid name")
	ErrRejected      = errors.New("server rejected the change")
	ErrInFlight      = errors.New("another change to this item is still in progress")
	ErrNotFound      = errors.New("not found")
)

// Kind classifies a warning for display
type Kind int

const (
	// KindFailure is a network or mutation failure
	KindFailure Kind = iota
	// KindMissingID means the item had no server identifier yet
	KindMissingID
	// KindRejected means the server answered but reported no success
	KindRejected
	// KindInput covers validation and local guards; nothing was sent
	KindInput
)

// Warning is a non-fatal failure surfaced to the user. The store is left in
// its last known good state whenever a Warning is returned.
type Warning struct {
	Op  string
	Err error
}

func (w *Warning) Error() string {
	return w.Op + ": " + w.Err.Error()
}

func (w *Warning) Unwrap() error {
	return w.Err
}

// Kind reports which class of failure this is
func (w *Warning) Kind() Kind {
	switch {
	case errors.Is(w.Err, ErrMissingID):
		return KindMissingID
	case errors.Is(w.Err, ErrRejected):
		return KindRejected
	case errors.Is(w.Err, ErrDuplicateName), errors.Is(w.Err, ErrInvalidName),
		errors.Is(w.Err, ErrInFlight), errors.Is(w.Err, ErrNotFound):
		return KindInput
	}
	return KindFailure
}

func warn(op string, err error) error {
	return &Warning{Op: op, Err: err}
}

package statez

import (
	"errors"
	"fmt"
)

// Declaration errors. They are reported through the DeclarationRejected
// signal and returned wrapped with the offending name.
var (
	ErrDuplicateName      = errors.New("state already declared")
	ErrUnknownState       = errors.New("unknown state")
	ErrReadOnly           = errors.New("state is computed and read-only")
	ErrComputedDependency = errors.New("computed states cannot depend on computed states")
	ErrForeignCell        = errors.New("cell is not registered with this manager")
	ErrNoDerive           = errors.New("derive function is required")
)

// ErrDerivePanicked wraps the panic value of a derive function. The computed
// state is left unchanged.
var ErrDerivePanicked = errors.New("derive panicked")

// ListenerError records a listener that panicked while being notified.
type ListenerError struct {
	// Cell is the name of the cell whose listener failed.
	Cell string

	// Recovered is the value passed to panic.
	Recovered any
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener for %q panicked: %v", e.Cell, e.Recovered)
}

// Unwrap exposes the panic value when it was an error.
func (e *ListenerError) Unwrap() error {
	if err, ok := e.Recovered.(error); ok {
		return err
	}
	return nil
}

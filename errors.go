package arbor

import "errors"

var (
	// ErrVarReadOnly is returned by writes to a variable that cannot be modified.
	ErrVarReadOnly = errors.New("arbor: variable is read-only")

	// ErrAlreadyRegistered is returned when a static event name is registered twice.
	ErrAlreadyRegistered = errors.New("arbor: already registered")

	// ErrWindowNotFound is returned by operations that name an unknown window.
	ErrWindowNotFound = errors.New("arbor: window not found")

	// ErrWidgetNotFound is returned when a widget is not in the window's info tree.
	ErrWidgetNotFound = errors.New("arbor: widget not found")

	// ErrViewNotConnected is returned when a view process operation is
	// requested and no view is attached.
	ErrViewNotConnected = errors.New("arbor: view process not connected")

	// ErrInvalidConfig is returned by LoadConfig for malformed values.
	ErrInvalidConfig = errors.New("arbor: invalid config")
)

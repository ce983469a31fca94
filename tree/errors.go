package tree

import "errors"

// Sentinel errors forming the tree's error taxonomy (spec'd as a small,
// closed set of result kinds). Callers compare with errors.Is; operations
// that add path context wrap one of these with github.com/pkg/errors.
var (
	// ErrInvalidArgument is returned when a path argument fails validation.
	ErrInvalidArgument = errors.New("nstree: invalid path")

	// ErrNotFound is returned when an intermediate or target component
	// does not exist.
	ErrNotFound = errors.New("nstree: not found")

	// ErrAlreadyExists is returned when a create or move target name is
	// already occupied, or create/move targets the root.
	ErrAlreadyExists = errors.New("nstree: already exists")

	// ErrNotEmpty is returned when remove targets a directory with
	// children.
	ErrNotEmpty = errors.New("nstree: not empty")

	// ErrBusy is returned for operations forbidden on the root.
	ErrBusy = errors.New("nstree: busy")

	// ErrInvalidMove is returned when a move's target is a descendant of
	// its source.
	ErrInvalidMove = errors.New("nstree: invalid move")
)

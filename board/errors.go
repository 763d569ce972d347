package board

import "errors"

// Every condition here is recoverable: the operation is refused and the
// in-memory state is left unchanged.
var (
	ErrColumnNotEmpty = errors.New("column still holds tasks")
	ErrColumnNotFound = errors.New("column does not exist")
	ErrTaskNotFound   = errors.New("task does not exist")
	ErrEmptyTitle     = errors.New("title must not be empty")
	ErrImportFailed   = errors.New("import failed")
)

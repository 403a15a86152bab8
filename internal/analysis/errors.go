package analysis

import "errors"

var (
	// ErrTaskFailure marks a failed task attempt.
	ErrTaskFailure = errors.New("analysis task failed")
	// ErrSchemaViolation means the model output did not match the expected payload.
	ErrSchemaViolation = errors.New("analysis schema violation")
)

package recommend

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrEventNotFound         = errors.New("event not found")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrJobQueueNotConfigured = errors.New("job queue not configured")
)

const (
	ErrorCodeValidation        = "VALIDATION_ERROR"
	ErrorCodeEventNotFound     = "EVENT_NOT_FOUND"
	ErrorCodeIndexUnavailable  = "INDEX_UNAVAILABLE"
	ErrorCodeIndexNotBuilt     = "INDEX_NOT_BUILT"
	ErrorCodeAllTasksAbandoned = "ALL_TASKS_ABANDONED"
	ErrorCodeInternal          = "INTERNAL_ERROR"
)

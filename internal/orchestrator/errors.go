package orchestrator

import "errors"

// ErrAllTasksAbandoned means no analysis task succeeded within its attempts.
var ErrAllTasksAbandoned = errors.New("all analysis tasks abandoned")

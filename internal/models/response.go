package models

import "time"

// APIResponse is the envelope every endpoint answers with.
type APIResponse[T any] struct {
	Success          bool              `json:"success"`
	Message          string            `json:"message"`
	Data             T                 `json:"data"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

func Success[T any](message string, data T) APIResponse[T] {
	return APIResponse[T]{Success: true, Message: message, Data: data, Timestamp: time.Now()}
}

func Failure(message string, fields map[string]string) APIResponse[any] {
	return APIResponse[any]{Success: false, Message: message, Timestamp: time.Now(), ValidationErrors: fields}
}

// ChangeEvent is published whenever a project or student collection is mutated.
type ChangeEvent struct {
	Type      string `json:"type"`
	ProjectID int64  `json:"projectId,omitempty"`
}

const (
	EventProjectsChanged = "projects.changed"
	EventStudentsChanged = "students.changed"
)

// ChangesChannel is the Redis pub/sub channel carrying ChangeEvents.
const ChangesChannel = "edis:changes"

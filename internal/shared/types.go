package shared

// Queues, ordered by asynq priority weight in cmd/worker.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Task types
const (
	TypeDeletePhoto              = "storage:delete_photo"
	TypeCleanupReadNotifications = "notification:cleanup_read"
)

// DeletePhotoPayload asks the worker to remove an object from the photo bucket.
type DeletePhotoPayload struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// CleanupReadNotificationsPayload removes read notifications older than the retention window.
type CleanupReadNotificationsPayload struct {
	RetentionHours int `json:"retentionHours"`
}

// Context keys set by the auth middleware.
const (
	CtxUserID   = "userID"
	CtxRole     = "role"
	CtxUsername = "username"
	CtxToken    = "token"
)

// Roles carried in the JWT.
const (
	RoleLibrarian = "librarian"
	RoleCustomer  = "customer"
)

package models

import "time"

// Sync task lifecycle statuses for the ledger queue.
const (
	SyncStatusPending   = "pending"
	SyncStatusRetry     = "retry"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// SyncTask is a persisted unit of work for the bookings ledger worker.
type SyncTask struct {
	ID          int64
	TaskType    string
	BookingID   int64
	Payload     string
	Status      string
	RetryCount  int
	LastError   string
	CreatedAt   time.Time
	ProcessedAt *time.Time
	NextRetryAt *time.Time
}

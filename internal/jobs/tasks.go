// Package jobs defines the asynq task types shared by the API (producer)
// and the worker (consumer).
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TypeBackupImport processes an uploaded backup document parked in Redis.
	TypeBackupImport = "backup:import"
	// TypeLedgerOverdueScan flags open ledger entries past their due date.
	TypeLedgerOverdueScan = "ledger:overdue_scan"
)

// BackupImportPayload points at the parked upload.
type BackupImportPayload struct {
	StorageKey string `json:"storageKey"`
}

// NewBackupImportTask builds the import task for an upload parked under the
// given Redis key.
func NewBackupImportTask(storageKey string) (*asynq.Task, error) {
	if storageKey == "" {
		return nil, fmt.Errorf("jobs: storage key is required")
	}
	payload, err := json.Marshal(BackupImportPayload{StorageKey: storageKey})
	if err != nil {
		return nil, fmt.Errorf("jobs: encode payload: %w", err)
	}
	return asynq.NewTask(TypeBackupImport, payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
	), nil
}

// ParseBackupImportPayload decodes the task payload.
func ParseBackupImportPayload(t *asynq.Task) (BackupImportPayload, error) {
	var payload BackupImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return BackupImportPayload{}, fmt.Errorf("jobs: decode payload: %w", err)
	}
	if payload.StorageKey == "" {
		return BackupImportPayload{}, fmt.Errorf("jobs: payload missing storage key")
	}
	return payload, nil
}

// NewLedgerOverdueScanTask builds the daily overdue scan task.
func NewLedgerOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TypeLedgerOverdueScan, nil, asynq.MaxRetry(1), asynq.Timeout(time.Minute))
}

package jobs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBackupImportTaskRoundTrip(t *testing.T) {
	task, err := NewBackupImportTask("backup:payload:abc")
	require.NoError(t, err)
	require.Equal(t, TypeBackupImport, task.Type())

	payload, err := ParseBackupImportPayload(task)
	require.NoError(t, err)
	require.Equal(t, "backup:payload:abc", payload.StorageKey)
}

func TestBackupImportTaskRequiresKey(t *testing.T) {
	_, err := NewBackupImportTask("")
	require.Error(t, err)
}

func TestOverdueScanTaskType(t *testing.T) {
	task := NewLedgerOverdueScanTask()
	require.Equal(t, TypeLedgerOverdueScan, task.Type())
}

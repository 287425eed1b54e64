package state

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *GormManager {
	t.Helper()
	m, err := NewSqliteGormManager(":memory:")
	require.NoError(t, err)
	return m
}

func TestRunLedger(t *testing.T) {
	m := newManager(t)

	last, err := m.GetLastRun()
	require.NoError(t, err)
	assert.Nil(t, last)

	runID, err := m.InitRunLog(3)
	require.NoError(t, err)
	for _, tbl := range []string{"a", "b", "c"} {
		require.NoError(t, m.InitTableRunLog(runID, "shop", tbl))
	}
	require.NoError(t, m.PassedTableRun(runID, "shop", "a", 10, 120))
	require.NoError(t, m.FailedTableRun(runID, "shop", "b", "upload", errors.New("rejected")))
	require.NoError(t, m.SkippedTableRun(runID, "shop", "c", "skipped at prompt"))

	failed, err := m.DidTableFailForRun(runID)
	require.NoError(t, err)
	assert.True(t, failed)

	names, err := m.FailedTables(runID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)

	logs, err := m.GetTableRunLogs(runID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, Success, logs[0].Status)
	assert.Equal(t, int64(10), logs[0].RowWritten)
	assert.Equal(t, int64(120), logs[0].BytesWritten)
	assert.Equal(t, "upload", logs[1].ErrKind)
	assert.Equal(t, "rejected", logs[1].ErrMsg)
	assert.Equal(t, Skipped, logs[2].Status)

	require.NoError(t, m.FailedRunLog(runID, errors.New("1 table failed")))
	run, err := m.GetRunLog(runID)
	require.NoError(t, err)
	assert.Equal(t, Failed, run.Status)
	assert.Equal(t, 3, run.TotalTablesForThisRun)
}

func TestFailedRunAbortsUnfinishedTables(t *testing.T) {
	m := newManager(t)
	runID, err := m.InitRunLog(2)
	require.NoError(t, err)
	require.NoError(t, m.InitTableRunLog(runID, "shop", "a"))
	require.NoError(t, m.InitTableRunLog(runID, "shop", "b"))
	require.NoError(t, m.PassedTableRun(runID, "shop", "a", 1, 1))

	require.NoError(t, m.FailedRunLog(runID, errors.New("interrupted")))
	logs, err := m.GetTableRunLogs(runID)
	require.NoError(t, err)
	assert.Equal(t, Success, logs[0].Status)
	assert.Equal(t, Aborted, logs[1].Status)

	names, err := m.FailedTables(runID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)
}

func TestOnShutDownEv(t *testing.T) {
	m := newManager(t)
	first, err := m.InitRunLog(1)
	require.NoError(t, err)
	require.NoError(t, m.PassedRunLog(first))

	runID, err := m.InitRunLog(1)
	require.NoError(t, err)
	require.NoError(t, m.InitTableRunLog(runID, "shop", "a"))

	m.OnShutDownEv()

	last, err := m.GetLastRun()
	require.NoError(t, err)
	assert.Equal(t, runID, itoa(last.RunID))
	assert.Equal(t, Aborted, last.Status)
	logs, err := m.GetTableRunLogs(runID)
	require.NoError(t, err)
	assert.Equal(t, Aborted, logs[0].Status)

	run, err := m.GetRunLog(first)
	require.NoError(t, err)
	assert.Equal(t, Success, run.Status)
}

func TestInitTableRunLogRejectsBadRunID(t *testing.T) {
	m := newManager(t)
	assert.Error(t, m.InitTableRunLog("not-a-number", "shop", "a"))
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

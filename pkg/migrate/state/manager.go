package state

import "time"

type RunLogState string

const (
	Started RunLogState = "STARTED"
	Success RunLogState = "SUCCESS"
	Aborted RunLogState = "ABORTED"
	Failed  RunLogState = "FAILED"
	Skipped RunLogState = "SKIPPED"
)

type Base struct {
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

type RunLog struct {
	RunID                 int         `json:"run_id" db:"run_id" gorm:"primaryKey;autoIncrement"`
	TotalTablesForThisRun int         `json:"total_tables_for_run" db:"total_tables_for_run"`
	Status                RunLogState `json:"status" db:"status" gorm:"type:varchar(50)"`
	ErrMsg                string      `json:"err_msg" db:"err_msg"`
	Base
}

type TableRunLog struct {
	ID           int         `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	ParentRunID  int         `json:"parent_run_id" db:"parent_run_id" gorm:"index"`
	DBName       string      `json:"db_name" db:"db_name" gorm:"type:varchar(255)"`
	TableName    string      `json:"table_name" db:"table_name" gorm:"type:varchar(255)"`
	RowWritten   int64       `json:"rows_written_target" db:"rows_written_target"`
	BytesWritten int64       `json:"bytes_written_target" db:"bytes_written_target"`
	Status       RunLogState `json:"status" db:"status" gorm:"type:varchar(50)"`
	ErrKind      string      `json:"err_kind" db:"err_kind" gorm:"type:varchar(50)"`
	ErrMsg       string      `json:"err_msg" db:"err_msg"`
	Base
}

type Manager interface {
	// GetLastRun : most recent run, nil when there is none
	GetLastRun() (*RunLog, error)
	// GetRunLog : GetRunLog get a specific run log
	GetRunLog(runID string) (*RunLog, error)
	GetTableRunLogs(runID string) ([]*TableRunLog, error)
	// InitRunLog : start a run log
	InitRunLog(totalTableCount int) (runID string, err error)
	FailedRunLog(runID string, err error) error
	PassedRunLog(runID string) error
	InitTableRunLog(runID string, dbName string, tableName string) error
	FailedTableRun(runID string, dbName string, tableName string, kind string, err error) error
	PassedTableRun(runID string, dbName string, tableName string, rowsWritten int64, bytesWritten int64) error
	SkippedTableRun(runID string, dbName string, tableName string, reason string) error
	DidTableFailForRun(runID string) (bool, error)
	// FailedTables : tables of runID that failed or never finished
	FailedTables(runID string) ([]string, error)
	// OnShutDownEv : marks a run still in progress as aborted
	OnShutDownEv()
}

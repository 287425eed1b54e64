package state

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormManager struct {
	DB *gorm.DB
}

// NewSqliteGormManager : ledger in the sqlite file at path (":memory:" works too)
func NewSqliteGormManager(path string) (*GormManager, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("could not open state db %s : %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one connection, sqlite serialises writers anyway and :memory: is per connection
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&RunLog{}, &TableRunLog{}); err != nil {
		return nil, fmt.Errorf("could not migrate %w", err)
	}
	return &GormManager{DB: db}, nil
}

func (m *GormManager) OnShutDownEv() {
	run, err := m.GetLastRun()
	if err != nil || run == nil || run.Status != Started {
		return
	}
	fmt.Printf("Last Run had status as %s , moving that to %s INSTEAD ... \n", Started, Aborted)
	_ = m.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&RunLog{}).Where("run_id = ? AND status = ?", run.RunID, Started).Updates(RunLog{
			Status: Aborted,
			Base:   Base{UpdatedAt: currentTime()},
		}).Error; err != nil {
			return err
		}
		return tx.Model(&TableRunLog{}).Where("parent_run_id = ? AND status = ?", run.RunID, Started).Update("status", Aborted).Error
	})
}

func (m *GormManager) GetLastRun() (*RunLog, error) {
	var lastRun RunLog
	err := m.DB.Order("run_id desc").First(&lastRun).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lastRun, nil
}

func (m *GormManager) GetRunLog(runID string) (*RunLog, error) {
	var runLog RunLog
	if err := m.DB.Where("run_id = ?", runID).First(&runLog).Error; err != nil {
		return nil, err
	}
	return &runLog, nil
}

func (m *GormManager) GetTableRunLogs(runID string) ([]*TableRunLog, error) {
	var tableRunLogs []*TableRunLog
	err := m.DB.Where("parent_run_id = ?", runID).Order("id").Find(&tableRunLogs).Error
	return tableRunLogs, err
}

func (m *GormManager) InitRunLog(totalTableCount int) (string, error) {
	runLog := RunLog{
		TotalTablesForThisRun: totalTableCount,
		Status:                Started,
		Base:                  Base{CreatedAt: currentTime(), UpdatedAt: currentTime()},
	}
	if err := m.DB.Create(&runLog).Error; err != nil {
		return "", err
	}
	return strconv.Itoa(runLog.RunID), nil
}

func (m *GormManager) FailedRunLog(runID string, err error) error {
	return m.updateRunStatus(runID, Failed, err)
}

func (m *GormManager) PassedRunLog(runID string) error {
	return m.updateRunStatus(runID, Success, nil)
}

func (m *GormManager) InitTableRunLog(runID string, dbName string, tableName string) error {
	rID, err := strconv.Atoi(runID)
	if err != nil {
		return fmt.Errorf("could not InitTableRunLog expected runID to be an integer %w", err)
	}
	return m.DB.Create(&TableRunLog{
		ParentRunID: rID,
		DBName:      dbName,
		TableName:   tableName,
		Status:      Started,
		Base:        Base{CreatedAt: currentTime(), UpdatedAt: currentTime()},
	}).Error
}

func (m *GormManager) FailedTableRun(runID string, dbName string, tableName string, kind string, err error) error {
	var errMsg string
	if err != nil {
		errMsg = err.Error()
	}
	return m.updateTableRun(runID, dbName, tableName, &TableRunLog{Status: Failed, ErrKind: kind, ErrMsg: errMsg})
}

func (m *GormManager) PassedTableRun(runID string, dbName string, tableName string, rowsWritten int64, bytesWritten int64) error {
	return m.updateTableRun(runID, dbName, tableName, &TableRunLog{Status: Success, RowWritten: rowsWritten, BytesWritten: bytesWritten})
}

func (m *GormManager) SkippedTableRun(runID string, dbName string, tableName string, reason string) error {
	return m.updateTableRun(runID, dbName, tableName, &TableRunLog{Status: Skipped, ErrMsg: reason})
}

func (m *GormManager) DidTableFailForRun(runID string) (bool, error) {
	var failedTableRunLogs int64
	err := m.DB.Model(&TableRunLog{}).Where("parent_run_id = ? AND status = ?", runID, Failed).Count(&failedTableRunLogs).Error
	return failedTableRunLogs > 0, err
}

func (m *GormManager) FailedTables(runID string) ([]string, error) {
	var names []string
	err := m.DB.Model(&TableRunLog{}).
		Where("parent_run_id = ? AND status IN ?", runID, []RunLogState{Failed, Aborted, Started}).
		Order("table_name").
		Pluck("table_name", &names).Error
	return names, err
}

func (m *GormManager) updateRunStatus(runID string, status RunLogState, err error) error {
	var errMsg string
	if err != nil {
		errMsg = err.Error()
	}
	return m.DB.Transaction(func(tx *gorm.DB) error {
		errTx := tx.Model(&RunLog{}).Where("run_id = ?", runID).Updates(RunLog{
			Status: status,
			ErrMsg: errMsg,
			Base:   Base{UpdatedAt: currentTime()},
		}).Error
		if errTx != nil {
			return errTx
		}
		if status == Failed {
			return tx.Model(&TableRunLog{}).Where("parent_run_id = ? and status = ?", runID, Started).Update("status", Aborted).Error
		}
		return nil
	})
}

func (m *GormManager) updateTableRun(runID string, dbName string, tableName string, upd *TableRunLog) error {
	upd.UpdatedAt = currentTime()
	return m.DB.Model(&TableRunLog{}).
		Where("parent_run_id = ? AND db_name = ? AND table_name = ?", runID, dbName, tableName).
		Updates(upd).Error
}

func currentTime() *time.Time {
	now := time.Now()
	return &now
}

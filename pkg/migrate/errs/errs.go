package errs

import (
	"errors"
	"fmt"
)

// Kind : classification of a migration failure
type Kind string

const (
	KindNone    Kind = ""
	KindSource  Kind = "source"
	KindUpload  Kind = "upload"
	KindStage   Kind = "stage"
	KindConfig  Kind = "config"
	KindUnknown Kind = "unknown"
)

// SourceError : reading from the source failed (connection lost, query failed, timeout)
type SourceError struct {
	Table string
	Op    string
	Err   error
}

func (e *SourceError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("source %s : %v", e.Op, e.Err)
	}
	return fmt.Sprintf("source %s %s : %v", e.Op, e.Table, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// NoBatch : UploadError.Batch of a failure not tied to one batch (a staged load)
const NoBatch = -1

// UploadError : the destination rejected a batch or a staged load
type UploadError struct {
	Table string
	Batch int
	Err   error
}

func (e *UploadError) Error() string {
	if e.Batch == NoBatch {
		return fmt.Sprintf("upload %s : %v", e.Table, e.Err)
	}
	return fmt.Sprintf("upload %s batch %d : %v", e.Table, e.Batch, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// StageError : a pipeline hook failed
type StageError struct {
	Table string
	Stage string
	Hook  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s (%s) on %s : %v", e.Stage, e.Hook, e.Table, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ConfigError : invalid configuration, surfaced before any migration starts
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration : %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Configf : shorthand for a formatted ConfigError
func Configf(format string, args ...any) error {
	return &ConfigError{Err: fmt.Errorf(format, args...)}
}

// KindOf : classifies err. stage outranks upload, upload outranks source
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var (
		srcErr *SourceError
		upErr  *UploadError
		stErr  *StageError
		cfgErr *ConfigError
	)
	switch {
	case errors.As(err, &stErr):
		return KindStage
	case errors.As(err, &upErr):
		return KindUpload
	case errors.As(err, &srcErr):
		return KindSource
	case errors.As(err, &cfgErr):
		return KindConfig
	}
	return KindUnknown
}

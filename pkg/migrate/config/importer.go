package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

type ImporterKind string

const (
	ImporterStream   ImporterKind = "stream"
	ImporterChunking ImporterKind = "chunking"
	ImporterSkip     ImporterKind = "skip"
)

type BatcherKind string

const (
	BatchByBytes BatcherKind = "bytes"
	BatchByRows  BatcherKind = "rows"
)

type StagingKind string

const (
	StagingFS StagingKind = "fs"
	StagingS3 StagingKind = "s3"
)

const (
	DefaultByteLimit       = 1_000_000
	DefaultRowCount        = 100_000
	DefaultFieldTerminator = "|"
	DefaultFieldWrapper    = `"`
	DefaultLineTerminator  = "\n"
	DefaultDateFormat      = "2006-01-02"
	DefaultUploadTimeout   = 5 * time.Minute
	DefaultUserFolder      = "data"
	DefaultFileExtension   = "dat"
)

// Staging : where the chunking importer writes its chunk files
type Staging struct {
	Kind          StagingKind `json:"kind"`
	UploadFolder  string      `json:"upload_folder"`
	User          string      `json:"user"`
	UserFolder    string      `json:"user_folder"`
	FileExtension string      `json:"file_extension"`
	Bucket        string      `json:"bucket"`
	Prefix        string      `json:"prefix"`
	KeepFiles     bool        `json:"keep_files"`
}

// Importer : how batches are built and delivered
type Importer struct {
	Kind            ImporterKind `json:"kind"`
	Batcher         BatcherKind  `json:"batcher"`
	ByteLimit       int          `json:"byte_limit"`
	RowCount        int          `json:"row_count"`
	FieldTerminator string       `json:"field_terminator"`
	FieldWrapper    string       `json:"field_wrapper"`
	LineTerminator  string       `json:"line_terminator"`
	DateFormat      string       `json:"date_format"`
	Timeout         Duration     `json:"timeout"`
	Staging         Staging      `json:"staging"`
}

// Defaults : stream importer over a byte batcher unless told otherwise
func (i *Importer) Defaults() {
	if i.Kind == "" {
		i.Kind = ImporterStream
	}
	if i.Batcher == "" {
		if i.Kind == ImporterChunking {
			i.Batcher = BatchByRows
		} else {
			i.Batcher = BatchByBytes
		}
	}
	if i.ByteLimit <= 0 {
		i.ByteLimit = DefaultByteLimit
	}
	if i.RowCount <= 0 {
		i.RowCount = DefaultRowCount
	}
	if i.FieldTerminator == "" {
		i.FieldTerminator = DefaultFieldTerminator
	}
	if i.FieldWrapper == "" {
		i.FieldWrapper = DefaultFieldWrapper
	}
	if i.LineTerminator == "" {
		i.LineTerminator = DefaultLineTerminator
	}
	if i.DateFormat == "" {
		i.DateFormat = DefaultDateFormat
	}
	if i.Timeout <= 0 {
		i.Timeout = Duration(DefaultUploadTimeout)
	}
	if i.Staging.Kind == "" {
		i.Staging.Kind = StagingFS
	}
	if i.Staging.UserFolder == "" {
		i.Staging.UserFolder = DefaultUserFolder
	}
	if i.Staging.FileExtension == "" {
		i.Staging.FileExtension = DefaultFileExtension
	}
}

func (i *Importer) Validate() error {
	var result error
	switch i.Kind {
	case ImporterStream, ImporterChunking, ImporterSkip:
	default:
		result = multierror.Append(result, fmt.Errorf("importer.kind %q is not one of stream, chunking, skip", i.Kind))
	}
	switch i.Batcher {
	case BatchByBytes, BatchByRows:
	default:
		result = multierror.Append(result, fmt.Errorf("importer.batcher %q is not one of bytes, rows", i.Batcher))
	}
	if i.FieldTerminator == i.FieldWrapper {
		result = multierror.Append(result, fmt.Errorf("field_terminator and field_wrapper must differ"))
	}
	if i.Kind == ImporterChunking {
		switch i.Staging.Kind {
		case StagingFS:
			if i.Staging.UploadFolder == "" {
				result = multierror.Append(result, fmt.Errorf("importer.staging.upload_folder is required for fs staging"))
			}
		case StagingS3:
			if i.Staging.Bucket == "" {
				result = multierror.Append(result, fmt.Errorf("importer.staging.bucket is required for s3 staging"))
			}
		default:
			result = multierror.Append(result, fmt.Errorf("importer.staging.kind %q is not one of fs, s3", i.Staging.Kind))
		}
	}
	return result
}

package batch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/baderkha/blazing-transfer/pkg/migrate/config"
	"github.com/baderkha/blazing-transfer/pkg/migrate/source"
)

// Format : delimiters of the wire format the destination reads
type Format struct {
	FieldTerminator string
	FieldWrapper    string
	LineTerminator  string
	DateFormat      string
}

// DefaultFormat : pipe separated, double-quote wrapped, newline terminated
func DefaultFormat() Format {
	return Format{
		FieldTerminator: config.DefaultFieldTerminator,
		FieldWrapper:    config.DefaultFieldWrapper,
		LineTerminator:  config.DefaultLineTerminator,
		DateFormat:      config.DefaultDateFormat,
	}
}

// FormatFromConfig : wire format of an importer config, defaults applied for blanks
func FormatFromConfig(cfg config.Importer) Format {
	f := DefaultFormat()
	if cfg.FieldTerminator != "" {
		f.FieldTerminator = cfg.FieldTerminator
	}
	if cfg.FieldWrapper != "" {
		f.FieldWrapper = cfg.FieldWrapper
	}
	if cfg.LineTerminator != "" {
		f.LineTerminator = cfg.LineTerminator
	}
	if cfg.DateFormat != "" {
		f.DateFormat = cfg.DateFormat
	}
	return f
}

// AppendRow : appends the encoded row, line terminator included, to dst.
//
// A field containing the terminator, the wrapper or the line terminator is
// wrapped, with every wrapper inside it doubled. Other fields are written as is.
func (f Format) AppendRow(dst []byte, row source.Row) []byte {
	for i, v := range row {
		if i > 0 {
			dst = append(dst, f.FieldTerminator...)
		}
		dst = append(dst, f.escape(f.value(v))...)
	}
	return append(dst, f.LineTerminator...)
}

func (f Format) escape(s string) string {
	if !f.needsWrap(s) {
		return s
	}
	return f.FieldWrapper + strings.ReplaceAll(s, f.FieldWrapper, f.FieldWrapper+f.FieldWrapper) + f.FieldWrapper
}

func (f Format) needsWrap(s string) bool {
	for _, special := range []string{f.FieldTerminator, f.FieldWrapper, f.LineTerminator} {
		if special != "" && strings.Contains(s, special) {
			return true
		}
	}
	return false
}

func (f Format) value(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(f.DateFormat)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprint(v)
}

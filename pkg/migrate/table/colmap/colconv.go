package colmap

import (
	"fmt"
	"strings"
)

// Type : column mapping type
type Type string

const (
	// MysqlToBlazing : mysql -> blazing type casting
	MysqlToBlazing Type = "MYSQL_BLAZING"
	// PostgresToBlazing : postgres -> blazing type casting
	PostgresToBlazing Type = "POSTGRES_BLAZING"
)

// DefaultStringLength : length given to strings the source declares without one (text, json ...)
const DefaultStringLength = 255

const stringType = "string"

var (
	mysqlToBlazingMap = map[string]string{
		"TINYINT":    "long",
		"SMALLINT":   "long",
		"MEDIUMINT":  "long",
		"INT":        "long",
		"INTEGER":    "long",
		"BIGINT":     "long",
		"BIT":        "long",
		"BOOLEAN":    "long",
		"BOOL":       "long",
		"SERIAL":     "long",
		"YEAR":       "long",
		"FLOAT":      "double",
		"DOUBLE":     "double",
		"REAL":       "double",
		"DECIMAL":    "double",
		"NUMERIC":    "double",
		"DATE":       "date",
		"TIME":       "date",
		"DATETIME":   "date",
		"TIMESTAMP":  "date",
		"CHAR":       stringType,
		"VARCHAR":    stringType,
		"TINYTEXT":   stringType,
		"TEXT":       stringType,
		"MEDIUMTEXT": stringType,
		"LONGTEXT":   stringType,
		"ENUM":       stringType,
		"SET":        stringType,
		"JSON":       stringType,
	}
	postgresToBlazingMap = map[string]string{
		"BIT":                         "long",
		"BOOLEAN":                     "long",
		"SMALLINT":                    "long",
		"INTEGER":                     "long",
		"BIGINT":                      "long",
		"DOUBLE PRECISION":            "double",
		"MONEY":                       "double",
		"NUMERIC":                     "double",
		"REAL":                        "double",
		"CHARACTER":                   stringType,
		"CHARACTER VARYING":           stringType,
		"TEXT":                        stringType,
		"UUID":                        stringType,
		"JSON":                        stringType,
		"JSONB":                       stringType,
		"DATE":                        "date",
		"TIME WITH TIME ZONE":         "date",
		"TIME WITHOUT TIME ZONE":      "date",
		"TIMESTAMP WITH TIME ZONE":    "date",
		"TIMESTAMP WITHOUT TIME ZONE": "date",
	}
)

// Convert : converts types to the target db if it cannot then it will error out.
// length is only read for string types, 0 means the source declared none
func Convert(t Type, colTypeSource string, length int) (string, error) {
	colTypeSource = strings.ToUpper(strings.TrimSpace(strings.Split(colTypeSource, "(")[0]))
	var mp map[string]string
	switch t {
	case MysqlToBlazing:
		mp = mysqlToBlazingMap
	case PostgresToBlazing:
		mp = postgresToBlazingMap
	default:
		return "", fmt.Errorf("Unsupported type %s", t)
	}
	itm, ok := mp[colTypeSource]
	if !ok {
		return "", fmt.Errorf("This col type %s does not have a blazing mapping", colTypeSource)
	}
	if itm == stringType {
		if length <= 0 {
			length = DefaultStringLength
		}
		return fmt.Sprintf("string(%d)", length), nil
	}
	return itm, nil
}

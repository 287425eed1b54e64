package sourcecfg

import (
	"fmt"
	"net/url"
	"sort"
)

type MYSQL struct {
	SessionVariableValues map[string]string `json:"session_vars"`
	Host                  string            `json:"host"`
	UserName              string            `json:"user_name"`
	Password              string            `json:"password"`
	Port                  int               `json:"port"`
	DB                    string            `json:"db"`
}

func (m *MYSQL) GetDSN() string {
	var keys []string
	for k := range m.SessionVariableValues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	dsn := fmt.Sprintf(`%s:%s@tcp(%s:%d)/%s?parseTime=true&collation=utf8mb4_general_ci&autocommit=true`, m.UserName, m.Password, m.Host, m.Port, m.DB)
	for _, k := range keys {
		dsn += "&" + k + "=" + url.QueryEscape(m.SessionVariableValues[k])
	}
	return dsn
}

package sourcecfg

import (
	"fmt"
	"net/url"
)

type Postgres struct {
	Host     string `json:"host"`
	UserName string `json:"user_name"`
	Password string `json:"password"`
	Port     int    `json:"port"`
	DB       string `json:"db"`
	SSLMode  string `json:"ssl_mode"`
}

func (p *Postgres) GetDSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.UserName, p.Password),
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:   "/" + p.DB,
	}
	if p.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(p.SSLMode)
	}
	return u.String()
}

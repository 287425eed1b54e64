package targetcfg

import (
	"fmt"
	"time"

	"github.com/baderkha/blazing-transfer/pkg/conditional"
	"github.com/baderkha/blazing-transfer/pkg/migrate/config"
	"github.com/hashicorp/go-multierror"
)

const (
	DefaultRequestLimit = 5
	DefaultRetryMax     = 2
	DefaultTimeout      = 5 * time.Minute
	DefaultHTTPSPort    = 8443
	DefaultHTTPPort     = 8080
)

// Blazing : destination reached over its http query interface
type Blazing struct {
	Host               string          `json:"host"`
	Port               int             `json:"port"`
	HTTPS              *bool           `json:"https"`
	UserName           string          `json:"user_name"`
	Password           string          `json:"password"`
	Database           string          `json:"database"`
	RequestLimit       int             `json:"request_limit"`
	RequestsPerSecond  float64         `json:"requests_per_second"`
	RetryMax           int             `json:"retry_max"` // < 0 disables retries
	Timeout            config.Duration `json:"timeout"`
	InsecureSkipVerify bool            `json:"insecure_skip_verify"`
}

// UseHTTPS : https unless explicitly disabled
func (b *Blazing) UseHTTPS() bool {
	return b.HTTPS == nil || *b.HTTPS
}

func (b *Blazing) Defaults() {
	if b.Port == 0 {
		b.Port = conditional.Ternary(b.UseHTTPS(), DefaultHTTPSPort, DefaultHTTPPort)
	}
	if b.RequestLimit <= 0 {
		b.RequestLimit = DefaultRequestLimit
	}
	// negative stays negative : retries disabled
	if b.RetryMax == 0 {
		b.RetryMax = DefaultRetryMax
	}
	if b.Timeout <= 0 {
		b.Timeout = config.Duration(DefaultTimeout)
	}
}

func (b *Blazing) Validate() error {
	var result error
	if b.Host == "" {
		result = multierror.Append(result, fmt.Errorf("target.host is required"))
	}
	if b.UserName == "" {
		result = multierror.Append(result, fmt.Errorf("target.user_name is required"))
	}
	if b.RequestsPerSecond < 0 {
		result = multierror.Append(result, fmt.Errorf("target.requests_per_second must not be negative"))
	}
	return result
}

// BaseURL : scheme://host:port
func (b *Blazing) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d", conditional.Ternary(b.UseHTTPS(), "https", "http"), b.Host, b.Port)
}

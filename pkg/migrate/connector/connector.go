package connector

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/baderkha/blazing-transfer/pkg/conditional"
	"github.com/baderkha/blazing-transfer/pkg/migrate/config/targetcfg"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	pathRegister   = "register"
	pathQuery      = "query"
	pathGetResults = "get-results"
	failResponse   = "fail"
	invalidToken   = "invalid token"
)

// Session : login token, good for one query
type Session struct {
	token string
	used  atomic.Bool
}

// claim : marks the session spent, false if it already was
func (s *Session) claim() bool {
	return s.used.CompareAndSwap(false, true)
}

// Result : body of get-results
type Result struct {
	Status      string   `json:"status"`
	Rows        [][]any  `json:"rows"`
	ColumnTypes []string `json:"columnTypes"`
}

// Querier : what the importers and pipeline stages need from the destination
type Querier interface {
	Connect(ctx context.Context) (*Session, error)
	Query(ctx context.Context, sql string, opts ...QueryOption) (*Result, error)
}

type queryOptions struct {
	session     *Session
	autoConnect bool
}

type QueryOption func(*queryOptions)

// WithSession : run the query on s, a session fresh from Connect
func WithSession(s *Session) QueryOption {
	return func(o *queryOptions) { o.session = s }
}

// WithAutoConnect : log in for the query when no session is given
func WithAutoConnect() QueryOption {
	return func(o *queryOptions) { o.autoConnect = true }
}

// Connector : talks to <proto>://<host>:<port>/blazing-jdbc/*
type Connector struct {
	baseURL  string
	user     string
	password string
	database string

	http    *retryablehttp.Client
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	log     zerolog.Logger

	// mu serialises logins so concurrent tables never race on a refresh
	mu        sync.Mutex
	connected bool
	closed    bool
}

type Option func(*Connector)

func WithLogger(log zerolog.Logger) Option {
	return func(c *Connector) { c.log = log }
}

// WithHTTPClient : replaces the underlying transport client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Connector) { c.http.HTTPClient = client }
}

// WithRetryWait : backoff bounds for the retried calls (register, get-results)
func WithRetryWait(min, max time.Duration) Option {
	return func(c *Connector) {
		c.http.RetryWaitMin = min
		c.http.RetryWaitMax = max
	}
}

func New(cfg targetcfg.Blazing, opts ...Option) *Connector {
	cfg.Defaults()
	client := retryablehttp.NewClient()
	client.RetryMax = conditional.Ternary(cfg.RetryMax < 0, 0, cfg.RetryMax)
	client.HTTPClient.Timeout = cfg.Timeout.Std()
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if cfg.InsecureSkipVerify {
		if t, ok := client.HTTPClient.Transport.(*http.Transport); ok {
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
	}
	c := &Connector{
		baseURL:  cfg.BaseURL(),
		user:     cfg.UserName,
		password: cfg.Password,
		database: cfg.Database,
		http:     client,
		sem:      semaphore.NewWeighted(int64(cfg.RequestLimit)),
		log:      zerolog.Nop(),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, o := range opts {
		o(c)
	}
	client.Logger = leveledLogger{log: c.log}
	return c
}

func (c *Connector) url(path string) string {
	return fmt.Sprintf("%s/blazing-jdbc/%s", c.baseURL, path)
}

// Connect : logs in and returns a session owned by the caller.
// Selects the configured database on the new session.
func (c *Connector) Connect(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrNotConnected
	}
	body, err := c.post(ctx, pathRegister, url.Values{
		"username": {c.user},
		"password": {c.password},
	}, true)
	if err != nil {
		return nil, fmt.Errorf("%w : %v", ErrConnectionFailed, err)
	}
	token := strings.TrimSpace(string(body))
	if token == "" || token == failResponse {
		return nil, ErrConnectionFailed
	}
	c.log.Debug().Msg("retrieved login token")
	// the server leaves a login token unspent after USE DATABASE, the same
	// token is handed out for the caller's first query
	if c.database != "" {
		if _, err := c.run(ctx, token, "USE DATABASE "+c.database); err != nil {
			return nil, fmt.Errorf("could not use database %s : %w", c.database, err)
		}
	}
	c.connected = true
	return &Session{token: token}, nil
}

// Query : runs sql on the given session, or on a new one when auto connect is
// set. A session never serves two queries, reusing one yields ErrSessionExpired.
func (c *Connector) Query(ctx context.Context, sql string, opts ...QueryOption) (*Result, error) {
	o := queryOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	sess := o.session
	if sess == nil {
		if !o.autoConnect {
			c.mu.Lock()
			connected := c.connected
			c.mu.Unlock()
			if connected {
				return nil, ErrSessionExpired
			}
			return nil, ErrNotConnected
		}
		var err error
		if sess, err = c.Connect(ctx); err != nil {
			return nil, err
		}
	}
	if !sess.claim() {
		return nil, ErrSessionExpired
	}
	return c.run(ctx, sess.token, sql)
}

func (c *Connector) run(ctx context.Context, token string, sql string) (*Result, error) {
	body, err := c.post(ctx, pathQuery, url.Values{
		"username": {c.user},
		"query":    {sql},
		"token":    {token},
	}, false)
	if err != nil {
		return nil, withQuery(err, sql)
	}
	resultToken := strings.TrimSpace(string(body))
	if resultToken == failResponse {
		return nil, &QueryError{Query: sql, Status: http.StatusOK, Response: resultToken}
	}
	body, err = c.post(ctx, pathGetResults, url.Values{
		"resultSetToken": {resultToken},
		"token":          {token},
	}, true)
	if err != nil {
		return nil, withQuery(err, sql)
	}
	res := &Result{}
	if err := json.Unmarshal(body, res); err != nil {
		return nil, &QueryError{Query: sql, Status: http.StatusOK, Response: string(body), Err: err}
	}
	if res.Status == failResponse {
		qErr := &QueryError{Query: sql, Status: http.StatusOK, Response: string(body)}
		if len(res.Rows) == 1 && len(res.Rows[0]) == 1 && res.Rows[0][0] == ServerRestartMessage {
			qErr.Err = ErrServerRestarting
		}
		return nil, qErr
	}
	return res, nil
}

func withQuery(err error, sql string) error {
	if qErr, ok := err.(*QueryError); ok {
		qErr.Query = sql
	}
	return err
}

// post : one form post, bounded by the request limit. Only idempotent calls go
// through the retrying client, a query is never sent twice.
func (c *Connector) post(ctx context.Context, path string, form url.Values, idempotent bool) ([]byte, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	c.log.Debug().Str("url", c.url(path)).Msg("performing request")
	var (
		resp *http.Response
		err  error
	)
	if idempotent {
		var req *retryablehttp.Request
		req, err = retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url(path), strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err = c.http.Do(req)
	} else {
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err = c.http.HTTPClient.Do(req)
	}
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden ||
		strings.EqualFold(strings.TrimSpace(string(body)), invalidToken) {
		return nil, ErrSessionExpired
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &QueryError{Status: resp.StatusCode, Response: string(body)}
	}
	return body, nil
}

// Close : forgets the credentials and drops idle connections
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.password = ""
	c.http.HTTPClient.CloseIdleConnections()
	return nil
}

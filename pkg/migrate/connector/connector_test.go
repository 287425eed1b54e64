package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/baderkha/blazing-transfer/pkg/migrate/config/targetcfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBlazing : spends a token on every successful query except USE DATABASE
type fakeBlazing struct {
	t *testing.T

	mu        sync.Mutex
	nextToken int
	tokens    map[string]bool // token -> spent
	queries   []string
	sent      []string // token of each query
	registers int

	registerStatus []int
	queryStatus    []int
	queryBody      string
	resultBody     string
	inFlight       int32
	maxInFlight    int32
	hold           time.Duration
}

func newFake(t *testing.T) *fakeBlazing {
	return &fakeBlazing{t: t, tokens: map[string]bool{}}
}

func (f *fakeBlazing) popStatus(list *[]int) int {
	if len(*list) == 0 {
		return http.StatusOK
	}
	s := (*list)[0]
	*list = (*list)[1:]
	return s
}

func (f *fakeBlazing) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if n <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, n) {
			break
		}
	}
	time.Sleep(f.hold)
	assert.NoError(f.t, r.ParseForm())

	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.URL.Path {
	case "/blazing-jdbc/register":
		f.registers++
		if status := f.popStatus(&f.registerStatus); status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		if r.PostForm.Get("password") != "secret" {
			fmt.Fprint(w, "fail")
			return
		}
		f.nextToken++
		tok := "tok-" + strconv.Itoa(f.nextToken)
		f.tokens[tok] = false
		fmt.Fprint(w, tok)
	case "/blazing-jdbc/query":
		q := r.PostForm.Get("query")
		f.queries = append(f.queries, q)
		f.sent = append(f.sent, r.PostForm.Get("token"))
		if status := f.popStatus(&f.queryStatus); status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		tok := r.PostForm.Get("token")
		spent, ok := f.tokens[tok]
		if !ok || spent {
			fmt.Fprint(w, "invalid token")
			return
		}
		if !strings.HasPrefix(q, "USE DATABASE") {
			f.tokens[tok] = true
		}
		if f.queryBody != "" {
			fmt.Fprint(w, f.queryBody)
			return
		}
		fmt.Fprint(w, "res-"+tok)
	case "/blazing-jdbc/get-results":
		if _, ok := f.tokens[r.PostForm.Get("token")]; !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.resultBody != "" {
			fmt.Fprint(w, f.resultBody)
			return
		}
		_ = json.NewEncoder(w).Encode(Result{Status: "success", Rows: [][]any{{"ok"}}, ColumnTypes: []string{"string"}})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestConnector(t *testing.T, f *fakeBlazing, mod func(*targetcfg.Blazing)) *Connector {
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	host, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	https := false
	cfg := targetcfg.Blazing{
		Host:     host,
		Port:     p,
		HTTPS:    &https,
		UserName: "main",
		Password: "secret",
		Database: "db",
	}
	if mod != nil {
		mod(&cfg)
	}
	return New(cfg, WithRetryWait(time.Millisecond, 2*time.Millisecond))
}

func TestQueryAutoConnect(t *testing.T) {
	f := newFake(t)
	c := newTestConnector(t, f, nil)

	res, err := c.Query(context.Background(), "SELECT * FROM t", WithAutoConnect())
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, [][]any{{"ok"}}, res.Rows)
	assert.Equal(t, []string{"USE DATABASE db", "SELECT * FROM t"}, f.queries)
}

func TestQueryWithoutSession(t *testing.T) {
	f := newFake(t)
	c := newTestConnector(t, f, nil)
	ctx := context.Background()

	_, err := c.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = c.Connect(ctx)
	require.NoError(t, err)
	_, err = c.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestUseDatabaseKeepsLoginToken(t *testing.T) {
	f := newFake(t)
	c := newTestConnector(t, f, nil)
	ctx := context.Background()

	sess, err := c.Connect(ctx)
	require.NoError(t, err)
	_, err = c.Query(ctx, "SELECT 1", WithSession(sess))
	require.NoError(t, err)

	assert.Equal(t, []string{"USE DATABASE db", "SELECT 1"}, f.queries)
	require.Len(t, f.sent, 2)
	assert.Equal(t, f.sent[0], f.sent[1])
	assert.Equal(t, 1, f.registers)
}

func TestSessionIsSingleUse(t *testing.T) {
	f := newFake(t)
	c := newTestConnector(t, f, func(b *targetcfg.Blazing) { b.Database = "" })
	ctx := context.Background()

	s, err := c.Connect(ctx)
	require.NoError(t, err)
	_, err = c.Query(ctx, "SELECT 1", WithSession(s))
	require.NoError(t, err)

	_, err = c.Query(ctx, "SELECT 2", WithSession(s))
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, []string{"SELECT 1"}, f.queries)
}

func TestRejectedTokenIsSessionExpired(t *testing.T) {
	f := newFake(t)
	c := newTestConnector(t, f, nil)
	ctx := context.Background()

	f.queryStatus = []int{http.StatusOK, http.StatusUnauthorized}
	_, err := c.Query(ctx, "SELECT 1", WithAutoConnect())
	assert.ErrorIs(t, err, ErrSessionExpired)

	// a token spent behind our back comes back as "invalid token"
	s, err := c.Connect(ctx)
	require.NoError(t, err)
	f.mu.Lock()
	for tok := range f.tokens {
		f.tokens[tok] = true
	}
	f.mu.Unlock()
	_, err = c.Query(ctx, "SELECT 1", WithSession(s))
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestQueryFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("fail result token", func(t *testing.T) {
		f := newFake(t)
		c := newTestConnector(t, f, func(b *targetcfg.Blazing) { b.Database = "" })
		f.queryBody = "fail"
		_, err := c.Query(ctx, "DROP TABLE t", WithAutoConnect())
		var qErr *QueryError
		require.ErrorAs(t, err, &qErr)
		assert.Equal(t, "DROP TABLE t", qErr.Query)
	})

	t.Run("server restarting", func(t *testing.T) {
		f := newFake(t)
		c := newTestConnector(t, f, func(b *targetcfg.Blazing) { b.Database = "" })
		body, _ := json.Marshal(Result{Status: "fail", Rows: [][]any{{ServerRestartMessage}}})
		f.resultBody = string(body)
		_, err := c.Query(ctx, "SELECT 1", WithAutoConnect())
		assert.ErrorIs(t, err, ErrServerRestarting)
	})

	t.Run("plain failed result", func(t *testing.T) {
		f := newFake(t)
		c := newTestConnector(t, f, func(b *targetcfg.Blazing) { b.Database = "" })
		f.resultBody = `{"status":"fail","rows":[["table t does not exist"]]}`
		_, err := c.Query(ctx, "SELECT 1", WithAutoConnect())
		var qErr *QueryError
		require.ErrorAs(t, err, &qErr)
		assert.False(t, errors.Is(err, ErrServerRestarting))
		assert.Contains(t, qErr.Error(), "does not exist")
	})

	t.Run("bad credentials", func(t *testing.T) {
		f := newFake(t)
		c := newTestConnector(t, f, func(b *targetcfg.Blazing) { b.Password = "nope" })
		_, err := c.Query(ctx, "SELECT 1", WithAutoConnect())
		assert.ErrorIs(t, err, ErrConnectionFailed)
	})
}

func TestOnlyIdempotentCallsAreRetried(t *testing.T) {
	f := newFake(t)
	c := newTestConnector(t, f, func(b *targetcfg.Blazing) { b.Database = "" })
	ctx := context.Background()

	f.registerStatus = []int{http.StatusServiceUnavailable}
	_, err := c.Query(ctx, "SELECT 1", WithAutoConnect())
	require.NoError(t, err)
	assert.Equal(t, 2, f.registers)

	f.queryStatus = []int{http.StatusServiceUnavailable}
	_, err = c.Query(ctx, "SELECT 2", WithAutoConnect())
	var qErr *QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, http.StatusServiceUnavailable, qErr.Status)
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, f.queries)
}

func TestNegativeRetryMaxDisablesRetries(t *testing.T) {
	f := newFake(t)
	c := newTestConnector(t, f, func(b *targetcfg.Blazing) {
		b.Database = ""
		b.RetryMax = -1
		b.Defaults()
	})

	f.registerStatus = []int{http.StatusInternalServerError, http.StatusInternalServerError, http.StatusInternalServerError}
	_, err := c.Connect(context.Background())
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Equal(t, 1, f.registers)
}

func TestConcurrentQueriesNeverShareToken(t *testing.T) {
	f := newFake(t)
	c := newTestConnector(t, f, nil)

	var wg sync.WaitGroup
	errCh := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Query(context.Background(), fmt.Sprintf("SELECT %d", i), WithAutoConnect())
			errCh <- err
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		assert.NoError(t, err)
	}
	assert.Equal(t, 20, f.registers)
}

func TestRequestLimit(t *testing.T) {
	f := newFake(t)
	f.hold = 10 * time.Millisecond
	c := newTestConnector(t, f, func(b *targetcfg.Blazing) {
		b.RequestLimit = 2
		b.Database = ""
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Query(context.Background(), "SELECT 1", WithAutoConnect())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&f.maxInFlight), int32(2))
}

func TestClose(t *testing.T) {
	f := newFake(t)
	c := newTestConnector(t, f, nil)
	require.NoError(t, c.Close())
	_, err := c.Connect(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestQueryErrorShortensResponse(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	err := &QueryError{Query: "q", Status: 500, Response: string(long)}
	assert.Less(t, len(err.Error()), 150)
}

package connectortest

import (
	"context"
	"strings"
	"sync"

	"github.com/baderkha/blazing-transfer/pkg/migrate/connector"
)

// Recorder : records every query it is asked to run. Fail, when set, decides
// the outcome of each query from its text and 1-based call number.
type Recorder struct {
	mu       sync.Mutex
	queries  []string
	connects int
	Fail     func(sql string, call int) error
	Result   *connector.Result
}

func (r *Recorder) Connect(ctx context.Context) (*connector.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connects++
	return &connector.Session{}, nil
}

func (r *Recorder) Query(ctx context.Context, sql string, opts ...connector.QueryOption) (*connector.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.queries = append(r.queries, sql)
	call := len(r.queries)
	fail := r.Fail
	r.mu.Unlock()
	if fail != nil {
		if err := fail(sql, call); err != nil {
			return nil, err
		}
	}
	if r.Result != nil {
		return r.Result, nil
	}
	return &connector.Result{Status: "success"}, nil
}

// Queries : every query so far, in call order
func (r *Recorder) Queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

// Matching : queries starting with prefix, case-insensitively
func (r *Recorder) Matching(prefix string) []string {
	var res []string
	for _, q := range r.Queries() {
		if strings.HasPrefix(strings.ToLower(q), strings.ToLower(prefix)) {
			res = append(res, q)
		}
	}
	return res
}

func (r *Recorder) Connects() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connects
}

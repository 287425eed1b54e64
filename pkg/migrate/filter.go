package migrate

import (
	"fmt"
	"path"
	"strings"

	"github.com/baderkha/blazing-transfer/pkg/migrate/errs"
	"github.com/hashicorp/go-multierror"
)

// Filter : glob patterns (path.Match syntax) choosing the tables to migrate.
// No include pattern means every table, an exclude match always wins.
type Filter struct {
	Include []string
	Exclude []string
}

// Tables : filter selecting exactly the named tables
func Tables(names ...string) Filter {
	include := make([]string, len(names))
	for i, n := range names {
		include[i] = Literal(n)
	}
	return Filter{Include: include}
}

// Literal : pattern matching only name
func Literal(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(`*?[\`, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func unescape(pattern string) string {
	var (
		b       strings.Builder
		escaped bool
	)
	for _, r := range pattern {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// Validate : every malformed pattern, in one error
func (f Filter) Validate() error {
	var result error
	for _, p := range append(append([]string(nil), f.Include...), f.Exclude...) {
		if _, err := path.Match(p, ""); err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid pattern %q : %w", p, err))
		}
	}
	if result != nil {
		return &errs.ConfigError{Err: result}
	}
	return nil
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Select : the tables passing the filter, in source order. An include that
// names one table explicitly (no wildcard) must name an existing table.
func (f Filter) Select(tables []string) ([]string, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		known[t] = struct{}{}
	}
	var missing error
	for _, p := range f.Include {
		if isGlob(p) {
			continue
		}
		if _, ok := known[unescape(p)]; !ok {
			missing = multierror.Append(missing, fmt.Errorf("table %s does not exist in the source", unescape(p)))
		}
	}
	if missing != nil {
		return nil, &errs.ConfigError{Err: missing}
	}

	selected := make([]string, 0, len(tables))
	for _, t := range tables {
		if len(f.Include) > 0 && !matchAny(f.Include, t) {
			continue
		}
		if matchAny(f.Exclude, t) {
			continue
		}
		selected = append(selected, t)
	}
	return selected, nil
}

// isGlob : pattern holds a wildcard that is not escaped
func isGlob(pattern string) bool {
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case strings.ContainsRune("*?[", r):
			return true
		}
	}
	return false
}

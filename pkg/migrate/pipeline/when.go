package pipeline

import (
	"fmt"
	"strings"
)

// When : points of a table's migration a custom stage runs at
type When uint8

const (
	Before When = 1 << iota
	After
	BeforeBatch
	AfterBatch
)

var whenNames = map[string]When{
	HookBefore:      Before,
	HookAfter:       After,
	HookBeforeBatch: BeforeBatch,
	HookAfterBatch:  AfterBatch,
}

func (w When) Has(flag When) bool { return w&flag != 0 }

// ParseWhen : reads ["before", "after_batch", ...], nothing means before
func ParseWhen(names []string) (When, error) {
	if len(names) == 0 {
		return Before, nil
	}
	var w When
	for _, n := range names {
		flag, ok := whenNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, fmt.Errorf("unknown hook %q, expected one of before, after, before_batch, after_batch", n)
		}
		w |= flag
	}
	return w, nil
}

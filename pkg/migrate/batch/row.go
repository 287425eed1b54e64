package batch

import (
	"github.com/baderkha/blazing-transfer/pkg/migrate/source"
)

// RowBatcher : a batch every count rows, byte size is ignored
type RowBatcher struct {
	base
	count int
}

func NewRowBatcher(count int, f Format, opts ...Option) *RowBatcher {
	if count <= 0 {
		count = 1
	}
	return &RowBatcher{base: newBase(f, opts), count: count}
}

func (r *RowBatcher) Count() int { return r.count }

func (r *RowBatcher) Accumulate(rows source.RowIterator) Iterator {
	return &iterator{rows: rows, format: r.format, limits: rowLimits(r.count), log: r.log}
}

type rowLimits int

func (l rowLimits) fitsBefore(b *Batch, enc []byte) bool {
	return b.Len() < int(l)
}

func (l rowLimits) fullAfter(b *Batch) bool {
	return b.Len() >= int(l)
}

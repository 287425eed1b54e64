package batch

import (
	"github.com/baderkha/blazing-transfer/pkg/migrate/source"
)

// ByteBatcher : closes a batch once the next row would push its payload past
// the limit. A row larger than the limit on its own still gets its own batch.
type ByteBatcher struct {
	base
	limit int
}

func NewByteBatcher(limit int, f Format, opts ...Option) *ByteBatcher {
	return &ByteBatcher{base: newBase(f, opts), limit: limit}
}

func (b *ByteBatcher) Limit() int { return b.limit }

func (b *ByteBatcher) Accumulate(rows source.RowIterator) Iterator {
	return &iterator{rows: rows, format: b.format, limits: byteLimits(b.limit), log: b.log}
}

type byteLimits int

func (l byteLimits) fitsBefore(b *Batch, enc []byte) bool {
	return b.Size()+len(enc) <= int(l)
}

func (l byteLimits) fullAfter(b *Batch) bool {
	return b.Size() >= int(l)
}

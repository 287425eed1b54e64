package batch

import (
	"context"
	"io"

	"github.com/baderkha/blazing-transfer/pkg/migrate/source"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Batch : rows plus their encoded payload, consumed once by an importer
type Batch struct {
	Index   int
	Rows    []source.Row
	Payload []byte
}

func (b *Batch) Size() int { return len(b.Payload) }

func (b *Batch) Len() int { return len(b.Rows) }

// Iterator : Next returns io.EOF once the rows are exhausted
type Iterator interface {
	Next(ctx context.Context) (*Batch, error)
}

// Batcher : groups rows into batches. Boundaries only depend on the rows and
// the configuration.
type Batcher interface {
	Accumulate(rows source.RowIterator) Iterator
	Format() Format
}

type Option func(*base)

func WithLogger(log zerolog.Logger) Option {
	return func(b *base) { b.log = log }
}

type base struct {
	format Format
	log    zerolog.Logger
}

func newBase(f Format, opts []Option) base {
	b := base{format: f, log: zerolog.Nop()}
	for _, o := range opts {
		o(&b)
	}
	return b
}

func (b *base) Format() Format { return b.format }

// limits : fitsBefore is asked before a row joins a non-empty batch (a row that
// does not fit is carried into the next one), fullAfter closes the batch early
type limits interface {
	fitsBefore(b *Batch, enc []byte) bool
	fullAfter(b *Batch) bool
}

type iterator struct {
	rows    source.RowIterator
	format  Format
	limits  limits
	log     zerolog.Logger
	pending source.Row
	pendEnc []byte
	index   int
	done    bool
}

func (it *iterator) Next(ctx context.Context) (*Batch, error) {
	if it.done && it.pending == nil {
		return nil, io.EOF
	}
	b := &Batch{Index: it.index}
	if it.pending != nil {
		b.Rows = append(b.Rows, it.pending)
		b.Payload = append(b.Payload, it.pendEnc...)
		it.pending, it.pendEnc = nil, nil
	}
	for !it.done && !(len(b.Rows) > 0 && it.limits.fullAfter(b)) {
		r, err := it.rows.Next(ctx)
		if err == io.EOF {
			it.done = true
			break
		}
		if err != nil {
			return nil, err
		}
		enc := it.format.AppendRow(nil, r)
		if len(b.Rows) > 0 && !it.limits.fitsBefore(b, enc) {
			it.pending, it.pendEnc = r, enc
			break
		}
		b.Rows = append(b.Rows, r)
		b.Payload = append(b.Payload, enc...)
	}
	if len(b.Rows) == 0 {
		return nil, io.EOF
	}
	it.index++
	it.log.Debug().
		Int("batch", b.Index).
		Int("rows", b.Len()).
		Str("size", humanize.IBytes(uint64(b.Size()))).
		Msg("read batch from the stream")
	return b, nil
}

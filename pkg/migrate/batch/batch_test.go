package batch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/baderkha/blazing-transfer/pkg/migrate/config"
	"github.com/baderkha/blazing-transfer/pkg/migrate/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, it Iterator) []*Batch {
	t.Helper()
	var res []*Batch
	for {
		b, err := it.Next(context.Background())
		if err == io.EOF {
			return res
		}
		require.NoError(t, err)
		res = append(res, b)
	}
}

func rowsOf(n int) []source.Row {
	rows := make([]source.Row, n)
	for i := range rows {
		rows[i] = source.Row{fmt.Sprintf("name-%03d", i), fmt.Sprintf("%04d", i)}
	}
	return rows
}

// decode : reverses AppendRow for the default format, enough to check what the destination would read
func decode(f Format, payload string) [][]string {
	var (
		records [][]string
		record  []string
		field   strings.Builder
		quoted  bool
	)
	for i := 0; i < len(payload); i++ {
		c := payload[i : i+1]
		switch {
		case quoted && c == f.FieldWrapper:
			if i+1 < len(payload) && payload[i+1:i+2] == f.FieldWrapper {
				field.WriteString(c)
				i++
				continue
			}
			quoted = false
		case quoted:
			field.WriteString(c)
		case c == f.FieldWrapper:
			quoted = true
		case c == f.FieldTerminator:
			record = append(record, field.String())
			field.Reset()
		case c == f.LineTerminator:
			record = append(record, field.String())
			field.Reset()
			records = append(records, record)
			record = nil
		default:
			field.WriteString(c)
		}
	}
	return records
}

func TestFormatAppendRow(t *testing.T) {
	f := DefaultFormat()
	ts := time.Date(2021, 3, 4, 10, 11, 12, 0, time.UTC)

	out := f.AppendRow(nil, source.Row{"x", int64(1), nil, true, 2.5, ts, []byte("raw")})
	assert.Equal(t, "x|1||1|2.5|2021-03-04|raw\n", string(out))

	out = f.AppendRow(nil, source.Row{`a|b`, `say "hi"`, "two\nlines", "plain"})
	assert.Equal(t, `"a|b"|"say ""hi"""|"two`+"\n"+`lines"|plain`+"\n", string(out))
}

func TestFormatRoundTrip(t *testing.T) {
	f := DefaultFormat()
	values := []string{"", "plain", "a|b", `"`, `""x""`, "multi\nline|\"mixed\""}
	row := make(source.Row, len(values))
	for i, v := range values {
		row[i] = v
	}
	records := decode(f, string(f.AppendRow(nil, row)))
	require.Len(t, records, 1)
	assert.Equal(t, values, records[0])
}

func TestFormatFromConfig(t *testing.T) {
	f := FormatFromConfig(config.Importer{FieldTerminator: ",", DateFormat: "2006"})
	assert.Equal(t, ",", f.FieldTerminator)
	assert.Equal(t, `"`, f.FieldWrapper)
	assert.Equal(t, "\n", f.LineTerminator)
	assert.Equal(t, "2006", f.DateFormat)
}

func TestByteBatcherRespectsLimit(t *testing.T) {
	f := DefaultFormat()
	rows := rowsOf(100)
	rowSize := len(f.AppendRow(nil, rows[0]))

	for _, limit := range []int{rowSize, rowSize + 1, 3 * rowSize, 10*rowSize - 1, 1 << 20} {
		t.Run(fmt.Sprint(limit), func(t *testing.T) {
			batches := collect(t, NewByteBatcher(limit, f).Accumulate(source.FromSlice(rows)))

			var got []source.Row
			for i, b := range batches {
				assert.Equal(t, i, b.Index)
				assert.NotZero(t, b.Len())
				assert.LessOrEqual(t, b.Size(), limit)
				if i < len(batches)-1 {
					// closed only because the next row would not fit
					next := f.AppendRow(nil, batches[i+1].Rows[0])
					assert.Greater(t, b.Size()+len(next), limit)
				}
				got = append(got, b.Rows...)
			}
			assert.Equal(t, rows, got)
		})
	}
}

func TestByteBatcherOversizedRow(t *testing.T) {
	f := DefaultFormat()
	rows := []source.Row{{"a"}, {strings.Repeat("x", 50)}, {"b"}}
	batches := collect(t, NewByteBatcher(10, f).Accumulate(source.FromSlice(rows)))

	require.Len(t, batches, 3)
	assert.Equal(t, []source.Row{{"a"}}, batches[0].Rows)
	assert.Equal(t, []source.Row{rows[1]}, batches[1].Rows)
	assert.Greater(t, batches[1].Size(), 10)
	assert.Equal(t, []source.Row{{"b"}}, batches[2].Rows)
}

func TestByteBatcherEmpty(t *testing.T) {
	batches := collect(t, NewByteBatcher(10, DefaultFormat()).Accumulate(source.FromSlice(nil)))
	assert.Empty(t, batches)
}

func TestRowBatcher(t *testing.T) {
	for _, tc := range []struct{ total, n, want int }{
		{0, 3, 0},
		{1, 3, 1},
		{3, 3, 1},
		{7, 3, 3},
		{9, 3, 3},
		{5, 1, 5},
	} {
		t.Run(fmt.Sprintf("%d/%d", tc.total, tc.n), func(t *testing.T) {
			rows := rowsOf(tc.total)
			batches := collect(t, NewRowBatcher(tc.n, DefaultFormat()).Accumulate(source.FromSlice(rows)))
			require.Len(t, batches, tc.want)

			var got []source.Row
			for i, b := range batches {
				if i < len(batches)-1 {
					assert.Equal(t, tc.n, b.Len())
				}
				assert.LessOrEqual(t, b.Len(), tc.n)
				got = append(got, b.Rows...)
			}
			if tc.total > 0 {
				assert.Equal(t, rows, got)
			}
		})
	}
}

func TestBatchPayloadMatchesRows(t *testing.T) {
	f := DefaultFormat()
	rows := rowsOf(5)
	batches := collect(t, NewRowBatcher(2, f).Accumulate(source.FromSlice(rows)))
	for _, b := range batches {
		var want []byte
		for _, r := range b.Rows {
			want = f.AppendRow(want, r)
		}
		assert.Equal(t, string(want), string(b.Payload))
	}
}

type failingRows struct{ after int }

func (f *failingRows) Next(ctx context.Context) (source.Row, error) {
	if f.after == 0 {
		return nil, fmt.Errorf("connection reset")
	}
	f.after--
	return source.Row{"v"}, nil
}

func (f *failingRows) Close() error { return nil }

func TestBatcherPropagatesRowErrors(t *testing.T) {
	it := NewRowBatcher(10, DefaultFormat()).Accumulate(&failingRows{after: 3})
	_, err := it.Next(context.Background())
	assert.EqualError(t, err, "connection reset")
}

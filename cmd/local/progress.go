package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/baderkha/blazing-transfer/pkg/migrate"
	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
)

// progress : one tick per finished table. A disabled progress does nothing
type progress struct {
	mu       sync.Mutex
	disabled bool
	bar      *progressbar.ProgressBar
}

func newProgress(disabled bool) *progress {
	return &progress{disabled: disabled}
}

func (p *progress) Start(tables []string) {
	if p.disabled || len(tables) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar = progressbar.NewOptions(len(tables),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("tables"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progress) Done(r migrate.TableResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return
	}
	p.bar.Describe(fmt.Sprintf("%s %s", r.Table, r.Status))
	_ = p.bar.Add(1)
}

func (p *progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func printResults(out io.Writer, results []migrate.TableResult) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tDESTINATION\tSTATUS\tROWS\tSIZE\tTOOK\tDETAIL")
	for _, r := range results {
		detail := r.Reason
		if r.Err != nil {
			detail = fmt.Sprintf("%s : %v", r.Kind, r.Err)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Table,
			r.DestTable,
			r.Status,
			humanize.Comma(r.Rows),
			humanize.IBytes(uint64(r.Bytes)),
			r.Duration.Round(time.Millisecond),
			detail,
		)
	}
	_ = w.Flush()
}

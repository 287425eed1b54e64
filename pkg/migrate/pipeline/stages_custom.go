package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/baderkha/blazing-transfer/pkg/migrate/batch"
	"github.com/davecgh/go-spew/spew"
)

// TablePlaceholder : replaced with the destination table in custom queries, commands and prompts
const TablePlaceholder = "{table}"

// DefaultPrompt : text shown by a prompt stage without one
const DefaultPrompt = "Waiting for input..."

// Action : body of a custom stage
type Action func(ctx context.Context, tc *TableContext) error

// CustomActionStage : runs Action at every point When names
type CustomActionStage struct {
	Label  string
	When   When
	Action Action
}

func NewCustomActionStage(label string, when When, action Action) *CustomActionStage {
	return &CustomActionStage{Label: label, When: when, Action: action}
}

func (s *CustomActionStage) Name() string { return s.Label }

func (s *CustomActionStage) run(ctx context.Context, tc *TableContext, flag When) error {
	if !s.When.Has(flag) {
		return nil
	}
	return s.Action(ctx, tc)
}

func (s *CustomActionStage) Before(ctx context.Context, tc *TableContext) error {
	return s.run(ctx, tc, Before)
}

func (s *CustomActionStage) After(ctx context.Context, tc *TableContext) error {
	return s.run(ctx, tc, After)
}

func (s *CustomActionStage) BeforeBatch(ctx context.Context, tc *TableContext, b *batch.Batch) error {
	return s.run(ctx, tc, BeforeBatch)
}

func (s *CustomActionStage) AfterBatch(ctx context.Context, tc *TableContext, b *batch.Batch) error {
	return s.run(ctx, tc, AfterBatch)
}

// NewCustomQueryStage : runs query on the destination, {table} becomes the destination table
func NewCustomQueryStage(query string, when When) *CustomActionStage {
	return NewCustomActionStage("custom_query", when, func(ctx context.Context, tc *TableContext) error {
		res, err := tc.Query(ctx, strings.ReplaceAll(query, TablePlaceholder, tc.DestTable))
		if err != nil {
			return err
		}
		if tc.Log.Debug().Enabled() {
			tc.Log.Debug().Msgf("results for custom query stage : %s", spew.Sdump(res.Rows))
		}
		return nil
	})
}

// NewCustomCommandStage : runs program with args, {table} in args becomes the destination table
func NewCustomCommandStage(program string, args []string, when When) *CustomActionStage {
	return NewCustomActionStage("custom_command", when, func(ctx context.Context, tc *TableContext) error {
		resolved := make([]string, len(args))
		for i, a := range args {
			resolved[i] = strings.ReplaceAll(a, TablePlaceholder, tc.DestTable)
		}
		tc.Log.Info().Msgf("performing command : %s %s", program, strings.Join(resolved, " "))
		out, err := exec.CommandContext(ctx, program, resolved...).CombinedOutput()
		if err != nil {
			return fmt.Errorf("command %s failed : %w : %s", program, err, strings.TrimSpace(string(out)))
		}
		return nil
	})
}

// NewDelayStage : pauses the table for delay
func NewDelayStage(delay time.Duration, when When) *CustomActionStage {
	return NewCustomActionStage("delay", when, func(ctx context.Context, tc *TableContext) error {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	})
}

// Console : where prompts are written and answers read. Shared by every
// prompt stage so concurrent tables ask one at a time.
type Console struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// StdConsole : stdin / stdout
func StdConsole() *Console {
	return NewConsole(os.Stdin, os.Stdout)
}

// Ask : writes prompt then reads one line
func (c *Console) Ask(prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprint(c.out, prompt); err != nil {
		return "", err
	}
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

var skipAnswers = map[string]bool{"n": true, "no": true, "s": true, "skip": true}

// NewPromptInputStage : blocks until the operator answers. n, no, s or skip cancel the table
func NewPromptInputStage(console *Console, prompt string, when When) *CustomActionStage {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return NewCustomActionStage("prompt", when, func(ctx context.Context, tc *TableContext) error {
		answer, err := console.Ask(strings.ReplaceAll(prompt, TablePlaceholder, tc.DestTable))
		if err != nil {
			return err
		}
		if skipAnswers[strings.ToLower(answer)] {
			tc.Log.Info().Msg("table skipped at the prompt")
			tc.Cancel("skipped at prompt")
		}
		return nil
	})
}

package pipeline

import (
	"fmt"

	"github.com/baderkha/blazing-transfer/pkg/migrate/config"
	"github.com/baderkha/blazing-transfer/pkg/migrate/errs"
	"github.com/hashicorp/go-multierror"
)

const (
	KindCreateTable   = "create_table"
	KindDropTable     = "drop_table"
	KindTruncateTable = "truncate_table"
	KindPrefixTable   = "prefix_table"
	KindLimitImport   = "limit_import"
	KindFilterColumns = "filter_columns"
	KindDelay         = "delay"
	KindPrompt        = "prompt"
	KindCustomQuery   = "custom_query"
	KindCustomCommand = "custom_command"
	KindPostImport    = "post_import"
)

type buildOptions struct {
	console *Console
}

type BuildOption func(*buildOptions)

// WithConsole : where prompt stages ask, stdin / stdout by default
func WithConsole(c *Console) BuildOption {
	return func(o *buildOptions) { o.console = c }
}

// FromConfig : builds the pipeline a job describes, every bad stage is
// reported in one ConfigError
func FromConfig(cfgs []config.Stage, opts ...BuildOption) (*Pipeline, error) {
	o := buildOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	var (
		stages []Stage
		result error
	)
	for i, c := range cfgs {
		st, err := stageFromConfig(c, &o)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("pipeline[%d] (%s) : %w", i, c.Kind, err))
			continue
		}
		stages = append(stages, st)
	}
	if result != nil {
		return nil, &errs.ConfigError{Err: result}
	}
	return New(stages...), nil
}

func stageFromConfig(c config.Stage, o *buildOptions) (Stage, error) {
	when, err := ParseWhen(c.When)
	if err != nil {
		return nil, err
	}
	switch c.Kind {
	case KindCreateTable:
		return &CreateTableStage{Quiet: c.Quiet}, nil
	case KindDropTable:
		return &DropTableStage{Quiet: c.Quiet}, nil
	case KindTruncateTable:
		return &TruncateTableStage{Quiet: c.Quiet}, nil
	case KindPrefixTable:
		if c.Prefix == "" {
			return nil, fmt.Errorf("prefix is required")
		}
		return &PrefixTableStage{Prefix: c.Prefix, Separator: c.Separator}, nil
	case KindLimitImport:
		if c.Count <= 0 {
			return nil, fmt.Errorf("count must be positive")
		}
		return &LimitImportStage{Count: c.Count}, nil
	case KindFilterColumns:
		return &FilterColumnsStage{Tables: c.Columns}, nil
	case KindDelay:
		if c.Delay <= 0 {
			return nil, fmt.Errorf("delay must be positive")
		}
		return NewDelayStage(c.Delay.Std(), when), nil
	case KindPrompt:
		if o.console == nil {
			o.console = StdConsole()
		}
		return NewPromptInputStage(o.console, c.Prompt, when), nil
	case KindCustomQuery:
		if c.Query == "" {
			return nil, fmt.Errorf("query is required")
		}
		return NewCustomQueryStage(c.Query, when), nil
	case KindCustomCommand:
		if c.Program == "" {
			return nil, fmt.Errorf("program is required")
		}
		return NewCustomCommandStage(c.Program, c.Args, when), nil
	case KindPostImport:
		return &PostImportHackStage{}, nil
	}
	return nil, fmt.Errorf("unknown stage kind")
}

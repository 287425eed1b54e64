package pipeline

import (
	"context"

	"github.com/baderkha/blazing-transfer/pkg/migrate/batch"
	"github.com/baderkha/blazing-transfer/pkg/migrate/errs"
)

const (
	HookBefore      = "before"
	HookAfter       = "after"
	HookBeforeBatch = "before_batch"
	HookAfterBatch  = "after_batch"
)

// Stage : a named before / after action. Stages keep no per table state
type Stage interface {
	Name() string
	Before(ctx context.Context, tc *TableContext) error
	After(ctx context.Context, tc *TableContext) error
}

// BatchStage : a stage that also runs around every batch upload
type BatchStage interface {
	Stage
	BeforeBatch(ctx context.Context, tc *TableContext, b *batch.Batch) error
	AfterBatch(ctx context.Context, tc *TableContext, b *batch.Batch) error
}

// Base : no-op hooks, embed it and override what the stage needs
type Base struct{}

func (Base) Before(ctx context.Context, tc *TableContext) error { return nil }

func (Base) After(ctx context.Context, tc *TableContext) error { return nil }

type Pipeline struct {
	stages []Stage
}

func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: append([]Stage(nil), stages...)}
}

// Stages : copy of the stage list
func (p *Pipeline) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

func (p *Pipeline) Len() int { return len(p.stages) }

func (p *Pipeline) wrap(tc *TableContext, s Stage, hook string, err error) error {
	return &errs.StageError{Table: tc.SourceTable, Stage: s.Name(), Hook: hook, Err: err}
}

// RunBefore : before hooks in order. Stops, without error, as soon as a stage
// cancels the table and on the first failing stage.
func (p *Pipeline) RunBefore(ctx context.Context, tc *TableContext) error {
	for _, s := range p.stages {
		if tc.Cancelled() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		tc.Log.Debug().Str("stage", s.Name()).Msg("running before hook")
		if err := s.Before(ctx, tc); err != nil {
			return p.wrap(tc, s, HookBefore, err)
		}
	}
	return nil
}

// RunAfter : after hooks in the same order as the before hooks. Does nothing
// for a cancelled table, stops on the first failing stage.
func (p *Pipeline) RunAfter(ctx context.Context, tc *TableContext) error {
	if tc.Cancelled() {
		return nil
	}
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		tc.Log.Debug().Str("stage", s.Name()).Msg("running after hook")
		if err := s.After(ctx, tc); err != nil {
			return p.wrap(tc, s, HookAfter, err)
		}
	}
	return nil
}

func (p *Pipeline) RunBeforeBatch(ctx context.Context, tc *TableContext, b *batch.Batch) error {
	for _, s := range p.stages {
		bs, ok := s.(BatchStage)
		if !ok || tc.Cancelled() {
			continue
		}
		if err := bs.BeforeBatch(ctx, tc, b); err != nil {
			return p.wrap(tc, s, HookBeforeBatch, err)
		}
	}
	return nil
}

func (p *Pipeline) RunAfterBatch(ctx context.Context, tc *TableContext, b *batch.Batch) error {
	for _, s := range p.stages {
		bs, ok := s.(BatchStage)
		if !ok || tc.Cancelled() {
			continue
		}
		if err := bs.AfterBatch(ctx, tc, b); err != nil {
			return p.wrap(tc, s, HookAfterBatch, err)
		}
	}
	return nil
}

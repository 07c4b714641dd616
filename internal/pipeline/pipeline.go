package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skybow044/dalghaksub/internal/model"
)

// Step is one stage of a harvest. Each step reads what earlier steps left
// in the report and adds its own results.
type Step interface {
	// Do runs the step. A returned error ends the harvest; problems the
	// harvest can live with (a failed geo lookup, a history write) are
	// logged by the step and not returned.
	Do(ctx context.Context, report *model.HarvestReport) error

	// Name identifies the step in logs and in report.PerformedSteps.
	Name() string
}

// Pipeline runs harvest steps in order and stops at the first failure.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for step progress.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in the given order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}

// Execute runs every step against report and records the elapsed time.
//
// Cancellation is checked between steps. The first step error is stored in
// report.Error, wrapped with the step name and returned; later steps do not
// run, so no output is produced from a partial harvest.
func (p *Pipeline) Execute(ctx context.Context, report *model.HarvestReport) error {
	start := time.Now()
	defer func() {
		report.Elapsed = time.Since(start)
	}()

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("harvest cancelled", "before", step.Name(), "reason", err)
			return p.fail(ctx, report, err)
		}

		p.logger.Info("running step", "step", step.Name(), "channel", report.Channel)
		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "channel", report.Channel, "error", err)
			return p.fail(ctx, report, fmt.Errorf("%s: %w", step.Name(), err))
		}
		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	p.logger.Debug("harvest finished", "channel", report.Channel, "steps", len(report.PerformedSteps))
	return nil
}

// fail records err in report and returns it.
func (p *Pipeline) fail(ctx context.Context, report *model.HarvestReport, err error) error {
	report.Error = err
	report.ErrorMessage = err.Error()
	if ctx.Err() != nil {
		report.TimedOut = true
	}
	return err
}

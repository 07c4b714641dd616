package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skybow044/dalghaksub/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, report *model.HarvestReport) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, report *model.HarvestReport) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, report)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	p := New()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if len(p.StepNames()) != 0 {
		t.Errorf("expected no steps, got %v", p.StepNames())
	}
	if p.logger == nil {
		t.Error("expected the default logger")
	}
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("adds single step", func(t *testing.T) {
		t.Parallel()

		p := New()
		step := &mockStep{name: "test-step"}

		p.AddStep(step)

		if len(p.StepNames()) != 1 {
			t.Errorf("expected 1 step, got %v", p.StepNames())
		}
	})

	t.Run("adds multiple steps with AddSteps", func(t *testing.T) {
		t.Parallel()

		p := New()
		step1 := &mockStep{name: "step-1"}
		step2 := &mockStep{name: "step-2"}
		step3 := &mockStep{name: "step-3"}

		p.AddSteps(step1, step2, step3)

		if len(p.StepNames()) != 3 {
			t.Errorf("expected 3 steps, got %v", p.StepNames())
		}
	})

	t.Run("maintains step order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "first"})
		p.AddStep(&mockStep{name: "second"})
		p.AddStep(&mockStep{name: "third"})

		names := p.StepNames()

		expected := []string{"first", "second", "third"}
		for i, name := range names {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		executionOrder := make([]string, 0)

		p := New()
		p.AddStep(&mockStep{
			name: "step-1",
			doFunc: func(_ context.Context, _ *model.HarvestReport) error {
				executionOrder = append(executionOrder, "step-1")
				return nil
			},
		})
		p.AddStep(&mockStep{
			name: "step-2",
			doFunc: func(_ context.Context, _ *model.HarvestReport) error {
				executionOrder = append(executionOrder, "step-2")
				return nil
			},
		})

		report := model.NewHarvestReport("chan", 10)
		err := p.Execute(context.Background(), report)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(executionOrder) != 2 {
			t.Fatalf("expected 2 executions, got %d", len(executionOrder))
		}
		if executionOrder[0] != "step-1" || executionOrder[1] != "step-2" {
			t.Errorf("wrong execution order: %v", executionOrder)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		step2Called := false

		p := New()
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *model.HarvestReport) error {
				return expectedErr
			},
		})
		p.AddStep(&mockStep{
			name: "should-not-run",
			doFunc: func(_ context.Context, _ *model.HarvestReport) error {
				step2Called = true
				return nil
			},
		})

		report := model.NewHarvestReport("chan", 10)
		err := p.Execute(context.Background(), report)

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if step2Called {
			t.Error("second step should not have been called")
		}
	})

	t.Run("failure names the step and skips the rest", func(t *testing.T) {
		t.Parallel()

		fatal := errors.New("no valid links")
		var ran []string

		p := New()
		p.AddSteps(
			&mockStep{name: "extract", doFunc: func(_ context.Context, _ *model.HarvestReport) error {
				ran = append(ran, "extract")
				return fatal
			}},
			&mockStep{name: "build", doFunc: func(_ context.Context, _ *model.HarvestReport) error {
				ran = append(ran, "build")
				return nil
			}},
		)

		report := model.NewHarvestReport("chan", 10)
		err := p.Execute(context.Background(), report)

		if !errors.Is(err, fatal) || err.Error() != "extract: no valid links" {
			t.Errorf("unexpected error %v", err)
		}
		if len(ran) != 1 || len(report.PerformedSteps) != 0 {
			t.Errorf("later steps ran: ran=%v performed=%v", ran, report.PerformedSteps)
		}
		if report.TimedOut {
			t.Error("a step failure is not a timeout")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		stepCalled := false
		p := New()
		p.AddStep(&mockStep{
			name: "should-not-run",
			doFunc: func(_ context.Context, _ *model.HarvestReport) error {
				stepCalled = true
				return nil
			},
		})

		report := model.NewHarvestReport("chan", 10)
		err := p.Execute(ctx, report)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if stepCalled {
			t.Error("step should not have been called")
		}
		if !report.TimedOut {
			t.Error("report.TimedOut should be true")
		}
	})

	t.Run("records performed steps", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "step-1"})
		p.AddStep(&mockStep{name: "step-2"})

		report := model.NewHarvestReport("chan", 10)
		err := p.Execute(context.Background(), report)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.PerformedSteps) != 2 {
			t.Errorf("expected 2 performed steps, got %d", len(report.PerformedSteps))
		}
	})

	t.Run("records error in report", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("test error")

		p := New()
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *model.HarvestReport) error {
				return expectedErr
			},
		})

		report := model.NewHarvestReport("chan", 10)
		_ = p.Execute(context.Background(), report) //nolint:errcheck // We check error via report.Error

		if report.Error == nil {
			t.Error("expected error to be recorded in report")
		}
		if !errors.Is(report.Error, expectedErr) {
			t.Errorf("expected %v in report, got %v", expectedErr, report.Error)
		}
		if report.ErrorMessage != "failing-step: test error" {
			t.Errorf("unexpected error message %q", report.ErrorMessage)
		}
	})
}

// TestPipelineStepNames tests the StepNames method.
func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	t.Run("returns empty slice for empty pipeline", func(t *testing.T) {
		t.Parallel()

		p := New()
		names := p.StepNames()

		if len(names) != 0 {
			t.Errorf("expected empty slice, got %v", names)
		}
	})

	t.Run("returns names in order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(
			&mockStep{name: "alpha"},
			&mockStep{name: "beta"},
			&mockStep{name: "gamma"},
		)

		names := p.StepNames()

		if len(names) != 3 {
			t.Fatalf("expected 3 names, got %d", len(names))
		}
		if names[0] != "alpha" || names[1] != "beta" || names[2] != "gamma" {
			t.Errorf("unexpected names: %v", names)
		}
	})
}

// TestPipelineWithLogger tests the WithLogger option.
func TestPipelineWithLogger(t *testing.T) {
	t.Parallel()

	t.Run("sets custom logger", func(t *testing.T) {
		t.Parallel()

		p := New(WithLogger(nil))
		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
	})

	t.Run("pipeline works with custom logger", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "test"})

		report := model.NewHarvestReport("chan", 10)
		err := p.Execute(context.Background(), report)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestPipelineRecordsElapsed tests that the run duration is recorded.
func TestPipelineRecordsElapsed(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{
		name: "slow",
		doFunc: func(_ context.Context, _ *model.HarvestReport) error {
			time.Sleep(5 * time.Millisecond)
			return nil
		},
	})

	report := model.NewHarvestReport("chan", 10)
	if err := p.Execute(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Elapsed < 5*time.Millisecond {
		t.Errorf("expected elapsed >= 5ms, got %s", report.Elapsed)
	}
}

// TestPipelineCancelledDuringStep tests that a step failing because of
// cancellation marks the report as timed out.
func TestPipelineCancelledDuringStep(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	p := New()
	p.AddStep(&mockStep{
		name: "cancels",
		doFunc: func(ctx context.Context, _ *model.HarvestReport) error {
			cancel()
			return ctx.Err()
		},
	})

	report := model.NewHarvestReport("chan", 10)
	if err := p.Execute(ctx, report); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if !report.TimedOut {
		t.Error("report.TimedOut should be true")
	}
}

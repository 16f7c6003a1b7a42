package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

// Operations that replace stored state run as five ordered steps:
//
//	validate -> perform -> verify -> archive -> respond
//
// Nothing is persisted before verify succeeds, and the in-memory state is only
// swapped in by archive, so a failure at any earlier step leaves the store as it was.

// ExecutionStep names a step of a transactional operation.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError records the operation and step an error occurred in.
type ExecutionError struct {
	Operation string
	Step      ExecutionStep
	Cause     error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Operation, e.Step, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Executor runs Operations with step-level logging.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor. A nil logger selects slog.Default.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Operation holds the step functions. Any step may be nil and is then skipped,
// passing the zero value forward.
type Operation[I, P, V, O any] struct {
	// Name identifies the operation in logs and errors.
	Name string

	// Validate rejects bad input before anything else runs.
	Validate func(ctx context.Context, input I) error

	// Perform computes the candidate result without touching stored state.
	Perform func(ctx context.Context, input I) (P, error)

	// Verify checks the candidate independently of Perform.
	Verify func(ctx context.Context, input I, performed P) (V, error)

	// Archive persists the verified result. It is the only step allowed to change state.
	Archive func(ctx context.Context, input I, verified V) error

	// Respond shapes the verified result for the caller.
	Respond func(ctx context.Context, input I, verified V) (O, error)
}

// Execute runs op against input. Failures are wrapped in *ExecutionError.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], input I) (O, error) {
	var (
		zero      O
		performed P
		verified  V
		result    O
	)

	logger := logging.FromContextOr(ctx, exec.logger).With(slog.String("operation", op.Name))
	start := time.Now()

	steps := []struct {
		step ExecutionStep
		run  func() error
	}{
		{StepValidate, func() error {
			if op.Validate == nil {
				return nil
			}
			return op.Validate(ctx, input)
		}},
		{StepPerform, func() (err error) {
			if op.Perform == nil {
				return nil
			}
			performed, err = op.Perform(ctx, input)
			return err
		}},
		{StepVerify, func() (err error) {
			if op.Verify == nil {
				return nil
			}
			verified, err = op.Verify(ctx, input, performed)
			return err
		}},
		{StepArchive, func() error {
			if op.Archive == nil {
				return nil
			}
			return op.Archive(ctx, input, verified)
		}},
		{StepRespond, func() (err error) {
			if op.Respond == nil {
				return nil
			}
			result, err = op.Respond(ctx, input, verified)
			return err
		}},
	}

	for _, s := range steps {
		if err := s.run(); err != nil {
			level := slog.LevelError
			if s.step == StepValidate {
				level = slog.LevelWarn
			}

			logger.Log(ctx, level, "operation step failed", slog.String("step", string(s.step)), slog.Any("error", err))

			return zero, &ExecutionError{Operation: op.Name, Step: s.step, Cause: err}
		}

		logger.Log(ctx, logging.LevelTrace, "operation step done", slog.String("step", string(s.step)))
	}

	logger.DebugContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}

// GetExecutionStep extracts the failing step from an execution error.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}

package app

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parseOp = Operation[string, int, int, string]

func TestExecute_RunsStepsInOrder(t *testing.T) {
	var steps []ExecutionStep

	op := parseOp{
		Name: "parse",
		Validate: func(_ context.Context, in string) error {
			steps = append(steps, StepValidate)
			return nil
		},
		Perform: func(_ context.Context, in string) (int, error) {
			steps = append(steps, StepPerform)
			return strconv.Atoi(in)
		},
		Verify: func(_ context.Context, _ string, n int) (int, error) {
			steps = append(steps, StepVerify)
			return n * 2, nil
		},
		Archive: func(_ context.Context, _ string, n int) error {
			steps = append(steps, StepArchive)
			return nil
		},
		Respond: func(_ context.Context, _ string, n int) (string, error) {
			steps = append(steps, StepRespond)
			return "got " + strconv.Itoa(n), nil
		},
	}

	out, err := Execute(context.Background(), NewExecutor(discardLogger()), op, "21")

	require.NoError(t, err)
	assert.Equal(t, "got 42", out)
	assert.Equal(t, []ExecutionStep{StepValidate, StepPerform, StepVerify, StepArchive, StepRespond}, steps)
}

func TestExecute_StopsAtFailingStep(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		op       parseOp
		wantStep ExecutionStep
	}{
		{
			name:     "validate",
			op:       parseOp{Validate: func(context.Context, string) error { return cause }},
			wantStep: StepValidate,
		},
		{
			name:     "perform",
			op:       parseOp{Perform: func(context.Context, string) (int, error) { return 0, cause }},
			wantStep: StepPerform,
		},
		{
			name:     "verify",
			op:       parseOp{Verify: func(context.Context, string, int) (int, error) { return 0, cause }},
			wantStep: StepVerify,
		},
		{
			name:     "archive",
			op:       parseOp{Archive: func(context.Context, string, int) error { return cause }},
			wantStep: StepArchive,
		},
		{
			name:     "respond",
			op:       parseOp{Respond: func(context.Context, string, int) (string, error) { return "", cause }},
			wantStep: StepRespond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archived := false
			if tt.op.Archive == nil {
				tt.op.Archive = func(context.Context, string, int) error {
					archived = true
					return nil
				}
			}

			tt.op.Name = "op-" + tt.name

			out, err := Execute(context.Background(), NewExecutor(nil), tt.op, "1")

			require.Error(t, err)
			assert.Empty(t, out)
			require.ErrorIs(t, err, cause)

			step, ok := GetExecutionStep(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantStep, step)
			assert.Contains(t, err.Error(), "op-"+tt.name)

			afterArchive := tt.wantStep == StepRespond
			if tt.wantStep != StepArchive {
				assert.Equal(t, afterArchive, archived)
			}
		})
	}
}

func TestExecute_NilStepsPassZeroValues(t *testing.T) {
	out, err := Execute(context.Background(), NewExecutor(nil), parseOp{Name: "empty"}, "x")

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGetExecutionStep_NotExecutionError(t *testing.T) {
	_, ok := GetExecutionStep(errors.New("plain"))
	assert.False(t, ok)
}

// Package step runs one prompt through a provider, streaming the answer to
// an output sink and grading it with an optional pass expression.
package step

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"pipellm/internal/core"
	"pipellm/internal/evaluator"
)

// Invocation outcomes reported to a Recorder.
const (
	OutcomePass  = "pass"
	OutcomeFail  = "fail"
	OutcomeError = "error"
)

// Recorder receives per-invocation measurements.
type Recorder interface {
	RecordFragment(provider string, size int)
	RecordInvocation(provider, outcome string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordFragment(string, int) {}
func (nopRecorder) RecordInvocation(string, string, time.Duration) {}

// Step is a configured pipeline stage. It is safe to Exec repeatedly.
type Step struct {
	model     string
	system    []string
	invoker   core.Invoker
	predicate *evaluator.Predicate
	out       io.Writer
	logger    *slog.Logger
	recorder  Recorder
}

// Provider returns the name of the invoker serving this step.
func (s *Step) Provider() string {
	return s.invoker.Name()
}

// Model returns the model id sent to the provider.
func (s *Step) Model() string {
	return s.model
}

// Exec sends text to the provider. Each fragment is written to the output
// sink before the next one is requested. Errors from the provider, the sink
// and the evaluator are returned unchanged.
func (s *Step) Exec(ctx context.Context, text string) (*core.Output, error) {
	requestID := uuid.NewString()
	ctx = core.WithRequestID(ctx, requestID)
	provider := s.invoker.Name()
	logger := s.logger.With("request_id", requestID, "provider", provider, "model", s.model)

	start := time.Now()
	logger.Debug("invocation started", "system_prompts", len(s.system), "input_bytes", len(text))

	res, fragments, err := s.invoke(ctx, provider, text)
	if err != nil {
		s.recorder.RecordInvocation(provider, OutcomeError, time.Since(start))
		logger.Debug("invocation failed", "error", err, "fragments", fragments)
		return nil, err
	}

	out := &core.Output{Content: res.Content, Pass: true}
	if s.predicate != nil {
		pass, err := s.predicate.Evaluate(out.Content)
		if err != nil {
			s.recorder.RecordInvocation(provider, OutcomeError, time.Since(start))
			return nil, err
		}
		out.Pass = pass
	}

	outcome := OutcomePass
	if !out.Pass {
		outcome = OutcomeFail
	}
	s.recorder.RecordInvocation(provider, outcome, time.Since(start))
	logger.Debug("invocation finished",
		"fragments", fragments,
		"output_bytes", len(out.Content),
		"pass", out.Pass,
		"duration", time.Since(start),
	)
	return out, nil
}

// invoke drives the invoker to the end of the turn, writing every fragment
// to the sink as it arrives.
func (s *Step) invoke(ctx context.Context, provider, text string) (core.InvocationResult, int, error) {
	var content strings.Builder
	fragments := 0
	err := s.invoker.Invoke(ctx, core.NewInvocationRequest(s.model, s.system, text), func(fragment string) error {
		fragments++
		content.WriteString(fragment)
		s.recorder.RecordFragment(provider, len(fragment))
		_, werr := io.WriteString(s.out, fragment)
		return werr
	})
	if err != nil {
		return core.InvocationResult{}, fragments, err
	}
	return core.InvocationResult{Content: content.String()}, fragments, nil
}

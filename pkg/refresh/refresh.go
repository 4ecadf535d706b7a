// Package refresh orchestrates the rebuild of derived reporting collections
// after an import batch. A pipeline is an ordered list of named, idempotent
// rebuild steps; steps run strictly in declared order and a failed step does
// not stop later independent steps.
package refresh

import (
	"context"
	"log/slog"
	"time"
)

// Step is one named rebuild operation. If Critical is set, a failure of this
// step skips all remaining steps (they depend on its output); otherwise the
// pipeline continues, since every step is idempotent and safe to retry on
// the next cycle.
type Step struct {
	Name     string
	Critical bool
	Run      func(ctx context.Context) error
}

type Pipeline struct {
	Name  string
	Steps []Step
}

// StepResult reports the outcome of one step for operator visibility.
type StepResult struct {
	Name     string        `json:"name"`
	Ok       bool          `json:"ok"`
	Skipped  bool          `json:"skipped,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Execute runs the pipeline steps in order and returns one result per step.
// progressCallback, if set, is called after each step for liveness signaling
// on long refreshes. Execute never mutates raw imported data; steps are
// strictly derived/read-model rebuilds.
func (p Pipeline) Execute(ctx context.Context, progressCallback func()) []StepResult {
	results := make([]StepResult, 0, len(p.Steps))

	slog.Info("Starting refresh pipeline", slog.String("pipeline", p.Name), slog.Int("steps", len(p.Steps)))
	start := time.Now()

	skipRemaining := false
	for _, step := range p.Steps {
		if skipRemaining {
			results = append(results, StepResult{
				Name:    step.Name,
				Skipped: true,
				Error:   "skipped: a required earlier step failed",
			})
			continue
		}

		stepStart := time.Now()
		err := step.Run(ctx)
		result := StepResult{
			Name:     step.Name,
			Ok:       err == nil,
			Duration: time.Since(stepStart),
		}
		if err != nil {
			result.Error = err.Error()
			slog.Error("Refresh step failed", slog.String("pipeline", p.Name), slog.String("step", step.Name), slog.String("error", err.Error()))
			if step.Critical {
				skipRemaining = true
			}
		} else {
			slog.Debug("Refresh step completed", slog.String("pipeline", p.Name), slog.String("step", step.Name), slog.String("duration", result.Duration.String()))
		}
		results = append(results, result)

		if progressCallback != nil {
			progressCallback()
		}
	}

	slog.Info("Refresh pipeline completed", slog.String("pipeline", p.Name), slog.String("duration", time.Since(start).String()))
	return results
}

package refresh

import (
	"context"
	"errors"
	"testing"
)

func TestExecuteRunsStepsInOrder(t *testing.T) {
	var order []string
	p := Pipeline{
		Name: "test",
		Steps: []Step{
			{Name: "one", Run: func(ctx context.Context) error { order = append(order, "one"); return nil }},
			{Name: "two", Run: func(ctx context.Context) error { order = append(order, "two"); return nil }},
			{Name: "three", Run: func(ctx context.Context) error { order = append(order, "three"); return nil }},
		},
	}

	progressCalls := 0
	results := p.Execute(context.Background(), func() { progressCalls++ })

	if len(order) != 3 || order[0] != "one" || order[1] != "two" || order[2] != "three" {
		t.Errorf("steps ran out of order: %v", order)
	}
	for _, r := range results {
		if !r.Ok {
			t.Errorf("step %s should have succeeded: %+v", r.Name, r)
		}
	}
	if progressCalls != 3 {
		t.Errorf("expected 3 progress calls, got %d", progressCalls)
	}
}

func TestExecuteContinuesOnError(t *testing.T) {
	var order []string
	p := Pipeline{
		Name: "test",
		Steps: []Step{
			{Name: "one", Run: func(ctx context.Context) error { order = append(order, "one"); return nil }},
			{Name: "two", Run: func(ctx context.Context) error { order = append(order, "two"); return errors.New("boom") }},
			{Name: "three", Run: func(ctx context.Context) error { order = append(order, "three"); return nil }},
		},
	}

	results := p.Execute(context.Background(), nil)

	if len(order) != 3 {
		t.Fatalf("step three should still run after step two fails: %v", order)
	}
	if !results[0].Ok || results[1].Ok || !results[2].Ok {
		t.Errorf("unexpected results: %+v", results)
	}
	if results[1].Error != "boom" {
		t.Errorf("failed step should carry its error, got %+v", results[1])
	}
}

func TestExecuteSkipsAfterCriticalFailure(t *testing.T) {
	var order []string
	p := Pipeline{
		Name: "test",
		Steps: []Step{
			{Name: "base", Critical: true, Run: func(ctx context.Context) error { order = append(order, "base"); return errors.New("boom") }},
			{Name: "dependent", Run: func(ctx context.Context) error { order = append(order, "dependent"); return nil }},
		},
	}

	results := p.Execute(context.Background(), nil)

	if len(order) != 1 {
		t.Errorf("dependent step must not run after a critical failure: %v", order)
	}
	if !results[1].Skipped {
		t.Errorf("dependent step should be reported as skipped: %+v", results[1])
	}
}

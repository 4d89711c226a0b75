package model

import "testing"

func TestRunStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{RunStatusPending, RunStatusRunning, true},
		{RunStatusPending, RunStatusCompleted, true},
		{RunStatusPending, RunStatusAborted, false},
		{RunStatusRunning, RunStatusCompleted, true},
		{RunStatusRunning, RunStatusAborted, true},
		{RunStatusCompleted, RunStatusRunning, false},
		{RunStatusAborted, RunStatusRunning, false},
		{"bogus", RunStatusRunning, false},
	}
	for _, c := range cases {
		if got := CanTransitionRun(c.from, c.to); got != c.ok {
			t.Errorf("CanTransitionRun(%q, %q) = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestTransitionRunStatus(t *testing.T) {
	status := RunStatusPending
	if err := TransitionRunStatus(&status, RunStatusRunning); err != nil {
		t.Fatalf("pending -> running: %v", err)
	}
	if err := TransitionRunStatus(&status, RunStatusAborted); err != nil {
		t.Fatalf("running -> aborted: %v", err)
	}
	if err := TransitionRunStatus(&status, RunStatusCompleted); err == nil {
		t.Fatal("expected error for aborted -> completed")
	}
	if status != RunStatusAborted {
		t.Fatalf("status mutated on rejected transition: %q", status)
	}
}

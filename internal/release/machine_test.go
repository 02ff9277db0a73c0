package release

import (
	"testing"

	"github.com/felixgeelhaar/statekit"
)

func TestPhaseMachineHappyPath(t *testing.T) {
	m, err := newPhaseMachine()
	if err != nil {
		t.Fatalf("newPhaseMachine() error = %v", err)
	}
	if m.phase() != PhaseValidating {
		t.Fatalf("initial phase = %s, want %s", m.phase(), PhaseValidating)
	}

	steps := []struct {
		event statekit.EventType
		want  Phase
	}{
		{eventChangelogComputed, PhaseChangelogComputed},
		{eventVersionBumped, PhaseVersionBumped},
		{eventReleased, PhaseReleased},
		{eventIssuesClosed, PhaseIssuesClosed},
		{eventBranchesUpdated, PhaseBranchesUpdated},
		{eventPRCleanedUp, PhasePRCleanedUp},
		{eventComplete, PhaseDone},
	}
	for _, s := range steps {
		m.advance(s.event)
		if m.phase() != s.want {
			t.Fatalf("after %s: phase = %s, want %s", s.event, m.phase(), s.want)
		}
	}
	if !m.done() {
		t.Error("done() = false in terminal phase")
	}
}

func TestPhaseMachineSkip(t *testing.T) {
	m, err := newPhaseMachine()
	if err != nil {
		t.Fatalf("newPhaseMachine() error = %v", err)
	}
	m.advance(eventChangelogComputed)
	m.advance(eventSkip)
	if m.phase() != PhaseSkippedNotEligible {
		t.Errorf("phase = %s, want %s", m.phase(), PhaseSkippedNotEligible)
	}
	if !m.done() {
		t.Error("done() = false after skip")
	}
}

func TestPhaseMachineFail(t *testing.T) {
	m, err := newPhaseMachine()
	if err != nil {
		t.Fatalf("newPhaseMachine() error = %v", err)
	}
	m.advance(eventChangelogComputed)
	m.advance(eventVersionBumped)
	m.advance(eventFail)
	if m.phase() != PhaseFailed {
		t.Errorf("phase = %s, want %s", m.phase(), PhaseFailed)
	}
}

func TestPhaseMachineIgnoresInvalidEvent(t *testing.T) {
	m, err := newPhaseMachine()
	if err != nil {
		t.Fatalf("newPhaseMachine() error = %v", err)
	}
	// Skip is only reachable from the validation-side phases.
	m.advance(eventChangelogComputed)
	m.advance(eventVersionBumped)
	m.advance(eventSkip)
	if m.phase() != PhaseVersionBumped {
		t.Errorf("phase = %s, want unchanged %s", m.phase(), PhaseVersionBumped)
	}
}

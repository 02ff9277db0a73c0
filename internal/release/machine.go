package release

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Phase is a stage of a release run.
type Phase string

// Release run phases, in execution order, plus the terminal exits.
const (
	PhaseValidating         Phase = "validating"
	PhaseChangelogComputed  Phase = "changelog_computed"
	PhaseVersionBumped      Phase = "version_bumped"
	PhaseReleased           Phase = "released"
	PhaseIssuesClosed       Phase = "issues_closed"
	PhaseBranchesUpdated    Phase = "branches_updated"
	PhasePRCleanedUp        Phase = "pr_cleaned_up"
	PhaseDone               Phase = "done"
	PhaseSkippedNotEligible Phase = "skipped_not_eligible"
	PhaseFailed             Phase = "failed"
)

// Events driving the release run machine.
const (
	eventChangelogComputed statekit.EventType = "CHANGELOG_COMPUTED"
	eventVersionBumped     statekit.EventType = "VERSION_BUMPED"
	eventReleased          statekit.EventType = "RELEASED"
	eventIssuesClosed      statekit.EventType = "ISSUES_CLOSED"
	eventBranchesUpdated   statekit.EventType = "BRANCHES_UPDATED"
	eventPRCleanedUp       statekit.EventType = "PR_CLEANED_UP"
	eventComplete          statekit.EventType = "COMPLETE"
	eventSkip              statekit.EventType = "SKIP"
	eventFail              statekit.EventType = "FAIL"
)

func phaseID(p Phase) statekit.StateID { return statekit.StateID(p) }

type runContext struct{}

// phaseMachine tracks a single release run through its phases. Skips
// are only reachable from the two validation-side phases; every
// non-terminal phase can fail.
type phaseMachine struct {
	interp *statekit.Interpreter[runContext]
}

func newPhaseMachine() (*phaseMachine, error) {
	machine, err := statekit.NewMachine[runContext]("release-run").
		WithInitial(phaseID(PhaseValidating)).
		State(phaseID(PhaseValidating)).
		On(eventChangelogComputed).Target(phaseID(PhaseChangelogComputed)).
		On(eventSkip).Target(phaseID(PhaseSkippedNotEligible)).
		On(eventFail).Target(phaseID(PhaseFailed)).
		Done().
		State(phaseID(PhaseChangelogComputed)).
		On(eventVersionBumped).Target(phaseID(PhaseVersionBumped)).
		On(eventSkip).Target(phaseID(PhaseSkippedNotEligible)).
		On(eventFail).Target(phaseID(PhaseFailed)).
		Done().
		State(phaseID(PhaseVersionBumped)).
		On(eventReleased).Target(phaseID(PhaseReleased)).
		On(eventFail).Target(phaseID(PhaseFailed)).
		Done().
		State(phaseID(PhaseReleased)).
		On(eventIssuesClosed).Target(phaseID(PhaseIssuesClosed)).
		On(eventFail).Target(phaseID(PhaseFailed)).
		Done().
		State(phaseID(PhaseIssuesClosed)).
		On(eventBranchesUpdated).Target(phaseID(PhaseBranchesUpdated)).
		On(eventFail).Target(phaseID(PhaseFailed)).
		Done().
		State(phaseID(PhaseBranchesUpdated)).
		On(eventPRCleanedUp).Target(phaseID(PhasePRCleanedUp)).
		On(eventFail).Target(phaseID(PhaseFailed)).
		Done().
		State(phaseID(PhasePRCleanedUp)).
		On(eventComplete).Target(phaseID(PhaseDone)).
		On(eventFail).Target(phaseID(PhaseFailed)).
		Done().
		State(phaseID(PhaseDone)).
		Final().
		Done().
		State(phaseID(PhaseSkippedNotEligible)).
		Final().
		Done().
		State(phaseID(PhaseFailed)).
		Final().
		Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build release machine: %w", err)
	}

	interp := statekit.NewInterpreter(machine)
	interp.Start()
	return &phaseMachine{interp: interp}, nil
}

func (m *phaseMachine) advance(evt statekit.EventType) {
	m.interp.Send(statekit.Event{Type: evt})
}

func (m *phaseMachine) phase() Phase {
	return Phase(m.interp.State().Value)
}

func (m *phaseMachine) done() bool {
	return m.interp.Done()
}

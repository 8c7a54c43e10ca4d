package orchestrator

// State is a stage of the run state machine.
type State string

const (
	StateInit             State = "init"
	StateDiscover         State = "discover"
	StateSchedule         State = "schedule"
	StateExecute          State = "execute"
	StateValidateCritical State = "validate-critical"
	StateReport           State = "report"
	StateSuccess          State = "success"
	StateFailure          State = "failure"
	StateFatalAbort       State = "fatal-abort"
)

// IsTerminal reports whether the state ends a run. fatal-abort is not
// terminal: it is always followed by report and failure.
func (s State) IsTerminal() bool {
	return s == StateSuccess || s == StateFailure
}

package bootstrap

import (
	"stagehand/internal/config"
	"stagehand/internal/devnode"
	"stagehand/internal/launcher"
)

// State names one position in the bootstrap sequence.
type State string

const (
	StateInit                   State = "Init"
	StateNodesProvisioned       State = "NodesProvisioned"
	StateRuntimeDirSelected     State = "RuntimeDirSelected"
	StateCoreDaemonsLaunched    State = "CoreDaemonsLaunched"
	StateDisplayServerLaunched  State = "DisplayServerLaunched"
	StateSessionDaemonsLaunched State = "SessionDaemonsLaunched"
	StateReadinessAwaited       State = "ReadinessAwaited"
	StateWindowManagerLaunched  State = "WindowManagerLaunched"
	StateDesktopShellLaunched   State = "DesktopShellLaunched"
	StatePanelLaunched          State = "PanelLaunched"
	StateRunning                State = "Running"
)

// stateForStage maps launch table stages onto the sequence states they
// complete.
var stateForStage = map[string]State{
	config.StageCore:          StateCoreDaemonsLaunched,
	config.StageDisplay:       StateDisplayServerLaunched,
	config.StageSession:       StateSessionDaemonsLaunched,
	config.StageWindowManager: StateWindowManagerLaunched,
	config.StageShell:         StateDesktopShellLaunched,
	config.StagePanel:         StatePanelLaunched,
}

// StepResult records the outcome of one sequence step.
type StepResult struct {
	State  State
	OK     bool
	Detail string
}

// Report summarizes one bootstrap run.
type Report struct {
	SessionID  string
	RuntimeDir string
	FinalState State
	Steps      []StepResult
	Nodes      []devnode.Result
	Handles    []*launcher.Handle
	// ReadinessOK is true when the gate was satisfied or skipped; a timed
	// out gate leaves it false while the sequence continues anyway.
	ReadinessOK bool

	FailedState State
	Err         error
}

// Failed reports whether the bootstrap aborted before reaching Running.
func (r *Report) Failed() bool {
	return r.Err != nil
}

// Handle returns the launch handle for a daemon name, or nil when the
// daemon was not launched.
func (r *Report) Handle(name string) *launcher.Handle {
	for _, h := range r.Handles {
		if h != nil && h.Name == name {
			return h
		}
	}
	return nil
}

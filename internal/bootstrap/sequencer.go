package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stagehand/internal/config"
	"stagehand/internal/devnode"
	"stagehand/internal/journal"
	"stagehand/internal/launcher"
	"stagehand/internal/logging"
	"stagehand/internal/readiness"
	"stagehand/internal/runtimedir"
)

// Sequencer drives one bootstrap run. The function fields are seams for
// tests; New wires the real implementations.
type Sequencer struct {
	cfg     *config.Config
	logger  *slog.Logger
	journal *journal.Store // nil disables journaling

	provision func([]config.DeviceNode) []devnode.Result
	selectDir func(primary, fallback string, logger *slog.Logger) (string, error)
	claim     func(dir string) (*runtimedir.Claim, error)
	launch    func(launcher.DaemonSpec) (*launcher.Handle, error)
	buildEnv  func(session config.Session, runtimeDir string) ([]string, error)
	probe     readiness.Check // nil derives the probe from config
}

// New constructs a sequencer with real collaborators. The journal store may
// be nil; journaling is diagnostic and never blocks the bootstrap.
func New(cfg *config.Config, logger *slog.Logger, store *journal.Store) *Sequencer {
	l := launcher.New(logger)
	return &Sequencer{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "bootstrap"),
		journal:   store,
		provision: devnode.New(logger).Provision,
		selectDir: runtimedir.Select,
		claim:     runtimedir.Acquire,
		launch:    l.Launch,
		buildEnv:  launcher.BuildEnvironment,
	}
}

// Run executes the bootstrap sequence. A non-nil error means a hard
// dependency failed; the report names the failing state and the steps that
// completed. The sequencer hands off control once the last daemon is
// launched: it does not wait for the session to end.
func (s *Sequencer) Run(ctx context.Context) (*Report, error) {
	report := &Report{FinalState: StateInit}
	s.step(ctx, report, StateInit, true, "")

	// Device nodes: idempotent and best-effort. A missing optional input
	// device must not block the session.
	report.Nodes = s.provision(s.cfg.DeviceNodes)
	failedNodes := devnode.Failed(report.Nodes)
	s.step(ctx, report, StateNodesProvisioned, true, nodeDetail(len(report.Nodes), len(failedNodes)))

	dir, err := s.selectDir(s.cfg.Paths.RuntimeDir, s.cfg.Paths.RuntimeFallbackDir, s.logger)
	if err != nil {
		return s.abort(ctx, report, StateRuntimeDirSelected, fmt.Errorf("select runtime directory: %w", err))
	}
	claim, err := s.claim(dir)
	if err != nil {
		return s.abort(ctx, report, StateRuntimeDirSelected, fmt.Errorf("claim runtime directory: %w", err))
	}
	report.RuntimeDir = dir
	report.SessionID = claim.SessionID
	s.beginJournal(ctx, report)
	s.step(ctx, report, StateRuntimeDirSelected, true, dir)

	env, err := s.buildEnv(s.cfg.Session, dir)
	if err != nil {
		// Degraded but viable: launch with the session settings alone.
		s.logger.Warn("session environment incomplete", logging.Error(err))
		session := s.cfg.Session
		session.EnvFile = ""
		env, _ = s.buildEnv(session, dir)
	}

	for _, stage := range []string{config.StageCore, config.StageDisplay, config.StageSession} {
		if err := s.launchStage(ctx, report, stage, env); err != nil {
			_ = claim.Release()
			return report, err
		}
	}

	s.awaitReadiness(ctx, report)

	for _, stage := range []string{config.StageWindowManager, config.StageShell, config.StagePanel} {
		if err := s.launchStage(ctx, report, stage, env); err != nil {
			_ = claim.Release()
			return report, err
		}
	}

	report.FinalState = StateRunning
	s.step(ctx, report, StateRunning, true, "")
	s.finishJournal(ctx, report, "completed")
	s.logger.Info("session bootstrap complete",
		logging.String("session_id", report.SessionID),
		logging.Int("daemons", len(report.Handles)),
	)
	return report, nil
}

// launchStage starts every launch table entry for one stage. A required
// daemon that fails to spawn aborts the sequence at the stage's state; an
// optional one is logged and skipped.
func (s *Sequencer) launchStage(ctx context.Context, report *Report, stage string, env []string) error {
	state := stateForStage[stage]
	for _, d := range s.cfg.DaemonsForStage(stage) {
		spec := launcher.DaemonSpec{
			Name:    d.Name,
			Command: d.Command,
			Args:    d.Args,
			LogPath: s.cfg.LogPathFor(d),
			PIDPath: s.cfg.PIDPathFor(report.RuntimeDir, d),
			Env:     env,
		}
		handle, err := s.launch(spec)
		if err != nil {
			s.recordLaunch(ctx, report, d, 0, "failed", err.Error())
			if d.Required {
				_, abortErr := s.abort(ctx, report, state, fmt.Errorf("required daemon %s: %w", d.Name, err))
				return abortErr
			}
			s.logger.Warn("optional daemon not started",
				logging.String(logging.FieldDaemon, d.Name),
				logging.String(logging.FieldStep, string(state)),
				logging.Error(err),
			)
			continue
		}
		report.Handles = append(report.Handles, handle)
		s.recordLaunch(ctx, report, d, handle.PID, "launched", "")
	}
	s.step(ctx, report, state, true, "")
	return nil
}

// awaitReadiness blocks until the display probe succeeds or the attempt
// budget is spent. Timing out is non-fatal: the dependent daemons launch
// anyway, trading a possible cosmetic race for a session that always starts.
func (s *Sequencer) awaitReadiness(ctx context.Context, report *Report) {
	check := s.probe
	if check == nil {
		check = readiness.FromConfig(ctx, s.cfg.Readiness)
	}
	if check == nil {
		report.ReadinessOK = true
		s.step(ctx, report, StateReadinessAwaited, true, "probe disabled")
		return
	}

	interval := time.Duration(s.cfg.Readiness.IntervalMS) * time.Millisecond
	ok := readiness.Await(ctx, check, interval, s.cfg.Readiness.MaxAttempts)
	report.ReadinessOK = ok
	if ok {
		s.step(ctx, report, StateReadinessAwaited, true, "")
		return
	}
	s.logger.Warn("display readiness not confirmed, continuing anyway",
		logging.Int("max_attempts", s.cfg.Readiness.MaxAttempts),
		logging.Duration("interval", interval),
	)
	s.step(ctx, report, StateReadinessAwaited, false, "attempt budget exhausted")
}

func (s *Sequencer) step(ctx context.Context, report *Report, state State, ok bool, detail string) {
	report.FinalState = state
	report.Steps = append(report.Steps, StepResult{State: state, OK: ok, Detail: detail})
	s.logger.Debug("state reached",
		logging.String(logging.FieldStep, string(state)),
		logging.Bool("ok", ok),
	)
	if s.journal != nil && report.SessionID != "" {
		if err := s.journal.RecordTransition(ctx, report.SessionID, string(state)); err != nil {
			s.logger.Warn("journal transition not recorded", logging.Error(err))
		}
	}
}

func (s *Sequencer) abort(ctx context.Context, report *Report, state State, err error) (*Report, error) {
	report.FailedState = state
	report.Err = err
	report.Steps = append(report.Steps, StepResult{State: state, OK: false, Detail: err.Error()})
	s.finishJournal(ctx, report, "failed:"+string(state))
	s.logger.Error("session bootstrap aborted",
		logging.String(logging.FieldStep, string(state)),
		logging.Error(err),
	)
	return report, fmt.Errorf("bootstrap failed at %s: %w", state, err)
}

func (s *Sequencer) beginJournal(ctx context.Context, report *Report) {
	if s.journal == nil || report.SessionID == "" {
		return
	}
	if err := s.journal.BeginSession(ctx, report.SessionID, report.RuntimeDir); err != nil {
		s.logger.Warn("journal session not recorded", logging.Error(err))
		return
	}
	// Backfill the states reached before the runtime directory existed.
	for _, step := range report.Steps {
		if err := s.journal.RecordTransition(ctx, report.SessionID, string(step.State)); err != nil {
			s.logger.Warn("journal transition not recorded", logging.Error(err))
		}
	}
}

func (s *Sequencer) finishJournal(ctx context.Context, report *Report, status string) {
	if s.journal == nil || report.SessionID == "" {
		return
	}
	if err := s.journal.FinishSession(ctx, report.SessionID, status); err != nil {
		s.logger.Warn("journal session not finished", logging.Error(err))
	}
}

func (s *Sequencer) recordLaunch(ctx context.Context, report *Report, d config.Daemon, pid int, outcome, detail string) {
	if s.journal == nil || report.SessionID == "" {
		return
	}
	err := s.journal.RecordLaunch(ctx, journal.Launch{
		SessionID: report.SessionID,
		Daemon:    d.Name,
		Stage:     d.Stage,
		PID:       pid,
		Required:  d.Required,
		Outcome:   outcome,
		Detail:    detail,
	})
	if err != nil {
		s.logger.Warn("journal launch not recorded", logging.Error(err))
	}
}

func nodeDetail(total, failed int) string {
	if total == 0 {
		return "no device nodes configured"
	}
	if failed == 0 {
		return fmt.Sprintf("%d nodes", total)
	}
	return fmt.Sprintf("%d nodes, %d failed", total, failed)
}

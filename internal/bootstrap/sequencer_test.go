package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"stagehand/internal/config"
	"stagehand/internal/devnode"
	"stagehand/internal/journal"
	"stagehand/internal/launcher"
	"stagehand/internal/logging"
	"stagehand/internal/runtimedir"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.RuntimeDir = filepath.Join(dir, "run")
	cfg.Paths.RuntimeFallbackDir = filepath.Join(dir, "fallback")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Readiness.Probe = "none"
	cfg.Daemons = []config.Daemon{
		{Name: "dbus", Command: "dbus-daemon", Stage: config.StageCore},
		{Name: "xserver", Command: "Xorg", Stage: config.StageDisplay, Required: true},
		{Name: "settings", Command: "xsettingsd", Stage: config.StageSession},
		{Name: "wm", Command: "openbox", Stage: config.StageWindowManager, Required: true},
		{Name: "shell", Command: "pcmanfm", Stage: config.StageShell},
		{Name: "panel", Command: "lxpanel", Stage: config.StagePanel},
	}
	return &cfg
}

type fakeLaunches struct {
	order []string
	fail  map[string]error
}

func (f *fakeLaunches) launch(spec launcher.DaemonSpec) (*launcher.Handle, error) {
	f.order = append(f.order, spec.Name)
	if err, ok := f.fail[spec.Name]; ok {
		return nil, err
	}
	return &launcher.Handle{Name: spec.Name, PID: 1000 + len(f.order), LogPath: spec.LogPath, PIDPath: spec.PIDPath}, nil
}

func testSequencer(cfg *config.Config, store *journal.Store, fakes *fakeLaunches) *Sequencer {
	s := New(cfg, logging.NewNop(), store)
	s.launch = fakes.launch
	s.provision = func(specs []config.DeviceNode) []devnode.Result { return nil }
	return s
}

func stateOrder(report *Report) []State {
	out := make([]State, 0, len(report.Steps))
	for _, step := range report.Steps {
		out = append(out, step.State)
	}
	return out
}

func TestRunWalksStatesInOrder(t *testing.T) {
	cfg := testConfig(t)
	fakes := &fakeLaunches{}
	s := testSequencer(cfg, nil, fakes)

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.FinalState != StateRunning {
		t.Fatalf("expected Running, got %s", report.FinalState)
	}

	want := []State{
		StateInit,
		StateNodesProvisioned,
		StateRuntimeDirSelected,
		StateCoreDaemonsLaunched,
		StateDisplayServerLaunched,
		StateSessionDaemonsLaunched,
		StateReadinessAwaited,
		StateWindowManagerLaunched,
		StateDesktopShellLaunched,
		StatePanelLaunched,
		StateRunning,
	}
	got := stateOrder(report)
	if len(got) != len(want) {
		t.Fatalf("state order mismatch: got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("state %d: got %s want %s", i, got[i], want[i])
		}
	}

	wantLaunches := []string{"dbus", "xserver", "settings", "wm", "shell", "panel"}
	if len(fakes.order) != len(wantLaunches) {
		t.Fatalf("launch order mismatch: %v", fakes.order)
	}
	for i := range wantLaunches {
		if fakes.order[i] != wantLaunches[i] {
			t.Fatalf("launch %d: got %s want %s", i, fakes.order[i], wantLaunches[i])
		}
	}

	if report.Handle("wm") == nil || report.Handle("ghost") != nil {
		t.Fatal("handle lookup misbehaved")
	}
	if report.RuntimeDir != cfg.Paths.RuntimeDir {
		t.Fatalf("expected primary runtime dir, got %q", report.RuntimeDir)
	}
	if report.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if !report.ReadinessOK {
		t.Fatal("disabled probe should report readiness ok")
	}
}

func TestRunAbortsWhenRequiredDaemonFails(t *testing.T) {
	cfg := testConfig(t)
	fakes := &fakeLaunches{fail: map[string]error{"xserver": errors.New("no such file or directory")}}
	s := testSequencer(cfg, nil, fakes)

	report, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected error for failed required daemon")
	}
	if report.FailedState != StateDisplayServerLaunched {
		t.Fatalf("expected failure at DisplayServerLaunched, got %s", report.FailedState)
	}

	// No launch after the failing one.
	for _, name := range fakes.order {
		if name == "settings" || name == "wm" || name == "shell" || name == "panel" {
			t.Fatalf("daemon %s launched after fatal failure", name)
		}
	}
}

func TestRunContinuesWhenOptionalDaemonFails(t *testing.T) {
	cfg := testConfig(t)
	fakes := &fakeLaunches{fail: map[string]error{"settings": errors.New("exec format error")}}
	s := testSequencer(cfg, nil, fakes)

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("optional failure must not abort: %v", err)
	}
	if report.FinalState != StateRunning {
		t.Fatalf("expected Running, got %s", report.FinalState)
	}
	if report.Handle("settings") != nil {
		t.Fatal("failed optional daemon should have no handle")
	}
	if report.Handle("panel") == nil {
		t.Fatal("later daemons should still launch")
	}
}

func TestRunReadinessTimeoutIsNonFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Readiness.Probe = "socket"
	cfg.Readiness.SocketPath = filepath.Join(t.TempDir(), "never")
	cfg.Readiness.IntervalMS = 1
	cfg.Readiness.MaxAttempts = 3

	fakes := &fakeLaunches{}
	s := testSequencer(cfg, nil, fakes)

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("readiness timeout must not abort: %v", err)
	}
	if report.ReadinessOK {
		t.Fatal("expected readiness to time out")
	}
	if report.Handle("wm") == nil {
		t.Fatal("window manager should launch despite the timeout")
	}
}

func TestRunReadinessProbeCountsAttempts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Readiness.IntervalMS = 1
	cfg.Readiness.MaxAttempts = 10

	fakes := &fakeLaunches{}
	s := testSequencer(cfg, nil, fakes)
	invocations := 0
	s.probe = func() bool {
		invocations++
		return invocations == 5
	}

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !report.ReadinessOK {
		t.Fatal("expected readiness success")
	}
	if invocations != 5 {
		t.Fatalf("expected 5 probe invocations, got %d", invocations)
	}
}

func TestRunAbortsWhenNoRuntimeDirObtainable(t *testing.T) {
	cfg := testConfig(t)
	fakes := &fakeLaunches{}
	s := testSequencer(cfg, nil, fakes)
	s.selectDir = func(string, string, *slog.Logger) (string, error) {
		return "", errors.New("read-only filesystem")
	}

	report, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected error when runtime directory selection fails")
	}
	if report.FailedState != StateRuntimeDirSelected {
		t.Fatalf("expected failure at RuntimeDirSelected, got %s", report.FailedState)
	}
	if len(fakes.order) != 0 {
		t.Fatalf("no daemon should launch without a runtime directory: %v", fakes.order)
	}
}

func TestRunReleasesClaimOnAbort(t *testing.T) {
	cfg := testConfig(t)
	fakes := &fakeLaunches{fail: map[string]error{"xserver": errors.New("missing")}}
	s := testSequencer(cfg, nil, fakes)

	if _, err := s.Run(context.Background()); err == nil {
		t.Fatal("expected abort")
	}

	// The claim must be released so a retry can acquire it.
	claim, err := runtimedir.Acquire(cfg.Paths.RuntimeDir)
	if err != nil {
		t.Fatalf("expected runtime dir to be reclaimable after abort: %v", err)
	}
	_ = claim.Release()
}

func TestRunRecordsJournal(t *testing.T) {
	cfg := testConfig(t)
	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer store.Close()

	fakes := &fakeLaunches{fail: map[string]error{"panel": errors.New("missing")}}
	s := testSequencer(cfg, store, fakes)

	ctx := context.Background()
	report, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	sessions, err := store.Sessions(ctx, 1)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("expected one journaled session: %v", err)
	}
	if sessions[0].ID != report.SessionID || sessions[0].Status != "completed" {
		t.Fatalf("unexpected session row: %+v", sessions[0])
	}

	transitions, err := store.Transitions(ctx, report.SessionID)
	if err != nil {
		t.Fatalf("Transitions: %v", err)
	}
	if len(transitions) != len(report.Steps) {
		t.Fatalf("expected %d transitions, got %d", len(report.Steps), len(transitions))
	}

	launches, err := store.Launches(ctx, report.SessionID)
	if err != nil {
		t.Fatalf("Launches: %v", err)
	}
	var failed int
	for _, l := range launches {
		if l.Outcome == "failed" {
			failed++
			if l.Daemon != "panel" {
				t.Fatalf("unexpected failed launch: %+v", l)
			}
		}
	}
	if failed != 1 {
		t.Fatalf("expected one failed launch, got %d", failed)
	}
}

package devmon

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"stagehand/internal/config"
	"stagehand/internal/logging"
)

// Monitor listens for udev events on the configured subsystems and invokes
// the handler for each device that appears.
type Monitor struct {
	logger     *slog.Logger
	handler    func(ctx context.Context, devname string)
	subsystems map[string]struct{}

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// New creates a hotplug monitor. Returns nil when hotplug is disabled or no
// subsystems are configured, mirroring the config's intent.
func New(cfg *config.Config, logger *slog.Logger, handler func(ctx context.Context, devname string)) *Monitor {
	if cfg == nil || !cfg.Hotplug.Enabled || len(cfg.Hotplug.Subsystems) == 0 {
		return nil
	}

	subsystems := make(map[string]struct{}, len(cfg.Hotplug.Subsystems))
	for _, s := range cfg.Hotplug.Subsystems {
		s = strings.TrimSpace(strings.ToLower(s))
		if s != "" {
			subsystems[s] = struct{}{}
		}
	}
	if len(subsystems) == 0 {
		return nil
	}

	return &Monitor{
		logger:     logging.NewComponentLogger(logger, "devmon"),
		handler:    handler,
		subsystems: subsystems,
	}
}

// Start begins listening for udev netlink events. A connection failure is
// non-fatal: the session runs without hotplug provisioning.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("netlink socket unavailable, hotplug provisioning disabled",
			logging.Error(err),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("hotplug monitor started",
		logging.String("subsystems", strings.Join(m.subsystemList(), ",")),
	)
	return nil
}

// Stop shuts down the monitor.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("hotplug monitor stopped")
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("hotplug monitor error", logging.Error(err))
		}
	}
}

// buildMatcher matches "add" actions on the configured subsystems.
func (m *Monitor) buildMatcher() netlink.Matcher {
	action := "add"
	rules := &netlink.RuleDefinitions{}
	for subsystem := range m.subsystems {
		rules.AddRule(netlink.RuleDefinition{
			Action: &action,
			Env: map[string]string{
				"SUBSYSTEM": subsystem,
			},
		})
	}
	return rules
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	devname := extractDeviceName(uevent)
	if devname == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	m.logger.Info("device appeared",
		logging.String("device", devname),
		logging.String("subsystem", uevent.Env["SUBSYSTEM"]),
	)
	if m.handler != nil {
		m.handler(ctx, devname)
	}
}

func (m *Monitor) subsystemList() []string {
	out := make([]string, 0, len(m.subsystems))
	for s := range m.subsystems {
		out = append(out, s)
	}
	return out
}

// extractDeviceName gets the device path from a uevent.
func extractDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if !strings.HasPrefix(devname, "/") {
			return "/dev/" + devname
		}
		return devname
	}

	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	if len(parts) == 0 {
		return ""
	}
	return "/dev/" + parts[len(parts)-1]
}

// Package devmon listens for udev netlink events and re-runs device node
// provisioning when devices in the configured subsystems appear after the
// session has started.
//
// The monitor is strictly optional: a kernel without netlink access, or a
// sandboxed run, degrades to the one-shot provisioning the bootstrap already
// performed.
package devmon

// Package devnode provisions the character and block special files a
// graphical session expects before its daemons start.
//
// Provisioning is idempotent and best-effort: a path that already exists is
// skipped without error, and a failed creation (for example a permission
// denial on a read-only /dev) is reported in the per-spec result without
// aborting the remaining specs. A missing optional input device must not
// block the session.
package devnode

package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPackage    = "package"
	KeyVersion    = "version"
	KeyPath       = "path"
	KeyLockfile   = "lockfile"
	KeyManager    = "manager"
	KeyTool       = "tool"
	KeyReleaseID  = "release_id"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Package(name string) slog.Attr    { return slog.String(KeyPackage, name) }
func Version(v string) slog.Attr       { return slog.String(KeyVersion, v) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Lockfile(name string) slog.Attr   { return slog.String(KeyLockfile, name) }
func Manager(m string) slog.Attr       { return slog.String(KeyManager, m) }
func Tool(t string) slog.Attr          { return slog.String(KeyTool, t) }
func ReleaseID(id string) slog.Attr    { return slog.String(KeyReleaseID, id) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyURL       = "url"
	KeyRefname   = "refname"
	KeyRefType   = "reftype"
	KeyComponent = "component"
	KeyVersion   = "version"
	KeyModule    = "module"
	KeyFamily    = "family"
	KeyPath      = "path"
	KeyStartPath = "start_path"
	KeyPhase     = "phase"
	KeyRunID     = "run_id"
	KeyDetail    = "detail"
	KeyError     = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func URL(u string) slog.Attr         { return slog.String(KeyURL, u) }
func Refname(r string) slog.Attr     { return slog.String(KeyRefname, r) }
func RefType(t string) slog.Attr     { return slog.String(KeyRefType, t) }
func Component(c string) slog.Attr   { return slog.String(KeyComponent, c) }
func Version(v string) slog.Attr     { return slog.String(KeyVersion, v) }
func Module(m string) slog.Attr      { return slog.String(KeyModule, m) }
func Family(f string) slog.Attr      { return slog.String(KeyFamily, f) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }
func StartPath(p string) slog.Attr   { return slog.String(KeyStartPath, p) }
func Phase(name string) slog.Attr    { return slog.String(KeyPhase, name) }
func RunID(id string) slog.Attr      { return slog.String(KeyRunID, id) }
func Detail(d string) slog.Attr      { return slog.String(KeyDetail, d) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

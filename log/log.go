// Package log adapts github.com/tliron/commonlog for this module; the
// manager and the wsconsole transport log through it, taking the logging
// backend by dependency injection rather than importing a concrete one. Only cmd/cloud
// imports commonlog/simple for its side-effecting backend registration;
// the core packages only ever see the Logger interface.
package log

import "github.com/tliron/commonlog"

// Logger is the structured logger every core subsystem accepts via
// dependency injection (a field on manager.Config).
type Logger = commonlog.Logger

// Subsystem names used as commonlog.GetLogger arguments across the module,
// kept as constants so call sites can't drift apart by typo.
const (
	Manager   = "cloud.manager"
	Tree      = "cloud.tree"
	Execute   = "cloud.execute"
	Exception = "cloud.exception"
	Transport = "cloud.transport.wsconsole"
)

// Get returns the named logger. Until a backend is registered (see
// commonlog/simple's init-time registration, imported by cmd/cloud),
// commonlog's default no-op backend discards everything written to it.
func Get(name string) Logger {
	return commonlog.GetLogger(name)
}

// Nop returns a Logger that discards everything, for tests and callers
// that construct a manager.Config without wiring a real backend. Without a
// backend registered (see commonlog/simple), commonlog.GetLogger already
// returns a logger backed by its internal null implementation, so this is
// just a documented, intention-revealing spelling of that default.
func Nop() Logger {
	return commonlog.GetLogger("cloud.nop")
}

// Package nlog is a tiny leveled-logging shim used throughout this module,
// in the same calling idiom as the teacher's own cmn/nlog: package-level
// Infoln/Infof/Errorln/Warningln functions gated by an atomic verbosity
// level, plus a FastV predicate call sites use to skip formatting
// allocations on the hot path when the check fails.
package nlog

import (
	"log"
	"os"

	"go.uber.org/atomic"
)

// Subsystem tags, mirroring the teacher's cmn/cos.Smodule* constants.
const (
	SmoduleClause    = "clause"
	SmoduleDB        = "clausedb"
	SmoduleSharing   = "sharing"
	SmoduleGlobal    = "global"
	SmoduleTransport = "transport"
	SmoduleSharer    = "sharer"
	SmoduleTerm      = "term"
)

var (
	level  atomic.Int32
	stdlog = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
)

// SetLevel sets the global verbosity threshold used by FastV.
func SetLevel(v int) { level.Store(int32(v)) }

// FastV reports whether a message at verbosity v in module sm should log.
// The module argument is accepted (not filtered on) to keep call sites
// symmetrical with the teacher's cmn.Rom.FastV(v, module) pattern, which
// leaves room for per-module overrides without changing every call site.
func FastV(v int, _ string) bool { return int32(v) <= level.Load() }

func Infoln(args ...any)              { stdlog.Println(args...) }
func Infof(format string, args ...any) { stdlog.Printf(format, args...) }
func Warningln(args ...any)           { stdlog.Println(append([]any{"W:"}, args...)...) }
func Errorln(args ...any)             { stdlog.Println(append([]any{"E:"}, args...)...) }
func Errorf(format string, args ...any) { stdlog.Printf("E: "+format, args...) }

// Package xerr collects the error kinds from the clause-exchange error
// handling design: every error that crosses a sharer or strategy boundary
// is one of these, built on github.com/pkg/errors the way the teacher
// wraps its own cmn.NewErrAborted/cmn.NewErrXactUsePrev helpers.
package xerr

import "github.com/pkg/errors"

// Oversized reports an addClause rejection; always recovered silently by
// the caller (the clause reference is released), never surfaced further.
func Oversized(size, max int) error {
	return errors.Errorf("clause of size %d exceeds max accepted size %d", size, max)
}

// transportErr marks an error as a TransportFailure so IsTransport can
// recognize it after it has been wrapped further up the call chain.
type transportErr struct{ error }

// Transport wraps a point-to-point or collective exchange failure. Fatal
// for the affected global strategy: the strategy that observes it logs it
// and joins (its DoSharing returns true from then on), while local
// strategies keep running. No configuration flag is changed.
func Transport(cause error) error {
	return transportErr{errors.Wrap(cause, "transport failure")}
}

// InsufficientPeers is returned by a global strategy constructor when
// fewer than two processes are participating; the strategy self-disables
// and the caller continues in local-only mode.
func InsufficientPeers(have, need int) error {
	return errors.Errorf("insufficient peers: have %d, need at least %d", have, need)
}

// IsTransport reports whether err is a TransportFailure, so callers can
// decide whether to disable dist mode.
func IsTransport(err error) bool {
	_, ok := errors.Cause(err).(transportErr)
	return ok
}

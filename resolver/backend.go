package resolver

import "github.com/pkg/errors"

// Backend is a pluggable resolver in the ordered chain: each backend offers
// lookup(coords) -> descriptor-or-absent, and a Fetcher additionally offers
// fetch(coords) -> bytes-or-error. The cache backend implements only
// Lookup/Store; a remote Maven-like backend implements Lookup and Fetch.
type Backend interface {
	// Name identifies the backend for diagnostics (lockfile URL origin,
	// error messages).
	Name() string

	// Lookup returns the descriptor for coord if this backend has it,
	// false if not present, or an error for anything other than "not
	// found". A cache backend always reports a miss as (nil, false, nil),
	// never as an error; it errors only on a cached descriptor that fails
	// to parse.
	Lookup(coord Coordinate) (*Descriptor, bool, error)
}

// Fetcher is implemented by backends that can retrieve artifact bytes over
// the network (remote Maven-like repositories). The cache backend does not
// implement this interface.
type Fetcher interface {
	Backend
	Fetch(coord Coordinate, desc *Descriptor) ([]byte, error)
}

// TransportError marks a failure that should cause the resolver to try the
// next backend in the chain rather than abort resolution outright. Only
// transport errors get this soft-fail treatment.
type TransportError struct {
	Backend string
	Cause   error
}

func (e *TransportError) Error() string {
	return "resolver " + e.Backend + ": transport error: " + e.Cause.Error()
}

func (e *TransportError) Unwrap() error { return e.Cause }

// IsTransportError reports whether err is a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// UnknownCoordinateError is fatal: no backend in the chain produced a
// descriptor for the coordinate.
type UnknownCoordinateError struct {
	Coordinate Coordinate
}

func (e *UnknownCoordinateError) Error() string {
	return "unknown coordinate: " + e.Coordinate.String()
}

// ChecksumMismatchError is fatal and names the offending URL.
type ChecksumMismatchError struct {
	URL      string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return "checksum mismatch for " + e.URL + ": expected " + e.Expected + ", got " + e.Actual
}

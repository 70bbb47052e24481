// Package rtkerr tags errors raised by the core with the error kinds from
// the error handling design: transient I/O, remote I/O, configuration and
// protocol framing failures.
package rtkerr

import "errors"

// Kind identifies which policy a caller should apply to an error.
type Kind string

const (
	TransientIO     Kind = "transient_io"
	RemoteIO        Kind = "remote_io"
	Config          Kind = "config"
	ProtocolFraming Kind = "protocol_framing"
)

// kindError pairs a Kind with an underlying cause so errors.Is/As keep
// working through fmt.Errorf("%w", ...) wrapping.
type kindError struct {
	kind  Kind
	cause error
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return string(e.kind)
	}
	return string(e.kind) + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() error { return e.cause }

// Is lets errors.Is(err, rtkerr.ErrTransientIO) work by comparing Kind
// values wrapped as sentinel errors below.
func (e *kindError) Is(target error) bool {
	if s, ok := target.(*sentinelKind); ok {
		return e.kind == s.kind
	}
	return false
}

type sentinelKind struct{ kind Kind }

func (s *sentinelKind) Error() string { return string(s.kind) }

// Sentinels usable with errors.Is, e.g. errors.Is(err, rtkerr.ErrTransientIO).
var (
	ErrTransientIO     = &sentinelKind{TransientIO}
	ErrRemoteIO        = &sentinelKind{RemoteIO}
	ErrConfig          = &sentinelKind{Config}
	ErrProtocolFraming = &sentinelKind{ProtocolFraming}
)

// Wrap annotates err with kind so errors.Is against the matching sentinel
// succeeds.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, cause: err}
}

// Of reports the Kind attached to err, if any.
func Of(err error) (Kind, bool) {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind, true
	}
	return "", false
}

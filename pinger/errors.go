package pinger

import (
	"errors"
	"fmt"
)

var (
	// Fatal: the run cannot start.
	ErrUnresolvableHost  = errors.New("cannot resolve host")
	ErrSocketAcquisition = errors.New("cannot open ICMP socket")

	// Per probe: recorded as a loss.
	ErrProbeTimeout   = errors.New("time limit exceeded")
	ErrProbeTransport = errors.New("transport error")
)

// ResolveError reports a target that is neither an address literal nor a
// resolvable host name.
type ResolveError struct {
	Host string
	Err  error
}

func (e *ResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot resolve hostname %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("cannot resolve hostname %s", e.Host)
}

func (e *ResolveError) Is(target error) bool { return target == ErrUnresolvableHost }

func (e *ResolveError) Unwrap() error { return e.Err }

// SocketError reports a failure to open the ICMP socket. It usually means
// the process lacks the privilege for raw sockets.
type SocketError struct {
	Network string
	Err     error
}

func (e *SocketError) Error() string {
	msg := fmt.Sprintf("cannot open %s socket: %v", e.Network, e.Err)
	if hint := privilegeHint(); hint != "" {
		msg += " (" + hint + ")"
	}
	return msg
}

func (e *SocketError) Is(target error) bool { return target == ErrSocketAcquisition }

func (e *SocketError) Unwrap() error { return e.Err }

// This file code is based on https://github.com/go-ping/ping
package pinger

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxPacketLen fits any IP datagram.
const maxPacketLen = 1 << 16

// NewPinger returns a new Pinger instance. protocol is "icmp" for raw
// sockets or "udp" for unprivileged ones.
func NewPinger(protocol string, id uint16) *Pinger {
	p := &Pinger{
		id:     id,
		logger: NoopLogger{},
		listen: listenICMP,
	}
	p.SetPrivileged(protocol != "udp")
	return p
}

// Pinger sends one echo request at a time and waits for its reply. Every
// probe gets a socket of its own which is closed before ProbeOnce returns.
type Pinger struct {
	id uint16
	// protocol is "icmp" or "udp".
	protocol string

	logger Logger
	listen func(v ProtocolVersion, protocol string) (packetConn, error)
}

// SetPrivileged sets the type of ping pinger will send.
// false means pinger will send an "unprivileged" UDP ping.
// true means pinger will send a "privileged" raw ICMP ping.
// NOTE: setting to true requires that it be run with super-user privileges.
func (p *Pinger) SetPrivileged(privileged bool) {
	if privileged {
		p.protocol = "icmp"
	} else {
		p.protocol = "udp"
	}
}

// Privileged returns whether pinger is running in privileged mode.
func (p *Pinger) Privileged() bool {
	return p.protocol == "icmp"
}

// SetLogger sets the logger to be used to log events from the pinger.
func (p *Pinger) SetLogger(logger Logger) {
	if logger == nil {
		logger = NoopLogger{}
	}
	p.logger = logger
}

// Check opens and closes a socket of family v, so a missing privilege shows
// up before the first probe.
func (p *Pinger) Check(v ProtocolVersion) error {
	conn, err := p.open(v)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (p *Pinger) open(v ProtocolVersion) (packetConn, error) {
	conn, err := p.listen(v, p.protocol)
	if err != nil {
		if !errors.Is(err, ErrSocketAcquisition) {
			err = &SocketError{Network: v.Network(p.protocol), Err: err}
		}
		return nil, err
	}
	return conn, nil
}

// ProbeOnce sends echo request seq with size payload bytes to t and waits up
// to timeout for the matching reply. Per-probe failures come back as a lost
// Outcome; the error is reserved for failing to open the socket, which no
// later probe is going to fix either.
func (p *Pinger) ProbeOnce(ctx context.Context, t Target, seq uint16, size int, timeout time.Duration) (Outcome, error) {
	v := t.Version()
	conn, err := p.open(v)
	if err != nil {
		return Outcome{}, err
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return transportLoss(seq, err), nil
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return transportLoss(seq, err), nil
	}

	msg := BuildEcho(v, p.id, seq, size)
	start := time.Now()
	if _, err := conn.WriteTo(msg, sockaddr(t.Addr, p.protocol)); err != nil {
		return classifyLoss(seq, start, timeout, err), nil
	}

	return p.await(ctx, conn, t, seq, start, timeout), nil
}

// await runs the reply loop while a watcher pulls the read deadline in if
// ctx is cancelled first.
func (p *Pinger) await(ctx context.Context, conn packetConn, t Target, seq uint16, start time.Time, timeout time.Duration) Outcome {
	var out Outcome
	done := make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return conn.SetReadDeadline(time.Now())
		case <-done:
			return nil
		}
	})
	g.Go(func() error {
		defer close(done)
		out = p.recvReply(conn, t, seq, start, timeout)
		return nil
	})
	if err := g.Wait(); err != nil {
		p.logger.Warnf("seq=%d: interrupting read: %v", seq, err)
	}

	if !out.Replied && ctx.Err() != nil {
		return transportLoss(seq, ctx.Err())
	}
	return out
}

// recvReply reads until a reply correlated with seq arrives or the read
// fails. Datagrams that do not match are skipped, not accepted.
func (p *Pinger) recvReply(conn packetConn, t Target, seq uint16, start time.Time, timeout time.Duration) Outcome {
	buf := make([]byte, maxPacketLen)
	for {
		n, ttl, src, err := conn.ReadFrom(buf)
		if err != nil {
			return classifyLoss(seq, start, timeout, err)
		}
		rtt := time.Since(start)

		recv := &Packet{Bytes: buf, Len: n, TTL: ttl, Proto: t.Version(), Src: addrOf(src)}
		stats := p.ParsePacket(recv, t, seq)
		if !stats.Valid {
			continue
		}
		return Outcome{
			Seq:     seq,
			Replied: true,
			RTT:     rtt,
			Nbytes:  stats.Nbytes,
			TTL:     ttl,
			Src:     recv.Src,
		}
	}
}

// ParsePacket decides whether recv answers echo request seq sent to t.
func (p *Pinger) ParsePacket(recv *Packet, t Target, seq uint16) IcmpStats {
	echo, why := recv.parseEcho()
	if echo == nil {
		p.logger.Debugf("seq=%d: skipping datagram from %s: %s", seq, recv.Src, why)
		return IcmpStats{}
	}
	stats := IcmpStats{
		ID:     uint16(echo.ID),
		Seq:    uint16(echo.Seq),
		Nbytes: len(echo.Data),
	}

	switch {
	case recv.Src.IsValid() && recv.Src.WithZone("") != t.Addr.WithZone(""):
		p.logger.Debugf("seq=%d: skipping reply from foreign host %s", seq, recv.Src)
	// the kernel owns the identifier of unprivileged sockets
	case p.Privileged() && stats.ID != p.id:
		p.logger.Debugf("seq=%d: skipping reply with id %d", seq, stats.ID)
	case stats.Seq != seq:
		p.logger.Debugf("seq=%d: skipping reply for seq %d", seq, stats.Seq)
	default:
		stats.Valid = true
	}
	return stats
}

// classifyLoss maps a send or receive error to a loss reason. Running into
// the deadline is a timeout, anything else a transport error.
func classifyLoss(seq uint16, start time.Time, timeout time.Duration, err error) Outcome {
	var nerr net.Error
	if time.Since(start) >= timeout || errors.Is(err, os.ErrDeadlineExceeded) ||
		(errors.As(err, &nerr) && nerr.Timeout()) {
		return Outcome{Seq: seq, Reason: Timeout, Err: ErrProbeTimeout}
	}
	return transportLoss(seq, err)
}

func transportLoss(seq uint16, err error) Outcome {
	return Outcome{Seq: seq, Reason: TransportError, Err: fmt.Errorf("%w: %w", ErrProbeTransport, err)}
}

// Reason says why a probe was lost.
type Reason int

const (
	Timeout Reason = iota + 1
	TransportError
)

func (r Reason) String() string {
	switch r {
	case Timeout:
		return "timeout"
	case TransportError:
		return "transport error"
	default:
		return "none"
	}
}

// Outcome is the result of one probe: either Replied with an RTT, or lost
// with a Reason and the error behind it.
type Outcome struct {
	Seq     uint16
	Replied bool
	RTT     time.Duration

	Reason Reason
	Err    error

	// Reply details, set when Replied.
	Nbytes int
	TTL    int
	Src    netip.Addr
}

// Millis returns the RTT in fractional milliseconds.
func (o Outcome) Millis() float64 {
	return float64(o.RTT) / float64(time.Millisecond)
}

package pinger

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"net/netip"
	"os"
	"sync"
	"testing"
	"time"
)

type datagram struct {
	b     []byte
	src   net.Addr
	err   error
	delay time.Duration
}

// fakeConn is an in-memory socket. Every write is answered with whatever
// respond returns; reads honour the read deadline.
type fakeConn struct {
	mu       sync.Mutex
	deadline time.Time
	dst      net.Addr
	written  [][]byte
	closed   bool
	writeErr error

	wake    chan struct{}
	inbox   chan datagram
	respond func(req []byte) []datagram
}

func newFakeConn(respond func(req []byte) []datagram) *fakeConn {
	return &fakeConn{
		wake:    make(chan struct{}, 1),
		inbox:   make(chan datagram, 16),
		respond: respond,
	}
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) WriteTo(b []byte, dst net.Addr) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.dst = dst
	c.written = append(c.written, append([]byte(nil), b...))
	if c.respond == nil {
		return len(b), nil
	}
	for _, d := range c.respond(b) {
		d := d
		if d.delay > 0 {
			time.AfterFunc(d.delay, func() { c.inbox <- d })
			continue
		}
		c.inbox <- d
	}
	return len(b), nil
}

func (c *fakeConn) ReadFrom(b []byte) (int, int, net.Addr, error) {
	for {
		c.mu.Lock()
		deadline := c.deadline
		c.mu.Unlock()

		var expired <-chan time.Time
		var timer *time.Timer
		if !deadline.IsZero() {
			wait := time.Until(deadline)
			if wait <= 0 {
				return 0, -1, nil, os.ErrDeadlineExceeded
			}
			timer = time.NewTimer(wait)
			expired = timer.C
		}

		select {
		case d := <-c.inbox:
			if timer != nil {
				timer.Stop()
			}
			if d.err != nil {
				return 0, -1, nil, d.err
			}
			return copy(b, d.b), 64, d.src, nil
		case <-expired:
			return 0, -1, nil, os.ErrDeadlineExceeded
		case <-c.wake:
			if timer != nil {
				timer.Stop()
			}
		}
	}
}

func (c *fakeConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline = t
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

var (
	target4 = Target{Host: "192.0.2.1", Addr: netip.MustParseAddr("192.0.2.1")}
	target6 = Target{Host: "2001:db8::1", Addr: netip.MustParseAddr("2001:db8::1")}
	src4    = &net.IPAddr{IP: net.ParseIP("192.0.2.1")}
	src6    = &net.IPAddr{IP: net.ParseIP("2001:db8::1")}
)

// echoReply turns a request into the reply a well behaved host sends.
func echoReply(req []byte) []byte {
	b := append([]byte(nil), req...)
	if b[0] == 128 {
		b[0] = 129
		return b
	}
	b[0] = 0
	b[2], b[3] = 0, 0
	binary.BigEndian.PutUint16(b[2:], Checksum(b))
	return b
}

func withSeq(b []byte, seq uint16) []byte {
	binary.BigEndian.PutUint16(b[6:8], seq)
	b[2], b[3] = 0, 0
	binary.BigEndian.PutUint16(b[2:], Checksum(b))
	return b
}

func withID(b []byte, id uint16) []byte {
	binary.BigEndian.PutUint16(b[4:6], id)
	b[2], b[3] = 0, 0
	binary.BigEndian.PutUint16(b[2:], Checksum(b))
	return b
}

func newTestPinger(conn *fakeConn) *Pinger {
	p := NewPinger("icmp", Identifier)
	p.listen = func(ProtocolVersion, string) (packetConn, error) { return conn, nil }
	return p
}

func TestProbeOnceReplies(t *testing.T) {
	tests := []struct {
		name    string
		respond func(req []byte) []datagram
	}{
		{
			name: "matching reply",
			respond: func(req []byte) []datagram {
				return []datagram{{b: echoReply(req), src: src4}}
			},
		},
		{
			name: "reply behind an IPv4 header",
			respond: func(req []byte) []datagram {
				hdr := make([]byte, 20)
				hdr[0] = 0x45
				return []datagram{{b: append(hdr, echoReply(req)...), src: src4}}
			},
		},
		{
			name: "own request seen first",
			respond: func(req []byte) []datagram {
				return []datagram{
					{b: append([]byte(nil), req...), src: src4},
					{b: echoReply(req), src: src4},
				}
			},
		},
		{
			name: "stale sequence seen first",
			respond: func(req []byte) []datagram {
				return []datagram{
					{b: withSeq(echoReply(req), 6), src: src4},
					{b: echoReply(req), src: src4},
				}
			},
		},
		{
			name: "foreign host and bad checksum seen first",
			respond: func(req []byte) []datagram {
				bad := echoReply(req)
				bad[len(bad)-1] ^= 0xff
				return []datagram{
					{b: echoReply(req), src: &net.IPAddr{IP: net.ParseIP("198.51.100.9")}},
					{b: bad, src: src4},
					{b: []byte{0, 0, 0}, src: src4},
					{b: echoReply(req), src: src4, delay: 10 * time.Millisecond},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newFakeConn(tt.respond)
			p := newTestPinger(conn)

			out, err := p.ProbeOnce(context.Background(), target4, 7, 32, time.Second)
			if err != nil {
				t.Fatalf("ProbeOnce: %v", err)
			}
			if !out.Replied {
				t.Fatalf("expected a reply, got %v (%v)", out.Reason, out.Err)
			}
			if out.Seq != 7 || out.Nbytes != 32 || out.TTL != 64 || out.Src != target4.Addr {
				t.Errorf("unexpected outcome %+v", out)
			}
			if out.RTT < 0 || out.Millis() < 0 {
				t.Errorf("negative RTT %v", out.RTT)
			}
			if !conn.isClosed() {
				t.Errorf("socket left open")
			}
			if len(conn.written) != 1 {
				t.Fatalf("wrote %d datagrams, want 1", len(conn.written))
			}
			if _, ok := conn.dst.(*net.IPAddr); !ok {
				t.Errorf("raw socket destination is %T, want *net.IPAddr", conn.dst)
			}
		})
	}
}

func TestProbeOnceTimeouts(t *testing.T) {
	tests := []struct {
		name    string
		respond func(req []byte) []datagram
	}{
		{"silence", nil},
		{
			name: "wrong identifier",
			respond: func(req []byte) []datagram {
				return []datagram{{b: withID(echoReply(req), 99), src: src4}}
			},
		},
		{
			name: "foreign host",
			respond: func(req []byte) []datagram {
				return []datagram{{b: echoReply(req), src: &net.IPAddr{IP: net.ParseIP("198.51.100.9")}}}
			},
		},
		{
			name: "only our request",
			respond: func(req []byte) []datagram {
				return []datagram{{b: req, src: src4}}
			},
		},
		{
			name: "too late",
			respond: func(req []byte) []datagram {
				return []datagram{{b: echoReply(req), src: src4, delay: time.Second}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newFakeConn(tt.respond)
			p := newTestPinger(conn)

			out, err := p.ProbeOnce(context.Background(), target4, 1, 8, 50*time.Millisecond)
			if err != nil {
				t.Fatalf("ProbeOnce: %v", err)
			}
			if out.Replied {
				t.Fatalf("unexpected reply %+v", out)
			}
			if out.Reason != Timeout || !errors.Is(out.Err, ErrProbeTimeout) {
				t.Errorf("reason = %v, err = %v; want timeout", out.Reason, out.Err)
			}
			if !conn.isClosed() {
				t.Errorf("socket left open")
			}
		})
	}
}

func TestProbeOnceTransportErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("read", func(t *testing.T) {
		conn := newFakeConn(func([]byte) []datagram { return []datagram{{err: boom}} })
		out, err := newTestPinger(conn).ProbeOnce(context.Background(), target4, 2, 8, time.Second)
		if err != nil {
			t.Fatal(err)
		}
		if out.Replied || out.Reason != TransportError {
			t.Fatalf("outcome = %+v, want transport error", out)
		}
		if !errors.Is(out.Err, ErrProbeTransport) || !errors.Is(out.Err, boom) {
			t.Errorf("err = %v, want it to wrap ErrProbeTransport and the cause", out.Err)
		}
		if !conn.isClosed() {
			t.Errorf("socket left open")
		}
	})

	t.Run("write", func(t *testing.T) {
		conn := newFakeConn(nil)
		conn.writeErr = boom
		out, err := newTestPinger(conn).ProbeOnce(context.Background(), target4, 3, 8, time.Second)
		if err != nil {
			t.Fatal(err)
		}
		if out.Replied || out.Reason != TransportError || !errors.Is(out.Err, boom) {
			t.Fatalf("outcome = %+v, want transport error", out)
		}
		if !conn.isClosed() {
			t.Errorf("socket left open")
		}
	})
}

func TestProbeOnceSocketFailure(t *testing.T) {
	p := NewPinger("icmp", Identifier)
	p.listen = func(ProtocolVersion, string) (packetConn, error) {
		return nil, os.ErrPermission
	}

	_, err := p.ProbeOnce(context.Background(), target4, 1, 8, time.Second)
	if !errors.Is(err, ErrSocketAcquisition) || !errors.Is(err, os.ErrPermission) {
		t.Fatalf("err = %v, want ErrSocketAcquisition wrapping the cause", err)
	}
	if err := p.Check(ProtocolIpv4); !errors.Is(err, ErrSocketAcquisition) {
		t.Errorf("Check err = %v", err)
	}
}

func TestProbeOnceCancel(t *testing.T) {
	conn := newFakeConn(nil)
	p := newTestPinger(conn)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	out, err := p.ProbeOnce(ctx, target4, 4, 8, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took %v", elapsed)
	}
	if out.Replied || out.Reason != TransportError || !errors.Is(out.Err, context.Canceled) {
		t.Errorf("outcome = %+v, want transport error wrapping context.Canceled", out)
	}
	if !conn.isClosed() {
		t.Errorf("socket left open")
	}
}

func TestProbeOnceUnprivileged(t *testing.T) {
	// the kernel rewrites the identifier of datagram ICMP sockets
	conn := newFakeConn(func(req []byte) []datagram {
		return []datagram{{b: withID(echoReply(req), 4242), src: &net.UDPAddr{IP: net.ParseIP("192.0.2.1")}}}
	})
	p := newTestPinger(conn)
	p.SetPrivileged(false)

	out, err := p.ProbeOnce(context.Background(), target4, 5, 16, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Replied {
		t.Fatalf("expected a reply, got %+v", out)
	}
	if _, ok := conn.dst.(*net.UDPAddr); !ok {
		t.Errorf("unprivileged destination is %T, want *net.UDPAddr", conn.dst)
	}
}

func TestProbeOnceIPv6(t *testing.T) {
	conn := newFakeConn(func(req []byte) []datagram {
		if req[0] != 128 {
			return nil
		}
		return []datagram{{b: echoReply(req), src: src6}}
	})
	p := newTestPinger(conn)

	out, err := p.ProbeOnce(context.Background(), target6, 11, 24, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Replied || out.Seq != 11 || out.Nbytes != 24 || out.Src != target6.Addr {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestReasonString(t *testing.T) {
	if Timeout.String() != "timeout" || TransportError.String() != "transport error" {
		t.Errorf("unexpected reason names %q, %q", Timeout, TransportError)
	}
}

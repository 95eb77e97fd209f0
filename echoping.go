package echoping

/**
 *  One target, one outstanding probe, one socket per probe.
 *
 *  EchoPing resolves the target once, then walks sequence numbers 1..Count:
 *  send an echo request, wait for the matching reply or the deadline, feed
 *  the outcome to the statistics, sleep for the interval, repeat. Nothing
 *  overlaps, so nothing needs a lock. Cancelling the context stops the run
 *  at the next wait and still produces a summary of what was done.
 **/

import (
	"context"
	"time"

	"github.com/drgkaleda/go-echoping/pingdata"
	"github.com/drgkaleda/go-echoping/pinger"
)

// Prober sends a single echo request and waits for its reply.
// *pinger.Pinger is the real one.
type Prober interface {
	ProbeOnce(ctx context.Context, t pinger.Target, seq uint16, size int, timeout time.Duration) (pinger.Outcome, error)
}

// checker is implemented by probers that can verify socket access up front.
type checker interface {
	Check(v pinger.ProtocolVersion) error
}

// logSetter is implemented by probers that log on their own.
type logSetter interface {
	SetLogger(l pinger.Logger)
}

type EchoPing struct {
	config Config

	prober   Prober
	resolver pinger.Resolver
	logger   pinger.Logger
}

// New validates cfg and returns an EchoPing probing through raw ICMP
// sockets, or unprivileged ones when cfg.Privileged is false.
func New(cfg Config) (*EchoPing, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Network == "" {
		cfg.Network = "ip"
	}

	protocol := "udp"
	if cfg.Privileged {
		protocol = "icmp"
	}

	ep := &EchoPing{
		config: cfg,
		logger: pinger.NoopLogger{},
	}
	ep.SetProber(pinger.NewPinger(protocol, pinger.Identifier))
	return ep, nil
}

// SetProber replaces the transport. A prober that logs is handed the
// current logger.
func (ep *EchoPing) SetProber(p Prober) {
	ep.prober = p
	if ls, ok := p.(logSetter); ok {
		ls.SetLogger(ep.logger)
	}
}

// SetResolver replaces net.DefaultResolver for host name lookups.
func (ep *EchoPing) SetResolver(r pinger.Resolver) {
	ep.resolver = r
}

// SetLogger sets the logger for the run and for the underlying pinger.
func (ep *EchoPing) SetLogger(l pinger.Logger) {
	if l == nil {
		l = pinger.NoopLogger{}
	}
	ep.logger = l
	if ls, ok := ep.prober.(logSetter); ok {
		ls.SetLogger(l)
	}
}

// Run executes the whole round and returns its statistics.
//
// A target that cannot be resolved or a socket that cannot be opened ends
// the run with an error before, or instead of, the next probe. Lost probes
// are not errors. If ctx is cancelled the loop stops, client still gets
// PingFinish with the partial statistics, and the context error is
// returned alongside them.
func (ep *EchoPing) Run(ctx context.Context, client PingClient) (pingdata.Statistics, error) {
	if client == nil {
		client = nopClient{}
	}
	cfg := ep.config

	target, err := pinger.Resolve(ctx, ep.resolver, cfg.Network, cfg.Target)
	if err != nil {
		return pingdata.Statistics{}, err
	}
	ep.logger.Debugf("resolved %s to %s", target.Host, target.Addr)

	// try a socket first so a missing privilege fails the run up front
	if c, ok := ep.prober.(checker); ok && cfg.Count > 0 {
		if err := c.Check(target.Version()); err != nil {
			return pingdata.Statistics{}, err
		}
	}

	client.PingStart(target, cfg.Size)

	var stats pingdata.PingStats
	interrupted := false
	for i := 1; i <= cfg.Count; i++ {
		if ctx.Err() != nil {
			interrupted = true
			break
		}

		// sequence numbers wrap after 65535 probes
		out, err := ep.sendProbe(ctx, target, uint16(i), &stats)
		if err != nil {
			// the probe never left; stats cover the probes that did
			return stats.Statistics(), err
		}
		ep.processOutcome(client, target, &stats, out)

		if ctx.Err() != nil || (i < cfg.Count && !sleep(ctx, cfg.Interval)) {
			interrupted = true
			break
		}
	}

	summary := stats.Statistics()
	client.PingFinish(target, summary)

	if interrupted {
		return summary, ctx.Err()
	}
	return summary, nil
}

// sleep waits for d or until ctx is done, and reports whether the wait ran
// its full length.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

package echoping

import (
	"context"

	"github.com/drgkaleda/go-echoping/pingdata"
	"github.com/drgkaleda/go-echoping/pinger"
)

// sendProbe runs probe seq to completion. It is counted as sent only once
// it had a socket to go out on.
func (ep *EchoPing) sendProbe(ctx context.Context, target pinger.Target, seq uint16, stats *pingdata.PingStats) (pinger.Outcome, error) {
	out, err := ep.prober.ProbeOnce(ctx, target, seq, ep.config.Size, ep.config.Timeout)
	if err != nil {
		ep.logger.Errorf("seq=%d: %v", seq, err)
		return out, err
	}
	stats.Send()
	return out, nil
}

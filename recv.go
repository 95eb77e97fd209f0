package echoping

import (
	"github.com/drgkaleda/go-echoping/pingdata"
	"github.com/drgkaleda/go-echoping/pinger"
)

// processOutcome folds one probe result into stats and passes it on.
func (ep *EchoPing) processOutcome(client PingClient, target pinger.Target, stats *pingdata.PingStats, out pinger.Outcome) {
	if out.Replied {
		stats.Recv(out.Millis())
	} else {
		stats.Drop()
		ep.logger.Debugf("seq=%d lost: %v", out.Seq, out.Err)
	}
	client.PingProcess(target, ep.config.Size, out)
}

package echoping

import (
	"github.com/drgkaleda/go-echoping/pingdata"
	"github.com/drgkaleda/go-echoping/pinger"
)

// PingClient receives the events of a run, in order: one PingStart, one
// PingProcess per probe, one PingFinish.
type PingClient interface {
	PingStart(target pinger.Target, size int)
	PingProcess(target pinger.Target, size int, out pinger.Outcome)
	PingFinish(target pinger.Target, stats pingdata.Statistics)
}

type nopClient struct{}

func (nopClient) PingStart(pinger.Target, int)                   {}
func (nopClient) PingProcess(pinger.Target, int, pinger.Outcome) {}
func (nopClient) PingFinish(pinger.Target, pingdata.Statistics)  {}

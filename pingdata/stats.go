// Package pingdata accumulates the results of a ping run.
package pingdata

// PingStats tracks sent, received and lost probes and the latency of the
// replies. Latencies are in milliseconds. The zero value is ready to use.
//
// Send is called before a probe goes out, then exactly one of Recv or Drop
// once its outcome is known, which keeps Sent == Received + Lost between
// probes.
type PingStats struct {
	sent     int
	received int
	lost     int

	min, max float64
	total    float64
}

// Send counts a probe as sent.
func (s *PingStats) Send() {
	s.sent++
}

// Recv records a reply that took latency milliseconds.
func (s *PingStats) Recv(latency float64) {
	s.received++
	s.total += latency

	if s.received == 1 || latency < s.min {
		s.min = latency
	}
	if s.received == 1 || latency > s.max {
		s.max = latency
	}
}

// Drop records a probe that got no usable reply.
func (s *PingStats) Drop() {
	s.lost++
}

func (s *PingStats) Sent() int     { return s.sent }
func (s *PingStats) Received() int { return s.received }
func (s *PingStats) Lost() int     { return s.lost }

// Valid reports whether at least one reply was received, i.e. whether the
// latency figures mean anything.
func (s *PingStats) Valid() bool {
	return s.received > 0
}

// Min returns the fastest reply.
func (s *PingStats) Min() (float64, bool) {
	return s.min, s.Valid()
}

// Max returns the slowest reply.
func (s *PingStats) Max() (float64, bool) {
	return s.max, s.Valid()
}

// Average returns the mean latency of all replies.
func (s *PingStats) Average() (float64, bool) {
	if !s.Valid() {
		return 0, false
	}
	return s.total / float64(s.received), true
}

// Loss returns the lost share of sent probes in percent.
func (s *PingStats) Loss() float64 {
	if s.sent == 0 {
		return 0
	}
	return 100 * float64(s.lost) / float64(s.sent)
}

// Statistics is a finished, read-only view of a run.
type Statistics struct {
	Sent     int
	Received int
	Lost     int
	Loss     float64

	// Min, Avg and Max are only meaningful when HasLatency is set.
	HasLatency bool
	Min        float64
	Avg        float64
	Max        float64
}

// Statistics snapshots s.
func (s *PingStats) Statistics() Statistics {
	avg, ok := s.Average()
	return Statistics{
		Sent:       s.sent,
		Received:   s.received,
		Lost:       s.lost,
		Loss:       s.Loss(),
		HasLatency: ok,
		Min:        s.min,
		Avg:        avg,
		Max:        s.max,
	}
}

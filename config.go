package echoping

import (
	"fmt"
	"time"
)

// MaxSize is the largest payload that fits an IPv4 datagram behind the
// ICMP header.
const MaxSize = 65535 - 20 - 8

// Config holds everything one run needs. It is not changed once Run starts.
type Config struct {
	// Target is a host name or an IP literal.
	Target string
	// Count is the number of echo requests to send. Zero sends none.
	Count int
	// Timeout bounds the wait for each reply.
	Timeout time.Duration
	// Size is the number of payload bytes after the ICMP header.
	Size int
	// Interval is the pause between two probes.
	Interval time.Duration
	// Network restricts resolution: "ip", "ip4" or "ip6".
	Network string
	// Privileged selects raw ICMP sockets over unprivileged datagram ones.
	Privileged bool
}

// DefaultConfig returns the settings used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Count:      4,
		Timeout:    5 * time.Second,
		Size:       32,
		Interval:   time.Second,
		Network:    "ip",
		Privileged: true,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("target must be specified")
	}
	if c.Count < 0 {
		return fmt.Errorf("count cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Size < 0 || c.Size > MaxSize {
		return fmt.Errorf("size must be between 0 and %d", MaxSize)
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval cannot be negative")
	}
	switch c.Network {
	case "", "ip", "ip4", "ip6":
	default:
		return fmt.Errorf("unknown network %q (want ip, ip4 or ip6)", c.Network)
	}
	return nil
}

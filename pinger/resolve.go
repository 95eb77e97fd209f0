package pinger

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// Target is the host being pinged, bound to the address it resolved to.
type Target struct {
	Host string
	Addr netip.Addr
}

// Version returns the IP family of the target address.
func (t Target) Version() ProtocolVersion {
	return VersionOf(t.Addr)
}

// Resolver looks up host names. *net.Resolver satisfies it.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Resolve turns host into a Target. Address literals are returned as is
// without touching the network; names go through r and the first address
// it returns wins. network is "ip", "ip4" or "ip6". A nil r means
// net.DefaultResolver.
func Resolve(ctx context.Context, r Resolver, network, host string) (Target, error) {
	if r == nil {
		r = net.DefaultResolver
	}
	if network == "" {
		network = "ip"
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return Target{}, &ResolveError{Host: host, Err: errors.New("empty host")}
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		addr = addr.Unmap()
		if !familyAllowed(network, addr) {
			return Target{}, &ResolveError{Host: host, Err: fmt.Errorf("address is not %s", network)}
		}
		return Target{Host: host, Addr: addr}, nil
	}

	addrs, err := r.LookupNetIP(ctx, network, host)
	if err != nil {
		return Target{}, &ResolveError{Host: host, Err: err}
	}
	for _, addr := range addrs {
		addr = addr.Unmap()
		if addr.IsValid() && familyAllowed(network, addr) {
			return Target{Host: host, Addr: addr}, nil
		}
	}
	return Target{}, &ResolveError{Host: host, Err: errors.New("no addresses found")}
}

func familyAllowed(network string, addr netip.Addr) bool {
	switch network {
	case "ip4":
		return addr.Is4()
	case "ip6":
		return addr.Is6()
	default:
		return true
	}
}

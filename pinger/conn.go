package pinger

import (
	"net"
	"net/netip"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// packetConn is the slice of a socket a probe needs.
type packetConn interface {
	Close() error
	ReadFrom(b []byte) (n int, ttl int, src net.Addr, err error)
	WriteTo(b []byte, dst net.Addr) (int, error)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

type icmpv4Conn struct {
	*icmp.PacketConn
}

func (c icmpv4Conn) ReadFrom(b []byte) (int, int, net.Addr, error) {
	ttl := -1
	n, cm, src, err := c.IPv4PacketConn().ReadFrom(b)
	if cm != nil {
		ttl = cm.TTL
	}
	return n, ttl, src, err
}

type icmpv6Conn struct {
	*icmp.PacketConn
}

func (c icmpv6Conn) ReadFrom(b []byte) (int, int, net.Addr, error) {
	ttl := -1
	n, cm, src, err := c.IPv6PacketConn().ReadFrom(b)
	if cm != nil {
		ttl = cm.HopLimit
	}
	return n, ttl, src, err
}

// listenICMP opens a socket of family v. protocol is "icmp" for raw sockets
// or "udp" for unprivileged datagram ICMP sockets.
func listenICMP(v ProtocolVersion, protocol string) (packetConn, error) {
	network := v.Network(protocol)
	c, err := icmp.ListenPacket(network, "")
	if err != nil {
		return nil, &SocketError{Network: network, Err: err}
	}

	// TTL and hop limit are informational only; some platforms refuse them.
	if v == ProtocolIpv6 {
		if p := c.IPv6PacketConn(); p != nil {
			_ = p.SetControlMessage(ipv6.FlagHopLimit, true)
		}
		return icmpv6Conn{c}, nil
	}
	if p := c.IPv4PacketConn(); p != nil {
		_ = p.SetControlMessage(ipv4.FlagTTL, true)
	}
	return icmpv4Conn{c}, nil
}

// sockaddr builds the destination for WriteTo. Port numbers are meaningless
// for ICMP and left at zero.
func sockaddr(addr netip.Addr, protocol string) net.Addr {
	ip := net.IP(addr.AsSlice())
	if protocol == "udp" {
		return &net.UDPAddr{IP: ip, Zone: addr.Zone()}
	}
	return &net.IPAddr{IP: ip, Zone: addr.Zone()}
}

// addrOf extracts the peer address reported by ReadFrom.
func addrOf(a net.Addr) netip.Addr {
	var ip net.IP
	switch v := a.(type) {
	case *net.IPAddr:
		ip = v.IP
	case *net.UDPAddr:
		ip = v.IP
	default:
		return netip.Addr{}
	}
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return netip.Addr{}
	}
	return addr.Unmap()
}

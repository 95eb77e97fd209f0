package pinger

import (
	"net/netip"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// ProtocolVersion selects the IP family a probe travels over. Everything that
// differs between ICMP and ICMPv6 hangs off it.
type ProtocolVersion int

const (
	ProtocolIpv4 ProtocolVersion = iota
	ProtocolIpv6
)

var (
	ipv4Proto = map[string]string{"icmp": "ip4:icmp", "udp": "udp4"}
	ipv6Proto = map[string]string{"icmp": "ip6:ipv6-icmp", "udp": "udp6"}
)

// VersionOf returns the family of addr.
func VersionOf(addr netip.Addr) ProtocolVersion {
	if addr.Unmap().Is4() {
		return ProtocolIpv4
	}
	return ProtocolIpv6
}

func (v ProtocolVersion) String() string {
	if v == ProtocolIpv6 {
		return "ipv6"
	}
	return "ipv4"
}

// Network returns the icmp.ListenPacket network for protocol "icmp" or "udp".
func (v ProtocolVersion) Network(protocol string) string {
	if v == ProtocolIpv6 {
		return ipv6Proto[protocol]
	}
	return ipv4Proto[protocol]
}

// ProtoNumber is the IANA protocol number used by icmp.ParseMessage.
func (v ProtocolVersion) ProtoNumber() int {
	if v == ProtocolIpv6 {
		return 58
	}
	return 1
}

// HeaderLen is the fixed IP header length in front of an ICMP message.
func (v ProtocolVersion) HeaderLen() int {
	if v == ProtocolIpv6 {
		return ipv6.HeaderLen
	}
	return ipv4.HeaderLen
}

func (v ProtocolVersion) EchoRequest() icmp.Type {
	if v == ProtocolIpv6 {
		return ipv6.ICMPTypeEchoRequest
	}
	return ipv4.ICMPTypeEcho
}

func (v ProtocolVersion) EchoReply() icmp.Type {
	if v == ProtocolIpv6 {
		return ipv6.ICMPTypeEchoReply
	}
	return ipv4.ICMPTypeEchoReply
}

func (v ProtocolVersion) typeByte(t icmp.Type) byte {
	if v == ProtocolIpv6 {
		return byte(t.(ipv6.ICMPType))
	}
	return byte(t.(ipv4.ICMPType))
}

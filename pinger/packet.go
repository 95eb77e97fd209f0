package pinger

import (
	"encoding/binary"
	"net/netip"

	"golang.org/x/net/icmp"
)

const (
	// HeaderLen is the size of the ICMP echo header: type, code, checksum,
	// identifier and sequence number.
	HeaderLen = 8

	// Identifier is written into every echo request unless the Pinger is
	// given another one.
	Identifier uint16 = 1
)

// Build returns an ICMPv4 Echo Request carrying size payload bytes and the
// sequence number seq. Output depends only on the two arguments.
func Build(size int, seq uint16) []byte {
	return BuildEcho(ProtocolIpv4, Identifier, seq, size)
}

// BuildEcho lays out an echo request for version v:
//
//	type | code | checksum(2) | identifier(2) | sequence(2) | payload
//
// The payload byte at index i is i mod 256. For ICMPv6 the checksum is left
// for the kernel, which must include the pseudo header.
func BuildEcho(v ProtocolVersion, id, seq uint16, size int) []byte {
	if size < 0 {
		size = 0
	}
	b := make([]byte, HeaderLen+size)
	b[0] = v.typeByte(v.EchoRequest())
	b[1] = 0
	binary.BigEndian.PutUint16(b[4:6], id)
	binary.BigEndian.PutUint16(b[6:8], seq)
	for i := range b[HeaderLen:] {
		b[HeaderLen+i] = byte(i % 256)
	}
	if v == ProtocolIpv4 {
		binary.BigEndian.PutUint16(b[checksumOffset:], Checksum(b))
	}
	return b
}

// Packet is a datagram as read from the socket.
type Packet struct {
	Bytes []byte
	Len   int
	TTL   int
	Proto ProtocolVersion
	Src   netip.Addr
}

// IcmpStats is what ParsePacket learns from a datagram.
type IcmpStats struct {
	Valid  bool
	ID     uint16
	Seq    uint16
	Nbytes int
}

// message returns the ICMP part of the datagram. Some platforms hand raw
// IPv4 reads over with the IP header still attached.
func (p *Packet) message() []byte {
	b := p.Bytes[:p.Len]
	if p.Proto == ProtocolIpv4 && len(b) >= ProtocolIpv4.HeaderLen() && b[0]>>4 == 4 {
		ihl := int(b[0]&0x0f) * 4
		if ihl >= ProtocolIpv4.HeaderLen() && len(b) >= ihl {
			return b[ihl:]
		}
	}
	return b
}

// parseEcho decodes an echo reply of the packet's family. For anything else
// echo is nil and why says what was wrong with it.
func (p *Packet) parseEcho() (echo *icmp.Echo, why string) {
	b := p.message()
	if len(b) < HeaderLen {
		return nil, "short datagram"
	}
	m, err := icmp.ParseMessage(p.Proto.ProtoNumber(), b)
	if err != nil {
		return nil, "unparsable: " + err.Error()
	}
	if m.Type != p.Proto.EchoReply() {
		return nil, "type " + typeName(m.Type)
	}
	echo, ok := m.Body.(*icmp.Echo)
	if !ok {
		return nil, "not an echo body"
	}
	// ICMPv6 checksums cover a pseudo header and are verified by the kernel.
	if p.Proto == ProtocolIpv4 && InternetChecksum(b) != 0 {
		return nil, "bad checksum"
	}
	return echo, ""
}

func typeName(t icmp.Type) string {
	if s, ok := t.(interface{ String() string }); ok {
		return s.String()
	}
	return "unknown"
}

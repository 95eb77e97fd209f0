package pinger

// checksumOffset is where the ICMP checksum field lives in the header.
const checksumOffset = 2

// Checksum computes the ICMP checksum of msg. The two bytes at the checksum
// field are read as zero, so the result can be computed on a buffer that
// already carries a stale checksum.
func Checksum(msg []byte) uint16 {
	return fold(sum(msg, true))
}

// InternetChecksum computes the plain RFC 1071 checksum over every byte of
// b. A message carrying a correct checksum yields zero.
func InternetChecksum(b []byte) uint16 {
	return fold(sum(b, false))
}

func sum(b []byte, skipField bool) uint32 {
	var s uint32
	n := len(b)
	for i := 0; i+1 < n; i += 2 {
		if skipField && i == checksumOffset {
			continue
		}
		s += uint32(b[i])<<8 | uint32(b[i+1])
	}
	// odd tail is the high byte of a zero padded word
	if n%2 == 1 && !(skipField && n-1 == checksumOffset) {
		s += uint32(b[n-1]) << 8
	}
	return s
}

func fold(s uint32) uint16 {
	for s>>16 != 0 {
		s = (s & 0xffff) + (s >> 16)
	}
	return ^uint16(s)
}

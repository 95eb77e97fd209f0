//go:build unix

package pinger

import "golang.org/x/sys/unix"

// privilegeHint explains the usual cause of a socket failure when the
// process is not running as root.
func privilegeHint() string {
	if unix.Geteuid() != 0 {
		return "raw ICMP sockets need root or CAP_NET_RAW; try --privileged=false"
	}
	return ""
}

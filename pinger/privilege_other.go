//go:build !unix

package pinger

func privilegeHint() string { return "" }

package services

import "net/netip"

// ValidIPv4 accepts dotted-quad IPv4 literals only; IPv4-mapped IPv6 and
// zero-padded octets are rejected.
func ValidIPv4(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	return err == nil && addr.Is4()
}

// Package privacy provides helpers for handling personally identifying data
// before it enters the audit chain.
package privacy

import (
	"fmt"
	"net"
)

// AnonymizeIP truncates an IP address to remove the host-identifying portion.
// Audit events record the anonymized form so an access record never pins a
// specific individual to a chain entry.
//
// IPv4 addresses have the last octet zeroed ("192.168.1.47" -> "192.168.1.0"),
// masking to a /24 network. IPv6 addresses keep only the /48 prefix.
//
// Returns "invalid" for unparseable addresses and "unknown" for empty strings.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	// IPv4, including IPv4-mapped IPv6.
	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	// IPv6: keep the first 6 bytes (/48 prefix), zero the rest.
	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}

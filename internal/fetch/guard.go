package fetch

import (
	"net/netip"
	"slices"
	"strings"
)

// blockedRanges lists address ranges that never belong to a public web host.
var blockedRanges = []string{
	"0.0.0.0/8",          // this network
	"10.0.0.0/8",         // RFC 1918
	"100.64.0.0/10",      // carrier-grade NAT
	"127.0.0.0/8",        // loopback
	"169.254.0.0/16",     // link-local, cloud metadata
	"172.16.0.0/12",      // RFC 1918
	"192.0.0.0/24",       // IETF protocol assignments
	"192.0.2.0/24",       // documentation
	"192.88.99.0/24",     // 6to4 relay anycast
	"192.168.0.0/16",     // RFC 1918
	"198.18.0.0/15",      // benchmarking
	"198.51.100.0/24",    // documentation
	"203.0.113.0/24",     // documentation
	"224.0.0.0/4",        // multicast
	"240.0.0.0/4",        // reserved
	"255.255.255.255/32", // broadcast
	"::1/128",            // loopback
	"::/128",             // unspecified
	"::ffff:0:0/96",      // IPv4-mapped
	"64:ff9b::/96",       // NAT64
	"2001:db8::/32",      // documentation
	"fe80::/10",          // link-local
	"fc00::/7",           // unique local
	"ff00::/8",           // multicast
}

var blockedHosts = []string{
	"localhost",
	"localhost.localdomain",
	"ip6-localhost",
	"ip6-loopback",
	"broadcasthost",
	"metadata.google.internal",
	"metadata",
}

// Guard decides which destinations a Fetcher may contact.
// The zero value allows everything and is only meant for tests.
type Guard struct {
	Networks []netip.Prefix
	Hosts    []string
}

// DefaultGuard blocks loopback, private, link-local and reserved ranges
// along with well-known local and metadata host names.
func DefaultGuard() Guard {
	nets := make([]netip.Prefix, 0, len(blockedRanges))
	for _, cidr := range blockedRanges {
		nets = append(nets, netip.MustParsePrefix(cidr))
	}
	return Guard{Networks: nets, Hosts: slices.Clone(blockedHosts)}
}

// AllowAddr reports whether addr is outside every blocked network.
// IPv4-mapped IPv6 addresses are checked in both forms.
func (g Guard) AllowAddr(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.WithZone("")
	candidates := []netip.Addr{addr}
	if addr.Is4In6() {
		candidates = append(candidates, addr.Unmap())
	}
	for _, a := range candidates {
		for _, p := range g.Networks {
			if p.Contains(a) {
				return false
			}
		}
	}
	return true
}

// AllowHost reports whether host is not a blocked name. host must already
// be lowercase without a trailing dot.
func (g Guard) AllowHost(host string) bool {
	for _, h := range g.Hosts {
		if strings.EqualFold(h, host) {
			return false
		}
	}
	return true
}

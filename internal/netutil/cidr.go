// Package netutil expands a CIDR range (or single IP) and a port list into
// the set of base URLs dirscan treats as independent targets, one full
// recursive wordlist scan each.
package netutil

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

// MaxCIDRHosts bounds how many hosts a single --cidr expansion may produce.
// Unlike a port scanner's single SYN per host, dirscan runs a full
// recursive wordlist scan per host, so an unbounded /16 would silently
// multiply a run into tens of thousands of scans; reject it up front
// instead of grinding through it.
const MaxCIDRHosts = 1024

// ExpandTargets takes a CIDR range (or a bare IP) and a comma-separated
// port list, and returns the base URLs (scheme://host[:port]) dirscan
// should scan, one per host/port combination. It returns
// scanmodel.ErrMalformedInput if a port is out of range or the expansion
// would exceed MaxCIDRHosts.
func ExpandTargets(cidr string, portsStr string, scheme string) ([]string, error) {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		// Maybe it's a single IP, not a CIDR.
		ip = net.ParseIP(cidr)
		if ip == nil {
			return nil, fmt.Errorf("%w: invalid CIDR or IP %q", scanmodel.ErrMalformedInput, cidr)
		}
		mask := net.CIDRMask(32, 32)
		if ip.To4() == nil {
			mask = net.CIDRMask(128, 128)
		}
		ipnet = &net.IPNet{IP: ip, Mask: mask}
	}

	ports, err := parsePorts(portsStr)
	if err != nil {
		return nil, err
	}
	if len(ports) == 0 {
		if scheme == "https" {
			ports = []string{"443"}
		} else {
			ports = []string{"80"}
		}
	}

	if hosts := hostCount(ipnet); hosts > MaxCIDRHosts {
		return nil, fmt.Errorf("%w: %s expands to %d hosts, exceeding the %d-host limit for a full wordlist scan per host",
			scanmodel.ErrMalformedInput, cidr, hosts, MaxCIDRHosts)
	}

	var urls []string
	for ip := ip.Mask(ipnet.Mask); ipnet.Contains(ip); inc(ip) {
		// Skip network and broadcast addresses for /24 and larger.
		ones, bits := ipnet.Mask.Size()
		if bits-ones > 1 {
			if ip.Equal(ipnet.IP) {
				continue // network address
			}
			bcast := broadcastAddr(ipnet)
			if ip.Equal(bcast) {
				continue // broadcast address
			}
		}

		for _, port := range ports {
			host := ip.String()
			// Skip default port in URL for cleanliness.
			if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
				urls = append(urls, fmt.Sprintf("%s://%s", scheme, host))
			} else {
				urls = append(urls, fmt.Sprintf("%s://%s:%s", scheme, host, port))
			}
		}
	}

	return urls, nil
}

func parsePorts(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var ports []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return nil, fmt.Errorf("%w: invalid port %q", scanmodel.ErrMalformedInput, p)
		}
		ports = append(ports, p)
	}
	return ports, nil
}

// hostCount returns the number of addresses in n, capped well above
// MaxCIDRHosts so a /0 doesn't overflow the count itself.
func hostCount(n *net.IPNet) int64 {
	ones, bits := n.Mask.Size()
	shift := bits - ones
	if shift > 32 {
		shift = 32 // more than enough to blow past MaxCIDRHosts
	}
	return int64(1) << uint(shift)
}

func inc(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}

func broadcastAddr(n *net.IPNet) net.IP {
	ip := make(net.IP, len(n.IP))
	for i := range ip {
		ip[i] = n.IP[i] | ^n.Mask[i]
	}
	return ip
}

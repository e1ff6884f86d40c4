package collector

import (
	"context"
	"log"
	"net"
	"time"
)

// Prober reports whether the market-data provider is reachable. The fetch
// pipeline consults it before issuing any per-symbol request so a single
// resolver or network outage fails fast instead of timing out once per
// symbol.
type Prober interface {
	Reachable() bool
}

// DefaultProbeHosts are the Yahoo Finance endpoints checked before a fetch.
var DefaultProbeHosts = []string{
	"fc.yahoo.com",
	"query1.finance.yahoo.com",
	"query2.finance.yahoo.com",
}

// HostProber verifies DNS resolution and a TCP connection on port 443 for
// each configured host. All hosts must pass.
type HostProber struct {
	Hosts    []string
	Timeout  time.Duration
	Resolver *net.Resolver
}

// NewHostProber creates a prober over the default Yahoo hosts.
func NewHostProber(hosts []string) *HostProber {
	if len(hosts) == 0 {
		hosts = DefaultProbeHosts
	}
	return &HostProber{
		Hosts:    hosts,
		Timeout:  5 * time.Second,
		Resolver: net.DefaultResolver,
	}
}

func (p *HostProber) Reachable() bool {
	for _, host := range p.Hosts {
		if !p.checkHost(host) {
			return false
		}
	}
	return true
}

func (p *HostProber) checkHost(host string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), p.Timeout)
	defer cancel()

	addrs, err := p.Resolver.LookupHost(ctx, host)
	if err != nil || len(addrs) == 0 {
		log.Printf("[WARN] dns resolution failed for %s: %v", host, err)
		return false
	}

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(addrs[0], "443"), p.Timeout)
	if err != nil {
		log.Printf("[WARN] connection failed for %s (%s): %v", host, addrs[0], err)
		return false
	}
	conn.Close()
	return true
}

// StaticProber is a fixed-answer probe for tests and offline use.
type StaticProber bool

func (s StaticProber) Reachable() bool { return bool(s) }

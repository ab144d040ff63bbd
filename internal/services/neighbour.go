package services

import (
	"bytes"
	"fmt"
	"net"
	"time"

	"hotspotgate/internal/logging"
	"hotspotgate/internal/metrics"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/strategy"
	"github.com/j-keck/arping"
	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
)

// NeighbourSource lists the kernel's IPv4 neighbour (ARP) table.
type NeighbourSource interface {
	Neighbours() ([]netlink.Neigh, error)
}

// ARPProber sends an ARP request and waits for the reply.
type ARPProber interface {
	Probe(ip net.IP) (net.HardwareAddr, error)
}

type netlinkNeighbours struct{}

func (netlinkNeighbours) Neighbours() ([]netlink.Neigh, error) {
	neighs, err := netlink.NeighList(0, netlink.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("failed to list neighbours: %w", err)
	}
	return neighs, nil
}

type arpingProber struct{}

func (arpingProber) Probe(ip net.IP) (net.HardwareAddr, error) {
	hw, _, err := arping.Ping(ip)
	if err != nil {
		return nil, fmt.Errorf("arp request failed: %w", err)
	}
	return hw, nil
}

// NeighbourResolver maps client IPs to hardware addresses. It never fails:
// callers pass the value to use when the address cannot be found.
type NeighbourResolver struct {
	neighbours  NeighbourSource
	prober      ARPProber
	warmupDelay time.Duration
	log         logrus.FieldLogger
	metrics     *metrics.Metrics
}

// SetARPTimeout bounds every ARP request. arping keeps the timeout in
// package state, so it is set once at start-up.
func SetARPTimeout(d time.Duration) {
	arping.SetTimeout(d)
}

// NewNeighbourResolver reads the kernel neighbour table and, with probe set,
// falls back to one ARP request bounded by SetARPTimeout.
func NewNeighbourResolver(probe bool, warmupDelay time.Duration, log logrus.FieldLogger, m *metrics.Metrics) *NeighbourResolver {
	var prober ARPProber
	if probe {
		prober = arpingProber{}
	}
	return newNeighbourResolver(netlinkNeighbours{}, prober, warmupDelay, log, m)
}

func newNeighbourResolver(src NeighbourSource, prober ARPProber, warmupDelay time.Duration, log logrus.FieldLogger, m *metrics.Metrics) *NeighbourResolver {
	return &NeighbourResolver{
		neighbours:  src,
		prober:      prober,
		warmupDelay: warmupDelay,
		log:         logging.Component(log, "resolver"),
		metrics:     m,
	}
}

// WarmUp checks that the neighbour table can be read, retrying once after
// the warm-up delay. Lookups after this point are never retried.
func (r *NeighbourResolver) WarmUp() error {
	return retry.Retry(func(attempt uint) error {
		_, err := r.neighbours.Neighbours()
		if err != nil && attempt == 0 {
			r.log.WithError(err).Warnf("neighbour table unavailable, retrying in %s", r.warmupDelay)
		}
		return err
	}, strategy.Limit(2), strategy.Wait(r.warmupDelay))
}

// Lookup returns the hardware address last seen for ip.
func (r *NeighbourResolver) Lookup(ip string) (net.HardwareAddr, bool) {
	if !ValidIPv4(ip) {
		return nil, false
	}
	addr := net.ParseIP(ip)

	neighs, err := r.neighbours.Neighbours()
	if err != nil {
		r.log.WithError(err).Debugf("failed to get HW addr for %s", ip)
	} else if hw := pickNeighbour(neighs, addr); hw != nil {
		return hw, true
	}

	if r.prober == nil {
		return nil, false
	}

	hw, err := r.prober.Probe(addr)
	if err != nil {
		r.log.WithError(err).Debugf("failed to get HW addr for %s", ip)
		return nil, false
	}
	if !usableHardwareAddr(hw) {
		return nil, false
	}
	return hw, true
}

// ResolveHardwareID returns ip's hardware address as a string, or def.
func (r *NeighbourResolver) ResolveHardwareID(ip, def string) string {
	if !ValidIPv4(ip) {
		return def
	}

	hw, found := r.Lookup(ip)
	r.metrics.HWLookup(found)
	if !found {
		return def
	}
	return hw.String()
}

// pickNeighbour prefers a REACHABLE entry and otherwise takes the first
// entry that still carries an address.
func pickNeighbour(neighs []netlink.Neigh, ip net.IP) net.HardwareAddr {
	var fallback net.HardwareAddr

	for _, n := range neighs {
		if !n.IP.Equal(ip) || !usableHardwareAddr(n.HardwareAddr) {
			continue
		}
		if n.State&(netlink.NUD_FAILED|netlink.NUD_INCOMPLETE|netlink.NUD_NOARP) != 0 {
			continue
		}
		if n.State&netlink.NUD_REACHABLE != 0 {
			return n.HardwareAddr
		}
		if fallback == nil {
			fallback = n.HardwareAddr
		}
	}

	return fallback
}

func usableHardwareAddr(hw net.HardwareAddr) bool {
	return len(hw) == 6 && !bytes.Equal(hw, make(net.HardwareAddr, 6))
}

//go:build linux

package services

import (
	"fmt"
	"net/netip"

	"hotspotgate/internal/logging"
	"hotspotgate/internal/metrics"

	"github.com/sirupsen/logrus"
	"github.com/ti-mo/conntrack"
)

const (
	protoTCP       = 6
	tcpEstablished = 3
)

// NetlinkConntrackOracle reads the connection-tracking table over netlink
// instead of spawning the conntrack tool.
type NetlinkConntrackOracle struct {
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

func NewNetlinkConntrackOracle(log logrus.FieldLogger, m *metrics.Metrics) *NetlinkConntrackOracle {
	return &NetlinkConntrackOracle{
		log:     logging.Component(log, "conntrack"),
		metrics: m,
	}
}

func (o *NetlinkConntrackOracle) Probe(ip string) (Liveness, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		return Inactive, nil
	}

	conn, err := conntrack.Dial(nil)
	if err != nil {
		return Inactive, fmt.Errorf("conntrack dial failed: %w", err)
	}
	defer conn.Close()

	flows, err := conn.Dump(nil)
	if err != nil {
		return Inactive, fmt.Errorf("conntrack dump failed: %w", err)
	}

	for _, f := range flows {
		if f.TupleOrig.Proto.Protocol != protoTCP || f.TupleOrig.IP.SourceAddress != addr {
			continue
		}
		if f.ProtoInfo.TCP != nil && f.ProtoInfo.TCP.State == tcpEstablished {
			return Active, nil
		}
	}
	return Inactive, nil
}

func (o *NetlinkConntrackOracle) IsActive(ip string) bool {
	return reportLiveness(o.Probe, ip, o.log, o.metrics)
}

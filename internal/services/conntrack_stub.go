//go:build !linux

package services

import (
	"errors"

	"hotspotgate/internal/logging"
	"hotspotgate/internal/metrics"

	"github.com/sirupsen/logrus"
)

// NetlinkConntrackOracle is unavailable off Linux and reports every client
// inactive.
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
	return Inactive, errors.New("conntrack not supported on this platform")
}

func (o *NetlinkConntrackOracle) IsActive(ip string) bool {
	return reportLiveness(o.Probe, ip, o.log, o.metrics)
}

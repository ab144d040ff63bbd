package services

import (
	"errors"
	"fmt"
	"strings"

	"hotspotgate/internal/logging"
	"hotspotgate/internal/metrics"

	"github.com/sirupsen/logrus"
)

// Liveness is the outcome of a connection-tracking query.
type Liveness int

const (
	Inactive Liveness = iota
	Active
)

func (l Liveness) String() string {
	if l == Active {
		return "active"
	}
	return "inactive"
}

// LivenessProber is a LivenessOracle that also exposes why a check came out
// inactive. Probe only returns an error when the lookup could not be made at
// all; "no established connection" is Inactive with a nil error.
type LivenessProber interface {
	LivenessOracle
	Probe(ip string) (Liveness, error)
}

var ErrUnknownConntrackBackend = errors.New("unknown conntrack backend")

// NewLivenessOracle picks the connection-tracking implementation: "exec" runs
// the conntrack tool, "netlink" talks to the kernel directly.
func NewLivenessOracle(backend string, runner CommandRunner, log logrus.FieldLogger, m *metrics.Metrics) (LivenessProber, error) {
	switch backend {
	case "", "exec":
		return NewConntrackOracle(runner, log, m), nil
	case "netlink":
		return NewNetlinkConntrackOracle(log, m), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownConntrackBackend, backend)
	}
}

// ConntrackOracle checks liveness with the conntrack CLI. It fails closed:
// a missing binary, a non-zero exit or empty output all mean inactive.
type ConntrackOracle struct {
	runner  CommandRunner
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

func NewConntrackOracle(runner CommandRunner, log logrus.FieldLogger, m *metrics.Metrics) *ConntrackOracle {
	if runner == nil {
		runner = NewExecRunner()
	}
	return &ConntrackOracle{
		runner:  runner,
		log:     logging.Component(log, "conntrack"),
		metrics: m,
	}
}

func (o *ConntrackOracle) Probe(ip string) (Liveness, error) {
	if !ValidIPv4(ip) {
		return Inactive, nil
	}

	out := o.runner.Run("conntrack",
		"--dump",
		"--src", ip,
		"--proto", "tcp",
		"--state", "ESTABLISHED",
	)
	if !out.Launched() {
		return Inactive, fmt.Errorf("failed to run conntrack: %w", out.Err)
	}

	if out.ExitCode == 0 && strings.TrimSpace(out.Stdout) != "" {
		return Active, nil
	}
	return Inactive, nil
}

func (o *ConntrackOracle) IsActive(ip string) bool {
	return reportLiveness(o.Probe, ip, o.log, o.metrics)
}

func reportLiveness(probe func(string) (Liveness, error), ip string, log logrus.FieldLogger, m *metrics.Metrics) bool {
	if !ValidIPv4(ip) {
		return false
	}

	liveness, err := probe(ip)
	if err != nil {
		log.WithError(err).Debugf("liveness check for %s failed", ip)
	}

	active := liveness == Active
	m.LivenessCheck(active)
	return active
}

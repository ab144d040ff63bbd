package filter

import (
	"fmt"

	"hotspotgate/internal/config"
	"hotspotgate/internal/logging"
	"hotspotgate/internal/metrics"
	"hotspotgate/internal/models"
	"hotspotgate/internal/services"

	"github.com/sirupsen/logrus"
)

type topologyInstaller interface {
	EnsureTopology() (bool, []models.RuleCommandResult)
}

type passlist interface {
	PasslistManager
	Grant(ip string) bool
}

type hardwareResolver interface {
	WarmUp() error
	ResolveHardwareID(ip, def string) string
}

// Netfilter gates clients with nftables rules in the nat table.
type Netfilter struct {
	installer topologyInstaller
	passlist  passlist
	resolver  hardwareResolver
	oracle    services.LivenessOracle
	log       logrus.FieldLogger
}

func NewNetfilter(cfg *config.Config, log logrus.FieldLogger, m *metrics.Metrics) (*Netfilter, error) {
	if err := cfg.Gate.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gate configuration: %w", err)
	}

	runner := services.NewExecRunner()
	executor := services.NewNftExecutor(runner, log, m)

	oracle, err := services.NewLivenessOracle(cfg.ConntrackBackend, runner, log, m)
	if err != nil {
		return nil, err
	}

	return &Netfilter{
		installer: services.NewTopologyInstaller(cfg.Gate, executor, log),
		passlist:  services.NewPasslistController(executor, oracle, log, m),
		resolver:  services.NewNeighbourResolver(cfg.ARPProbe, cfg.WarmupDelay, log, m),
		oracle:    oracle,
		log:       logging.Component(log, "netfilter"),
	}, nil
}

// WarmUp checks the neighbour lookup, retrying once. Lookups made after a
// failed warm-up fall back to the default identifier.
func (n *Netfilter) WarmUp() {
	if err := n.resolver.WarmUp(); err != nil {
		n.log.WithError(err).Warn("neighbour table unavailable, hardware lookups will fall back to the default")
	}
}

// InitialSetup installs the capture topology unless it is already there.
func (n *Netfilter) InitialSetup() bool {
	ok, results := n.installer.EnsureTopology()
	for _, r := range results {
		if !r.Succeeded() {
			n.log.WithField("status", r.Status).Errorf("setup statement failed: %s", r.Command)
		}
	}
	return ok
}

func (n *Netfilter) AckClientRegistration(ip string) bool {
	return n.passlist.Grant(ip)
}

func (n *Netfilter) GetIdentifierFor(ip string) string {
	return n.resolver.ResolveHardwareID(ip, config.DefaultHardwareID)
}

func (n *Netfilter) IsClientActive(ip string) bool {
	return n.oracle.IsActive(ip)
}

func (n *Netfilter) Entries() ([]models.PasslistEntry, error) {
	return n.passlist.Entries()
}

func (n *Netfilter) Lookup(ip string) string {
	return n.passlist.Lookup(ip)
}

func (n *Netfilter) Revoke(ip string) bool {
	return n.passlist.Revoke(ip)
}

func (n *Netfilter) Prune(activeOnly bool) bool {
	return n.passlist.Prune(activeOnly)
}

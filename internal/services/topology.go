package services

import (
	"strconv"

	"hotspotgate/internal/config"
	"hotspotgate/internal/logging"
	"hotspotgate/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	commentCaptureHTTP  = "Captured HTTP traffic to " + config.ChainHTTP
	commentCaptureHTTPS = "Captured HTTPS traffic to " + config.ChainHTTPS
	commentToPasslist   = "Jump to " + config.ChainPasslist + " to try to escape filtering"
	commentEscapeHTTP   = "return derived addr to calling chain (captive_http)"
	commentEscapeHTTPS  = "return derived addr to calling chain (captive_https)"
	commentReturn       = "return non-accepted to calling chain (captive_httpx)"
)

// TopologyInstaller creates the capture table, chains and base rules.
type TopologyInstaller struct {
	cfg      config.GateConfig
	executor RuleExecutor
	log      logrus.FieldLogger
}

func NewTopologyInstaller(cfg config.GateConfig, executor RuleExecutor, log logrus.FieldLogger) *TopologyInstaller {
	return &TopologyInstaller{
		cfg:      cfg,
		executor: executor,
		log:      logging.Component(log, "topology"),
	}
}

// EnsureTopology installs the capture topology unless the passlist chain is
// already present, in which case nothing is changed.
func (t *TopologyInstaller) EnsureTopology() (bool, []models.RuleCommandResult) {
	if t.executor.Execute(ListChain(config.ChainPasslist)).Succeeded() {
		t.log.Debug("passlist chain present, skipping setup")
		return true, nil
	}

	commands := TopologyCommands(t.cfg)
	t.log.Infof("installing capture topology (%d statements)", len(commands))

	ok, results := t.executor.ExecuteBulk(commands)
	if !ok {
		t.log.Error("capture topology partially applied")
	}
	return ok, results
}

// TopologyCommands returns the statements creating the capture topology.
// The two escape rules are the first rules of the passlist chain.
func TopologyCommands(cfg config.GateConfig) []string {
	var cmds []string

	cmds = append(cmds, AddTable())
	for _, chain := range []string{config.ChainIngress, config.ChainHTTP, config.ChainHTTPS, config.ChainPasslist} {
		cmds = append(cmds, AddChain(chain))
	}

	if len(cfg.CapturedNetworks) == 0 {
		cmds = append(cmds,
			AddRule(config.ChainIngress, MatchDaddrNot(cfg.PortalIP), MatchTCPDport(80), Counter(), Jump(config.ChainHTTP), Comment(commentCaptureHTTP)),
			AddRule(config.ChainIngress, MatchDaddrNot(cfg.PortalIP), MatchTCPDport(443), Counter(), Jump(config.ChainHTTPS), Comment(commentCaptureHTTPS)),
		)
	} else {
		for _, network := range cfg.CapturedNetworks {
			cmds = append(cmds,
				AddRule(config.ChainIngress, MatchSaddr(network), MatchTCPDport(80), Counter(), Jump(config.ChainHTTP), Comment(commentCaptureHTTP)),
				AddRule(config.ChainIngress, MatchSaddr(network), MatchTCPDport(443), Counter(), Jump(config.ChainHTTPS), Comment(commentCaptureHTTPS)),
			)
		}
	}

	for _, chain := range []string{config.ChainHTTP, config.ChainHTTPS} {
		cmds = append(cmds, AddRule(chain, MatchTCP(), Counter(), Jump(config.ChainPasslist), Comment(commentToPasslist)))
	}

	for _, target := range []struct {
		chain string
		port  int
	}{
		{config.ChainHTTP, cfg.HTTPPort},
		{config.ChainHTTPS, cfg.HTTPSPort},
	} {
		cmds = append(cmds, AddRule(target.chain, MatchTCP(), Counter(), DNAT(cfg.PortalIP, target.port),
			Comment(dnatComment(target.port))))
	}

	cmds = append(cmds,
		AddRule(config.ChainPasslist, MatchDaddr(cfg.CapturedAddress), MatchTCPDport(80), Counter(), Return(), Comment(commentEscapeHTTP)),
		AddRule(config.ChainPasslist, MatchDaddr(cfg.CapturedAddress), MatchTCPDport(443), Counter(), Return(), Comment(commentEscapeHTTPS)),
		AddRule(config.ChainPasslist, MatchTCP(), Counter(), Return(), Comment(commentReturn)),
	)

	return cmds
}

func dnatComment(port int) string {
	return "redirect HTTP(s) traffic to hotspot server port " + strconv.Itoa(port)
}

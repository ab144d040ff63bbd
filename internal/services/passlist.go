package services

import (
	"fmt"
	"strconv"
	"strings"

	"hotspotgate/internal/config"
	"hotspotgate/internal/logging"
	"hotspotgate/internal/metrics"
	"hotspotgate/internal/models"

	"github.com/sirupsen/logrus"
)

// PasslistComment tags the accept rules owned by the passlist controller.
const PasslistComment = "allow host"

// passlistIndex is the insert position for client rules: right after the two
// escape rules, always before the terminal return.
const passlistIndex = 2

// LivenessOracle tells whether a client currently has an established
// connection.
type LivenessOracle interface {
	IsActive(ip string) bool
}

// PasslistController manages per-client accept rules in the passlist chain.
// It holds no state; entries are read back from the rule engine every time.
type PasslistController struct {
	executor RuleExecutor
	oracle   LivenessOracle
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
}

func NewPasslistController(executor RuleExecutor, oracle LivenessOracle, log logrus.FieldLogger, m *metrics.Metrics) *PasslistController {
	return &PasslistController{
		executor: executor,
		oracle:   oracle,
		log:      logging.Component(log, "passlist"),
		metrics:  m,
	}
}

// Grant inserts an accept rule for ip. It returns false when ip is invalid,
// already granted, or the insert failed.
//
// The lookup and the insert are two separate engine calls: two concurrent
// grants for the same ip can both succeed and leave two identical rules.
// That is harmless and a full prune removes both.
func (p *PasslistController) Grant(ip string) bool {
	if !ValidIPv4(ip) {
		return false
	}
	if p.Lookup(ip) != "" {
		p.log.Debugf("%s already in passlist", ip)
		return false
	}

	result := p.executor.Execute(InsertRule(config.ChainPasslist, passlistIndex,
		MatchSaddr(ip), Counter(), Accept(), Comment(PasslistComment)))

	ok := result.Succeeded()
	p.metrics.Grant(ok)
	if ok {
		p.log.Infof("granted %s", ip)
	}
	return ok
}

// Lookup returns the handle of ip's accept rule, or "" if there is none.
func (p *PasslistController) Lookup(ip string) string {
	if !ValidIPv4(ip) {
		return ""
	}

	result := p.executor.Execute(ListChain(config.ChainPasslist))
	if !result.Succeeded() {
		return ""
	}

	for _, entry := range passlistEntries(result.Ruleset) {
		if entry.IP == ip {
			return entry.Handle
		}
	}
	return ""
}

// Revoke deletes ip's accept rule.
func (p *PasslistController) Revoke(ip string) bool {
	if !ValidIPv4(ip) {
		return false
	}

	handle := p.Lookup(ip)
	if handle == "" {
		return false
	}

	ok := p.executor.Execute(DeleteRule(config.ChainPasslist, handle)).Succeeded()
	p.metrics.Revoke(ok)
	if ok {
		p.log.Infof("revoked %s (handle %s)", ip, handle)
	}
	return ok
}

// Entries lists the accept rules currently installed.
func (p *PasslistController) Entries() ([]models.PasslistEntry, error) {
	result := p.executor.Execute(ListChain(config.ChainPasslist))
	if !result.Succeeded() {
		return nil, fmt.Errorf("failed to list passlist: %s", strings.TrimSpace(result.Error))
	}
	return passlistEntries(result.Ruleset), nil
}

// Prune deletes passlist entries in one batch. With activeOnly set, entries
// whose client still has an established connection are kept. It reports
// whether the passlist could be read; deletion failures are only logged.
func (p *PasslistController) Prune(activeOnly bool) bool {
	result := p.executor.Execute(ListChain(config.ChainPasslist))
	if !result.Succeeded() {
		return false
	}

	var commands []string
	for _, entry := range passlistEntries(result.Ruleset) {
		if activeOnly && p.oracle != nil && p.oracle.IsActive(entry.IP) {
			continue
		}
		commands = append(commands, DeleteRule(config.ChainPasslist, entry.Handle))
	}

	if len(commands) == 0 {
		return true
	}

	ok, results := p.executor.ExecuteBulk(commands)
	removed := 0
	for _, r := range results {
		if r.Succeeded() {
			removed++
		}
	}
	p.metrics.Pruned(removed)

	if ok {
		p.log.Infof("pruned %d passlist entries", removed)
	} else {
		p.log.Warnf("pruned %d of %d passlist entries", removed, len(commands))
	}
	return true
}

// passlistEntries extracts the tagged accept rules whose first statement is
// an "ip saddr == <addr>" match.
func passlistEntries(ruleset *models.Ruleset) []models.PasslistEntry {
	var entries []models.PasslistEntry

	for _, rule := range ruleset.Rules() {
		if rule.Comment != PasslistComment || len(rule.Expr) == 0 {
			continue
		}
		match := rule.Expr[0].Match
		if match == nil || match.Op != "==" || match.Left.Payload == nil {
			continue
		}
		if match.Left.Payload.Protocol != "ip" || match.Left.Payload.Field != "saddr" {
			continue
		}
		ip, ok := match.Value()
		if !ok || ip == "" {
			continue
		}

		entries = append(entries, models.PasslistEntry{
			IP:      ip,
			Handle:  strconv.Itoa(rule.Handle),
			Comment: rule.Comment,
		})
	}

	return entries
}

package services

import (
	"strings"
	"sync"
	"testing"

	"hotspotgate/internal/config"
	"hotspotgate/internal/metrics"
	"hotspotgate/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func installedEngine(t *testing.T) *fakeEngine {
	t.Helper()
	engine := newFakeEngine()
	ok, _ := NewTopologyInstaller(testGateConfig(), engine, nil).EnsureTopology()
	require.True(t, ok)
	engine.reset()
	return engine
}

func passlistIPs(t *testing.T, p *PasslistController) []string {
	t.Helper()
	entries, err := p.Entries()
	require.NoError(t, err)
	var ips []string
	for _, e := range entries {
		ips = append(ips, e.IP)
	}
	return ips
}

func TestPasslistInvalidAddressIssuesNoCommand(t *testing.T) {
	engine := installedEngine(t)
	p := NewPasslistController(engine, fakeOracle{}, nil, nil)

	for _, ip := range []string{"", "10.0.0", "10.0.0.256", "::1", "host.example", "10.0.0.1; flush ruleset"} {
		assert.False(t, p.Grant(ip), ip)
		assert.False(t, p.Revoke(ip), ip)
		assert.Empty(t, p.Lookup(ip), ip)
	}
	assert.Empty(t, engine.issued())
}

func TestPasslistGrantLookupRevoke(t *testing.T) {
	engine := installedEngine(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	p := NewPasslistController(engine, fakeOracle{}, nil, m)

	require.True(t, p.Grant("10.0.0.5"))
	handle := p.Lookup("10.0.0.5")
	assert.NotEmpty(t, handle)

	require.True(t, p.Revoke("10.0.0.5"))
	assert.Empty(t, p.Lookup("10.0.0.5"))
	assert.False(t, p.Revoke("10.0.0.5"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Grants.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Revokes.WithLabelValues("success")))
}

func TestPasslistGrantTwiceIsRejected(t *testing.T) {
	engine := installedEngine(t)
	p := NewPasslistController(engine, fakeOracle{}, nil, nil)

	require.True(t, p.Grant("10.0.0.5"))
	engine.reset()

	assert.False(t, p.Grant("10.0.0.5"))
	assert.Empty(t, engine.mutating())
	assert.Equal(t, []string{"10.0.0.5"}, passlistIPs(t, p))
}

func TestPasslistKeepsChainOrdering(t *testing.T) {
	engine := installedEngine(t)
	p := NewPasslistController(engine, fakeOracle{}, nil, nil)

	for _, ip := range []string{"10.0.0.5", "10.0.0.6", "10.0.0.7"} {
		require.True(t, p.Grant(ip))
	}
	require.True(t, p.Revoke("10.0.0.6"))

	bodies := engine.bodies(config.ChainPasslist)
	require.Len(t, bodies, 5)
	assert.Contains(t, bodies[0], "tcp dport 80 counter return")
	assert.Contains(t, bodies[1], "tcp dport 443 counter return")
	assert.True(t, strings.HasPrefix(bodies[2], "ip saddr "))
	assert.True(t, strings.HasPrefix(bodies[3], "ip saddr "))
	assert.Contains(t, bodies[4], "ip protocol tcp counter return")
}

func TestPasslistGrantWithoutTopologyFails(t *testing.T) {
	p := NewPasslistController(newFakeEngine(), fakeOracle{}, nil, nil)

	assert.False(t, p.Grant("10.0.0.5"))
	_, err := p.Entries()
	assert.Error(t, err)
	assert.False(t, p.Prune(false))
}

func TestPasslistPruneAll(t *testing.T) {
	engine := installedEngine(t)
	oracle := fakeOracle{"10.0.0.5": true}
	p := NewPasslistController(engine, oracle, nil, nil)

	require.True(t, p.Grant("10.0.0.5"))
	require.True(t, p.Grant("10.0.0.6"))

	assert.True(t, p.Prune(false))
	assert.Empty(t, passlistIPs(t, p))
	assert.Len(t, engine.bodies(config.ChainPasslist), 3)
}

func TestPasslistPruneActiveOnly(t *testing.T) {
	engine := installedEngine(t)
	oracle := fakeOracle{"10.0.0.5": true}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	p := NewPasslistController(engine, oracle, nil, m)

	require.True(t, p.Grant("10.0.0.5"))
	require.True(t, p.Grant("10.0.0.6"))
	require.True(t, p.Grant("10.0.0.7"))

	assert.True(t, p.Prune(true))
	assert.Equal(t, []string{"10.0.0.5"}, passlistIPs(t, p))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PrunedRules))
}

func TestPasslistPruneNothingIssuesNoDelete(t *testing.T) {
	engine := installedEngine(t)
	p := NewPasslistController(engine, fakeOracle{}, nil, nil)

	assert.True(t, p.Prune(false))
	assert.Empty(t, engine.mutating())
}

func TestPasslistPruneSurvivesDeleteFailure(t *testing.T) {
	engine := installedEngine(t)
	p := NewPasslistController(engine, fakeOracle{}, nil, nil)
	require.True(t, p.Grant("10.0.0.5"))
	require.True(t, p.Grant("10.0.0.6"))

	handle := p.Lookup("10.0.0.5")
	engine.fail = func(cmd string) bool {
		return cmd == DeleteRule(config.ChainPasslist, handle)
	}

	assert.True(t, p.Prune(false))
	engine.fail = nil
	assert.Equal(t, []string{"10.0.0.5"}, passlistIPs(t, p))
}

func TestPasslistIgnoresUntaggedRules(t *testing.T) {
	engine := installedEngine(t)
	p := NewPasslistController(engine, fakeOracle{}, nil, nil)

	manual := InsertRule(config.ChainPasslist, 2, MatchSaddr("10.0.0.9"), Counter(), Accept(), Comment("operator"))
	require.True(t, engine.Execute(manual).Succeeded())
	require.True(t, p.Grant("10.0.0.5"))

	assert.Empty(t, p.Lookup("10.0.0.9"))
	assert.False(t, p.Revoke("10.0.0.9"))

	assert.True(t, p.Prune(false))
	assert.Empty(t, passlistIPs(t, p))

	var manualLeft bool
	for _, b := range engine.bodies(config.ChainPasslist) {
		if strings.Contains(b, "10.0.0.9") {
			manualLeft = true
		}
	}
	assert.True(t, manualLeft)
}

// listBarrier holds every passlist listing until n of them have been served,
// so that concurrent grants all see the chain before anyone inserts.
type listBarrier struct {
	RuleExecutor
	wg sync.WaitGroup
}

func (b *listBarrier) Execute(command string) models.RuleCommandResult {
	result := b.RuleExecutor.Execute(command)
	if strings.HasPrefix(command, "list ") {
		b.wg.Done()
		b.wg.Wait()
	}
	return result
}

func TestPasslistConcurrentGrantsMayDuplicate(t *testing.T) {
	engine := installedEngine(t)

	barrier := &listBarrier{RuleExecutor: engine}
	barrier.wg.Add(2)
	racy := NewPasslistController(barrier, fakeOracle{}, nil, nil)

	var wg sync.WaitGroup
	granted := make([]bool, 2)
	for i := range granted {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			granted[i] = racy.Grant("10.0.0.5")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []bool{true, true}, granted)

	p := NewPasslistController(engine, fakeOracle{}, nil, nil)
	assert.Equal(t, []string{"10.0.0.5", "10.0.0.5"}, passlistIPs(t, p))

	assert.True(t, p.Prune(false))
	assert.Empty(t, passlistIPs(t, p))
}

func TestPasslistEntriesParsing(t *testing.T) {
	ruleset, err := parseRuleset(listOutput)
	require.NoError(t, err)

	entries := passlistEntries(ruleset)
	require.Len(t, entries, 1)
	assert.Equal(t, models.PasslistEntry{IP: "10.0.0.5", Handle: "21", Comment: PasslistComment}, entries[0])

	assert.Empty(t, passlistEntries(nil))
}

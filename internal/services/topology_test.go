package services

import (
	"strings"
	"testing"

	"hotspotgate/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopologyCommandsWithoutNetworks(t *testing.T) {
	cmds := TopologyCommands(testGateConfig())

	assert.Equal(t, "add table ip nat", cmds[0])
	assert.Contains(t, cmds,
		`add rule ip nat PREROUTING ip daddr != 10.0.0.1 tcp dport 80 counter jump CAPTIVE_HTTP comment "Captured HTTP traffic to CAPTIVE_HTTP"`)
	assert.Contains(t, cmds,
		`add rule ip nat PREROUTING ip daddr != 10.0.0.1 tcp dport 443 counter jump CAPTIVE_HTTPS comment "Captured HTTPS traffic to CAPTIVE_HTTPS"`)
	assert.Contains(t, cmds,
		`add rule ip nat CAPTIVE_HTTP ip protocol tcp counter dnat to 10.0.0.1:2080 comment "redirect HTTP(s) traffic to hotspot server port 2080"`)
	assert.Contains(t, cmds,
		`add rule ip nat CAPTIVE_HTTPS ip protocol tcp counter dnat to 10.0.0.1:2443 comment "redirect HTTP(s) traffic to hotspot server port 2443"`)

	for _, c := range cmds {
		assert.NotContains(t, c, "ip saddr", c)
	}
}

func TestTopologyCommandsPerNetwork(t *testing.T) {
	cfg := testGateConfig()
	cfg.CapturedNetworks = []string{"192.168.2.0/24", "192.168.3.0/24"}

	var ingress []string
	for _, c := range TopologyCommands(cfg) {
		if strings.HasPrefix(c, "add rule ip nat PREROUTING ") {
			ingress = append(ingress, c)
		}
	}

	require.Len(t, ingress, 4)
	assert.Contains(t, ingress[0], "ip saddr 192.168.2.0/24 tcp dport 80")
	assert.Contains(t, ingress[1], "ip saddr 192.168.2.0/24 tcp dport 443")
	assert.Contains(t, ingress[2], "ip saddr 192.168.3.0/24 tcp dport 80")
	assert.Contains(t, ingress[3], "ip saddr 192.168.3.0/24 tcp dport 443")
	for _, c := range ingress {
		assert.NotContains(t, c, "daddr !=")
	}
}

func TestEnsureTopologyInstallsPasslistOrdering(t *testing.T) {
	engine := newFakeEngine()
	installer := NewTopologyInstaller(testGateConfig(), engine, nil)

	ok, results := installer.EnsureTopology()
	require.True(t, ok)
	assert.Len(t, results, len(TopologyCommands(testGateConfig())))

	bodies := engine.bodies(config.ChainPasslist)
	require.Len(t, bodies, 3)
	assert.Contains(t, bodies[0], "ip daddr 198.51.100.1/32 tcp dport 80 counter return")
	assert.Contains(t, bodies[1], "ip daddr 198.51.100.1/32 tcp dport 443 counter return")
	assert.Contains(t, bodies[2], "ip protocol tcp counter return")

	for _, chain := range []string{config.ChainHTTP, config.ChainHTTPS} {
		b := engine.bodies(chain)
		require.Len(t, b, 2, chain)
		assert.Contains(t, b[0], "jump CAPTIVE_PASSLIST")
		assert.Contains(t, b[1], "dnat to 10.0.0.1:")
	}
}

func TestEnsureTopologyIsIdempotent(t *testing.T) {
	engine := newFakeEngine()
	installer := NewTopologyInstaller(testGateConfig(), engine, nil)

	ok, _ := installer.EnsureTopology()
	require.True(t, ok)
	engine.reset()

	ok, results := installer.EnsureTopology()
	assert.True(t, ok)
	assert.Empty(t, results)
	assert.Empty(t, engine.mutating())
	assert.Equal(t, []string{"list chain ip nat CAPTIVE_PASSLIST"}, engine.issued())
}

func TestEnsureTopologyReportsPartialFailure(t *testing.T) {
	engine := newFakeEngine()
	engine.fail = func(cmd string) bool {
		return cmd == "add chain ip nat CAPTIVE_HTTPS"
	}

	ok, results := NewTopologyInstaller(testGateConfig(), engine, nil).EnsureTopology()

	assert.False(t, ok)
	// every statement is still attempted
	assert.Len(t, results, len(TopologyCommands(testGateConfig())))
}

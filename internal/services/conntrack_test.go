package services

import (
	"errors"
	"testing"

	"hotspotgate/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conntrackArgs(ip string) []string {
	return []string{"--dump", "--src", ip, "--proto", "tcp", "--state", "ESTABLISHED"}
}

func TestConntrackOracle(t *testing.T) {
	tests := []struct {
		name   string
		out    CommandOutput
		active bool
	}{
		{"established flow", CommandOutput{Stdout: "tcp 6 431999 ESTABLISHED src=10.0.0.5 dst=1.1.1.1\n"}, true},
		{"no flow", CommandOutput{Stdout: "  \n"}, false},
		{"non-zero exit with output", CommandOutput{ExitCode: 1, Stdout: "tcp 6 ESTABLISHED src=10.0.0.5\n"}, false},
		{"not installed", CommandOutput{ExitCode: -1, Err: errors.New("executable file not found")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(MockCommandRunner)
			runner.On("Run", "conntrack", conntrackArgs("10.0.0.5")).Return(tt.out)

			oracle := NewConntrackOracle(runner, nil, nil)
			assert.Equal(t, tt.active, oracle.IsActive("10.0.0.5"))
			runner.AssertExpectations(t)
		})
	}
}

func TestConntrackOracleProbeReportsLaunchFailure(t *testing.T) {
	runner := new(MockCommandRunner)
	runner.On("Run", "conntrack", conntrackArgs("10.0.0.5")).
		Return(CommandOutput{ExitCode: -1, Err: errors.New("permission denied")})

	liveness, err := NewConntrackOracle(runner, nil, nil).Probe("10.0.0.5")

	assert.Error(t, err)
	assert.Equal(t, Inactive, liveness)
}

func TestConntrackOracleInvalidAddress(t *testing.T) {
	runner := new(MockCommandRunner)
	oracle := NewConntrackOracle(runner, nil, nil)

	assert.False(t, oracle.IsActive("not-an-ip"))
	assert.False(t, oracle.IsActive("10.0.0.5 --any"))
	runner.AssertNotCalled(t, "Run")
}

func TestConntrackOracleMetrics(t *testing.T) {
	runner := new(MockCommandRunner)
	runner.On("Run", "conntrack", conntrackArgs("10.0.0.5")).Return(CommandOutput{Stdout: "flow\n"})
	runner.On("Run", "conntrack", conntrackArgs("10.0.0.6")).Return(CommandOutput{})

	m := metrics.New(prometheus.NewRegistry())
	oracle := NewConntrackOracle(runner, nil, m)
	oracle.IsActive("10.0.0.5")
	oracle.IsActive("10.0.0.6")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Liveness.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Liveness.WithLabelValues("inactive")))
}

func TestNewLivenessOracle(t *testing.T) {
	o, err := NewLivenessOracle("", nil, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &ConntrackOracle{}, o)

	o, err = NewLivenessOracle("netlink", nil, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &NetlinkConntrackOracle{}, o)

	_, err = NewLivenessOracle("ebpf", nil, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownConntrackBackend)
}

func TestLivenessString(t *testing.T) {
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "inactive", Inactive.String())
}

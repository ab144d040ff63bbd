package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"hotspotgate/internal/logging"
	"hotspotgate/internal/metrics"
	"hotspotgate/internal/models"

	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"
)

// RuleExecutor is the only path to the kernel rule engine.
type RuleExecutor interface {
	Execute(command string) models.RuleCommandResult
	// ExecuteBulk runs every command in order without stopping or rolling
	// back. A false result may leave the rule set half-applied.
	ExecuteBulk(commands []string) (bool, []models.RuleCommandResult)
}

// NftExecutor runs statements through the nft CLI with JSON output.
type NftExecutor struct {
	runner  CommandRunner
	binary  string
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

func NewNftExecutor(runner CommandRunner, log logrus.FieldLogger, m *metrics.Metrics) *NftExecutor {
	if runner == nil {
		runner = NewExecRunner()
	}
	return &NftExecutor{
		runner:  runner,
		binary:  "nft",
		log:     logging.Component(log, "nft"),
		metrics: m,
	}
}

func (e *NftExecutor) Execute(command string) models.RuleCommandResult {
	args := []string{"--json", command}
	e.log.Debugf("running %s", shellquote.Join(append([]string{e.binary}, args...)...))

	out := e.runner.Run(e.binary, args...)

	result := models.RuleCommandResult{
		Command: command,
		Status:  out.ExitCode,
		Output:  out.Stdout,
		Error:   out.Stderr,
	}

	if !out.Launched() {
		result.Error = fmt.Sprintf("failed to run %s: %v", e.binary, out.Err)
		if result.Status == 0 {
			result.Status = -1
		}
	}

	if result.Succeeded() && strings.TrimSpace(out.Stdout) != "" {
		ruleset, err := parseRuleset(out.Stdout)
		if err != nil {
			e.log.WithError(err).Warnf("unparsable output for %q", command)
		} else {
			result.Ruleset = ruleset
		}
	}

	if !result.Succeeded() {
		e.log.WithField("status", result.Status).Warnf("%q failed: %s", command, strings.TrimSpace(result.Error))
	}
	e.metrics.RuleCommand(result.Succeeded())

	return result
}

func (e *NftExecutor) ExecuteBulk(commands []string) (bool, []models.RuleCommandResult) {
	ok := true
	results := make([]models.RuleCommandResult, 0, len(commands))

	for _, command := range commands {
		result := e.Execute(command)
		ok = ok && result.Succeeded()
		results = append(results, result)
	}

	return ok, results
}

func parseRuleset(output string) (*models.Ruleset, error) {
	var ruleset models.Ruleset
	if err := json.Unmarshal([]byte(output), &ruleset); err != nil {
		return nil, fmt.Errorf("failed to parse nft JSON: %w", err)
	}
	return &ruleset, nil
}

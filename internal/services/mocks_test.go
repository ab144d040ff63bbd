package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"hotspotgate/internal/config"
	"hotspotgate/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockCommandRunner is a testify mock for CommandRunner.
type MockCommandRunner struct {
	mock.Mock
}

func (m *MockCommandRunner) Run(name string, args ...string) CommandOutput {
	ret := m.Called(name, args)
	return ret.Get(0).(CommandOutput)
}

// fakeEngine is an in-memory rule engine that understands the statements
// built in statements.go. Handles are allocated the way nft does: one
// counter per table, shared by chains and rules.
type fakeEngine struct {
	mu         sync.Mutex
	table      bool
	chains     map[string][]fakeRule
	nextHandle int
	commands   []string
	fail       func(command string) bool
}

type fakeRule struct {
	handle int
	body   string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{chains: map[string][]fakeRule{}, nextHandle: 1}
}

var (
	reInsert  = regexp.MustCompile(`^insert rule ip nat (\S+) index (\d+) (.+)$`)
	reAdd     = regexp.MustCompile(`^add rule ip nat (\S+) (.+)$`)
	reDelete  = regexp.MustCompile(`^delete rule ip nat (\S+) handle (\d+)$`)
	reList    = regexp.MustCompile(`^list chain ip nat (\S+)$`)
	reChain   = regexp.MustCompile(`^add chain ip nat (\S+)$`)
	reComment = regexp.MustCompile(`comment ("(?:[^"\\]|\\.)*")$`)
	reSaddr   = regexp.MustCompile(`^ip saddr (\S+) `)
)

func (f *fakeEngine) Execute(command string) models.RuleCommandResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.commands = append(f.commands, command)
	result := models.RuleCommandResult{Command: command}

	if f.fail != nil && f.fail(command) {
		result.Status = 1
		result.Error = "Error: injected failure"
		return result
	}

	output, err := f.apply(command)
	if err != nil {
		result.Status = 1
		result.Error = "Error: " + err.Error()
		return result
	}

	result.Output = output
	if output != "" {
		ruleset, err := parseRuleset(output)
		if err != nil {
			panic(err)
		}
		result.Ruleset = ruleset
	}
	return result
}

func (f *fakeEngine) ExecuteBulk(commands []string) (bool, []models.RuleCommandResult) {
	ok := true
	var results []models.RuleCommandResult
	for _, c := range commands {
		r := f.Execute(c)
		ok = ok && r.Succeeded()
		results = append(results, r)
	}
	return ok, results
}

func (f *fakeEngine) apply(command string) (string, error) {
	if command == "add table ip nat" {
		f.table = true
		return "", nil
	}

	if m := reChain.FindStringSubmatch(command); m != nil {
		if !f.table {
			return "", fmt.Errorf("no such table")
		}
		if _, ok := f.chains[m[1]]; !ok {
			f.chains[m[1]] = nil
			f.nextHandle++
		}
		return "", nil
	}

	if m := reInsert.FindStringSubmatch(command); m != nil {
		rules, ok := f.chains[m[1]]
		if !ok {
			return "", fmt.Errorf("no such chain %s", m[1])
		}
		index, _ := strconv.Atoi(m[2])
		if index >= len(rules) {
			return "", fmt.Errorf("no rule at index %d", index)
		}
		rule := fakeRule{handle: f.allocHandle(), body: m[3]}
		rules = append(rules[:index], append([]fakeRule{rule}, rules[index:]...)...)
		f.chains[m[1]] = rules
		return "", nil
	}

	if m := reAdd.FindStringSubmatch(command); m != nil {
		if _, ok := f.chains[m[1]]; !ok {
			return "", fmt.Errorf("no such chain %s", m[1])
		}
		f.chains[m[1]] = append(f.chains[m[1]], fakeRule{handle: f.allocHandle(), body: m[2]})
		return "", nil
	}

	if m := reDelete.FindStringSubmatch(command); m != nil {
		rules := f.chains[m[1]]
		handle, _ := strconv.Atoi(m[2])
		for i, r := range rules {
			if r.handle == handle {
				f.chains[m[1]] = append(rules[:i:i], rules[i+1:]...)
				return "", nil
			}
		}
		return "", fmt.Errorf("no rule with handle %d", handle)
	}

	if m := reList.FindStringSubmatch(command); m != nil {
		rules, ok := f.chains[m[1]]
		if !ok {
			return "", fmt.Errorf("No such file or directory")
		}
		return f.render(m[1], rules), nil
	}

	return "", fmt.Errorf("syntax error: %s", command)
}

func (f *fakeEngine) allocHandle() int {
	h := f.nextHandle
	f.nextHandle++
	return h
}

func (f *fakeEngine) render(chain string, rules []fakeRule) string {
	doc := models.Ruleset{}
	doc.Nftables = append(doc.Nftables,
		models.RulesetItem{Metainfo: json.RawMessage(`{"json_schema_version":1}`)},
		models.RulesetItem{Chain: &models.NftChain{Family: "ip", Table: "nat", Name: chain}},
	)

	for _, r := range rules {
		rule := &models.NftRule{Family: "ip", Table: "nat", Chain: chain, Handle: r.handle}
		if m := reComment.FindStringSubmatch(r.body); m != nil {
			rule.Comment, _ = strconv.Unquote(m[1])
		}
		if m := reSaddr.FindStringSubmatch(r.body); m != nil {
			right, _ := json.Marshal(m[1])
			rule.Expr = append(rule.Expr, models.NftExpr{Match: &models.NftMatch{
				Op:    "==",
				Left:  models.NftOperand{Payload: &models.NftPayload{Protocol: "ip", Field: "saddr"}},
				Right: right,
			}})
		}
		rule.Expr = append(rule.Expr, models.NftExpr{})
		doc.Nftables = append(doc.Nftables, models.RulesetItem{Rule: rule})
	}

	out, _ := json.Marshal(doc)
	return string(out)
}

// bodies returns the rule bodies of a chain in order.
func (f *fakeEngine) bodies(chain string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, r := range f.chains[chain] {
		out = append(out, r.body)
	}
	return out
}

func (f *fakeEngine) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = nil
}

func (f *fakeEngine) issued() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// mutating reports the issued statements other than list queries.
func (f *fakeEngine) mutating() []string {
	var out []string
	for _, c := range f.issued() {
		if !strings.HasPrefix(c, "list ") {
			out = append(out, c)
		}
	}
	return out
}

// fakeOracle reports liveness from a fixed set.
type fakeOracle map[string]bool

func (o fakeOracle) IsActive(ip string) bool {
	return o[ip]
}

func testGateConfig() config.GateConfig {
	return config.GateConfig{
		PortalIP:        "10.0.0.1",
		HTTPPort:        2080,
		HTTPSPort:       2443,
		CapturedAddress: "198.51.100.1/32",
	}
}

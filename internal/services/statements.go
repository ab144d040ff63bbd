package services

import (
	"fmt"
	"strconv"
	"strings"

	"hotspotgate/internal/config"
)

// Statement helpers for the gate's nat table. Every statement the gate sends
// to the rule engine is produced here so quoting stays in one place.

func tableRef() string {
	return config.TableFamily + " " + config.TableName
}

// AddTable creates the nat table; the engine accepts it when it already exists.
func AddTable() string {
	return "add table " + tableRef()
}

func AddChain(chain string) string {
	return fmt.Sprintf("add chain %s %s", tableRef(), chain)
}

func AddRule(chain string, body ...string) string {
	return fmt.Sprintf("add rule %s %s %s", tableRef(), chain, joinBody(body))
}

// InsertRule places a rule at position index (0-based) of chain.
func InsertRule(chain string, index int, body ...string) string {
	return fmt.Sprintf("insert rule %s %s index %d %s", tableRef(), chain, index, joinBody(body))
}

func DeleteRule(chain, handle string) string {
	return fmt.Sprintf("delete rule %s %s handle %s", tableRef(), chain, handle)
}

func ListChain(chain string) string {
	return fmt.Sprintf("list chain %s %s", tableRef(), chain)
}

func joinBody(body []string) string {
	parts := make([]string, 0, len(body))
	for _, b := range body {
		if b != "" {
			parts = append(parts, b)
		}
	}
	return strings.Join(parts, " ")
}

// Rule body fragments.

func MatchSaddr(addr string) string {
	return "ip saddr " + addr
}

func MatchDaddr(addr string) string {
	return "ip daddr " + addr
}

func MatchDaddrNot(addr string) string {
	return "ip daddr != " + addr
}

func MatchTCPDport(port int) string {
	return "tcp dport " + strconv.Itoa(port)
}

func MatchTCP() string {
	return "ip protocol tcp"
}

func Counter() string {
	return "counter"
}

func Jump(chain string) string {
	return "jump " + chain
}

func DNAT(addr string, port int) string {
	return fmt.Sprintf("dnat to %s:%d", addr, port)
}

func Accept() string {
	return "accept"
}

func Return() string {
	return "return"
}

// Comment quotes text for the engine's comment clause.
func Comment(text string) string {
	return "comment " + strconv.Quote(text)
}

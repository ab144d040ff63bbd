package models

import "encoding/json"

// RuleCommandResult is the outcome of one rule-engine statement.
type RuleCommandResult struct {
	Command string   `json:"command"`
	Status  int      `json:"status"`
	Output  string   `json:"output,omitempty"`
	Error   string   `json:"error,omitempty"`
	Ruleset *Ruleset `json:"-"`
}

func (r RuleCommandResult) Succeeded() bool {
	return r.Status == 0
}

// Ruleset is the libnftables JSON document. Only the parts the gate reads are
// modelled; everything else is ignored by the decoder.
type Ruleset struct {
	Nftables []RulesetItem `json:"nftables"`
}

// RulesetItem holds exactly one of its fields.
type RulesetItem struct {
	Metainfo json.RawMessage `json:"metainfo,omitempty"`
	Table    *NftTable       `json:"table,omitempty"`
	Chain    *NftChain       `json:"chain,omitempty"`
	Rule     *NftRule        `json:"rule,omitempty"`
}

type NftTable struct {
	Family string `json:"family"`
	Name   string `json:"name"`
	Handle int    `json:"handle"`
}

type NftChain struct {
	Family string `json:"family"`
	Table  string `json:"table"`
	Name   string `json:"name"`
	Handle int    `json:"handle"`
}

type NftRule struct {
	Family  string    `json:"family"`
	Table   string    `json:"table"`
	Chain   string    `json:"chain"`
	Handle  int       `json:"handle"`
	Comment string    `json:"comment,omitempty"`
	Expr    []NftExpr `json:"expr"`
}

// NftExpr is a rule statement; only match statements are decoded.
type NftExpr struct {
	Match *NftMatch `json:"match,omitempty"`
}

type NftMatch struct {
	Op    string          `json:"op"`
	Left  NftOperand      `json:"left"`
	Right json.RawMessage `json:"right"`
}

type NftOperand struct {
	Payload *NftPayload `json:"payload,omitempty"`
}

type NftPayload struct {
	Protocol string `json:"protocol"`
	Field    string `json:"field"`
}

// Value returns the right-hand side when it is a plain string, such as an
// address literal.
func (m NftMatch) Value() (string, bool) {
	var s string
	if err := json.Unmarshal(m.Right, &s); err != nil {
		return "", false
	}
	return s, true
}

// Rules returns the rules of the document in the order the engine listed them.
func (r *Ruleset) Rules() []NftRule {
	if r == nil {
		return nil
	}
	var rules []NftRule
	for _, item := range r.Nftables {
		if item.Rule != nil {
			rules = append(rules, *item.Rule)
		}
	}
	return rules
}

// PasslistEntry is an accept rule for one client, as currently installed.
type PasslistEntry struct {
	IP      string `json:"ip"`
	Handle  string `json:"handle"`
	Comment string `json:"comment"`
	Active  *bool  `json:"active,omitempty"`
}

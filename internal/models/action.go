// ABOUTME: Action types produced by routing the model's Action field
// ABOUTME: Defines the closed set of actions the reasoner can dispatch
package models

import "strings"

// ActionKind identifies which branch of the reasoning loop handles a response
type ActionKind string

const (
	// ActionNone - model answered directly, no Action field
	ActionNone ActionKind = "none"

	// ActionLookup - search the indexed document
	ActionLookup ActionKind = "lookup"

	// ActionExchange - resolve a currency pair through the rate API
	ActionExchange ActionKind = "exchange"

	// ActionUnknown - an action name we do not support
	ActionUnknown ActionKind = "unknown"
)

// IsValid checks if the kind is one of the defined constants
func (k ActionKind) IsValid() bool {
	switch k {
	case ActionNone, ActionLookup, ActionExchange, ActionUnknown:
		return true
	default:
		return false
	}
}

// Action is a routed Action field
type Action struct {
	Kind ActionKind `json:"kind"`
	Name string     `json:"name,omitempty"`
	Args []string   `json:"args,omitempty"`
	Raw  string     `json:"raw,omitempty"`
}

// Terms returns the arguments joined back into a single string
func (a Action) Terms() string {
	return strings.Join(a.Args, " ")
}

// ABOUTME: Governor routes a parsed model response to an action kind
// ABOUTME: Maps the free-form Action field onto the closed set of supported actions
package core

import (
	"strings"

	"github.com/harper/jarvis/internal/models"
)

// Governor decides which branch of the reasoning loop handles a response
type Governor struct {
	exchangeEnabled bool
}

// NewGovernor creates a new Governor. When exchangeEnabled is false an
// exchange request routes to ActionUnknown like any other unsupported name.
func NewGovernor(exchangeEnabled bool) *Governor {
	return &Governor{exchangeEnabled: exchangeEnabled}
}

// Route classifies the "action" field of parsed model output.
// A missing or placeholder action means the model answered directly.
func (g *Governor) Route(fields map[string]string) models.Action {
	raw := strings.TrimSpace(fields["action"])
	if isNoAction(raw) {
		return models.Action{Kind: models.ActionNone, Raw: raw}
	}

	name, rest, _ := strings.Cut(raw, ":")
	name = strings.ToLower(strings.TrimSpace(name))
	action := models.Action{
		Name: name,
		Args: strings.Fields(strings.TrimSuffix(strings.TrimSpace(rest), ".")),
		Raw:  raw,
	}

	switch {
	case name == string(models.ActionLookup):
		action.Kind = models.ActionLookup
	case name == string(models.ActionExchange) && g.exchangeEnabled && len(action.Args) >= 2:
		action.Kind = models.ActionExchange
	default:
		action.Kind = models.ActionUnknown
	}

	return action
}

// LookupFor synthesizes the fallback lookup used when an action is not recognized
func LookupFor(question string) models.Action {
	return models.Action{
		Kind: models.ActionLookup,
		Name: string(models.ActionLookup),
		Args: strings.Fields(question),
		Raw:  "lookup: " + question,
	}
}

func isNoAction(raw string) bool {
	switch strings.ToLower(strings.TrimSuffix(raw, ".")) {
	case "", "none", "n/a", "no action":
		return true
	default:
		return false
	}
}

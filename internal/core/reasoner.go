// ABOUTME: Reasoner drives the Question, Thought, Action, Observation, Answer loop
// ABOUTME: One reasoning completion, one dispatched action, one final completion
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/jarvis/internal/models"
)

// maxActionFallbacks bounds how often an unrecognized action is re-dispatched as a lookup
const maxActionFallbacks = 1

// noAnswer is returned when the model output holds no extractable answer
const noAnswer = "?"

// Lookup answers a question from an indexed document
type Lookup interface {
	Retrieve(ctx context.Context, index *models.Index, question, hint string) (models.RetrievalResult, error)
}

// Exchanger resolves a currency pair into a readable sentence
type Exchanger interface {
	Convert(ctx context.Context, from, to string) (string, error)
}

// Reasoner runs one question through the ReAct protocol
type Reasoner struct {
	completer Completer
	lookup    Lookup
	exchange  Exchanger
	index     *models.Index
	hydrator  *ContextHydrator
	governor  *Governor
	logger    *log.Logger
}

// ReasonerConfig wires a Reasoner. Index and Exchange may be nil.
type ReasonerConfig struct {
	Completer Completer
	Lookup    Lookup
	Exchange  Exchanger
	Index     *models.Index
	Logger    *log.Logger
}

// NewReasoner creates a new Reasoner
func NewReasoner(cfg ReasonerConfig) *Reasoner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	exchangeEnabled := cfg.Exchange != nil
	return &Reasoner{
		completer: cfg.Completer,
		lookup:    cfg.Lookup,
		exchange:  cfg.Exchange,
		index:     cfg.Index,
		hydrator:  NewContextHydrator(exchangeEnabled),
		governor:  NewGovernor(exchangeEnabled),
		logger:    logger.WithPrefix("reasoner"),
	}
}

// Index returns the document index the reasoner looks up, possibly nil
func (r *Reasoner) Index() *models.Index {
	return r.index
}

// Reason answers question given the session's prior turns. It does not
// modify history; the caller appends the returned Turn.
func (r *Reasoner) Reason(ctx context.Context, history []models.Turn, question string) (*models.Reply, error) {
	turn, err := models.NewTurn(question)
	if err != nil {
		return nil, err
	}

	prompt := r.hydrator.HydrateReasoning(history, question)
	response, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, modelUnavailable("reasoning completion", err)
	}

	fields := ParseAfter(prompt+"\n"+response, len(prompt))
	turn.Thought = fields["thought"]
	turn.Action = fields["action"]

	action := r.governor.Route(fields)
	reply := &models.Reply{Path: action.Kind}

	observation, retrieval, err := r.dispatch(ctx, action, question, fields, 0, reply)
	if err != nil {
		return nil, err
	}

	if reply.Path == models.ActionNone {
		answer, ok := fields["answer"]
		if !ok || answer == "" {
			r.logger.Warn("no answer in model output", "err", models.ErrMalformedModelOutput)
			answer = noAnswer
		}
		turn.Answer = answer
		reply.Answer = answer
		reply.Turn = *turn
		return reply, nil
	}

	final, err := r.completer.Complete(ctx, r.hydrator.HydrateFinal(question, observation))
	if err != nil {
		return nil, modelUnavailable("final completion", err)
	}

	turn.Observation = observation
	turn.Answer = finalAnswer(final)
	reply.Answer = turn.Answer
	reply.Retrieval = retrieval
	reply.Turn = *turn

	r.logger.Debug("answered", "path", reply.Path, "fallback", reply.Fallback, "source", reply.Source())
	return reply, nil
}

// dispatch runs the routed action and returns its observation. reply.Path
// records the branch actually taken.
func (r *Reasoner) dispatch(ctx context.Context, action models.Action, question string, fields map[string]string, fallbacks int, reply *models.Reply) (string, *models.RetrievalResult, error) {
	reply.Path = action.Kind

	switch action.Kind {
	case models.ActionNone:
		return "", nil, nil

	case models.ActionLookup:
		if r.lookup == nil {
			return "", nil, fmt.Errorf("lookup failed: %w", models.ErrEmptyIndex)
		}
		result, err := r.lookup.Retrieve(ctx, r.index, question, lookupHint(fields, action))
		if err != nil {
			return "", nil, fmt.Errorf("lookup failed: %w", err)
		}
		return result.Result, &result, nil

	case models.ActionExchange:
		sentence, err := r.exchange.Convert(ctx, action.Args[0], action.Args[1])
		if err != nil {
			return "", nil, fmt.Errorf("exchange failed: %w", err)
		}
		return sentence, nil, nil

	case models.ActionUnknown:
		if fallbacks >= maxActionFallbacks {
			r.logger.Warn("giving up on action", "action", action.Raw)
			return r.dispatch(ctx, models.Action{Kind: models.ActionNone}, question, fields, fallbacks, reply)
		}
		r.logger.Warn("falling back to lookup", "action", action.Raw, "err", models.ErrUnrecognizedAction)
		reply.Fallback = true
		return r.dispatch(ctx, LookupFor(question), question, fields, fallbacks+1, reply)

	default:
		return "", nil, fmt.Errorf("%w: invalid kind %q", models.ErrUnrecognizedAction, action.Kind)
	}
}

// lookupHint picks what the model already believes: its observation, then
// its answer, then the lookup terms
func lookupHint(fields map[string]string, action models.Action) string {
	for _, key := range []string{"observation", "answer"} {
		if v := fields[key]; v != "" {
			return v
		}
	}
	return action.Terms()
}

// finalAnswer takes the text after the last Answer label, or the whole response
func finalAnswer(response string) string {
	answer := strings.TrimSpace(response)
	if pos := strings.LastIndex(answer, "Answer:"); pos >= 0 {
		answer = strings.TrimSpace(answer[pos+len("Answer:"):])
	}
	if answer == "" {
		return noAnswer
	}
	return answer
}

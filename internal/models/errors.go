// ABOUTME: Sentinel errors shared across the reasoning pipeline
// ABOUTME: Callers match them with errors.Is after wrapping
package models

import "errors"

var (
	// ErrEmptyIndex means retrieval was attempted without an indexed document
	ErrEmptyIndex = errors.New("document not indexed")

	// ErrMalformedModelOutput means no Answer field could be extracted
	ErrMalformedModelOutput = errors.New("malformed model output")

	// ErrUnrecognizedAction means the model asked for an action we do not support
	ErrUnrecognizedAction = errors.New("unrecognized action")

	// ErrEmptyQuestion rejects blank questions before any model call
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrModelUnavailable covers transport failures and timeouts talking to a model
	ErrModelUnavailable = errors.New("model unavailable")
)

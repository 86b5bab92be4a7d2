package agent

import "errors"

// Domain errors for the agent package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, agent.ErrDecode) {
//	    // malformed request body
//	}
var (
	// ErrDecode is returned when a request body is oversized or is not a JSON object.
	ErrDecode = errors.New("agent: cannot decode payload")

	// ErrValidation is returned when a required field is absent or out of bounds.
	ErrValidation = errors.New("agent: invalid payload")

	// ErrAgentNotFound is returned when a MAC does not match any registered agent.
	ErrAgentNotFound = errors.New("agent: not found")

	// ErrProbeFailed is returned when an agent cannot be reached over the network.
	ErrProbeFailed = errors.New("agent: probe failed")

	// ErrRenameExhausted is returned when no free name fits within NameMaxLength.
	ErrRenameExhausted = errors.New("agent: no free name available")
)

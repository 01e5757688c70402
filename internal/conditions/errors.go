package conditions

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork covers timeouts, aborted or refused connections, open
	// circuit breakers and non-2xx responses.
	ErrNetwork = errors.New("network error")

	// ErrParse means a response arrived but did not contain the expected structure.
	ErrParse = errors.New("parse error")

	// ErrUnmappedName is returned by the resolver for names with no registered variant.
	ErrUnmappedName = errors.New("unmapped name")

	// ErrUnknownIdentifier is returned when an alias targets an identifier
	// outside the registry's closed set.
	ErrUnknownIdentifier = errors.New("unknown canonical identifier")

	// ErrAliasConflict is returned when an alias is already mapped to a different identifier.
	ErrAliasConflict = errors.New("alias already mapped")
)

// Classification labels how a provider's fetch ended. It is used for
// observability only and never changes the returned record.
type Classification string

const (
	ClassOK      Classification = "ok"
	ClassNetwork Classification = "network"
	ClassParse   Classification = "parse"
	ClassPanic   Classification = "panic"
)

// Classify maps a provider error to its classification.
func Classify(err error) Classification {
	switch {
	case err == nil:
		return ClassOK
	case errors.Is(err, ErrNetwork):
		return ClassNetwork
	case errors.Is(err, ErrParse):
		return ClassParse
	default:
		return ClassPanic
	}
}

// RunError is a run-level failure raised outside every provider's isolation
// boundary. It is the only fatal condition of a pipeline run.
type RunError struct {
	Stage string
	Cause any
	Stack []byte
}

func (e *RunError) Error() string {
	return fmt.Sprintf("pipeline %s failed: %v", e.Stage, e.Cause)
}

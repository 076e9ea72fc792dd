package model

import "github.com/m-mizutani/goerr/v2"

// Error taxonomy for a single task execution. Callers branch with errors.Is;
// context such as trace_id and max_iterations is attached via goerr values.
var (
	ErrValidation       = goerr.New("validation failed")
	ErrConfiguration    = goerr.New("configuration error")
	ErrUpstream         = goerr.New("upstream model error")
	ErrIterationLimit   = goerr.New("tool iteration limit exceeded")
	ErrDeadlineExceeded = goerr.New("task deadline exceeded")
)

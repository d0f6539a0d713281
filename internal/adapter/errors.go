package adapter

import "fmt"

// TransportError wraps a network-level failure (unreachable host,
// timeout). Retryable at the caller's discretion; the adapter itself
// never retries.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to provider %s failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// GenerationError means a task method got a response but could not
// recover the structured data the task needs.
type GenerationError struct {
	Task string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.Task, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

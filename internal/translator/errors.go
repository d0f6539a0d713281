package translator

import "fmt"

// MissingCredentialError is a precondition failure: the call never reached
// the network. The UI renders it as "configure your API key".
type MissingCredentialError struct {
	Provider string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("no API key supplied for provider %q", e.Provider)
}

// ProviderResponseError means the vendor returned a non-success status or
// a success payload missing the expected shape. Message carries the
// vendor-supplied error text verbatim when one could be parsed.
type ProviderResponseError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderResponseError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %s rejected the request (status %d): %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("provider %s returned an unexpected response: %s", e.Provider, e.Message)
}

// EmptyResultError means image generation technically succeeded but
// produced zero images. Typically a content-safety rejection, so callers
// should suggest a different prompt rather than a retry.
type EmptyResultError struct {
	Provider string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("provider %s returned no images for the prompt", e.Provider)
}

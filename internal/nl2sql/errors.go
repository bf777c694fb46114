package nl2sql

import "fmt"

type ErrorKind string

const (
	// KindUpstream covers transport failures and non-success replies.
	KindUpstream ErrorKind = "upstream"
	// KindMalformed covers replies that do not satisfy the result contract.
	KindMalformed ErrorKind = "malformed"
)

type GenerationError struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func upstreamError(provider string, err error) error {
	return &GenerationError{Kind: KindUpstream, Provider: provider, Err: err}
}

func malformedError(provider string, err error) error {
	return &GenerationError{Kind: KindMalformed, Provider: provider, Err: err}
}

package domain

import "errors"

var (
	// ErrInvalidSignature rejects a webhook whose signature does not match
	// the raw body. Reported distinctly so the HTTP layer can answer with
	// a client error instead of inviting retries.
	ErrInvalidSignature = errors.New("invalid_signature")

	// ErrInvalidPayload rejects a body that cannot be parsed as an event
	// envelope at all.
	ErrInvalidPayload = errors.New("invalid_payload")

	// ErrRemoteFetch marks a transient failure querying Stripe. A failed
	// fetch is never interpreted as "no payment"; it propagates so the
	// processor's own delivery retry policy can take over.
	ErrRemoteFetch = errors.New("remote_fetch_failed")

	ErrOrderNotFound = errors.New("order_not_found")
)

package domain

import "errors"

var (
	// ErrMissingCredential marks a provider key that is required but absent.
	// Only the image-search provider treats this as fatal; script and
	// premium-voice callers fall back instead of surfacing it.
	ErrMissingCredential = errors.New("missing credential")

	// ErrUpstreamRequest marks a transport failure or non-2xx response from
	// an external API with no fallback path.
	ErrUpstreamRequest = errors.New("upstream request failed")

	// ErrInvalidInput marks caller mistakes: zero images, an empty script at
	// render time, or a degenerate per-image duration.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRenderFailure marks any error during decode, encode or muxing.
	// Always fatal for the run.
	ErrRenderFailure = errors.New("render failure")
)

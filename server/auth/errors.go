package auth

import (
	"errors"
	"fmt"
)

// ErrUpstreamProfileFetch means the identity provider answered the profile
// call with a non-success status. We keep the provider's raw body for the
// logs, because Twitch error bodies are the only clue you get.
type ErrUpstreamProfileFetch struct {
	StatusCode int
	Body       string
}

func (e *ErrUpstreamProfileFetch) Error() string {
	return fmt.Sprintf("identity provider profile fetch failed: %v %v", e.StatusCode, e.Body)
}

// ErrUpstreamTimeout means the identity provider did not answer within our
// deadline. Distinct from ErrUpstreamProfileFetch so that callers can tell
// "provider said no" apart from "provider said nothing".
var ErrUpstreamTimeout = errors.New("identity provider timed out")

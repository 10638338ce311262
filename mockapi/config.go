// Package mockapi is an in-memory stand-in for the cost backend. It serves
// every chat, conversation and budget endpoint so the CLI can be developed
// and tested without AWS access.
package mockapi

import "time"

// Config is the mock server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// FrameDelay is the pause between streamed SSE frames.
	FrameDelay time.Duration

	// Token, when set, is the bearer token every request must carry.
	Token string
}

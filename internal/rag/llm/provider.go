package llm

import "context"

// Provider talks to the remote text-generation endpoint.
//
// Complete blocks for the full answer. Stream relays incremental fragments;
// it never fails outright - connection problems surface as a single textual
// error item on the channel, matching the wire contract the frontend expects.
type Provider interface {
	Complete(ctx context.Context, contextText string, question string) (string, error)
	Stream(ctx context.Context, contextText string, question string) <-chan string
}

package api

import "context"

// ChatAPI defines the interface for the enquiry chat client.
// *Client satisfies this interface. TUI and tests can use mock implementations.
type ChatAPI interface {
	StreamChat(ctx context.Context, req ChatRequest, cb FragmentCallback) error
	SendMessage(ctx context.Context, req ChatRequest) (string, error)
	Health(ctx context.Context) (*HealthResponse, error)
}

var _ ChatAPI = (*Client)(nil)

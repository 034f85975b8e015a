package apiclient

import "context"

// Network pairs an endpoint with the decoder for its response type, so the
// descriptor alone determines what a call yields.
type Network[T any] struct {
	Endpoint Endpoint
	Decode   Decoder[T]
}

// NewNetwork returns a descriptor that decodes JSON into T.
func NewNetwork[T any](ep Endpoint) Network[T] {
	return Network[T]{Endpoint: ep, Decode: JSONDecoder[T]()}
}

// Fetch executes the descriptor once. A nil Decode falls back to JSON.
func (n Network[T]) Fetch(ctx context.Context, c *Client) (T, error) {
	return execute(ctx, c, n.Endpoint, n.Decode)
}

// Publish is the asynchronous form of Fetch; see Go.
func (n Network[T]) Publish(ctx context.Context, c *Client) <-chan Result[T] {
	return async(func() (T, error) { return n.Fetch(ctx, c) })
}

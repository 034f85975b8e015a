package apiclient

import (
	"context"
	"time"

	"github.com/samvad-hq/samvad-apiclient/pkg/httpclient"
)

// Client executes endpoints over a transport. It is safe for concurrent use
// and holds no per-call state.
type Client struct {
	transport httpclient.Client
	log       Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug lifecycle lines.
func WithLogger(log Logger) Option {
	return func(c *Client) { c.log = ensureLogger(log) }
}

// New wires a client over transport, defaulting to a resty transport.
func New(transport httpclient.Client, opts ...Option) *Client {
	if transport == nil {
		transport = httpclient.NewRestyClient(httpclient.DefaultTimeout)
	}
	c := &Client{transport: transport, log: noopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Result is the single completion of an asynchronous call.
type Result[T any] struct {
	Value T
	Err   error
}

// Do executes ep once and decodes a 2xx JSON body into T.
func Do[T any](ctx context.Context, c *Client, ep Endpoint) (T, error) {
	return execute(ctx, c, ep, JSONDecoder[T]())
}

// Go is the asynchronous form of Do. The returned channel yields exactly one
// Result and is then closed. Cancelling ctx aborts the request.
func Go[T any](ctx context.Context, c *Client, ep Endpoint) <-chan Result[T] {
	return async(func() (T, error) { return Do[T](ctx, c, ep) })
}

func async[T any](fn func() (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		v, err := fn()
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}

func execute[T any](ctx context.Context, c *Client, ep Endpoint, dec Decoder[T]) (T, error) {
	var zero T
	if c == nil {
		return zero, newError(KindUnknown, errNilClient)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if dec == nil {
		dec = JSONDecoder[T]()
	}

	req, err := BuildRequest(ep)
	if err != nil {
		return zero, err
	}

	body, err := c.send(ctx, req)
	if err != nil {
		return zero, err
	}

	out, err := dec(body)
	if err != nil {
		return zero, &Error{Kind: KindDecode, Body: body, Err: err}
	}
	return out, nil
}

// send issues req and returns the body of a 2xx response.
func (c *Client) send(ctx context.Context, req *httpclient.Request) ([]byte, error) {
	start := time.Now()
	c.log.DebugObj("api request sent", "api_request", map[string]any{
		"method": req.Method,
		"url":    req.URL,
	})

	resp, err := c.transport.Execute(ctx, req)
	if err != nil {
		return nil, newError(KindTransport, err)
	}
	if resp == nil {
		return nil, newError(KindUnknown, errNilResponse)
	}

	status := resp.StatusCode()
	if status == 0 {
		status = StatusUnknown
	}
	body := resp.Body()

	c.log.DebugObj("api response received", "api_response", map[string]any{
		"method":     req.Method,
		"url":        req.URL,
		"status":     status,
		"bytes":      len(body),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	if status < 200 || status > 299 {
		return nil, &Error{Kind: KindBadStatus, StatusCode: status, Body: body}
	}
	return body, nil
}

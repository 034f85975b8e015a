package sinks

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-apiclient/pkg/apiclient"
	"github.com/samvad-hq/samvad-apiclient/pkg/httpclient"
)

// httpSink delivers through the same api client used for calls, so webhook
// failures surface as *apiclient.Error.
type httpSink struct {
	id      string
	typ     string
	method  apiclient.Method
	url     string
	headers map[string]string
	client  *apiclient.Client
	log     Logger
}

func newHTTPSink(_ context.Context, cfg SinkConfig, log Logger) (Sink, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("sink %q missing http configuration", cfg.ID)
	}

	transport := httpclient.NewRestyClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second)
	return &httpSink{
		id:      cfg.ID,
		typ:     TypeHTTP,
		method:  apiclient.Method(cfg.HTTP.Method),
		url:     cfg.HTTP.URL,
		headers: withJSONContentType(cfg.HTTP.Headers),
		client:  apiclient.New(transport),
		log:     ensureLogger(log),
	}, nil
}

func withJSONContentType(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		out[k] = v
	}
	if _, ok := out["Content-Type"]; !ok {
		out["Content-Type"] = "application/json"
	}
	return out
}

func (h *httpSink) ID() string   { return h.id }
func (h *httpSink) Type() string { return h.typ }

// Send posts the delivery as a JSON object (or query string for GET hooks).
// The response body is not interpreted.
func (h *httpSink) Send(ctx context.Context, d Delivery) error {
	params, err := apiclient.ParamsFrom(d)
	if err != nil {
		return fmt.Errorf("encode delivery: %w", err)
	}

	nw := apiclient.Network[[]byte]{
		Endpoint: apiclient.Endpoint{
			Method:  h.method,
			BaseURL: h.url,
			Headers: h.headers,
			Params:  params,
		},
		Decode: apiclient.RawDecoder(),
	}
	if _, err := nw.Fetch(ctx, h.client); err != nil {
		h.log.ErrorObj("http sink send failed", "sink_http_error", map[string]any{
			"sink_id": h.id,
			"error":   err.Error(),
		})
		return fmt.Errorf("http request: %w", err)
	}
	h.log.DebugObj("http sink delivered result", "sink_http_delivery", map[string]any{
		"sink_id":     h.id,
		"endpoint_id": d.EndpointID,
	})
	return nil
}

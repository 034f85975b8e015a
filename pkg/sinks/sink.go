// Package sinks forwards successful API call results to downstream systems
// such as webhooks, SQS queues, SNS topics and Pub/Sub topics.
package sinks

import (
	"context"
	"encoding/json"
	"time"
)

// Delivery is the payload forwarded downstream for one successful call.
type Delivery struct {
	EndpointID  string          `json:"endpoint_id"`
	StatusCode  int             `json:"status_code"`
	Body        json.RawMessage `json:"body"`
	CompletedAt time.Time       `json:"completed_at"`
}

// NewDelivery encodes result as the delivery body.
func NewDelivery(endpointID string, statusCode int, result any) (Delivery, error) {
	body, err := json.Marshal(result)
	if err != nil {
		return Delivery{}, err
	}
	return Delivery{
		EndpointID:  endpointID,
		StatusCode:  statusCode,
		Body:        body,
		CompletedAt: time.Now().UTC(),
	}, nil
}

// Sink sends deliveries to one downstream target.
type Sink interface {
	ID() string
	Type() string
	Send(ctx context.Context, d Delivery) error
}

// Logger defines the logging surface sinks rely on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}

// Package journal keeps a local, time-ordered record of completed API calls.
package journal

import (
	"fmt"
	"strings"
	"time"
)

// Entry is one completed call. Kind is empty for successful calls.
type Entry struct {
	ID         string    `json:"id"`
	EndpointID string    `json:"endpoint_id"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	Kind       string    `json:"kind,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	At         time.Time `json:"at"`
}

// OK reports whether the call succeeded.
func (e Entry) OK() bool { return e.Kind == "" }

// Store records call outcomes.
type Store interface {
	Close() error
	Record(e Entry) (Entry, error)
	// Recent returns up to limit live entries, newest first. limit <= 0 means all.
	Recent(limit int) ([]Entry, error)
}

// Options controls retention for concrete store implementations.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTTL             = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured journal backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt journal requires a path")
		}
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported journal type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                  { return nil }
func (noopStore) Record(e Entry) (Entry, error) { return e, nil }
func (noopStore) Recent(int) ([]Entry, error)   { return nil, nil }

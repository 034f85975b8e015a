package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-apiclient/internal/config"
	"github.com/samvad-hq/samvad-apiclient/internal/journal"
	"github.com/samvad-hq/samvad-apiclient/internal/logger"
	"github.com/samvad-hq/samvad-apiclient/pkg/apiclient"
	"github.com/samvad-hq/samvad-apiclient/pkg/endpoints"
	"github.com/samvad-hq/samvad-apiclient/pkg/httpclient"
	"github.com/samvad-hq/samvad-apiclient/pkg/sinks"
	"golang.org/x/sync/errgroup"
)

const maxParallelCalls = 8

// Outcome is the result of calling one endpoint.
type Outcome struct {
	EndpointID string
	StatusCode int
	Value      any
	Err        error
	Delivered  int
	Entry      journal.Entry
}

// Runner wires together the endpoint registry, api client, journal, and sinks.
type Runner struct {
	endpoints *endpoints.Registry
	transport httpclient.Client
	journal   journal.Store
	fanout    *sinks.Fanout
	log       logger.Logger
}

// NewRunner builds a runner from config files.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}

	reg, err := endpoints.Load(cfg.EndpointsFile)
	if err != nil {
		return nil, fmt.Errorf("load endpoints registry: %w", err)
	}
	log.InfoObj("endpoints registry loaded", "endpoints", reg.IDs())

	var fanout *sinks.Fanout
	if strings.TrimSpace(cfg.SinksFile) != "" {
		sinkReg, err := sinks.LoadRegistry(cfg.SinksFile)
		if err != nil {
			return nil, fmt.Errorf("load sinks registry: %w", err)
		}
		enabled := sinkReg.Enabled()
		built, err := sinks.BuildAll(ctx, sinks.DefaultRegistry(), enabled, log)
		if err != nil {
			return nil, fmt.Errorf("build sinks: %w", err)
		}
		fanout = sinks.NewFanout(built)
		log.InfoObj("sinks registry loaded", "sinks", enabled)
	}

	store, err := journal.NewStore(cfg.JournalType, cfg.JournalPath, journal.Options{
		TTL:             cfg.JournalTTL,
		CleanupInterval: cfg.JournalCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("open journal: %w", err)
	}

	opts := []httpclient.Option{httpclient.WithUserAgent(cfg.UserAgent)}
	if logger.S != nil {
		opts = append(opts, httpclient.WithLogger(logger.S))
	}
	transport := httpclient.NewRestyClient(cfg.RequestTimeout, opts...)

	return newRunner(reg, transport, store, fanout, log), nil
}

func newRunner(reg *endpoints.Registry, transport httpclient.Client, store journal.Store, fanout *sinks.Fanout, log logger.Logger) *Runner {
	if store == nil {
		store, _ = journal.NewStore("none", "", journal.Options{})
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Runner{
		endpoints: reg,
		transport: transport,
		journal:   store,
		fanout:    fanout,
		log:       log,
	}
}

// Endpoints returns the loaded definitions.
func (r *Runner) Endpoints() []endpoints.Definition {
	return r.endpoints.All()
}

// Call executes the named endpoints concurrently, or every endpoint when ids
// is empty. Outcomes follow the order of ids. API failures are reported per
// outcome; the returned error covers unknown ids and journal failures.
func (r *Runner) Call(ctx context.Context, ids ...string) ([]Outcome, error) {
	if r == nil || r.endpoints == nil {
		return nil, fmt.Errorf("runner is not initialized")
	}
	if len(ids) == 0 {
		ids = r.endpoints.IDs()
	}

	defs := make([]endpoints.Definition, len(ids))
	for i, id := range ids {
		d, ok := r.endpoints.ByID(id)
		if !ok {
			return nil, fmt.Errorf("unknown endpoint %q", id)
		}
		defs[i] = d
	}

	outcomes := make([]Outcome, len(defs))
	var g errgroup.Group
	g.SetLimit(maxParallelCalls)
	for i, d := range defs {
		g.Go(func() error {
			out, err := r.callOne(ctx, d)
			outcomes[i] = out
			return err
		})
	}
	return outcomes, g.Wait()
}

func (r *Runner) callOne(ctx context.Context, d endpoints.Definition) (Outcome, error) {
	out := Outcome{EndpointID: d.ID}
	entry := journal.Entry{EndpointID: d.ID, Method: d.Method, URL: d.BaseURL + d.Path}

	capture := &statusCapture{next: r.transport}
	client := apiclient.New(capture, apiclient.WithLogger(r.log))

	start := time.Now()
	nw, err := d.Network()
	if err == nil {
		out.Value, err = nw.Fetch(ctx, client)
	}
	entry.DurationMs = time.Since(start).Milliseconds()

	status, url := capture.last()
	if url != "" {
		entry.URL = url
	}
	out.StatusCode = status
	entry.StatusCode = status

	if err != nil {
		out.Err = err
		entry.Kind = apiclient.KindOf(err).String()
		entry.Error = err.Error()
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && apiErr.Kind == apiclient.KindBadStatus {
			entry.StatusCode = apiErr.StatusCode
			out.StatusCode = apiErr.StatusCode
		}
		r.log.WarnObj("endpoint call failed", "call_failure", map[string]any{
			"endpoint_id": d.ID,
			"kind":        entry.Kind,
			"error":       entry.Error,
		})
	} else {
		out.Delivered = r.deliver(ctx, d.ID, status, out.Value)
	}

	recorded, jerr := r.journal.Record(entry)
	out.Entry = recorded
	if jerr != nil {
		return out, fmt.Errorf("record %q in journal: %w", d.ID, jerr)
	}
	return out, nil
}

// deliver forwards a successful result to the sinks. Sink failures are
// logged and do not fail the call.
func (r *Runner) deliver(ctx context.Context, endpointID string, status int, value any) int {
	if r.fanout.Size() == 0 {
		return 0
	}
	d, err := sinks.NewDelivery(endpointID, status, value)
	if err != nil {
		r.log.ErrorObj("encode delivery failed", "error", err.Error())
		return 0
	}
	n, err := r.fanout.Send(ctx, d)
	if err != nil {
		r.log.ErrorObj("sink delivery failed", "error", err.Error())
	}
	return n
}

// History returns up to limit journal entries, newest first.
func (r *Runner) History(limit int) ([]journal.Entry, error) {
	if r == nil || r.journal == nil {
		return nil, nil
	}
	return r.journal.Recent(limit)
}

// Close releases the journal and sinks.
func (r *Runner) Close() error {
	if r == nil {
		return nil
	}
	return errors.Join(r.journal.Close(), r.fanout.Close())
}

// statusCapture remembers the status and URL of the last request it carried.
type statusCapture struct {
	next httpclient.Client

	mu     sync.Mutex
	status int
	url    string
}

func (s *statusCapture) Execute(ctx context.Context, req *httpclient.Request) (httpclient.Response, error) {
	resp, err := s.next.Execute(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if req != nil {
		s.url = req.URL
	}
	if resp != nil {
		s.status = resp.StatusCode()
	}
	return resp, err
}

func (s *statusCapture) last() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.url
}

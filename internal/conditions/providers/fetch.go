package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
)

// DefaultTimeout bounds every single fetch attempt.
const DefaultTimeout = 15 * time.Second

const (
	defaultUserAgent = "ski-conditions-aggregation/1.0"
	maxBodyBytes     = 5 << 20
)

// Options carries what every provider shares.
type Options struct {
	Client    *http.Client
	Timeout   time.Duration // per attempt; DefaultTimeout when zero
	Clock     clockwork.Clock
	UserAgent string
	APIKey    string // aggregator feed credential

	// Circuits is shared by every provider built from the same Options so
	// that providers on one host share a breaker. A fresh set when nil.
	Circuits *Circuits
}

func (o *Options) defaults() {
	if o.Client == nil {
		o.Client = &http.Client{}
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	if o.Circuits == nil {
		o.Circuits = NewCircuits()
	}
}

// Circuits holds one breaker per upstream host. Its state covers a single
// run: Reset is called before every fan-out, so a host that failed in one
// run is always requested again in the next.
type Circuits struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewCircuits() *Circuits {
	return &Circuits{breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

// Reset forgets every breaker.
func (c *Circuits) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breakers = make(map[string]*gobreaker.CircuitBreaker)
}

func (c *Circuits) get(host string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[host]; ok {
		return cb
	}
	// Within a run, five consecutive failures against a host make the
	// remaining attempts on it fail fast as network errors.
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Timeout:     10 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	c.breakers[host] = cb
	return cb
}


var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// fetcher issues a bounded request to a primary endpoint and, when that fails
// and a fallback is configured, one fresh bounded request to the fallback.
// Nothing is retried beyond that.
type fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	accept    string
	circuits  *Circuits
	primary   endpoint
	fallback  *endpoint
}

type endpoint struct {
	url  string
	host string
}

func newEndpoint(raw string) endpoint {
	host := raw
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host = u.Host
	}
	return endpoint{url: raw, host: host}
}

func newFetcher(opts Options, accept, primary, fallback string) *fetcher {
	f := &fetcher{
		client:    opts.Client,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		accept:    accept,
		circuits:  opts.Circuits,
		primary:   newEndpoint(primary),
	}
	if fallback != "" {
		fb := newEndpoint(fallback)
		f.fallback = &fb
	}
	return f
}

// fetch returns the body and the URL that produced it. On failure the
// returned source is the primary URL and the error wraps conditions.ErrNetwork.
func (f *fetcher) fetch(ctx context.Context) ([]byte, string, error) {
	body, err := f.attempt(ctx, f.primary)
	if err == nil {
		return body, f.primary.url, nil
	}
	if f.fallback == nil {
		return nil, f.primary.url, err
	}

	body, fbErr := f.attempt(ctx, *f.fallback)
	if fbErr == nil {
		return body, f.fallback.url, nil
	}
	return nil, f.primary.url, fmt.Errorf("%w (fallback: %v)", err, fbErr)
}

// attempt runs one request under its own timeout. The body is read inside the
// deadline so a stalled transfer counts as a timeout.
func (f *fetcher) attempt(ctx context.Context, ep endpoint) ([]byte, error) {
	if f.client == nil {
		return nil, fmt.Errorf("%w: %v", conditions.ErrNetwork, errNoHTTPClient)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	result, err := f.circuits.get(ep.host).Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", f.userAgent)
		if f.accept != "" {
			req.Header.Set("Accept", f.accept)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %v: %v", conditions.ErrNetwork, ep.url, errCircuitOpen, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", conditions.ErrNetwork, ep.url, err)
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type from circuit breaker", conditions.ErrNetwork)
	}
	return body, nil
}

// base holds what every adapter does around its own extraction step.
type base struct {
	id      string
	name    string
	unit    conditions.Unit
	fetcher *fetcher
	clock   clockwork.Clock
}

func (b *base) ID() string   { return b.id }
func (b *base) Name() string { return b.name }

// BeginRun clears breaker state left by an earlier run.
func (b *base) BeginRun() { b.fetcher.circuits.Reset() }

// run drives the fetch state machine: fetch (primary, then fallback), parse,
// and normalize. Every path ends in a record.
func (b *base) run(ctx context.Context, extract func([]byte) (conditions.Partial, error)) conditions.Result {
	updatedAt := b.clock.Now()

	body, source, err := b.fetcher.fetch(ctx)
	if err != nil {
		return conditions.Result{
			Record: conditions.Degraded(b.name, updatedAt, source),
			Class:  conditions.ClassNetwork,
			Err:    err,
		}
	}

	partial, err := safeExtract(extract, body)
	if err != nil {
		return conditions.Result{
			Record: conditions.Degraded(b.name, updatedAt, source),
			Class:  conditions.ClassParse,
			Err:    fmt.Errorf("%s: %w", b.id, err),
		}
	}

	if strings.TrimSpace(partial.Name) == "" {
		partial.Name = b.name
	}
	return conditions.Result{
		Record: partial.InUnit(b.unit).Record(updatedAt, source),
		Class:  conditions.ClassOK,
	}
}

func safeExtract(extract func([]byte) (conditions.Partial, error), body []byte) (p conditions.Partial, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: extraction panicked: %v", conditions.ErrParse, r)
		}
	}()
	p, err = extract(body)
	if err != nil {
		if !errors.Is(err, conditions.ErrParse) {
			err = fmt.Errorf("%w: %v", conditions.ErrParse, err)
		}
		return conditions.Partial{}, err
	}
	if p.Empty() {
		return conditions.Partial{}, fmt.Errorf("%w: no recognized fields", conditions.ErrParse)
	}
	return p, nil
}

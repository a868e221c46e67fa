package ajax

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog"
	otelMetric "go.opentelemetry.io/otel/metric"
	otelTrace "go.opentelemetry.io/otel/trace"
)

// Coordinator issues calls against one endpoint and applies the concurrency Policy.
// It is safe for concurrent use.
type Coordinator struct {
	url        string
	transport  Transport
	policy     Policy
	indicators []Indicator
	handler    *ResponseHandler
	logger     zerolog.Logger
	telemetry  *telemetry

	lock         *sync.Mutex
	lastID       uint64
	current      *Call
	stack        []*Call // in flight calls, in start order
	visible      bool    // indicators are shown
	suffix       string
	placeholders map[string]string
}

type config struct {
	baseURL        string
	policy         Policy
	indicators     []Indicator
	handler        *ResponseHandler
	logger         zerolog.Logger
	tracerProvider otelTrace.TracerProvider
	meterProvider  otelMetric.MeterProvider
}

// Option configures the Coordinator.
type Option func(c *config)

// WithPolicy sets the concurrency policy, the default is PolicyLast.
func WithPolicy(v Policy) Option {
	return func(c *config) {
		c.policy = v
	}
}

// WithBaseURL sets the base URL used to absolutize a relative endpoint URL.
func WithBaseURL(v string) Option {
	return func(c *config) {
		c.baseURL = v
	}
}

// WithIndicators adds indicators shown while any call is in flight.
func WithIndicators(v ...Indicator) Option {
	return func(c *config) {
		c.indicators = append(c.indicators, v...)
	}
}

// WithResponseHandler sets the handler of completed responses.
// Without the handler, the raw response is returned in the Result.
func WithResponseHandler(v *ResponseHandler) Option {
	return func(c *config) {
		c.handler = v
	}
}

// WithLogger sets the logger.
func WithLogger(v zerolog.Logger) Option {
	return func(c *config) {
		c.logger = v
	}
}

// WithTelemetry sets OpenTelemetry providers, nil provider means noop.
func WithTelemetry(tracerProvider otelTrace.TracerProvider, meterProvider otelMetric.MeterProvider) Option {
	return func(c *config) {
		c.tracerProvider = tracerProvider
		c.meterProvider = meterProvider
	}
}

// New creates a Coordinator for the endpoint URL.
// A relative URL is joined with the base URL, if it is configured, see WithBaseURL.
func New(endpoint string, transport Transport, opts ...Option) *Coordinator {
	if transport == nil {
		panic(fmt.Errorf("transport cannot be nil"))
	}

	cfg := config{policy: PolicyLast, logger: zerolog.Nop()}
	for _, o := range opts {
		o(&cfg)
	}

	endpoint = AbsoluteURL(cfg.baseURL, endpoint)
	return &Coordinator{
		url:        endpoint,
		transport:  transport,
		policy:     cfg.policy,
		indicators: cfg.indicators,
		handler:    cfg.handler,
		logger:     cfg.logger.With().Str("endpoint", endpoint).Str("policy", cfg.policy.String()).Logger(),
		telemetry:  newTelemetry(cfg.tracerProvider, cfg.meterProvider, endpoint, cfg.policy),
		lock:       &sync.Mutex{},
	}
}

// URL returns the endpoint URL.
func (c *Coordinator) URL() string {
	return c.url
}

// Policy returns the concurrency policy.
func (c *Coordinator) Policy() Policy {
	return c.policy
}

// InFlight returns number of calls in flight.
func (c *Coordinator) InFlight() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.stack)
}

// AppendURI sets a suffix merged to the URL of the next call only, see ResolveURL.
func (c *Coordinator) AppendURI(suffix string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.suffix = suffix
}

// SetPlaceholder sets a value of the {key} placeholder, used by the next call only.
func (c *Coordinator) SetPlaceholder(key, value string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.placeholders == nil {
		c.placeholders = make(map[string]string)
	}
	c.placeholders[key] = value
}

// Get sends params as the query string.
func (c *Coordinator) Get(ctx context.Context, params Params) *Call {
	return c.issue(ctx, http.MethodGet, params)
}

// Post sends params as the form body.
func (c *Coordinator) Post(ctx context.Context, params Params) *Call {
	return c.issue(ctx, http.MethodPost, params)
}

// Put sends params as the form body of a POST request, with the "_method=put" override.
func (c *Coordinator) Put(ctx context.Context, params Params) *Call {
	return c.issue(ctx, http.MethodPost, params.withMethodOverride(http.MethodPut))
}

// Delete sends params as the form body of a POST request, with the "_method=delete" override.
func (c *Coordinator) Delete(ctx context.Context, params Params) *Call {
	return c.issue(ctx, http.MethodPost, params.withMethodOverride(http.MethodDelete))
}

// CancelAll aborts all calls in flight. It does nothing if no call is in flight.
func (c *Coordinator) CancelAll() {
	c.lock.Lock()
	defer c.lock.Unlock()
	for len(c.stack) > 0 {
		c.cancelLocked(c.stack[len(c.stack)-1])
	}
	c.hideIndicatorsIfIdle()
}

func (c *Coordinator) issue(ctx context.Context, method string, params Params) *Call {
	values, err := params.Values()
	if err != nil {
		return failedCall(method, c.url, fmt.Errorf(`request %s "%s": %w`, method, c.url, err))
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	// Apply the policy, if another call is in flight
	if len(c.stack) > 0 {
		switch c.policy {
		case PolicyFirst:
			c.telemetry.callSuppressed(ctx)
			c.logger.Debug().Uint64("call", c.current.id).Msg("call suppressed, returning the call in flight")
			return c.current
		case PolicyLast:
			// Indicators stay visible, the new call replaces the canceled ones
			for len(c.stack) > 0 {
				c.cancelLocked(c.stack[len(c.stack)-1])
			}
		case PolicyAll:
		}
	}

	// Suffix and placeholders are valid for one call only
	callURL := ResolveURL(c.url, c.suffix, c.placeholders)
	c.suffix = ""
	c.placeholders = nil

	c.lastID++
	call := &Call{coordinator: c, id: c.lastID, method: method, url: callURL, done: make(chan struct{})}
	ctx = c.telemetry.callStarted(ctx, call)
	call.ctx, call.cancel = context.WithCancel(ctx)

	if !c.visible {
		c.visible = true
		showAll(c.indicators)
	}

	c.stack = append(c.stack, call)
	c.current = call
	c.logger.Debug().Uint64("call", call.id).Str("method", method).Str("url", callURL).Msg("call started")

	go c.run(call, values)
	return call
}

func (c *Coordinator) run(call *Call, values url.Values) {
	raw, err := c.transport.Issue(call.ctx, call.method, call.url, values)

	c.lock.Lock()
	tracked := c.untrackLocked(call)
	if tracked {
		c.telemetry.callUntracked(call.ctx, false)
		c.hideIndicatorsIfIdle()
	}
	c.lock.Unlock()

	var result *Result
	switch {
	case !tracked:
		// The call has been canceled by the coordinator, it is an expected state, not an error
		c.logger.Debug().Uint64("call", call.id).Msg("call canceled")
		result, err = &Result{Canceled: true}, nil
	case err != nil:
		c.logger.Debug().Err(err).Uint64("call", call.id).Msg("call failed")
	case c.handler != nil:
		result = c.handler.Handle(raw)
	default:
		result = &Result{Response: raw}
	}

	c.telemetry.callFinished(call, result, err)
	call.finish(result, err)
}

func (c *Coordinator) cancel(call *Call) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.cancelLocked(call) {
		c.hideIndicatorsIfIdle()
	}
}

// cancelLocked removes the call from tracking and aborts it.
// The completion of the call is then ignored, so the counter is decremented only once.
func (c *Coordinator) cancelLocked(call *Call) bool {
	if !c.untrackLocked(call) {
		return false
	}
	c.telemetry.callUntracked(call.ctx, true)
	call.cancel()
	return true
}

func (c *Coordinator) untrackLocked(call *Call) bool {
	for i, item := range c.stack {
		if item == call {
			c.stack = append(c.stack[:i], c.stack[i+1:]...)
			if c.current == call {
				c.current = nil
				if n := len(c.stack); n > 0 {
					c.current = c.stack[n-1]
				}
			}
			return true
		}
	}
	return false
}

func (c *Coordinator) hideIndicatorsIfIdle() {
	if c.visible && len(c.stack) == 0 {
		c.visible = false
		hideAll(c.indicators)
	}
}

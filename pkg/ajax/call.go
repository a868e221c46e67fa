package ajax

import (
	"context"

	otelTrace "go.opentelemetry.io/otel/trace"
)

// Call is a handle of one call issued by the Coordinator.
type Call struct {
	coordinator *Coordinator
	id          uint64
	method      string
	url         string
	ctx         context.Context
	cancel      context.CancelFunc
	span        otelTrace.Span
	done        chan struct{}
	result      *Result
	err         error
}

// ID of the call, unique within the Coordinator. It is zero for a call which has not been sent.
func (c *Call) ID() uint64 {
	return c.id
}

// Sent returns false if the call failed before it was passed to the Transport, for example on invalid params.
func (c *Call) Sent() bool {
	return c.coordinator != nil
}

// Method returns the HTTP method, PUT and DELETE calls are sent as POST.
func (c *Call) Method() string {
	return c.method
}

// URL returns the resolved URL of the call.
func (c *Call) URL() string {
	return c.url
}

// Done is closed when the call is completed or canceled.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait for the call to complete.
// A transport failure is returned as an error, a canceled call returns Result.Canceled and no error.
func (c *Call) Wait() (*Result, error) {
	<-c.done
	return c.result, c.err
}

// Cancel aborts the call, if it is in flight.
func (c *Call) Cancel() {
	if c.coordinator != nil {
		c.coordinator.cancel(c)
	}
}

// finish stores the outcome and releases waiters. It is called exactly once per call.
func (c *Call) finish(result *Result, err error) {
	c.result, c.err = result, err
	if c.cancel != nil {
		c.cancel()
	}
	close(c.done)
}

// failedCall returns an already completed call, for errors which prevented the call from being sent.
func failedCall(method, url string, err error) *Call {
	c := &Call{method: method, url: url, done: make(chan struct{})}
	c.finish(nil, err)
	return c
}

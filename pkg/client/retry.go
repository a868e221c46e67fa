package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// RetriesCount is the retries count of DefaultRetry.
	RetriesCount = 5
	// RequestTimeout is the total timeout of one Issue call, including retries.
	RequestTimeout = 30 * time.Second
	// RetryWaitTimeStart is the first delay between retries.
	RetryWaitTimeStart = 100 * time.Millisecond
	// RetryWaitTimeMax is the maximum delay between retries.
	RetryWaitTimeMax = 3 * time.Second
)

// retryStatuses are temporary HTTP errors, a repeated idempotent request may succeed.
var retryStatuses = map[int]bool{ //nolint:gochecknoglobals
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// RetryConfig configures Client retries.
// The zero Count or nil Condition disables retries.
type RetryConfig struct {
	Condition           RetryCondition
	Count               int
	TotalRequestTimeout time.Duration
	WaitTimeStart       time.Duration
	WaitTimeMax         time.Duration
}

// RetryCondition decides if the request should be sent again.
// The response is nil if the request failed with the error.
type RetryCondition func(request *http.Request, response *http.Response, err error) bool

// NoRetry returns a RetryConfig without retries, it is the default of the Client.
// Only the total request timeout is applied.
func NoRetry() RetryConfig {
	return RetryConfig{TotalRequestTimeout: RequestTimeout}
}

// DefaultRetry returns a RetryConfig with exponential delays and the DefaultRetryCondition.
func DefaultRetry() RetryConfig {
	return RetryConfig{
		Condition:           DefaultRetryCondition(),
		Count:               RetriesCount,
		TotalRequestTimeout: RequestTimeout,
		WaitTimeStart:       RetryWaitTimeStart,
		WaitTimeMax:         RetryWaitTimeMax,
	}
}

// TestingRetry is DefaultRetry with minimal delays, for use in tests.
func TestingRetry() RetryConfig {
	v := DefaultRetry()
	v.WaitTimeStart = time.Millisecond
	v.WaitTimeMax = time.Millisecond
	return v
}

// DefaultRetryCondition retries GET and HEAD requests on network errors and temporary HTTP errors.
//
// Other requests, for example a form POST with the "_method" override, may change a state on the server.
// They are retried only if the connection could not be established, so the request has not been sent.
func DefaultRetryCondition() RetryCondition {
	return func(request *http.Request, response *http.Response, err error) bool {
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || isHostNotFound(err)) {
			return false
		}

		if !isIdempotent(request.Method) {
			return err != nil && isNotSent(err)
		}

		if response == nil || response.StatusCode == 0 {
			return err != nil
		}
		return retryStatuses[response.StatusCode]
	}
}

// NewBackoff returns an exponential backoff for HTTP retries.
func (c RetryConfig) NewBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.WaitTimeStart
	b.MaxInterval = c.WaitTimeMax
	b.MaxElapsedTime = c.TotalRequestTimeout
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

func isIdempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// isNotSent returns true if the connection to the server failed, so no request data has been written.
func isNotSent(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func isHostNotFound(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && dnsErr.IsNotFound
}

// Package client provides the default HTTP Transport of the ajax.Coordinator.
//
// Client is based on the standard net/http package and contains retry and tracing support.
// GET params are sent in the query string, POST params as a form body.
// It is easy to use your custom transport, by implementing the ajax.Transport interface.
package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/cenkalti/backoff/v4"

	"github.com/keboola/go-ajax/pkg/ajax"
)

// Client is a default and configurable implementation of the ajax.Transport interface by Go native http.Client.
// It supports retry and tracing.
type Client struct {
	transport    http.RoundTripper
	baseURL      *url.URL
	header       http.Header
	retry        RetryConfig
	traceFactory TraceFactory
}

// HTTPError is returned if the server responds with a status code > 399.
type HTTPError struct {
	Method   string
	URL      string
	Response *ajax.RawResponse
}

func (e *HTTPError) Error() string {
	code := e.Response.StatusCode
	return fmt.Sprintf(`request %s "%s" failed: %d %s`, e.Method, e.URL, code, http.StatusText(code))
}

// StatusCode returns the HTTP status code of the response.
func (e *HTTPError) StatusCode() int {
	return e.Response.StatusCode
}

// New creates new HTTP Client. Retries are disabled by default, see WithRetry.
func New() Client {
	c := Client{transport: DefaultTransport(), header: make(http.Header), retry: NoRetry()}
	c.header.Set("User-Agent", "keboola-go-ajax")
	c.header.Set("Accept", "application/json, text/plain, */*")
	c.header.Set("Accept-Encoding", "gzip, br")
	c.header.Set("X-Requested-With", "XMLHttpRequest")
	return c
}

// WithBaseURL returns a clone of the Client with base url set, it is used for relative URLs.
func (c Client) WithBaseURL(baseURLStr string) Client {
	baseURL, err := url.Parse(strings.TrimRight(baseURLStr, "/") + "/")
	if err != nil {
		panic(fmt.Errorf(`base url "%s" is not valid: %w`, baseURLStr, err))
	}
	c.baseURL = baseURL
	return c
}

// WithUserAgent returns a clone of the Client with user agent set.
func (c Client) WithUserAgent(v string) Client {
	return c.WithHeader("User-Agent", v)
}

// WithHeader returns a clone of the Client with common header set.
func (c Client) WithHeader(key, value string) Client {
	c.header = c.header.Clone()
	c.header.Set(key, value)
	return c
}

// WithHeaders returns a clone of the Client with common headers set.
func (c Client) WithHeaders(headers map[string]string) Client {
	c.header = c.header.Clone()
	for k, v := range headers {
		c.header.Set(k, v)
	}
	return c
}

// WithTransport returns a clone of the Client with a HTTP transport set.
func (c Client) WithTransport(transport http.RoundTripper) Client {
	if transport == nil {
		panic(fmt.Errorf("transport cannot be nil"))
	}
	c.transport = transport
	return c
}

// WithRetry returns a clone of the Client with retry config set.
func (c Client) WithRetry(retry RetryConfig) Client {
	c.retry = retry
	return c
}

// WithTrace returns a clone of the Client with Trace hooks set.
func (c Client) WithTrace(fn TraceFactory) Client {
	c.traceFactory = fn
	return c
}

// Issue sends the request and returns the response, it implements the ajax.Transport interface.
// The response body is read completely and decoded according to the Content-Encoding header.
func (c Client) Issue(ctx context.Context, method, rawURL string, params url.Values) (raw *ajax.RawResponse, err error) {
	// Method cannot be called on an empty value
	if c.transport == nil {
		panic(fmt.Errorf("client value is not initialized"))
	}

	// Init trace
	var trace *Trace
	if c.traceFactory != nil {
		trace = c.traceFactory()
		if trace != nil {
			ctx = httptrace.WithClientTrace(ctx, &trace.ClientTrace)
		}
	}

	// Trace request processed
	if trace != nil && trace.RequestProcessed != nil {
		defer func() {
			trace.RequestProcessed(raw, err)
		}()
	}

	req, err := c.newRequest(ctx, method, rawURL, params)
	if err != nil {
		return nil, err
	}

	// Setup native client
	nativeClient := http.Client{
		Timeout:   c.retry.TotalRequestTimeout,
		Transport: roundTripper{retry: c.retry, trace: trace, wrapped: c.transport}, // wrapped transport for trace/retry
	}

	// Send request
	startedAt := time.Now()
	res, err := nativeClient.Do(req)
	if err != nil {
		return nil, handleSendError(startedAt, c.retry.TotalRequestTimeout, req, err)
	}

	// Read body
	raw, err = readResponse(res)
	if err != nil {
		return nil, fmt.Errorf(`cannot process request %s "%s": %w`, req.Method, req.URL.String(), err)
	}

	// Generic HTTP error
	if raw.StatusCode > 399 {
		return raw, &HTTPError{Method: req.Method, URL: req.URL.String(), Response: raw}
	}

	return raw, nil
}

func (c Client) newRequest(ctx context.Context, method, rawURL string, params url.Values) (*http.Request, error) {
	// Convert to absolute url
	var reqURL *url.URL
	var err error
	if c.baseURL == nil || ajax.IsAbsoluteURL(rawURL) {
		reqURL, err = url.Parse(rawURL)
	} else {
		reqURL, err = c.baseURL.Parse(strings.TrimLeft(rawURL, "/"))
	}
	if err != nil {
		return nil, fmt.Errorf(`url "%s" is not valid: %w`, rawURL, err)
	}

	// GET params are merged to the query string, other methods send them as a form body
	var body string
	if method == http.MethodGet || method == http.MethodHead {
		if len(params) > 0 {
			query := reqURL.Query()
			for k, values := range params {
				for _, v := range values {
					query.Add(k, v)
				}
			}
			reqURL.RawQuery = query.Encode()
		}
	} else {
		body = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}

	// Global headers
	for k, values := range c.header {
		for _, v := range values {
			req.Header.Set(k, v)
		}
	}

	// Body, GetBody factory is used when a redirect/retry requires reading the body more than once
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.ContentLength = int64(len(body))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		}
		req.Body, _ = req.GetBody()
	}

	return req, nil
}

func readResponse(r *http.Response) (*ajax.RawResponse, error) {
	defer r.Body.Close()

	out := &ajax.RawResponse{StatusCode: r.StatusCode, Header: r.Header}
	if r.StatusCode == http.StatusNoContent {
		return out, nil
	}

	body, err := decodeBody(r.Body, r.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return nil, fmt.Errorf(`cannot read response body: %w`, err)
	}
	out.Body = buf.Bytes()
	return out, nil
}

// decodeBody processes the content encoding of the response body.
func decodeBody(body io.ReadCloser, contentEncoding string) (io.Reader, error) {
	switch strings.ToLower(contentEncoding) {
	case "gzip":
		v, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("cannot decode gzip response: %w", err)
		}
		return v, nil
	case "br":
		return brotli.NewReader(body), nil
	default:
		return body, nil
	}
}

func handleSendError(startedAt time.Time, clientTimeout time.Duration, req *http.Request, err error) error {
	// Timeout
	var netErr net.Error
	if deadline, ok := req.Context().Deadline(); ok && errors.Is(err, context.DeadlineExceeded) {
		err = urlError(req, fmt.Errorf("timeout after %s: %w", deadline.Sub(startedAt), context.DeadlineExceeded))
	} else if errors.Is(err, context.Canceled) {
		err = urlError(req, fmt.Errorf("canceled after %s: %w", time.Since(startedAt), context.Canceled))
	} else if errors.As(err, &netErr) && netErr.Timeout() {
		if strings.Contains(err.Error(), "Client.Timeout exceeded") {
			err = urlError(req, fmt.Errorf("timeout after %s", clientTimeout))
		} else {
			err = urlError(req, fmt.Errorf("timeout after %s", time.Since(startedAt)))
		}
	}

	// Url error
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = fmt.Errorf(`request %s "%s" failed: %w`, strings.ToUpper(urlErr.Op), urlErr.URL, urlErr.Err)
	}

	return err
}

// roundTripper wraps a http.RoundTripper and adds trace and retry functionality.
type roundTripper struct {
	trace   *Trace
	retry   RetryConfig
	wrapped http.RoundTripper
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	state := rt.retry.NewBackoff()
	attempt := 0
	for {
		// Trace request start
		if rt.trace != nil && rt.trace.HTTPRequestStart != nil {
			rt.trace.HTTPRequestStart(req)
		}

		// Send
		res, err := rt.wrapped.RoundTrip(req)

		// Trace request done
		if rt.trace != nil && rt.trace.HTTPRequestDone != nil {
			rt.trace.HTTPRequestDone(res, err)
		}

		// Check if we should retry
		if rt.retry.Condition == nil || !rt.retry.Condition(req, res, err) || attempt >= rt.retry.Count {
			// No retry
			return res, err
		}

		// Get next delay
		delay := state.NextBackOff()
		if delay == backoff.Stop {
			// Stop
			return res, err
		}

		// Discard the response, it will be replaced
		if res != nil && res.Body != nil {
			_, _ = io.Copy(io.Discard, res.Body)
			_ = res.Body.Close()
		}

		// Trace retry
		attempt++
		if rt.trace != nil && rt.trace.HTTPRequestRetry != nil {
			rt.trace.HTTPRequestRetry(attempt, delay)
		}

		// Rewind body before retry
		if req.GetBody != nil {
			req.Body, err = req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("cannot rewind body: %w", err)
			}
		}

		// Wait
		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			// context is canceled
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
			// time elapsed, retry
		}
	}
}

func urlError(req *http.Request, err error) *url.Error {
	return &url.Error{Op: req.Method, URL: req.URL.String(), Err: err}
}

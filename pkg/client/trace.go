package client

import (
	"net/http"
	"net/http/httptrace"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/keboola/go-ajax/pkg/ajax"
)

// Trace is a set of hooks to run at various stages of an outgoing request.
type Trace struct {
	httptrace.ClientTrace // native, low level trace
	// HTTPRequestStart is called when the request begins. It includes redirects and retries.
	HTTPRequestStart func(request *http.Request)
	// HTTPRequestDone is called when the request completes. It includes redirects and retries.
	HTTPRequestDone func(response *http.Response, err error)
	// HTTPRequestRetry is called before retry delay.
	HTTPRequestRetry func(attempt int, delay time.Duration)
	// RequestProcessed is called when Client.Issue method is done.
	RequestProcessed func(response *ajax.RawResponse, err error)
}

// TraceFactory creates Trace hooks for a request.
type TraceFactory func() *Trace

// LogTracer logs each stage of requests to the logger, at the debug level.
func LogTracer(logger zerolog.Logger) TraceFactory {
	var idGenerator uint64
	return func() *Trace {
		requestID := atomic.AddUint64(&idGenerator, 1)
		log := logger.With().Uint64("request", requestID).Logger()

		var method, reqURL string
		var connStartTime time.Time
		var startTime time.Time
		var doneTime time.Time

		t := &Trace{}
		t.ConnectStart = func(network, addr string) {
			connStartTime = time.Now()
		}
		t.GotConn = func(info httptrace.GotConnInfo) {
			event := log.Debug().Str("method", method).Str("url", reqURL).Bool("reused", info.Reused)
			if info.Reused {
				event = event.Dur("idle", info.IdleTime)
			} else {
				event = event.Dur("connect", time.Since(connStartTime))
			}
			event.Msg("HTTP connection")
		}
		t.HTTPRequestStart = func(r *http.Request) {
			method, reqURL = r.Method, r.URL.String()
			startTime = time.Now()
			log.Debug().Str("method", method).Str("url", reqURL).Msg("HTTP request start")
		}
		t.HTTPRequestDone = func(r *http.Response, err error) {
			doneTime = time.Now()
			event := log.Debug().Str("method", method).Str("url", reqURL).Dur("duration", doneTime.Sub(startTime))
			if r != nil {
				event = event.Int("status", r.StatusCode)
			}
			event.Err(err).Msg("HTTP request done")
		}
		t.HTTPRequestRetry = func(attempt int, delay time.Duration) {
			log.Debug().Str("method", method).Str("url", reqURL).Int("attempt", attempt).Dur("delay", delay).Msg("HTTP request retry")
		}
		t.RequestProcessed = func(response *ajax.RawResponse, err error) {
			event := log.Debug().Str("method", method).Str("url", reqURL).Dur("body", time.Since(doneTime))
			if response != nil {
				event = event.Int("bytes", len(response.Body))
			}
			event.Err(err).Msg("HTTP request processed")
		}
		return t
	}
}

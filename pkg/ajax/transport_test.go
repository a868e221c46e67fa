package ajax_test

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keboola/go-ajax/pkg/ajax"
)

// fakeTransport blocks each call until the test responds to it.
type fakeTransport struct {
	// ignoreCancel simulates a transport which completes the call even if the context is canceled.
	ignoreCancel bool
	started      chan *fakeRequest

	lock     *sync.Mutex
	requests []*fakeRequest
}

type fakeRequest struct {
	ctx     context.Context
	method  string
	url     string
	params  url.Values
	respond chan fakeResponse
}

type fakeResponse struct {
	raw *ajax.RawResponse
	err error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{started: make(chan *fakeRequest, 100), lock: &sync.Mutex{}}
}

func (t *fakeTransport) Issue(ctx context.Context, method, rawURL string, params url.Values) (*ajax.RawResponse, error) {
	req := &fakeRequest{ctx: ctx, method: method, url: rawURL, params: params, respond: make(chan fakeResponse, 1)}
	t.lock.Lock()
	t.requests = append(t.requests, req)
	t.lock.Unlock()
	t.started <- req

	if t.ignoreCancel {
		res := <-req.respond
		return res.raw, res.err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-req.respond:
		return res.raw, res.err
	}
}

// next returns the next request received by the transport.
func (t *fakeTransport) next(tb testing.TB) *fakeRequest {
	tb.Helper()
	select {
	case req := <-t.started:
		return req
	case <-time.After(5 * time.Second):
		tb.Fatal("timeout: the transport has not received a request")
		return nil
	}
}

func (t *fakeTransport) count() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.requests)
}

func (r *fakeRequest) reply(status int, contentType, body string) {
	header := make(http.Header)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	r.respond <- fakeResponse{raw: &ajax.RawResponse{StatusCode: status, Header: header, Body: []byte(body)}}
}

func (r *fakeRequest) replyJSON(body string) {
	r.reply(http.StatusOK, "application/json", body)
}

func (r *fakeRequest) fail(err error) {
	r.respond <- fakeResponse{err: err}
}

// waitCall waits for the call with a timeout.
func waitCall(tb testing.TB, call *ajax.Call) (*ajax.Result, error) {
	tb.Helper()
	select {
	case <-call.Done():
		return call.Wait()
	case <-time.After(5 * time.Second):
		tb.Fatalf("timeout: call %d has not been completed", call.ID())
		return nil, nil
	}
}

// waitCanceled waits until the transport observes the context cancellation.
func waitCanceled(tb testing.TB, req *fakeRequest) {
	tb.Helper()
	select {
	case <-req.ctx.Done():
	case <-time.After(5 * time.Second):
		tb.Fatal("timeout: the request context has not been canceled")
	}
}

func requireNoRequest(tb testing.TB, t *fakeTransport) {
	tb.Helper()
	select {
	case req := <-t.started:
		require.Failf(tb, "unexpected request", "%s %s", req.method, req.url)
	case <-time.After(20 * time.Millisecond):
	}
}

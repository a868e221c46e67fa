package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/go-ajax/pkg/client"
)

func TestDefaultTransport(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
	}))
	defer server.Close()

	c := client.New().WithTransport(client.DefaultTransport()).WithBaseURL(server.URL)
	raw, err := c.Issue(context.Background(), http.MethodGet, "foo/bar", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"/foo/bar"}`, string(raw.Body))
}

func TestHTTP2Transport(t *testing.T) {
	t.Parallel()
	assert.NotNil(t, client.HTTP2Transport())
}

package ajax_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/keboola/go-ajax/pkg/ajax"
)

func TestWaitGroup(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	c := New("https://example.com/api/items", tr, WithPolicy(PolicyFirst))

	group := NewWaitGroup()
	call := c.Get(context.Background(), nil)
	group.Add(call, c.Get(context.Background(), nil), nil) // same call, suppressed by the policy
	tr.next(t).reply(http.StatusOK, "", "ok")

	results, err := group.Wait()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ok", string(results[0].Response.Body))
}

func TestWaitGroup_Errors(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	c := New("https://example.com/api/items", tr, WithPolicy(PolicyAll))

	// Single error is unwrapped
	group := NewWaitGroup()
	group.Add(c.Get(context.Background(), nil))
	tr.next(t).fail(errors.New("error 1"))
	_, err := group.Wait()
	require.Error(t, err)
	assert.Equal(t, "error 1", err.Error())

	// Multiple errors, canceled call is not an error
	group = NewWaitGroup()
	group.Add(c.Get(context.Background(), nil))
	req1 := tr.next(t)
	group.Add(c.Get(context.Background(), nil))
	req2 := tr.next(t)
	canceled := c.Get(context.Background(), nil)
	group.Add(canceled)
	tr.next(t)
	canceled.Cancel()
	req1.fail(errors.New("error 1"))
	req2.fail(errors.New("error 2"))

	results, err := group.Wait()
	require.Error(t, err)
	assert.Len(t, results, 3)
	assert.True(t, results[2].Canceled)
	assert.Contains(t, err.Error(), "2 errors occurred")
	assert.Contains(t, err.Error(), "* error 1")
	assert.Contains(t, err.Error(), "* error 2")
}

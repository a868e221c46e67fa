package message_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/keboola/go-ajax/pkg/ajax"
	"github.com/keboola/go-ajax/pkg/message"
)

var _ ajax.Messenger = (*message.Collector)(nil)

type recordedSink struct {
	out []string
}

func (s *recordedSink) Display(t message.Type, messages []string) {
	s.out = append(s.out, fmt.Sprintf("%s: %s", t, strings.Join(messages, ", ")))
}

func TestCollector_Show(t *testing.T) {
	t.Parallel()

	sink := &recordedSink{}
	c := message.NewCollector(sink)
	c.Success("Saved.")
	c.Error("Name is required.")
	c.Warn("Careful.")
	c.Error("Age is required.")
	c.Info("FYI.")
	assert.Equal(t, 5, c.Len())
	assert.Empty(t, sink.out)

	c.Show()
	assert.Equal(t, []string{
		"warn: Careful.",
		"info: FYI.",
		"error: Name is required., Age is required.",
		"success: Saved.",
	}, sink.out)
	assert.Equal(t, 0, c.Len())

	// Buffer is reset
	c.Show()
	assert.Len(t, sink.out, 4)
}

func TestCollector_WithoutGrouping(t *testing.T) {
	t.Parallel()

	sink := &recordedSink{}
	c := message.NewCollector(sink, message.WithGrouping(false))
	c.Error("Name is required.")
	c.Error("Age is required.")
	c.Show()
	assert.Equal(t, []string{"error: Name is required.", "error: Age is required."}, sink.out)
}

func TestCollector_Clear(t *testing.T) {
	t.Parallel()

	sink := &recordedSink{}
	c := message.NewCollector(sink)
	c.Warn("Careful.")
	c.Clear()
	c.Show()
	assert.Empty(t, sink.out)
}

func TestCollector_ResponseHandler(t *testing.T) {
	t.Parallel()

	sink := &recordedSink{}
	h := ajax.NewResponseHandler(ajax.WithMessenger(message.NewCollector(sink)))
	h.Handle(&ajax.RawResponse{
		StatusCode: 200,
		Header:     map[string][]string{"Content-Type": {"application/json"}},
		Body:       []byte(`{"messages":[{"type":"ok","message":"Saved."},{"type":"war","message":"Slow."}]}`),
	})
	assert.Equal(t, []string{"warn: Slow.", "success: Saved."}, sink.out)
}

func TestLogSink(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	c := message.NewCollector(message.LogSink(zerolog.New(&out)))
	c.Warn("Careful.")
	c.Success("Saved.")
	c.Success("Sent.")
	c.Show()

	expected := `{"level":"warn","type":"warn","messages":["Careful."],"message":"1 warn message(s)"}` + "\n" +
		`{"level":"info","type":"success","messages":["Saved.","Sent."],"message":"2 success message(s)"}` + "\n"
	assert.Equal(t, expected, out.String())
}

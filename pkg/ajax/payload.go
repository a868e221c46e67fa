package ajax

import (
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Message codes used in the "messages" list of a payload.
const (
	MessageWarn    = "war"
	MessageSuccess = "ok"
	MessageError   = "err"
	MessageInfo    = "inf"
)

// Message is one item of the "messages" list.
type Message struct {
	Type string `json:"type"`
	Text string `json:"message"`
}

// Payload is a response body decoded as a JSON object.
//
// Recognized fields are:
//   - "status" bool, was the request successful,
//   - "redirect" string, where to go,
//   - "messages" list of {"type": "war"|"ok"|"err"|"inf", "message": string},
//   - "data" any value.
//
// A field with an unexpected type is ignored, the original object is always available in Raw.
type Payload struct {
	Status   *bool
	Redirect *string
	Messages []Message
	Data     any
	Raw      map[string]any
}

// Result of a completed call.
type Result struct {
	// Response is the raw response, it is nil for a canceled call.
	Response *RawResponse
	// Payload is set if the body is a JSON object.
	Payload *Payload
	// Value is the decoded body: map[string]any for a JSON object,
	// other decoded JSON value, or the body as a string if it is not JSON.
	Value any
	// Redirect is the absolute redirect URL, if the payload requested a redirect.
	Redirect string
	// Canceled is true if the call was canceled by the Coordinator.
	Canceled bool
}

// decodeBody decodes a JSON response, other responses are returned verbatim as a string.
// A malformed JSON body is not an error, it is returned verbatim too.
func decodeBody(raw *RawResponse) (payload *Payload, value any) {
	if raw == nil {
		return nil, nil
	}
	if !isJSONContentType(raw.ContentType()) || len(raw.Body) == 0 {
		return nil, string(raw.Body)
	}

	var decoded any
	if err := json.Unmarshal(raw.Body, &decoded); err != nil {
		return nil, string(raw.Body)
	}

	object, ok := decoded.(map[string]any)
	if !ok {
		return nil, decoded
	}
	return newPayload(object), object
}

func newPayload(object map[string]any) *Payload {
	p := &Payload{Raw: object, Data: object["data"]}
	if v, ok := object["status"].(bool); ok {
		p.Status = &v
	}
	if v, ok := object["redirect"].(string); ok {
		p.Redirect = &v
	}
	if items, ok := object["messages"].([]any); ok {
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			msgType, _ := m["type"].(string)
			msgText, _ := m["message"].(string)
			p.Messages = append(p.Messages, Message{Type: msgType, Text: msgText})
		}
	}
	return p
}

// ContentTypeJSONRegexp matches "application/json" and vendor types, for example "application/vnd.api+json".
const ContentTypeJSONRegexp = `^application/([a-zA-Z0-9\.\-]+\+)?json$`

var (
	json                  = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals
	jsonContentTypeRegexp = regexp.MustCompile(ContentTypeJSONRegexp)
)

func isJSONContentType(contentType string) bool {
	return jsonContentTypeRegexp.MatchString(contentType)
}

// mediaType strips parameters, for example "; charset=utf-8".
func mediaType(contentType string) string {
	v, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(v))
}

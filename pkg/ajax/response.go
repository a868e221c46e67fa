package ajax

import (
	"github.com/rs/zerolog"
)

// messageRouter maps message codes to the Messenger methods.
var messageRouter = map[string]func(Messenger, string){ //nolint:gochecknoglobals
	MessageWarn:    Messenger.Warn,
	MessageSuccess: Messenger.Success,
	MessageError:   Messenger.Error,
	MessageInfo:    Messenger.Info,
}

// ResponseHandler interprets completed responses.
// See the Handle method for the recognized side channels.
type ResponseHandler struct {
	messenger  Messenger
	navigator  Navigator
	baseURL    string
	indicators []Indicator
	logger     zerolog.Logger
}

// ResponseOption configures the ResponseHandler.
type ResponseOption func(h *ResponseHandler)

// WithMessenger sets the collaborator which displays payload messages.
func WithMessenger(v Messenger) ResponseOption {
	return func(h *ResponseHandler) {
		h.messenger = v
	}
}

// WithNavigator sets the collaborator which performs redirects.
func WithNavigator(v Navigator) ResponseOption {
	return func(h *ResponseHandler) {
		h.navigator = v
	}
}

// WithRedirectBaseURL sets the base URL used to absolutize a relative redirect.
func WithRedirectBaseURL(v string) ResponseOption {
	return func(h *ResponseHandler) {
		h.baseURL = v
	}
}

// WithRedirectIndicators sets indicators shown before a redirect is performed.
func WithRedirectIndicators(v ...Indicator) ResponseOption {
	return func(h *ResponseHandler) {
		h.indicators = append(h.indicators, v...)
	}
}

// WithHandlerLogger sets the logger.
func WithHandlerLogger(v zerolog.Logger) ResponseOption {
	return func(h *ResponseHandler) {
		h.logger = v
	}
}

// NewResponseHandler creates a ResponseHandler.
func NewResponseHandler(opts ...ResponseOption) *ResponseHandler {
	h := &ResponseHandler{logger: zerolog.Nop()}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Handle interprets the response payload, in the strict order:
//  1. Redirect: the "redirect" string is converted to an absolute URL,
//     redirect indicators are shown and the Navigator is called. Nothing else is processed.
//  2. Messages: each item of the "messages" list is forwarded to the Messenger, then Messenger.Show is called.
//  3. The payload is returned to the caller.
//
// A body which is not a JSON object is returned in the Result.Value unchanged.
func (h *ResponseHandler) Handle(raw *RawResponse) *Result {
	payload, value := decodeBody(raw)
	result := &Result{Response: raw, Payload: payload, Value: value}
	if payload == nil {
		return result
	}

	// Redirect
	if payload.Redirect != nil {
		result.Redirect = AbsoluteURL(h.baseURL, *payload.Redirect)
		h.logger.Debug().Str("redirect", result.Redirect).Msg("response requested redirect")
		showAll(h.indicators)
		if h.navigator != nil {
			h.navigator.Navigate(result.Redirect)
		}
		return result
	}

	// Messages
	if h.messenger != nil && len(payload.Messages) > 0 {
		for _, m := range payload.Messages {
			if fn, ok := messageRouter[m.Type]; ok {
				fn(h.messenger, m.Text)
			} else {
				h.logger.Warn().Str("type", m.Type).Str("message", m.Text).Msg("unknown message type, skipped")
			}
		}
		h.messenger.Show()
	}

	return result
}

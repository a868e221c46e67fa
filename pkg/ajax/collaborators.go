package ajax

import (
	"context"
	"net/http"
	"net/url"
)

// Transport sends one call and returns the raw response.
// The call must be aborted when the context is canceled.
// The client.Client is a default implementation based on the standard net/http package.
type Transport interface {
	Issue(ctx context.Context, method, rawURL string, params url.Values) (*RawResponse, error)
}

// Indicator is a busy signal, for example a loading overlay.
// Indicators are called while the Coordinator is locked, they must not call back into the Coordinator.
type Indicator interface {
	Show()
	Hide()
}

// Messenger collects messages from a response payload, messages are displayed by the Show method.
type Messenger interface {
	Warn(text string)
	Info(text string)
	Error(text string)
	Success(text string)
	Show()
}

// Navigator performs the redirect requested by a response payload.
type Navigator interface {
	Navigate(url string)
}

// IndicatorFuncs adapts two functions to the Indicator interface. Nil functions are skipped.
type IndicatorFuncs struct {
	OnShow func()
	OnHide func()
}

func (v IndicatorFuncs) Show() {
	if v.OnShow != nil {
		v.OnShow()
	}
}

func (v IndicatorFuncs) Hide() {
	if v.OnHide != nil {
		v.OnHide()
	}
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(url string)

func (fn NavigatorFunc) Navigate(url string) {
	fn(url)
}

// RawResponse is a completed response, as returned by the Transport.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the media type of the response, without parameters.
func (r *RawResponse) ContentType() string {
	if r == nil || r.Header == nil {
		return ""
	}
	return mediaType(r.Header.Get("Content-Type"))
}

func showAll(indicators []Indicator) {
	for _, i := range indicators {
		i.Show()
	}
}

func hideAll(indicators []Indicator) {
	for _, i := range indicators {
		i.Hide()
	}
}

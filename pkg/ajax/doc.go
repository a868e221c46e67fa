// Package ajax coordinates requests against one logical API endpoint.
//
// Coordinator wraps an endpoint URL and a Transport, it tracks how many calls are in flight
// and applies a Policy when a new call is issued while other calls are still outstanding:
//   - PolicyFirst keeps the outstanding call and returns its handle,
//   - PolicyLast cancels all outstanding calls and starts the new one,
//   - PolicyAll sends every call independently.
//
// Indicators (for example a loading overlay) are shown when the first call starts
// and hidden when the last call completes or is canceled.
//
// ResponseHandler interprets completed responses. It recognizes three side channels
// of the response payload, in this order: "redirect", "messages" and the payload itself.
//
// Collaborators are injected by constructor options, see Transport, Indicator, Messenger and Navigator.
package ajax

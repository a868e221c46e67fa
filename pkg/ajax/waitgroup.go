package ajax

import (
	"sync"

	"github.com/hashicorp/go-multierror"
)

// WaitGroup collects calls and waits until all of them are completed.
//
// The same call can be added multiple times, for example when it is returned by PolicyFirst,
// it is waited for only once. Canceled calls are not errors.
type WaitGroup struct {
	lock  *sync.Mutex
	calls []*Call
	seen  map[*Call]bool
}

// NewWaitGroup creates new WaitGroup.
func NewWaitGroup() *WaitGroup {
	return &WaitGroup{lock: &sync.Mutex{}, seen: make(map[*Call]bool)}
}

// Add calls to the group.
func (g *WaitGroup) Add(calls ...*Call) {
	g.lock.Lock()
	defer g.lock.Unlock()
	for _, call := range calls {
		if call != nil && !g.seen[call] {
			g.seen[call] = true
			g.calls = append(g.calls, call)
		}
	}
}

// Wait for all calls to complete. Results are returned in the order the calls were added.
// All errors that have occurred will be returned.
func (g *WaitGroup) Wait() ([]*Result, error) {
	g.lock.Lock()
	calls := append([]*Call(nil), g.calls...)
	g.lock.Unlock()

	var merr *multierror.Error
	results := make([]*Result, 0, len(calls))
	for _, call := range calls {
		result, err := call.Wait()
		if err != nil {
			merr = multierror.Append(merr, err)
		}
		results = append(results, result)
	}

	// If there is only one error, then unwrap multierror
	if merr != nil && len(merr.Errors) == 1 {
		return results, merr.Errors[0]
	}
	return results, merr.ErrorOrNil()
}

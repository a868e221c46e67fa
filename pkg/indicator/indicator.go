// Package indicator provides implementations of the ajax.Indicator interface.
package indicator

import (
	"sync"

	"github.com/rs/zerolog"
)

// Overlay keeps visibility state of a busy overlay and delegates transitions to the render callbacks.
//
// A frozen overlay cannot be hidden until it is unfrozen.
// Show of a visible overlay and Hide of a hidden overlay do nothing.
type Overlay struct {
	name   string
	logger zerolog.Logger
	onShow func()
	onHide func()

	lock    *sync.Mutex
	visible bool
	frozen  bool
}

// OverlayOption configures the Overlay.
type OverlayOption func(o *Overlay)

// WithOnShow sets the callback invoked when the overlay becomes visible.
func WithOnShow(fn func()) OverlayOption {
	return func(o *Overlay) {
		o.onShow = fn
	}
}

// WithOnHide sets the callback invoked when the overlay becomes hidden.
func WithOnHide(fn func()) OverlayOption {
	return func(o *Overlay) {
		o.onHide = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) OverlayOption {
	return func(o *Overlay) {
		o.logger = logger
	}
}

// NewOverlay creates a hidden Overlay.
func NewOverlay(name string, opts ...OverlayOption) *Overlay {
	o := &Overlay{name: name, logger: zerolog.Nop(), lock: &sync.Mutex{}}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With().Str("overlay", name).Logger()
	return o
}

// Show makes the overlay visible.
func (o *Overlay) Show() {
	o.lock.Lock()
	defer o.lock.Unlock()
	if o.visible {
		o.logger.Debug().Msg("overlay is already visible")
		return
	}
	o.visible = true
	if o.onShow != nil {
		o.onShow()
	}
}

// Hide hides the overlay, unless it is frozen.
func (o *Overlay) Hide() {
	o.lock.Lock()
	defer o.lock.Unlock()
	if o.frozen {
		o.logger.Debug().Msg("overlay is frozen, it won't be hidden until unfrozen")
		return
	}
	if !o.visible {
		return
	}
	o.visible = false
	if o.onHide != nil {
		o.onHide()
	}
}

// Freeze prevents the overlay from being hidden.
func (o *Overlay) Freeze() {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.frozen = true
}

// Unfreeze allows the overlay to be hidden again. It doesn't hide the overlay.
func (o *Overlay) Unfreeze() {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.frozen = false
}

// Visible returns true if the overlay is shown.
func (o *Overlay) Visible() bool {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.visible
}

// Frozen returns true if the overlay cannot be hidden.
func (o *Overlay) Frozen() bool {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.frozen
}

// Log logs indicator transitions.
type Log struct {
	logger zerolog.Logger
}

// NewLog creates an indicator which logs to the logger at the info level.
func NewLog(logger zerolog.Logger) Log {
	return Log{logger: logger}
}

// Show logs the start of loading.
func (l Log) Show() {
	l.logger.Info().Msg("loading...")
}

// Hide logs the end of loading.
func (l Log) Hide() {
	l.logger.Info().Msg("done")
}

// Counter counts Show and Hide calls.
type Counter struct {
	lock   *sync.Mutex
	shown  int
	hidden int
}

// NewCounter creates a Counter with zero counts.
func NewCounter() *Counter {
	return &Counter{lock: &sync.Mutex{}}
}

// Show increments the shown count.
func (c *Counter) Show() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.shown++
}

// Hide increments the hidden count.
func (c *Counter) Hide() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.hidden++
}

// Counts returns number of Show and Hide calls.
func (c *Counter) Counts() (shown, hidden int) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.shown, c.hidden
}

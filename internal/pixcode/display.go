package pixcode

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/pixcheckout/pkg/enums"
	"github.com/angelmondragon/pixcheckout/pkg/logger"
	"github.com/angelmondragon/pixcheckout/pkg/metrics"
)

// DefaultResetDelay is how long the "copied" acknowledgment stays visible.
const DefaultResetDelay = 3000 * time.Millisecond

// Params wires a Display. Only Presentation is required.
type Params struct {
	Presentation Presentation
	OnCancel     func()
	Clipboard    Clipboard
	Fallback     LegacyCopier
	Scheduler    Scheduler
	ResetDelay   time.Duration
	Logger       *logger.Logger
	Metrics      *metrics.CheckoutMetrics
}

// Display owns the copy acknowledgment state for one payment code.
//
// At most one reset timer is pending at a time. Every armed timer carries a
// token; a callback whose token is no longer current is ignored, which covers
// timers that already fired while a newer copy was being acknowledged.
type Display struct {
	clipboard  Clipboard
	fallback   LegacyCopier
	scheduler  Scheduler
	resetDelay time.Duration
	onCancel   func()
	logg       *logger.Logger
	metrics    *metrics.CheckoutMetrics

	mu           sync.Mutex
	presentation Presentation
	image        decodedImage
	copied       bool
	timer        Timer
	token        uint64
	closed       bool
}

// New validates the presentation and builds a Display.
func New(params Params) (*Display, error) {
	if err := params.Presentation.Validate(); err != nil {
		return nil, err
	}

	d := &Display{
		clipboard:    params.Clipboard,
		fallback:     params.Fallback,
		scheduler:    params.Scheduler,
		resetDelay:   params.ResetDelay,
		onCancel:     params.OnCancel,
		logg:         params.Logger,
		metrics:      params.Metrics,
		presentation: params.Presentation,
		image:        decodeImage(params.Presentation.ImageData),
	}
	if d.clipboard == nil {
		d.clipboard = unavailableClipboard{}
	}
	if d.fallback == nil {
		d.fallback = noopCopier{}
	}
	if d.scheduler == nil {
		d.scheduler = SystemScheduler{}
	}
	if d.resetDelay <= 0 {
		d.resetDelay = DefaultResetDelay
	}
	if d.logg == nil {
		d.logg = logger.Nop()
	}
	return d, nil
}

// SetPresentation swaps the input, typically once the QR image finishes generating.
// The copy state is kept.
func (d *Display) SetPresentation(p Presentation) error {
	if err := p.Validate(); err != nil {
		return err
	}
	img := decodeImage(p.ImageData)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.presentation = p
	d.image = img
	return nil
}

// Render returns the current view.
func (d *Display) Render() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return render(d.presentation, d.image, d.copied)
}

// Copied reports whether the copy acknowledgment is visible.
func (d *Display) Copied() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.copied
}

// Copy writes the payment code to the clipboard. When the primary clipboard
// fails it falls back to the legacy copier, which cannot report failure, and
// acknowledges the copy either way. Nothing is returned to the caller.
func (d *Display) Copy(ctx context.Context) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	code := d.presentation.Code
	d.mu.Unlock()

	mechanism := enums.CopyMechanismPrimary
	if err := d.clipboard.WriteText(ctx, code); err != nil {
		mechanism = enums.CopyMechanismFallback
		d.logg.Debug(d.logg.WithField(ctx, "error", err.Error()), "pix.copy.fallback")
		d.fallback.SelectAndCopy(code)
	}

	if d.acknowledge() {
		d.metrics.IncCopy(mechanism)
	}
}

// Cancel forwards to the cancel callback.
func (d *Display) Cancel() {
	d.metrics.IncCancel()
	if d.onCancel != nil {
		d.onCancel()
	}
}

// Close releases the pending reset timer. Callbacks that fire afterwards do nothing.
func (d *Display) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.stopTimerLocked()
}

func (d *Display) acknowledge() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}

	d.copied = true
	d.stopTimerLocked()
	d.token++
	token := d.token
	d.timer = d.scheduler.AfterFunc(d.resetDelay, func() {
		d.reset(token)
	})
	return true
}

func (d *Display) reset(token uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || token != d.token {
		return
	}
	d.copied = false
	d.timer = nil
}

func (d *Display) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

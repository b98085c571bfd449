package main

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// ZoomUIMode selects how the zoom control is presented: a 2-or-3-way
// quick-select toggle, or a continuous seek bar. The modes are mutually
// exclusive; switching between them never alters the zoom ratio.
type ZoomUIMode int

const (
	ZoomModeToggle ZoomUIMode = iota
	ZoomModeSeekBar
)

func (m ZoomUIMode) String() string {
	switch m {
	case ZoomModeToggle:
		return "toggle"
	case ZoomModeSeekBar:
		return "seek_bar"
	default:
		return fmt.Sprintf("ZoomUIMode(%d)", int(m))
	}
}

// ParseZoomUIMode converts the wire representation used by actions and the
// state websocket back into a ZoomUIMode.
func ParseZoomUIMode(s string) (ZoomUIMode, error) {
	switch s {
	case "toggle":
		return ZoomModeToggle, nil
	case "seek_bar", "seekbar":
		return ZoomModeSeekBar, nil
	default:
		return 0, fmt.Errorf("invalid zoom mode: %q (must be toggle or seek_bar)", s)
	}
}

const (
	// maxZoomProgress is the upper bound of the normalized slider progress
	// scale. Progress 0 maps to the minimum zoom ratio, maxZoomProgress to
	// the maximum.
	maxZoomProgress = 100000

	// defaultMiddleStickyZoomRatio is the default value of the middle
	// quick-select slot in the 3-option layout.
	defaultMiddleStickyZoomRatio = 1.0

	// stickyHysteresis widens each slot's band slightly below its default
	// value so a ratio sitting exactly on a default does not flap between
	// adjacent slots.
	stickyHysteresis = 0.05
)

// ZoomConfig carries the timer durations for the seek-bar auto-revert.
type ZoomConfig struct {
	// AutoRevert is how long the seek bar stays up without drag activity
	// before the control reverts to toggle mode.
	AutoRevert time.Duration

	// AutoRevertAccessibility replaces AutoRevert while accessibility is
	// enabled, giving users more time to operate the slider.
	AutoRevertAccessibility time.Duration
}

// ZoomState is a coherent snapshot of the controller, taken under the lock.
type ZoomState struct {
	MinRatio float64
	MaxRatio float64
	Ratio    float64
	Progress int

	Low         float64
	Middle      float64
	High        float64
	Selected    int
	OptionCount int

	Mode ZoomUIMode
}

// ZoomRatioController maintains a continuous zoom ratio within a supported
// range and derives a discrete 2-or-3-option quick-select model from it.
//
// The sticky slots hold candidate ratios; exactly one slot is selected at any
// time and its value always equals the live ratio after any update, so the
// active ratio stays reachable by re-selecting the slot it populated.
//
// Shared by the daemon goroutine and the auto-revert timer; all state is
// serialized under one mutex, and listeners are invoked outside it.
type ZoomRatioController struct {
	mu sync.Mutex

	minZoomRatio float64
	maxZoomRatio float64
	current      float64

	defaultLow    float64
	defaultMiddle float64
	defaultHigh   float64

	low    float64
	middle float64
	high   float64

	selected    int
	optionCount int

	mode     ZoomUIMode
	dragging bool

	accessibility           bool
	autoRevert              time.Duration
	autoRevertAccessibility time.Duration
	revertTimer             *time.Timer

	onValueChanged func(ratio float64)
	onModeChanged  func(mode ZoomUIMode)
}

// NewZoomRatioController creates a controller with no supported range; call
// SetSupportedRange before use.
func NewZoomRatioController(cfg ZoomConfig) *ZoomRatioController {
	return &ZoomRatioController{
		defaultMiddle:           defaultMiddleStickyZoomRatio,
		optionCount:             3,
		selected:                1,
		mode:                    ZoomModeToggle,
		autoRevert:              cfg.AutoRevert,
		autoRevertAccessibility: cfg.AutoRevertAccessibility,
	}
}

// SetOnValueChanged registers the listener receiving zoom ratio changes.
func (z *ZoomRatioController) SetOnValueChanged(fn func(ratio float64)) {
	z.mu.Lock()
	z.onValueChanged = fn
	z.mu.Unlock()
}

// SetOnModeChanged registers the listener receiving UI mode changes,
// including the auto-revert timer forcing the control back to toggle mode.
func (z *ZoomRatioController) SetOnModeChanged(fn func(mode ZoomUIMode)) {
	z.mu.Lock()
	z.onModeChanged = fn
	z.mu.Unlock()
}

// SetSupportedRange installs the zoom range of the active camera and resets
// all derived state: the ratio returns to 1.0, the quick-select layout is
// re-derived, and the control returns to toggle mode.
//
// Three options are offered when the range meaningfully spans both sides of
// 1.0x (min < 0.95 and max >= 2.05, after rounding tolerance); otherwise two.
func (z *ZoomRatioController) SetSupportedRange(min, max float64) error {
	if min <= 0 {
		return fmt.Errorf("minimum zoom ratio must be positive, got %v", min)
	}
	if max <= min {
		return fmt.Errorf("maximum zoom ratio must be greater than the minimum, got [%v, %v]", min, max)
	}

	z.mu.Lock()
	z.minZoomRatio = min
	z.maxZoomRatio = max
	z.current = 1.0

	// The low slot always defaults to the minimum supported ratio.
	z.defaultLow = min

	if min < 0.95 && max >= 2.05 {
		z.optionCount = 3
		z.selected = 1
		z.defaultHigh = 2.0
	} else {
		z.optionCount = 2
		z.selected = 0
		if max >= 2.05 {
			z.defaultHigh = 2.0
		} else {
			z.defaultHigh = max
		}
	}

	z.updateStickyLocked()
	z.stopRevertTimerLocked()
	z.mode = ZoomModeToggle
	z.dragging = false
	z.mu.Unlock()
	return nil
}

// updateStickyLocked re-derives the sticky slot values and the selected slot
// from the current ratio. Callers must hold z.mu.
func (z *ZoomRatioController) updateStickyLocked() {
	if z.optionCount == 3 {
		switch {
		case z.current < z.defaultMiddle-stickyHysteresis:
			z.selected = 0
			z.low = z.current
			z.middle = z.defaultMiddle
			z.high = z.defaultHigh
		case z.current < z.defaultHigh-stickyHysteresis:
			z.selected = 1
			z.low = roundZoomRatio(z.minZoomRatio)
			z.middle = z.current
			z.high = z.defaultHigh
		default:
			z.selected = 2
			z.low = roundZoomRatio(z.minZoomRatio)
			z.middle = z.defaultMiddle
			z.high = z.current
		}
		return
	}

	// 2-option layout uses only the low (0) and high (2) slots.
	if z.current < z.defaultHigh-stickyHysteresis {
		z.selected = 0
		z.low = z.current
		z.high = z.defaultHigh
	} else {
		z.selected = 2
		z.low = z.defaultLow
		z.high = z.current
	}
}

// SetZoomRatio clamps the ratio to the supported range, rounds it to one
// decimal (half-up), and updates the sticky slots. The value-changed listener
// fires at most once per call, and only when notify is set and the rounded
// value actually differs from the current one.
func (z *ZoomRatioController) SetZoomRatio(ratio float64, notify bool) {
	z.mu.Lock()
	rounded := roundZoomRatio(clampZoomRatio(ratio, z.minZoomRatio, z.maxZoomRatio))

	var fn func(float64)
	if rounded != z.current && notify {
		fn = z.onValueChanged
	}

	z.current = rounded
	z.updateStickyLocked()
	z.mu.Unlock()

	if fn != nil {
		fn(rounded)
	}
}

// ZoomRatio returns the current zoom ratio.
func (z *ZoomRatioController) ZoomRatio() float64 {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.current
}

// SelectToggleOption selects a quick-select slot (0 low, 1 middle, 2 high;
// the 2-option layout only uses 0 and 2) and, when its stored ratio differs
// from the current one, applies it with notification.
func (z *ZoomRatioController) SelectToggleOption(index int) error {
	z.mu.Lock()
	var value float64
	switch index {
	case 0:
		value = z.low
	case 1:
		if z.optionCount != 3 {
			z.mu.Unlock()
			return fmt.Errorf("toggle option 1 is not available with %d options", z.optionCount)
		}
		value = z.middle
	case 2:
		value = z.high
	default:
		z.mu.Unlock()
		return fmt.Errorf("unsupported toggle option index: %d", index)
	}
	z.selected = index
	changed := value != z.current
	z.mu.Unlock()

	if changed {
		z.SetZoomRatio(value, true)
	}
	return nil
}

// RatioToProgress converts a zoom ratio into normalized slider progress.
func (z *ZoomRatioController) RatioToProgress(ratio float64) int {
	z.mu.Lock()
	defer z.mu.Unlock()
	return ratioToProgressIn(ratio, z.minZoomRatio, z.maxZoomRatio)
}

// ProgressToRatio converts normalized slider progress into a zoom ratio,
// rounded to one decimal half-up.
func (z *ZoomRatioController) ProgressToRatio(progress int) float64 {
	z.mu.Lock()
	defer z.mu.Unlock()
	return progressToRatioIn(progress, z.minZoomRatio, z.maxZoomRatio)
}

// SetZoomProgress applies a slider position: the equivalent ratio is set with
// notification, and the auto-revert timer is re-armed unless a drag is in
// flight.
func (z *ZoomRatioController) SetZoomProgress(progress int) {
	z.SetZoomRatio(z.ProgressToRatio(progress), true)

	z.mu.Lock()
	if z.mode == ZoomModeSeekBar && !z.dragging {
		z.armRevertTimerLocked()
	}
	z.mu.Unlock()
}

// SwitchMode changes the presentation mode. Entering seek-bar mode arms the
// auto-revert timer; returning to toggle mode cancels it. The zoom ratio is
// never altered by a mode switch.
func (z *ZoomRatioController) SwitchMode(mode ZoomUIMode) {
	z.mu.Lock()
	changed := mode != z.mode
	z.mode = mode
	switch mode {
	case ZoomModeSeekBar:
		if !z.dragging {
			z.armRevertTimerLocked()
		}
	case ZoomModeToggle:
		z.stopRevertTimerLocked()
	}
	var fn func(ZoomUIMode)
	if changed {
		fn = z.onModeChanged
	}
	z.mu.Unlock()

	if fn != nil {
		fn(mode)
	}
}

// Mode returns the current presentation mode.
func (z *ZoomRatioController) Mode() ZoomUIMode {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.mode
}

// StartDrag marks the seek bar as actively dragged, suspending auto-revert.
func (z *ZoomRatioController) StartDrag() {
	z.mu.Lock()
	z.dragging = true
	z.stopRevertTimerLocked()
	z.mu.Unlock()
}

// StopDrag ends the drag and re-arms the auto-revert timer.
func (z *ZoomRatioController) StopDrag() {
	z.mu.Lock()
	z.dragging = false
	if z.mode == ZoomModeSeekBar {
		z.armRevertTimerLocked()
	}
	z.mu.Unlock()
}

// SetAccessibilityEnabled switches between the normal and the longer
// accessibility auto-revert duration. Takes effect the next time the timer is
// armed.
func (z *ZoomRatioController) SetAccessibilityEnabled(enabled bool) {
	z.mu.Lock()
	z.accessibility = enabled
	z.mu.Unlock()
}

// State returns a coherent snapshot for broadcasting.
func (z *ZoomRatioController) State() ZoomState {
	z.mu.Lock()
	defer z.mu.Unlock()
	return ZoomState{
		MinRatio:    z.minZoomRatio,
		MaxRatio:    z.maxZoomRatio,
		Ratio:       z.current,
		Progress:    ratioToProgressIn(z.current, z.minZoomRatio, z.maxZoomRatio),
		Low:         z.low,
		Middle:      z.middle,
		High:        z.high,
		Selected:    z.selected,
		OptionCount: z.optionCount,
		Mode:        z.mode,
	}
}

func (z *ZoomRatioController) armRevertTimerLocked() {
	z.stopRevertTimerLocked()
	d := z.autoRevert
	if z.accessibility {
		d = z.autoRevertAccessibility
	}
	if d <= 0 {
		return
	}
	z.revertTimer = time.AfterFunc(d, z.revertToToggle)
}

func (z *ZoomRatioController) stopRevertTimerLocked() {
	if z.revertTimer != nil {
		z.revertTimer.Stop()
		z.revertTimer = nil
	}
}

// revertToToggle is the timer callback forcing the control back to toggle
// mode when the seek bar sat idle for the configured duration.
func (z *ZoomRatioController) revertToToggle() {
	z.mu.Lock()
	if z.mode != ZoomModeSeekBar || z.dragging {
		z.mu.Unlock()
		return
	}
	z.mode = ZoomModeToggle
	fn := z.onModeChanged
	z.mu.Unlock()

	if fn != nil {
		fn(ZoomModeToggle)
	}
}

// roundZoomRatio rounds to one decimal digit, half-up. Zoom ratios are
// strictly positive, so half-up and half-away-from-zero coincide.
func roundZoomRatio(ratio float64) float64 {
	return math.Floor(ratio*10+0.5) / 10
}

func clampZoomRatio(ratio, min, max float64) float64 {
	if ratio < min {
		return min
	}
	if ratio > max {
		return max
	}
	return ratio
}

func ratioToProgressIn(ratio, min, max float64) int {
	if max <= min {
		return 0
	}
	return int(math.Round((ratio - min) / (max - min) * maxZoomProgress))
}

func progressToRatioIn(progress int, min, max float64) float64 {
	return roundZoomRatio(min + (max-min)*float64(progress)/maxZoomProgress)
}

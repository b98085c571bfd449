package main

import (
	"sync"
	"sync/atomic"
)

// orientationUnknown is the sentinel value for orientation samples that carry
// no usable angle (e.g. the device is lying flat). Such samples are discarded.
const orientationUnknown = -1

// Lens facing of the active camera. Sensor orientation is reported as the
// clockwise correction for back cameras and counter-clockwise for front
// cameras, so the debouncer mirrors the correction for front-facing lenses.
const (
	lensFacingBack  = 0
	lensFacingFront = 1
)

// orientationSource abstracts the underlying orientation sensor. The daemon
// backs it with the input-device reader; tests supply fakes.
type orientationSource interface {
	// CanDetectOrientation reports whether the device can deliver
	// orientation samples at all.
	CanDetectOrientation() bool

	// Enable starts sample delivery. May be called more than once.
	Enable()

	// Disable stops sample delivery.
	Disable()
}

// RotationListener receives stable rotation decisions (0 or 180 degrees).
type RotationListener interface {
	OnRotationChanged(rotation int)
}

// RotationListenerFunc adapts a plain function to RotationListener.
type RotationListenerFunc func(rotation int)

func (f RotationListenerFunc) OnRotationChanged(rotation int) { f(rotation) }

// rotationListenerEntry pairs a listener with its submit function and a
// tombstone flag. Once disabled, a callback that was already submitted but
// not yet executed becomes a no-op.
type rotationListenerEntry struct {
	listener RotationListener
	submit   func(task func())
	enabled  atomic.Bool
}

func (e *rotationListenerEntry) notify(rotation int) {
	e.submit(func() {
		if e.enabled.Load() {
			e.listener.OnRotationChanged(rotation)
		}
	})
}

func (e *rotationListenerEntry) disable() {
	e.enabled.Store(false)
}

// RotationDebouncer converts a raw, noisy device-orientation angle stream
// into a stable 0-or-180-degree image rotation decision.
//
// Orientation is reported as the clockwise angle from the device's natural
// orientation. Samples that land within 10 degrees of the 90/270 decision
// boundaries are debounced: the previous decision is retained, so the stream
// does not flip back and forth while the device is being handled.
//
// Shared by the sensor-reading goroutine and the daemon goroutine; all state
// is serialized under one mutex. Listener dispatch takes a snapshot under the
// lock and submits outside it, so a slow listener cannot stall sensor
// processing.
type RotationDebouncer struct {
	mu        sync.Mutex
	source    orientationSource
	listeners map[RotationListener]*rotationListenerEntry

	rotation          int
	sensorOrientation int
	lastOrientation   int
}

// NewRotationDebouncer creates a debouncer for a camera with the given sensor
// orientation and lens facing. initialOrientation seeds the last-known raw
// sample so the initial rotation decision is well defined.
func NewRotationDebouncer(source orientationSource, sensorOrientation, lensFacing, initialOrientation int) *RotationDebouncer {
	r := &RotationDebouncer{
		source:            source,
		listeners:         make(map[RotationListener]*rotationListenerEntry),
		sensorOrientation: normalizeSensorOrientation(sensorOrientation, lensFacing),
		lastOrientation:   initialOrientation,
	}
	if initialOrientation != orientationUnknown {
		r.rotation = r.decideLocked(initialOrientation)
	}
	return r
}

// normalizeSensorOrientation tracks the clockwise correction regardless of
// lens facing.
func normalizeSensorOrientation(sensorOrientation, lensFacing int) int {
	if lensFacing == lensFacingFront {
		return (360 - sensorOrientation) % 360
	}
	return sensorOrientation % 360
}

// Rotation returns the last emitted stable decision, 0 or 180.
func (r *RotationDebouncer) Rotation() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rotation
}

// OnOrientationChanged feeds one raw orientation sample, in degrees clockwise
// from natural orientation. orientationUnknown samples are discarded. If the
// debounced decision changes, every enabled listener is notified on its own
// submit function.
func (r *RotationDebouncer) OnOrientationChanged(orientation int) {
	if orientation == orientationUnknown {
		return
	}

	var entries []*rotationListenerEntry

	r.mu.Lock()
	r.lastOrientation = orientation
	newRotation := r.decideLocked(orientation)
	changed := newRotation != r.rotation
	if changed {
		r.rotation = newRotation
		entries = make([]*rotationListenerEntry, 0, len(r.listeners))
		for _, e := range r.listeners {
			entries = append(entries, e)
		}
	}
	r.mu.Unlock()

	for _, e := range entries {
		e.notify(newRotation)
	}
}

// UpdateSensorOrientation installs a new sensor mount correction (e.g. after a
// camera switch) and re-evaluates the last known raw sample against it. This
// can fire a rotation-changed callback with no new sample.
func (r *RotationDebouncer) UpdateSensorOrientation(sensorOrientation, lensFacing int) {
	r.mu.Lock()
	r.sensorOrientation = normalizeSensorOrientation(sensorOrientation, lensFacing)
	last := r.lastOrientation
	r.mu.Unlock()

	r.OnOrientationChanged(last)
}

// decideLocked converts a raw orientation sample into a rotation decision,
// debouncing samples near the two flip boundaries. Callers must hold r.mu.
func (r *RotationDebouncer) decideLocked(orientation int) int {
	// The image buffer angle is the counter-clockwise complement of the
	// sensor mount correction.
	bufferAngle := 360 - r.sensorOrientation

	// Angle between the image buffer and the device, normalized to [0,360).
	dAngle := (360 + (bufferAngle - orientation)) % 360

	// Samples within [80,100) or [260,280) are too close to a flip
	// boundary; retain the previous decision. The bucket edges follow from
	// integer division and are deliberately asymmetric around 90/270.
	bucket := dAngle / 10
	if bucket == 8 || bucket == 9 || bucket == 26 || bucket == 27 {
		return r.rotation
	}

	if dAngle >= 90 && dAngle < 270 {
		return 180
	}
	return 0
}

// AddListener registers a listener whose callbacks run via the given submit
// function. Returns false, registering nothing, when the device cannot detect
// orientation; no callbacks will ever fire in that case. The first listener
// enables the underlying sensor.
func (r *RotationDebouncer) AddListener(submit func(task func()), listener RotationListener) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.source.CanDetectOrientation() {
		return false
	}

	e := &rotationListenerEntry{listener: listener, submit: submit}
	e.enabled.Store(true)
	r.listeners[listener] = e
	r.source.Enable()
	return true
}

// RemoveListener disables the listener's tombstone flag before dropping it
// from the registry, so a callback already submitted to its execution context
// observes "disabled" and becomes a no-op. Removing the last listener tears
// down the sensor subscription.
func (r *RotationDebouncer) RemoveListener(listener RotationListener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.listeners[listener]; ok {
		e.disable()
		delete(r.listeners, listener)
	}
	if len(r.listeners) == 0 {
		r.source.Disable()
	}
}

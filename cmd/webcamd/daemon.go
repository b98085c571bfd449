package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// inputOrientationSource gates delivery of orientation samples from the input
// devices. The debouncer enables it when the first rotation listener is added
// and disables it when the last one is removed; the daemon loop drops samples
// while it is disabled.
type inputOrientationSource struct {
	hasDevices bool
	enabled    atomic.Bool
}

func newInputOrientationSource(deviceCount int) *inputOrientationSource {
	return &inputOrientationSource{hasDevices: deviceCount > 0}
}

func (s *inputOrientationSource) CanDetectOrientation() bool { return s.hasDevices }
func (s *inputOrientationSource) Enable()                    { s.enabled.Store(true) }
func (s *inputOrientationSource) Disable()                   { s.enabled.Store(false) }
func (s *inputOrientationSource) active() bool               { return s.enabled.Load() }

// Daemon owns the rotation debouncer and the zoom controller and applies
// actions to them. Orientation samples and actions are consumed on a single
// goroutine (Run); the camera selection is additionally read by WS snapshot
// requests, so it sits behind its own mutex.
type Daemon struct {
	logger *slog.Logger
	cfg    Config

	source    *inputOrientationSource
	debouncer *RotationDebouncer
	zoom      *ZoomRatioController
	prefs     *VendorCameraPrefs

	hub *Hub

	mu       sync.Mutex
	camera   CameraID
	category CameraCategory
}

func NewDaemon(logger *slog.Logger, cfg Config, source *inputOrientationSource, debouncer *RotationDebouncer, zoom *ZoomRatioController, prefs *VendorCameraPrefs, hub *Hub) *Daemon {
	return &Daemon{
		logger:    logger,
		cfg:       cfg,
		source:    source,
		debouncer: debouncer,
		zoom:      zoom,
		prefs:     prefs,
		hub:       hub,
	}
}

// Snapshot builds the state_init payload for newly connected WS clients.
func (d *Daemon) Snapshot() wsStateSnapshot {
	d.mu.Lock()
	camera := d.camera
	d.mu.Unlock()

	zs := d.zoom.State()
	snap := wsStateSnapshot{
		CameraID:     camera.String(),
		Rotation:     d.debouncer.Rotation(),
		ZoomMin:      zs.MinRatio,
		ZoomMax:      zs.MaxRatio,
		ZoomRatio:    zs.Ratio,
		ZoomProgress: zs.Progress,
		ZoomLow:      zs.Low,
		ZoomHigh:     zs.High,
		ZoomSelected: zs.Selected,
		ZoomOptions:  zs.OptionCount,
		ZoomMode:     zs.Mode.String(),
	}
	if zs.OptionCount == 3 {
		snap.ZoomMiddle = zs.Middle
	}
	return snap
}

// RegisterStateListeners wires controller change notifications to the WS hub.
// Call once before Run.
func (d *Daemon) RegisterStateListeners() {
	d.zoom.SetOnValueChanged(func(ratio float64) {
		zs := d.zoom.State()
		data := wsZoomChangedData{
			ZoomRatio:    zs.Ratio,
			ZoomProgress: zs.Progress,
			ZoomLow:      zs.Low,
			ZoomHigh:     zs.High,
			ZoomSelected: zs.Selected,
		}
		if zs.OptionCount == 3 {
			data.ZoomMiddle = zs.Middle
		}
		d.hub.Publish("zoom_changed", data)
	})

	d.zoom.SetOnModeChanged(func(mode ZoomUIMode) {
		d.hub.Publish("zoom_mode_changed", wsZoomModeChangedData{ZoomMode: mode.String()})
	})

	// Dispatch inline: the debouncer only notifies from OnOrientationChanged
	// and UpdateSensorOrientation, both of which run on the daemon goroutine.
	submit := func(task func()) { task() }
	d.debouncer.AddListener(submit, RotationListenerFunc(func(rotation int) {
		d.hub.Publish("rotation_changed", wsRotationChangedData{Rotation: rotation})
	}))
}

// Run consumes orientation samples and actions until ctx is canceled or an
// input device read fails.
func (d *Daemon) Run(ctx context.Context, events <-chan inputEvent, readErr <-chan error, actions <-chan Action) error {
	d.logger.Info("daemon loop starting")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon loop stopping (context canceled)")
			return nil

		case err := <-readErr:
			return fmt.Errorf("input device read failed: %w", err)

		case ev := <-events:
			if !ev.isOrientationSample() {
				continue
			}
			if !d.source.active() {
				continue
			}
			d.debouncer.OnOrientationChanged(int(ev.Value))

		case act := <-actions:
			d.applyAction(act)
		}
	}
}

func (d *Daemon) applyAction(act Action) {
	switch a := act.(type) {
	case SetZoomRatio:
		d.logger.Debug("action: set_zoom_ratio", "ratio", a.Ratio, "origin", a.Origin)
		d.zoom.SetZoomRatio(a.Ratio, true)

	case SetZoomProgress:
		d.logger.Debug("action: set_zoom_progress", "progress", a.Progress)
		d.zoom.SetZoomProgress(a.Progress)

	case SelectZoomOption:
		d.logger.Debug("action: select_zoom_option", "index", a.Index)
		if err := d.zoom.SelectToggleOption(a.Index); err != nil {
			d.logger.Error("select_zoom_option rejected", "index", a.Index, "error", err)
		}

	case SwitchZoomMode:
		d.logger.Debug("action: switch_zoom_mode", "mode", a.Mode)
		mode, err := ParseZoomUIMode(a.Mode)
		if err != nil {
			d.logger.Error("switch_zoom_mode rejected", "mode", a.Mode, "error", err)
			return
		}
		d.zoom.SwitchMode(mode)

	case ZoomDragStart:
		d.logger.Debug("action: zoom_drag_start")
		d.zoom.StartDrag()

	case ZoomDragEnd:
		d.logger.Debug("action: zoom_drag_end")
		d.zoom.StopDrag()

	case SelectCamera:
		d.logger.Debug("action: select_camera", "id", a.ID)
		if err := d.SelectCamera(a.ID); err != nil {
			d.logger.Error("select_camera rejected", "id", a.ID, "error", err)
		}

	case SetAccessibility:
		d.logger.Debug("action: set_accessibility", "enabled", a.Enabled)
		d.zoom.SetAccessibilityEnabled(a.Enabled)

	default:
		d.logger.Warn("unhandled action", "action", fmt.Sprintf("%T", act))
	}
}

// SelectCamera switches the active camera: it validates the identifier,
// applies the vendor zoom range (falling back to the configured defaults),
// re-runs the rotation decision for the new lens, and broadcasts the change.
func (d *Daemon) SelectCamera(identifier string) error {
	id, ok := ParseCameraID(identifier)
	if !ok {
		return fmt.Errorf("malformed camera identifier: %q", identifier)
	}
	if d.prefs.IsIgnored(id.MainID) {
		return fmt.Errorf("camera %s is on the ignored list", id.MainID)
	}

	min := d.cfg.Camera.DefaultZoomMin
	max := d.cfg.Camera.DefaultZoomMax
	if r := d.prefs.ZoomRatioRange(id); r != nil {
		min, max = r.Min, r.Max
	}
	if err := d.zoom.SetSupportedRange(min, max); err != nil {
		return fmt.Errorf("camera %s has unusable zoom range [%v, %v]: %w", identifier, min, max, err)
	}

	category := d.prefs.Category(id)

	d.mu.Lock()
	d.camera = id
	d.category = category
	d.mu.Unlock()

	// Mirror the rotation correction for the new lens and re-evaluate the
	// last orientation sample against it.
	d.debouncer.UpdateSensorOrientation(d.cfg.Sensor.SensorOrientation, d.cfg.LensFacing())

	d.logger.Info("camera selected",
		"id", id.String(),
		"category", category.String(),
		"zoom_min", min,
		"zoom_max", max)

	d.hub.Publish("camera_changed", wsCameraChangedData{
		CameraID: id.String(),
		Category: category.String(),
		ZoomMin:  min,
		ZoomMax:  max,
	})
	return nil
}

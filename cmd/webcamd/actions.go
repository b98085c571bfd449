package main

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// Action Types
// ============================================================================
// Actions represent intent from external clients (IPC, UI, scripts). The
// daemon loop consumes these and applies them to the rotation and zoom
// controllers.
// ============================================================================

// Action is a marker interface for all daemon commands
type Action interface{}

// SetZoomRatio requests an absolute zoom ratio change
type SetZoomRatio struct {
	Ratio  float64 `json:"ratio"`
	Origin string  `json:"origin,omitempty"` // e.g. "ipc", "ui", "webcam-ctl"
}

// SetZoomProgress requests a zoom change via the normalized slider scale
// (0..maxZoomProgress)
type SetZoomProgress struct {
	Progress int `json:"progress"`
}

// SelectZoomOption requests selecting a quick-select toggle slot
type SelectZoomOption struct {
	Index int `json:"index"` // 0 low, 1 middle, 2 high
}

// SwitchZoomMode requests switching the zoom presentation mode
type SwitchZoomMode struct {
	Mode string `json:"mode"` // "toggle" or "seek_bar"
}

// ZoomDragStart marks the beginning of a seek-bar drag gesture
type ZoomDragStart struct{}

// ZoomDragEnd marks the end of a seek-bar drag gesture
type ZoomDragEnd struct{}

// SelectCamera requests switching to another camera; the zoom controller is
// rebuilt with the new camera's supported range
type SelectCamera struct {
	ID string `json:"id"` // CameraID identifier form, e.g. "0-null" or "0-2"
}

// SetAccessibility toggles accessibility-friendly behavior (longer seek-bar
// auto-revert duration)
type SetAccessibility struct {
	Enabled bool `json:"enabled"`
}

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================
// ActionEnvelope wraps actions for JSON serialization/deserialization.
// Since Go doesn't have union types, we use a type discriminator.
// ============================================================================

// ActionEnvelope wraps an action with a type discriminator for JSON marshaling
type ActionEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalAction deserializes a JSON action envelope into a concrete Action
func UnmarshalAction(data []byte) (Action, error) {
	var env ActionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "set_zoom_ratio":
		var a SetZoomRatio
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SetZoomRatio: %w", err)
		}
		return a, nil

	case "set_zoom_progress":
		var a SetZoomProgress
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SetZoomProgress: %w", err)
		}
		return a, nil

	case "select_zoom_option":
		var a SelectZoomOption
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SelectZoomOption: %w", err)
		}
		return a, nil

	case "switch_zoom_mode":
		var a SwitchZoomMode
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SwitchZoomMode: %w", err)
		}
		return a, nil

	case "zoom_drag_start":
		return ZoomDragStart{}, nil

	case "zoom_drag_end":
		return ZoomDragEnd{}, nil

	case "select_camera":
		var a SelectCamera
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SelectCamera: %w", err)
		}
		return a, nil

	case "set_accessibility":
		var a SetAccessibility
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SetAccessibility: %w", err)
		}
		return a, nil

	default:
		return nil, fmt.Errorf("unknown action type: %q", env.Type)
	}
}

// MarshalAction serializes a concrete Action into a JSON envelope
func MarshalAction(a Action) ([]byte, error) {
	var typ string

	switch a.(type) {
	case SetZoomRatio:
		typ = "set_zoom_ratio"
	case SetZoomProgress:
		typ = "set_zoom_progress"
	case SelectZoomOption:
		typ = "select_zoom_option"
	case SwitchZoomMode:
		typ = "switch_zoom_mode"
	case ZoomDragStart:
		typ = "zoom_drag_start"
	case ZoomDragEnd:
		typ = "zoom_drag_end"
	case SelectCamera:
		typ = "select_camera"
	case SetAccessibility:
		typ = "set_accessibility"
	default:
		return nil, fmt.Errorf("unknown action type: %T", a)
	}

	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", a, err)
	}

	return json.Marshal(ActionEnvelope{Type: typ, Data: data})
}

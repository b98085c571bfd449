package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
)

// ============================================================================
// webcam-ctl - Command-line IPC Client
// ============================================================================
// This tool sends commands to the webcamd daemon via IPC.
//
// Usage:
//   webcam-ctl set-zoom 2.0
//   webcam-ctl zoom-progress 50000
//   webcam-ctl zoom-option 1
//   webcam-ctl mode seek_bar
//   webcam-ctl camera 0-2
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/webcamd.sock)
// ============================================================================

// Action types (duplicated from the daemon package for a standalone binary)
type Action interface{}

type SetZoomRatio struct {
	Ratio  float64 `json:"ratio"`
	Origin string  `json:"origin,omitempty"`
}

type SetZoomProgress struct {
	Progress int `json:"progress"`
}

type SelectZoomOption struct {
	Index int `json:"index"`
}

type SwitchZoomMode struct {
	Mode string `json:"mode"`
}

type ZoomDragStart struct{}

type ZoomDragEnd struct{}

type SelectCamera struct {
	ID string `json:"id"`
}

type SetAccessibility struct {
	Enabled bool `json:"enabled"`
}

// ActionEnvelope wraps actions for JSON
type ActionEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// IPCResponse represents the daemon's response
type IPCResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func main() {
	socketPath := "/tmp/webcamd.sock"

	// Parse arguments
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Check for -socket flag
	if args[0] == "-socket" || args[0] == "--socket" {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Parse command
	var action Action

	switch args[0] {
	case "set-zoom", "zoom":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: set-zoom requires a ratio value\n")
			os.Exit(1)
		}
		ratio, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid zoom ratio: %v\n", err)
			os.Exit(1)
		}
		action = SetZoomRatio{Ratio: ratio, Origin: "webcam-ctl"}

	case "zoom-progress", "progress":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: zoom-progress requires a progress value\n")
			os.Exit(1)
		}
		progress, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid progress value: %v\n", err)
			os.Exit(1)
		}
		action = SetZoomProgress{Progress: progress}

	case "zoom-option", "option":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: zoom-option requires an index (0, 1 or 2)\n")
			os.Exit(1)
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid option index: %v\n", err)
			os.Exit(1)
		}
		action = SelectZoomOption{Index: index}

	case "mode":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: mode requires an argument (toggle or seek_bar)\n")
			os.Exit(1)
		}
		action = SwitchZoomMode{Mode: args[1]}

	case "drag-start":
		action = ZoomDragStart{}

	case "drag-end":
		action = ZoomDragEnd{}

	case "camera":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: camera requires an identifier (e.g. 0-null)\n")
			os.Exit(1)
		}
		action = SelectCamera{ID: args[1]}

	case "accessibility":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: accessibility requires an argument (on or off)\n")
			os.Exit(1)
		}
		switch args[1] {
		case "on", "true", "1":
			action = SetAccessibility{Enabled: true}
		case "off", "false", "0":
			action = SetAccessibility{Enabled: false}
		default:
			fmt.Fprintf(os.Stderr, "error: accessibility argument must be on or off\n")
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "error: unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	// Send action
	if err := sendAction(socketPath, action); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("ok")
}

func sendAction(socketPath string, action Action) error {
	// Connect to socket
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	// Marshal action
	data, err := marshalAction(action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}

	// Send action (line-delimited JSON)
	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return fmt.Errorf("send action: %w", err)
	}

	// Read response
	var response IPCResponse
	decoder := json.NewDecoder(conn)
	if err := decoder.Decode(&response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	// Check response status
	if response.Status == "error" {
		return fmt.Errorf("daemon error: %s", response.Error)
	}

	return nil
}

func marshalAction(action Action) ([]byte, error) {
	var env ActionEnvelope

	marshalData := func(v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %T: %w", v, err)
		}
		env.Data = data
		return nil
	}

	switch a := action.(type) {
	case SetZoomRatio:
		env.Type = "set_zoom_ratio"
		if err := marshalData(a); err != nil {
			return nil, err
		}

	case SetZoomProgress:
		env.Type = "set_zoom_progress"
		if err := marshalData(a); err != nil {
			return nil, err
		}

	case SelectZoomOption:
		env.Type = "select_zoom_option"
		if err := marshalData(a); err != nil {
			return nil, err
		}

	case SwitchZoomMode:
		env.Type = "switch_zoom_mode"
		if err := marshalData(a); err != nil {
			return nil, err
		}

	case ZoomDragStart:
		env.Type = "zoom_drag_start"

	case ZoomDragEnd:
		env.Type = "zoom_drag_end"

	case SelectCamera:
		env.Type = "select_camera"
		if err := marshalData(a); err != nil {
			return nil, err
		}

	case SetAccessibility:
		env.Type = "set_accessibility"
		if err := marshalData(a); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown action type: %T", action)
	}

	return json.Marshal(env)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `webcam-ctl - Control webcamd daemon via IPC

Usage:
  webcam-ctl [options] <command> [args]

Options:
  -socket PATH    Unix domain socket path (default: /tmp/webcamd.sock)

Commands:
  set-zoom, zoom <ratio>      Set absolute zoom ratio (e.g. 2.0)
  zoom-progress <progress>    Set zoom via slider progress (0..100000)
  zoom-option <index>         Select a quick-select slot (0 low, 1 middle, 2 high)
  mode <toggle|seek_bar>      Switch zoom presentation mode
  drag-start                  Mark the start of a seek-bar drag
  drag-end                    Mark the end of a seek-bar drag
  camera <id>                 Switch camera (identifier form, e.g. 0-null or 0-2)
  accessibility <on|off>      Toggle accessibility-friendly auto-revert timing
  help, -h, --help            Show this help message

Examples:
  webcam-ctl set-zoom 2.0
  webcam-ctl zoom-option 2
  webcam-ctl -socket /var/run/webcamd.sock camera 1-null
`)
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// ws_listen subscribes to the webcamd state WebSocket and prints every
// event it receives. Useful for debugging rotation and zoom behavior
// while poking the daemon with webcam-ctl.

// stateEnvelope mirrors the daemon's WS wire format.
type stateEnvelope struct {
	Type string          `json:"type"`
	Ts   *time.Time      `json:"ts,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

func main() {
	var (
		wsURL = flag.String("ws", "ws://127.0.0.1:8787/ws/state", "webcamd state websocket URL")
		raw   = flag.Bool("raw", false, "Print raw JSON frames without formatting")
	)
	flag.Parse()

	// Parse websocket URL
	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	// Handle shutdown
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	// Connect to websocket
	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected! (press Ctrl+C to exit)")

	// Mutex to protect concurrent writes to websocket
	var writeMu sync.Mutex

	// Set up ping/pong handlers for connection health
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Start ping ticker to keep connection alive
	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	go func() {
		for range pingTicker.C {
			writeMu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				log.Printf("ping failed: %v", err)
				return
			}
		}
	}()

	// Message reading loop
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				return
			}

			switch messageType {
			case websocket.TextMessage:
				handleTextMessage(message, *raw)
			case websocket.BinaryMessage:
				fmt.Printf("[BINARY] %d bytes\n", len(message))
			case websocket.CloseMessage:
				fmt.Printf("[CLOSE]\n")
				return
			}
		}
	}()

	// Wait for shutdown signal or connection close
	select {
	case <-sigc:
		log.Printf("shutting down...")
		// Clean close
		writeMu.Lock()
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		if err != nil {
			log.Printf("error closing connection: %v", err)
		}
	case <-done:
		log.Printf("connection closed")
	}
}

// handleTextMessage processes incoming state events
func handleTextMessage(message []byte, raw bool) {
	if raw {
		fmt.Printf("%s\n", string(message))
		return
	}

	var env stateEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		fmt.Printf("[TEXT] %s\n", string(message))
		return
	}

	label := env.Type
	if label == "" {
		label = "unknown"
	}

	var data map[string]any
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			fmt.Printf("[%s] %s\n", label, string(env.Data))
			return
		}
	}

	switch env.Type {
	case "rotation_changed":
		fmt.Printf("[ROTATION] %v degrees\n", data["rotation"])

	case "zoom_changed":
		fmt.Printf("[ZOOM] ratio=%v progress=%v selected=%v\n",
			data["zoom_ratio"], data["zoom_progress"], data["zoom_selected"])

	case "zoom_mode_changed":
		fmt.Printf("[ZOOM MODE] %v\n", data["zoom_mode"])

	case "camera_changed":
		fmt.Printf("[CAMERA] %v (%v) zoom range [%v, %v]\n",
			data["camera_id"], data["category"], data["zoom_min"], data["zoom_max"])

	default:
		// state_init and anything unrecognized: pretty print
		prettyJSON, _ := json.MarshalIndent(data, "", "  ")
		fmt.Printf("[%s]\n%s\n\n", label, string(prettyJSON))
	}
}

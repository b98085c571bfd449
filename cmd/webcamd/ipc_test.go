package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startTestIPCServer(t *testing.T) (string, chan Action, context.CancelFunc, chan error) {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "ipc.sock")
	actions := make(chan Action, 16)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- runIPCServer(ctx, socketPath, actions, testLogger()) }()

	if !waitUntil(t, time.Second, func() bool {
		_, err := os.Stat(socketPath)
		return err == nil
	}) {
		cancel()
		t.Fatal("IPC socket did not appear")
	}

	return socketPath, actions, cancel, done
}

// TestIPC_ActionRoundTrip verifies a client-sent action reaches the action
// channel and gets an ok response.
func TestIPC_ActionRoundTrip(t *testing.T) {
	socketPath, actions, cancel, done := startTestIPCServer(t)
	defer cancel()

	if err := SendIPCAction(socketPath, SetZoomRatio{Ratio: 2.5, Origin: "test"}); err != nil {
		t.Fatalf("SendIPCAction failed: %v", err)
	}

	select {
	case act := <-actions:
		szr, ok := act.(SetZoomRatio)
		if !ok {
			t.Fatalf("expected SetZoomRatio, got %T", act)
		}
		if szr.Ratio != 2.5 || szr.Origin != "test" {
			t.Errorf("unexpected action payload: %+v", szr)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for action")
	}

	// Shutdown must be clean
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("IPC server did not stop on context cancel")
	}
}

// TestIPC_MalformedLineGetsErrorResponse verifies the server answers invalid
// JSON with an error response and keeps the connection usable.
func TestIPC_MalformedLineGetsErrorResponse(t *testing.T) {
	socketPath, actions, cancel, _ := startTestIPCServer(t)
	defer cancel()

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	decoder := json.NewDecoder(conn)

	if _, err := fmt.Fprintf(conn, "this is not json\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var resp IPCResponse
	if err := decoder.Decode(&resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if resp.Status != "error" || resp.Error == "" {
		t.Errorf("expected error response, got %+v", resp)
	}

	// The same connection still accepts valid actions
	payload, err := MarshalAction(ZoomDragStart{})
	if err != nil {
		t.Fatalf("MarshalAction failed: %v", err)
	}
	if _, err := fmt.Fprintf(conn, "%s\n", payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := decoder.Decode(&resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected ok response, got %+v", resp)
	}

	select {
	case act := <-actions:
		if _, ok := act.(ZoomDragStart); !ok {
			t.Errorf("expected ZoomDragStart, got %T", act)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for action")
	}
}

// TestIPC_OversizedLineClosesConnection verifies a line exceeding the scan
// buffer drops that connection without taking the server down.
func TestIPC_OversizedLineClosesConnection(t *testing.T) {
	socketPath, _, cancel, _ := startTestIPCServer(t)
	defer cancel()

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// Well past bufio.Scanner's default 64KB token limit, no newline needed.
	huge := make([]byte, 80*1024)
	for i := range huge {
		huge[i] = 'x'
	}
	if _, err := conn.Write(huge); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := conn.Read(make([]byte, 1)); err != io.EOF {
		t.Fatalf("expected server to close the connection on oversized line, got %v", err)
	}

	// A fresh connection must still work
	if !waitUntil(t, time.Second, func() bool {
		return SendIPCAction(socketPath, ZoomDragStart{}) == nil
	}) {
		t.Fatal("server stopped accepting after oversized line")
	}
}

// TestIPC_ReplacesStaleSocket verifies a leftover socket file from a previous
// run does not prevent startup.
func TestIPC_ReplacesStaleSocket(t *testing.T) {
	dir := t.TempDir()
	socketPath := filepath.Join(dir, "ipc.sock")
	if err := os.WriteFile(socketPath, []byte("stale"), 0o644); err != nil {
		t.Fatalf("failed to create stale socket file: %v", err)
	}

	actions := make(chan Action, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runIPCServer(ctx, socketPath, actions, testLogger()) }()

	if !waitUntil(t, time.Second, func() bool {
		err := SendIPCAction(socketPath, ZoomDragEnd{})
		return err == nil
	}) {
		t.Fatal("IPC server did not come up over a stale socket file")
	}
}

//go:build !linux

package main

import "os"

// startInputReaders spawns one reader goroutine per device on platforms
// without epoll. Fine for the small device counts this daemon handles.
func startInputReaders(files []*os.File, events chan<- inputEvent, readErr chan<- error) {
	for _, f := range files {
		go readInputEvents(f, events, readErr)
	}
}

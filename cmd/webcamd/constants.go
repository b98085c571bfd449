package main

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_ABS = 0x03

	// Orientation sensor bridges report the device orientation angle on
	// the miscellaneous absolute axis.
	ABS_MISC = 0x28
)

// Zoom UI configuration defaults
const (
	// defaultToggleAutoRevertMS is how long the seek bar stays up without
	// drag activity before reverting to the toggle presentation (ms).
	defaultToggleAutoRevertMS = 1000

	// defaultToggleAutoRevertAccessibilityMS replaces the duration above
	// while accessibility is enabled (ms).
	defaultToggleAutoRevertAccessibilityMS = 7000
)

// Camera configuration defaults
const (
	// defaultSensorOrientation is the mount correction assumed when no
	// configuration is supplied; 90 degrees matches the common landscape
	// sensor mount.
	defaultSensorOrientation = 90

	defaultZoomRatioMin = 0.6
	defaultZoomRatioMax = 10.0
)

package main

import (
	"sync"
	"testing"
)

// fakeOrientationSource is a test double for orientationSource
type fakeOrientationSource struct {
	canDetect    bool
	enableCalls  int
	disableCalls int
}

func (f *fakeOrientationSource) CanDetectOrientation() bool { return f.canDetect }
func (f *fakeOrientationSource) Enable()                    { f.enableCalls++ }
func (f *fakeOrientationSource) Disable()                   { f.disableCalls++ }

// inlineSubmit runs listener callbacks synchronously
func inlineSubmit(task func()) { task() }

// recordingListener collects rotation callbacks
type recordingListener struct {
	mu        sync.Mutex
	rotations []int
}

func (l *recordingListener) OnRotationChanged(rotation int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rotations = append(l.rotations, rotation)
}

func (l *recordingListener) got() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]int, len(l.rotations))
	copy(out, l.rotations)
	return out
}

// TestRotationDecision_Sweep verifies the 0/180 decision across the angle
// range for an unrotated sensor mount.
func TestRotationDecision_Sweep(t *testing.T) {
	cases := []struct {
		orientation int
		want        int
	}{
		{0, 0},
		{45, 0},
		{79, 0},
		{101, 180},
		{135, 180},
		{180, 180},
		{225, 180},
		{259, 180},
		{281, 0},
		{315, 0},
		{359, 0},
	}

	for _, tc := range cases {
		src := &fakeOrientationSource{canDetect: true}
		r := NewRotationDebouncer(src, 0, lensFacingBack, 0)
		r.OnOrientationChanged(tc.orientation)
		if got := r.Rotation(); got != tc.want {
			t.Errorf("orientation %d: expected rotation %d, got %d", tc.orientation, tc.want, got)
		}
	}
}

// TestRotationDecision_DeadZoneRetainsPrevious verifies that samples near the
// flip boundaries keep the previous decision instead of flapping.
func TestRotationDecision_DeadZoneRetainsPrevious(t *testing.T) {
	src := &fakeOrientationSource{canDetect: true}
	r := NewRotationDebouncer(src, 0, lensFacingBack, 0)

	// Flip to 180 first
	r.OnOrientationChanged(180)
	if got := r.Rotation(); got != 180 {
		t.Fatalf("expected rotation 180 after upside-down sample, got %d", got)
	}

	// 270 maps to dAngle 90 (boundary bucket): decision must stick at 180
	r.OnOrientationChanged(270)
	if got := r.Rotation(); got != 180 {
		t.Errorf("expected dead-zone sample to retain 180, got %d", got)
	}

	// 265 maps to dAngle 95, still inside the dead zone
	r.OnOrientationChanged(265)
	if got := r.Rotation(); got != 180 {
		t.Errorf("expected dead-zone sample to retain 180, got %d", got)
	}

	// A clear upright sample flips back
	r.OnOrientationChanged(350)
	if got := r.Rotation(); got != 0 {
		t.Errorf("expected rotation 0 after upright sample, got %d", got)
	}

	// 90 maps to dAngle 270 (the other boundary): decision sticks at 0 now
	r.OnOrientationChanged(90)
	if got := r.Rotation(); got != 0 {
		t.Errorf("expected dead-zone sample to retain 0, got %d", got)
	}
}

// TestRotationDecision_SensorMountCorrection checks the decision for a
// 90-degree mounted sensor: the natural-up sample lands exactly on a
// boundary, so a well clear sample is used.
func TestRotationDecision_SensorMountCorrection(t *testing.T) {
	src := &fakeOrientationSource{canDetect: true}
	r := NewRotationDebouncer(src, 90, lensFacingBack, 270)

	if got := r.Rotation(); got != 0 {
		t.Fatalf("expected initial rotation 0 for aligned sample, got %d", got)
	}

	r.OnOrientationChanged(90)
	if got := r.Rotation(); got != 180 {
		t.Errorf("expected rotation 180 for opposed sample, got %d", got)
	}
}

// TestRotationDecision_FrontLensMirrorsCorrection verifies that the front
// lens mirrors the sensor mount correction.
func TestRotationDecision_FrontLensMirrorsCorrection(t *testing.T) {
	back := NewRotationDebouncer(&fakeOrientationSource{canDetect: true}, 90, lensFacingBack, orientationUnknown)
	front := NewRotationDebouncer(&fakeOrientationSource{canDetect: true}, 90, lensFacingFront, orientationUnknown)

	back.OnOrientationChanged(90)
	front.OnOrientationChanged(90)

	if got := back.Rotation(); got != 180 {
		t.Errorf("back lens: expected 180, got %d", got)
	}
	if got := front.Rotation(); got != 0 {
		t.Errorf("front lens: expected 0, got %d", got)
	}
}

// TestRotation_UnknownSampleDiscarded verifies that the unknown sentinel
// neither changes the decision nor fires listeners.
func TestRotation_UnknownInitialOrientationKeepsZero(t *testing.T) {
	src := &fakeOrientationSource{canDetect: true}

	// With a 180-degree mount, treating the unknown sentinel as an angle
	// would land in the flipped half. It must be discarded instead.
	r := NewRotationDebouncer(src, 180, lensFacingBack, orientationUnknown)

	if got := r.Rotation(); got != 0 {
		t.Fatalf("expected rotation 0 before any sample, got %d", got)
	}

	l := &recordingListener{}
	if !r.AddListener(inlineSubmit, l) {
		t.Fatal("AddListener returned false")
	}

	r.OnOrientationChanged(0)

	if got := r.Rotation(); got != 180 {
		t.Errorf("expected first real sample to decide 180, got %d", got)
	}
	if calls := l.got(); len(calls) != 1 || calls[0] != 180 {
		t.Errorf("expected single callback with 180, got %v", calls)
	}
}

func TestRotation_UnknownSampleDiscarded(t *testing.T) {
	src := &fakeOrientationSource{canDetect: true}
	r := NewRotationDebouncer(src, 0, lensFacingBack, 180)

	if got := r.Rotation(); got != 180 {
		t.Fatalf("expected initial rotation 180, got %d", got)
	}

	l := &recordingListener{}
	if !r.AddListener(inlineSubmit, l) {
		t.Fatal("AddListener returned false")
	}

	r.OnOrientationChanged(orientationUnknown)

	if got := r.Rotation(); got != 180 {
		t.Errorf("expected unknown sample to leave rotation at 180, got %d", got)
	}
	if calls := l.got(); len(calls) != 0 {
		t.Errorf("expected no listener callbacks for unknown sample, got %v", calls)
	}
}

// TestRotation_ListenerNotifiedOnlyOnChange verifies that repeated samples
// with the same decision do not re-notify.
func TestRotation_ListenerNotifiedOnlyOnChange(t *testing.T) {
	src := &fakeOrientationSource{canDetect: true}
	r := NewRotationDebouncer(src, 0, lensFacingBack, 0)

	l := &recordingListener{}
	if !r.AddListener(inlineSubmit, l) {
		t.Fatal("AddListener returned false")
	}

	r.OnOrientationChanged(10)  // still 0
	r.OnOrientationChanged(180) // flips to 180
	r.OnOrientationChanged(190) // still 180
	r.OnOrientationChanged(0)   // flips to 0

	want := []int{180, 0}
	got := l.got()
	if len(got) != len(want) {
		t.Fatalf("expected callbacks %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected callbacks %v, got %v", want, got)
		}
	}
}

// TestRotation_UpdateSensorOrientationRefires verifies that installing a new
// mount correction re-evaluates the last sample and can notify without any
// new sensor data.
func TestRotation_UpdateSensorOrientationRefires(t *testing.T) {
	src := &fakeOrientationSource{canDetect: true}
	r := NewRotationDebouncer(src, 0, lensFacingBack, 0)

	l := &recordingListener{}
	if !r.AddListener(inlineSubmit, l) {
		t.Fatal("AddListener returned false")
	}

	r.OnOrientationChanged(180)
	if got := r.Rotation(); got != 180 {
		t.Fatalf("expected rotation 180, got %d", got)
	}

	// A 180-degree mount makes the same raw sample decide 0
	r.UpdateSensorOrientation(180, lensFacingBack)
	if got := r.Rotation(); got != 0 {
		t.Errorf("expected rotation 0 after mount correction change, got %d", got)
	}

	want := []int{180, 0}
	got := l.got()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected callbacks %v, got %v", want, got)
	}
}

// TestRotation_AddListenerWithoutSensor verifies that registration fails when
// the device cannot detect orientation.
func TestRotation_AddListenerWithoutSensor(t *testing.T) {
	src := &fakeOrientationSource{canDetect: false}
	r := NewRotationDebouncer(src, 0, lensFacingBack, 0)

	l := &recordingListener{}
	if r.AddListener(inlineSubmit, l) {
		t.Error("expected AddListener to return false without a sensor")
	}
	if src.enableCalls != 0 {
		t.Errorf("expected no Enable call, got %d", src.enableCalls)
	}

	// No callbacks ever fire
	r.OnOrientationChanged(180)
	if calls := l.got(); len(calls) != 0 {
		t.Errorf("expected no callbacks, got %v", calls)
	}
}

// TestRotation_SourceLifecycle verifies that the first listener enables the
// sensor and removing the last one disables it.
func TestRotation_SourceLifecycle(t *testing.T) {
	src := &fakeOrientationSource{canDetect: true}
	r := NewRotationDebouncer(src, 0, lensFacingBack, 0)

	a := &recordingListener{}
	b := &recordingListener{}
	r.AddListener(inlineSubmit, a)
	r.AddListener(inlineSubmit, b)

	if src.enableCalls == 0 {
		t.Error("expected Enable to be called on first listener")
	}

	r.RemoveListener(a)
	if src.disableCalls != 0 {
		t.Errorf("expected no Disable while a listener remains, got %d", src.disableCalls)
	}

	r.RemoveListener(b)
	if src.disableCalls != 1 {
		t.Errorf("expected Disable after last listener removed, got %d", src.disableCalls)
	}
}

// TestRotation_RemovedListenerPendingCallbackDropped verifies the tombstone:
// a callback already handed to the listener's executor becomes a no-op when
// the listener is removed before it runs.
func TestRotation_RemovedListenerPendingCallbackDropped(t *testing.T) {
	src := &fakeOrientationSource{canDetect: true}
	r := NewRotationDebouncer(src, 0, lensFacingBack, 0)

	var pending []func()
	queueSubmit := func(task func()) { pending = append(pending, task) }

	l := &recordingListener{}
	if !r.AddListener(queueSubmit, l) {
		t.Fatal("AddListener returned false")
	}

	r.OnOrientationChanged(180)
	if len(pending) != 1 {
		t.Fatalf("expected 1 queued callback, got %d", len(pending))
	}

	// Remove before the queued callback executes
	r.RemoveListener(l)
	for _, task := range pending {
		task()
	}

	if calls := l.got(); len(calls) != 0 {
		t.Errorf("expected tombstoned callback to be dropped, got %v", calls)
	}
}

// TestRotation_ConcurrentSamples is a race smoke test: samples from multiple
// goroutines with listener churn must not panic or deadlock.
func TestRotation_ConcurrentSamples(t *testing.T) {
	src := &fakeOrientationSource{canDetect: true}
	r := NewRotationDebouncer(src, 0, lensFacingBack, 0)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				r.OnOrientationChanged((seed*37 + i*13) % 360)
			}
		}(g)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			l := &recordingListener{}
			r.AddListener(inlineSubmit, l)
			r.RemoveListener(l)
		}
	}()

	wg.Wait()

	if got := r.Rotation(); got != 0 && got != 180 {
		t.Errorf("expected rotation 0 or 180, got %d", got)
	}
}

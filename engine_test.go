package sculpt

import (
	"errors"
	"testing"
)

// resetEngine restores the registry to its previous state without going
// through RegisterEngine (which would call Init on the old engine again).
func resetEngine(t *testing.T) {
	t.Helper()
	engineMu.Lock()
	prev := engine
	engineMu.Unlock()
	t.Cleanup(func() {
		engineMu.Lock()
		engine = prev
		engineMu.Unlock()
	})
}

func TestRegisterEngine(t *testing.T) {
	resetEngine(t)

	eng := &fakeEngine{}
	if err := RegisterEngine(eng); err != nil {
		t.Fatalf("RegisterEngine() error = %v", err)
	}
	if got := RegisteredEngine(); got != eng {
		t.Errorf("RegisteredEngine() = %v, want the registered engine", got)
	}
}

func TestRegisterEngineNil(t *testing.T) {
	resetEngine(t)

	if err := RegisterEngine(nil); err == nil {
		t.Fatal("RegisterEngine(nil) did not return an error")
	}
}

func TestRegisterEngineInitFailure(t *testing.T) {
	resetEngine(t)

	engineMu.Lock()
	engine = nil
	engineMu.Unlock()

	failing := &initFailEngine{err: errors.New("no device")}
	if err := RegisterEngine(failing); err == nil {
		t.Fatal("RegisterEngine() with failing Init did not return an error")
	}
	if got := RegisteredEngine(); got != nil {
		t.Errorf("RegisteredEngine() = %v after failed registration, want nil", got)
	}
}

func TestRegisterEngineReplacesAndCloses(t *testing.T) {
	resetEngine(t)

	first := &closeTrackingEngine{}
	if err := RegisterEngine(first); err != nil {
		t.Fatalf("RegisterEngine(first) error = %v", err)
	}
	second := &closeTrackingEngine{}
	if err := RegisterEngine(second); err != nil {
		t.Fatalf("RegisterEngine(second) error = %v", err)
	}

	if !first.closed {
		t.Error("replaced engine was not closed")
	}
	if got := RegisteredEngine(); got != Engine(second) {
		t.Error("RegisteredEngine() does not return the replacement")
	}
}

func TestSetEngineDeviceProviderNoEngine(t *testing.T) {
	resetEngine(t)

	engineMu.Lock()
	engine = nil
	engineMu.Unlock()

	if err := SetEngineDeviceProvider(struct{}{}); err != nil {
		t.Errorf("SetEngineDeviceProvider() with no engine = %v, want nil", err)
	}
}

type initFailEngine struct {
	fakeEngine
	err error
}

func (e *initFailEngine) Init() error { return e.err }

type closeTrackingEngine struct {
	fakeEngine
	closed bool
}

func (e *closeTrackingEngine) Close() { e.closed = true }

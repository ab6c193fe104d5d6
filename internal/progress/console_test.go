package progress

import "testing"

func TestCancellableStartsActive(t *testing.T) {
	c := NewCancellable(Noop{})
	if !c.IsActive() {
		t.Fatal("want active immediately after construction")
	}
}

func TestCancellableCancel(t *testing.T) {
	c := NewCancellable(Noop{})
	c.Cancel()
	if c.IsActive() {
		t.Fatal("want inactive after Cancel")
	}
}

func TestCancellableDelegatesCleanupOnCancel(t *testing.T) {
	c := NewCancellable(NewConsole(false, true))
	if !c.CleanupOnCancel() {
		t.Error("want CleanupOnCancel delegated to wrapped sink")
	}
}

func TestConsoleAddProgressNoPanic(t *testing.T) {
	c := NewConsole(false, false)
	c.SetMax(10)
	c.AddProgress(3)
	c.AddProgress(7)
	if !c.IsActive() {
		t.Error("Console.IsActive must always be true")
	}
}

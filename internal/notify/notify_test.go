package notify

import (
	"fmt"
	"log/slog"
	"testing"
)

// fakeNotifier records deliveries and can be told to fail.
type fakeNotifier struct {
	name  string
	fail  bool
	calls int
	title string
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Notify(title, message string) error {
	f.calls++
	f.title = title
	if f.fail {
		return fmt.Errorf("%s unavailable", f.name)
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSendFirstSuccessWins(t *testing.T) {
	first := &fakeNotifier{name: "first"}
	second := &fakeNotifier{name: "second"}
	sound := &fakeNotifier{name: "sound"}

	d := NewDispatcherWith(testLogger(), sound, first, second)
	if err := d.Send("title", "message"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if first.calls != 1 {
		t.Errorf("first notifier calls = %d", first.calls)
	}
	if second.calls != 0 {
		t.Error("second notifier should not fire after first succeeds")
	}
	if sound.calls != 0 {
		t.Error("fallback should not fire on success")
	}
	if first.title != "title" {
		t.Errorf("delivered title = %q", first.title)
	}
}

func TestSendFallsThroughChain(t *testing.T) {
	first := &fakeNotifier{name: "first", fail: true}
	second := &fakeNotifier{name: "second"}
	sound := &fakeNotifier{name: "sound"}

	d := NewDispatcherWith(testLogger(), sound, first, second)
	if err := d.Send("title", "message"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("chain calls = %d, %d", first.calls, second.calls)
	}
	if sound.calls != 0 {
		t.Error("fallback should not fire when the chain recovers")
	}
}

func TestSendAllFailUsesSoundFallback(t *testing.T) {
	first := &fakeNotifier{name: "first", fail: true}
	second := &fakeNotifier{name: "second", fail: true}
	sound := &fakeNotifier{name: "sound"}

	d := NewDispatcherWith(testLogger(), sound, first, second)
	if err := d.Send("title", "message"); err != nil {
		t.Fatalf("Send should succeed via fallback: %v", err)
	}
	if sound.calls != 1 {
		t.Errorf("fallback calls = %d", sound.calls)
	}
}

func TestSendTotalFailure(t *testing.T) {
	first := &fakeNotifier{name: "first", fail: true}
	sound := &fakeNotifier{name: "sound", fail: true}

	d := NewDispatcherWith(testLogger(), sound, first)
	if err := d.Send("title", "message"); err == nil {
		t.Error("expected error when every method fails")
	}
}

func TestSendEmptyChainIsQuiet(t *testing.T) {
	sound := &fakeNotifier{name: "sound"}
	d := NewDispatcherWith(testLogger(), sound)
	if err := d.Send("title", "message"); err != nil {
		t.Fatalf("Send on empty chain: %v", err)
	}
	if sound.calls != 0 {
		t.Error("quiet mode must not fall back to sound")
	}
}

func TestNewDispatcherChainOrder(t *testing.T) {
	d := NewDispatcher("BadBits", []string{"dramatic", "system", "desktop", "sound"}, testLogger())
	if len(d.chain) != 4 {
		t.Fatalf("chain length = %d", len(d.chain))
	}
	want := []string{"dramatic", "system", "desktop", "sound"}
	for i, n := range d.chain {
		if n.Name() != want[i] {
			t.Errorf("chain[%d] = %s, want %s", i, n.Name(), want[i])
		}
	}
}

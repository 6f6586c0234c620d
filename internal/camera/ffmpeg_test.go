package camera

import (
	"runtime"
	"testing"
)

func TestParseDshowVideoDevices(t *testing.T) {
	listing := `[dshow @ 000001f2] DirectShow video devices (some may be both video and audio devices)
[dshow @ 000001f2] "Integrated Camera" (video)
[dshow @ 000001f2]   Alternative name "@device_pnp_\\?\usb#vid_04f2"
[dshow @ 000001f2] "USB Webcam C920" (video)
[dshow @ 000001f2] DirectShow audio devices
[dshow @ 000001f2] "Microphone (Realtek Audio)" (audio)
dummy: Immediate exit requested`

	names := parseDshowVideoDevices(listing)
	if len(names) != 2 {
		t.Fatalf("expected 2 video devices, got %d: %v", len(names), names)
	}
	if names[0] != "Integrated Camera" {
		t.Errorf("names[0] = %q", names[0])
	}
	if names[1] != "USB Webcam C920" {
		t.Errorf("names[1] = %q", names[1])
	}
}

func TestParseDshowVideoDevicesEmpty(t *testing.T) {
	if names := parseDshowVideoDevices("no devices here"); len(names) != 0 {
		t.Errorf("expected no devices, got %v", names)
	}
}

func TestCaptureInput(t *testing.T) {
	switch runtime.GOOS {
	case "linux":
		format, input, err := captureInput(2)
		if err != nil {
			t.Fatalf("captureInput: %v", err)
		}
		if format != "v4l2" || input != "/dev/video2" {
			t.Errorf("captureInput = %s, %s", format, input)
		}
	case "darwin":
		format, input, err := captureInput(1)
		if err != nil {
			t.Fatalf("captureInput: %v", err)
		}
		if format != "avfoundation" || input != "1" {
			t.Errorf("captureInput = %s, %s", format, input)
		}
	default:
		t.Skipf("no deterministic capture input on %s", runtime.GOOS)
	}
}

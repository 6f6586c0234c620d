package notify

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/bdougie/badbits/internal/config"
)

// SoundNotifier plays a short system sound. The title and message are
// ignored; the sound itself is the alert.
type SoundNotifier struct{}

// Name implements Notifier.
func (n *SoundNotifier) Name() string { return config.MethodSound }

// Notify implements Notifier.
func (n *SoundNotifier) Notify(_, _ string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("afplay", "/System/Library/Sounds/Ping.aiff").Run()
	case "linux":
		return exec.Command("paplay", "/usr/share/sounds/freedesktop/stereo/complete.oga").Run()
	case "windows":
		return exec.Command("powershell", "-Command", "[System.Media.SystemSounds]::Exclamation.Play()").Run()
	default:
		return fmt.Errorf("no sound alert available on %s", runtime.GOOS)
	}
}

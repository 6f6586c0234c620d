package notify

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/bdougie/badbits/internal/config"
)

// SystemNotifier shows an alert through platform shell commands, trying each
// known tool for the platform until one works.
type SystemNotifier struct{}

// Name implements Notifier.
func (n *SystemNotifier) Name() string { return config.MethodSystem }

// Notify implements Notifier.
func (n *SystemNotifier) Notify(title, message string) error {
	for _, c := range systemCommands(runtime.GOOS, title, message) {
		if _, err := exec.LookPath(c[0]); err != nil {
			continue
		}
		if err := exec.Command(c[0], c[1:]...).Run(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no system notification tool succeeded on %s", runtime.GOOS)
}

// systemCommands lists the notification commands for a platform in
// preference order.
func systemCommands(goos, title, message string) [][]string {
	switch goos {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", message, title)
		return [][]string{
			{"osascript", "-e", script},
			{"terminal-notifier", "-title", title, "-message", message, "-sound", "default"},
		}
	case "linux":
		return [][]string{
			{"notify-send", title, message, "--icon=dialog-information"},
			{"zenity", "--info", "--title=" + title, "--text=" + message},
		}
	case "windows":
		ps := fmt.Sprintf("[System.Windows.Forms.MessageBox]::Show(%q, %q)", message, title)
		return [][]string{
			{"powershell", "-Command", ps},
			{"msg", "*", fmt.Sprintf("%s: %s", title, message)},
		}
	default:
		return nil
	}
}

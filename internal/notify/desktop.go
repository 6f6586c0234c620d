package notify

import (
	"github.com/gen2brain/beeep"

	"github.com/bdougie/badbits/internal/config"
)

// DesktopNotifier sends a native desktop notification.
type DesktopNotifier struct {
	AppName string
}

// Name implements Notifier.
func (n *DesktopNotifier) Name() string { return config.MethodDesktop }

// Notify implements Notifier.
func (n *DesktopNotifier) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

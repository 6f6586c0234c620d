package notify

import (
	"fmt"
	"html"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/bdougie/badbits/internal/config"
)

// BrowserNotifier renders alerts into a temp HTML page and opens it in the
// default browser. The page is created once per session; later alerts are
// appended so a refresh shows the full history.
type BrowserNotifier struct {
	appName string

	mu     sync.Mutex
	path   string
	opened bool
}

// NewBrowserNotifier returns a browser notifier for the given app name.
func NewBrowserNotifier(appName string) *BrowserNotifier {
	return &BrowserNotifier{appName: appName}
}

// Name implements Notifier.
func (n *BrowserNotifier) Name() string { return config.MethodBrowser }

// Notify implements Notifier.
func (n *BrowserNotifier) Notify(title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.path == "" {
		f, err := os.CreateTemp("", "badbits_notifications_*.html")
		if err != nil {
			return fmt.Errorf("create notification page: %w", err)
		}
		if _, err := f.WriteString(notificationPage(n.appName)); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		n.path = f.Name()
	}

	if err := appendEntry(n.path, title, message); err != nil {
		return err
	}

	if !n.opened {
		if err := openBrowser("file://" + n.path); err != nil {
			return err
		}
		n.opened = true
	}
	return nil
}

// appendEntry injects a notification entry before the closing body tag.
func appendEntry(path, title, message string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	entry := fmt.Sprintf(`<div class="notification"><div class="title">%s</div><div class="body">%s</div><div class="time">%s</div></div>
</body>`,
		html.EscapeString(title), html.EscapeString(message), time.Now().Format("15:04:05"))
	updated := strings.Replace(string(content), "</body>", entry, 1)
	return os.WriteFile(path, []byte(updated), 0o644)
}

// openBrowser launches the platform's default browser for the URL.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

func notificationPage(appName string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<title>%s Notifications</title>
<style>
body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; }
#header { background: #2c3e50; color: white; padding: 15px; margin: -20px -20px 20px -20px; }
.notification { background: white; border-left: 4px solid #dc3545; padding: 15px;
  border-radius: 4px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); margin-bottom: 12px; }
.title { font-weight: bold; margin-bottom: 5px; }
.body { color: #555; }
.time { color: #777; font-size: 0.8em; margin-top: 5px; }
</style>
</head>
<body>
<div id="header"><h2>%s Notifications</h2><p>Refresh to see new alerts</p></div>
</body>
</html>`, html.EscapeString(appName), html.EscapeString(appName))
}

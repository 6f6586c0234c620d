package notify

import (
	"fmt"
	"html"
	"os"

	"github.com/bdougie/badbits/internal/config"
)

// DramaticNotifier opens a full-screen pulsing alert page that the user must
// dismiss, plus a sound for extra attention. Meant for the --loud mode.
type DramaticNotifier struct {
	sound Notifier
}

// Name implements Notifier.
func (n *DramaticNotifier) Name() string { return config.MethodDramatic }

// Notify implements Notifier.
func (n *DramaticNotifier) Notify(title, message string) error {
	f, err := os.CreateTemp("", "badbits_dramatic_alert_*.html")
	if err != nil {
		return fmt.Errorf("create alert page: %w", err)
	}
	if _, err := f.WriteString(dramaticPage(title, message)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := openBrowser("file://" + f.Name()); err != nil {
		return err
	}
	if n.sound != nil {
		_ = n.sound.Notify(title, message)
	}
	return nil
}

func dramaticPage(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<title>%[1]s</title>
<style>
body { margin: 0; font-family: Arial, sans-serif; background: rgba(220,53,69,0.95);
  color: white; display: flex; justify-content: center; align-items: center;
  height: 100vh; animation: pulse 1.5s infinite; }
.container { text-align: center; max-width: 80%%; padding: 2rem; border-radius: 8px;
  background: rgba(0,0,0,0.3); }
h1 { font-size: 3rem; margin-bottom: 1rem; }
.message { font-size: 1.8rem; margin-bottom: 2rem; }
.dismiss { background: white; color: #dc3545; border: none; padding: 1rem 2rem;
  font-size: 1.2rem; font-weight: bold; border-radius: 50px; cursor: pointer; }
@keyframes pulse { 0%%,100%% { background: rgba(220,53,69,0.9); } 50%% { background: rgba(220,53,69,0.7); } }
</style>
</head>
<body>
<div class="container">
<h1>%[1]s</h1>
<div class="message">%[2]s</div>
<button class="dismiss" onclick="window.close()">I'll Fix This Now</button>
<div id="countdown">Alert will close in 15 seconds</div>
</div>
<script>
let left = 15;
const t = setInterval(() => {
  left--;
  document.getElementById('countdown').textContent = 'Alert will close in ' + left + ' seconds';
  if (left <= 0) { clearInterval(t); window.close(); }
}, 1000);
document.addEventListener('keydown', e => {
  if (e.key === 'Escape' || e.key === ' ' || e.key === 'Enter') window.close();
});
</script>
</body>
</html>`, html.EscapeString(title), html.EscapeString(message))
}

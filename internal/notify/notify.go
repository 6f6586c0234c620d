// Package notify delivers habit alerts to the user. Methods are tried in a
// configurable priority order and the first success wins; a sound plays as
// the last resort when the whole chain fails.
package notify

import (
	"fmt"
	"log/slog"

	"github.com/bdougie/badbits/internal/config"
)

// Notifier delivers a single alert through one mechanism.
type Notifier interface {
	Name() string
	Notify(title, message string) error
}

// Dispatcher walks a priority-ordered notifier chain.
type Dispatcher struct {
	chain  []Notifier
	sound  Notifier
	logger *slog.Logger
}

// NewDispatcher builds a dispatcher for the named methods. Unknown method
// names were already rejected by config validation.
func NewDispatcher(appName string, methods []string, logger *slog.Logger) *Dispatcher {
	sound := &SoundNotifier{}
	var chain []Notifier
	for _, m := range methods {
		switch m {
		case config.MethodDesktop:
			chain = append(chain, &DesktopNotifier{AppName: appName})
		case config.MethodSystem:
			chain = append(chain, &SystemNotifier{})
		case config.MethodBrowser:
			chain = append(chain, NewBrowserNotifier(appName))
		case config.MethodDramatic:
			chain = append(chain, &DramaticNotifier{sound: sound})
		case config.MethodSound:
			chain = append(chain, sound)
		}
	}
	return &Dispatcher{chain: chain, sound: sound, logger: logger}
}

// NewDispatcherWith builds a dispatcher over explicit notifiers, with the
// last argument doubling as the failure fallback. Used by tests.
func NewDispatcherWith(logger *slog.Logger, fallback Notifier, chain ...Notifier) *Dispatcher {
	return &Dispatcher{chain: chain, sound: fallback, logger: logger}
}

// Send tries each method in order until one succeeds. When every method
// fails, the sound notifier fires so the alert is not silently dropped.
func (d *Dispatcher) Send(title, message string) error {
	if len(d.chain) == 0 {
		return nil
	}
	var lastErr error
	for _, n := range d.chain {
		if err := n.Notify(title, message); err != nil {
			d.logger.Warn("notify: method failed",
				slog.String("method", n.Name()),
				slog.String("error", err.Error()))
			lastErr = err
			continue
		}
		d.logger.Debug("notify: delivered", slog.String("method", n.Name()))
		return nil
	}

	if d.sound != nil {
		if err := d.sound.Notify(title, message); err == nil {
			return nil
		}
	}
	return fmt.Errorf("notify: all methods failed: %w", lastErr)
}

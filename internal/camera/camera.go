// Package camera acquires webcam frames. The primary backend opens devices
// by index through OpenCV; a one-shot ffmpeg grab serves as the fallback
// when no device can be opened directly.
package camera

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"gocv.io/x/gocv"
)

// Source produces single frames on demand.
type Source interface {
	// Capture grabs one frame. Implementations retry internally according
	// to their configuration before giving up.
	Capture(ctx context.Context) (image.Image, error)
	Close() error
}

const (
	probeLimit = 5
	retryPause = time.Second
)

// DeviceSource captures frames from a webcam by device index, falling back
// through a configured list of backup indices when the primary fails.
type DeviceSource struct {
	devices []int
	warmup  int
	retries int
	logger  *slog.Logger

	cap    *gocv.VideoCapture
	active int
}

// OpenDevice opens the first working device from devices (primary first,
// then backups). warmup frames are read and discarded after each open so
// auto-exposure settles before the first real capture.
func OpenDevice(devices []int, warmup, retries int, logger *slog.Logger) (*DeviceSource, error) {
	if len(devices) == 0 {
		devices = []int{0}
	}
	if retries < 1 {
		retries = 1
	}
	s := &DeviceSource{
		devices: devices,
		warmup:  warmup,
		retries: retries,
		logger:  logger,
	}
	if err := s.reconnect(); err != nil {
		return nil, err
	}
	return s, nil
}

// ActiveDevice returns the index of the device currently in use.
func (s *DeviceSource) ActiveDevice() int {
	return s.active
}

// reconnect walks the device list until one opens.
func (s *DeviceSource) reconnect() error {
	if s.cap != nil {
		s.cap.Close()
		s.cap = nil
	}
	for _, id := range s.devices {
		s.logger.Info("camera: trying device", slog.Int("device", id))
		cap, err := gocv.OpenVideoCapture(id)
		if err != nil || !cap.IsOpened() {
			if cap != nil {
				cap.Close()
			}
			continue
		}
		s.drainWarmup(cap)
		s.cap = cap
		s.active = id
		s.logger.Info("camera: connected", slog.Int("device", id))
		return nil
	}

	available := ProbeDevices(probeLimit)
	if len(available) > 0 {
		return fmt.Errorf("camera: could not open devices %v; available device IDs might be %v", s.devices, available)
	}
	return fmt.Errorf("camera: could not open devices %v; no webcams found", s.devices)
}

func (s *DeviceSource) drainWarmup(cap *gocv.VideoCapture) {
	if s.warmup <= 0 {
		return
	}
	m := gocv.NewMat()
	defer m.Close()
	for i := 0; i < s.warmup; i++ {
		cap.Read(&m)
	}
}

// Capture reads one frame, reconnecting through the device list between
// attempts if the camera has gone away.
func (s *DeviceSource) Capture(ctx context.Context) (image.Image, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if s.cap == nil || !s.cap.IsOpened() {
			s.logger.Warn("camera: connection lost, reconnecting",
				slog.Int("attempt", attempt), slog.Int("max", s.retries))
			if err := s.reconnect(); err != nil {
				lastErr = err
				sleepCtx(ctx, retryPause)
				continue
			}
		}

		m := gocv.NewMat()
		if ok := s.cap.Read(&m); !ok || m.Empty() {
			m.Close()
			lastErr = fmt.Errorf("camera: empty frame from device %d", s.active)
			s.logger.Warn("camera: frame capture failed, retrying",
				slog.Int("attempt", attempt), slog.Int("max", s.retries))
			// Force a reconnect pass on the next attempt.
			s.cap.Close()
			s.cap = nil
			sleepCtx(ctx, retryPause)
			continue
		}

		img, err := m.ToImage()
		m.Close()
		if err != nil {
			lastErr = fmt.Errorf("camera: decode frame: %w", err)
			continue
		}
		return img, nil
	}
	return nil, fmt.Errorf("camera: failed to capture frame after %d attempts: %w", s.retries, lastErr)
}

// Close releases the underlying device.
func (s *DeviceSource) Close() error {
	if s.cap == nil {
		return nil
	}
	err := s.cap.Close()
	s.cap = nil
	return err
}

// ProbeDevices reports which of the first max device indices open.
func ProbeDevices(max int) []int {
	var available []int
	for i := 0; i < max; i++ {
		cap, err := gocv.OpenVideoCapture(i)
		if err != nil {
			continue
		}
		if cap.IsOpened() {
			available = append(available, i)
		}
		cap.Close()
	}
	return available
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

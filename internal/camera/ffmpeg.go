package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// FFmpegSource grabs single frames by shelling out to ffmpeg. It is the
// fallback used when no device can be opened through OpenCV, for example
// when the process lacks direct device permissions.
type FFmpegSource struct {
	device int
	format string
	input  string
	logger *slog.Logger
}

// OpenFFmpeg verifies that ffmpeg is on PATH and resolves the platform
// capture input for the given device index.
func OpenFFmpeg(device int, logger *slog.Logger) (*FFmpegSource, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("camera: ffmpeg not found: %w", err)
	}
	format, input, err := captureInput(device)
	if err != nil {
		return nil, err
	}
	return &FFmpegSource{device: device, format: format, input: input, logger: logger}, nil
}

// captureInput returns the ffmpeg input format and device argument for the
// current platform.
func captureInput(device int) (format, input string, err error) {
	switch runtime.GOOS {
	case "linux":
		return "v4l2", fmt.Sprintf("/dev/video%d", device), nil
	case "darwin":
		return "avfoundation", fmt.Sprintf("%d", device), nil
	case "windows":
		name, err := dshowVideoDevice(device)
		if err != nil {
			return "", "", err
		}
		return "dshow", "video=" + name, nil
	default:
		return "", "", fmt.Errorf("camera: no ffmpeg capture input for %s", runtime.GOOS)
	}
}

// dshowVideoDevice resolves a device index to a DirectShow device name;
// dshow addresses devices by name rather than index.
func dshowVideoDevice(device int) (string, error) {
	cmd := exec.Command("ffmpeg", "-hide_banner", "-list_devices", "true", "-f", "dshow", "-i", "dummy")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// ffmpeg exits non-zero after listing; the device list lands on
	// stderr either way.
	_ = cmd.Run()

	names := parseDshowVideoDevices(stderr.String())
	if device >= len(names) {
		return "", fmt.Errorf("camera: dshow video device %d not found (%d available)", device, len(names))
	}
	return names[device], nil
}

// parseDshowVideoDevices extracts quoted video device names from ffmpeg's
// -list_devices output, in listing order.
func parseDshowVideoDevices(listing string) []string {
	var names []string
	for _, line := range strings.Split(listing, "\n") {
		if !strings.Contains(line, "(video)") {
			continue
		}
		start := strings.Index(line, `"`)
		end := strings.LastIndex(line, `"`)
		if start < 0 || end <= start {
			continue
		}
		names = append(names, line[start+1:end])
	}
	return names
}

// Capture runs a one-shot ffmpeg grab and decodes the resulting JPEG.
func (s *FFmpegSource) Capture(ctx context.Context) (image.Image, error) {
	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-f", s.format,
		"-i", s.input,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("camera: ffmpeg grab failed: %w\noutput: %s", err, stderr.String())
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("camera: decode ffmpeg frame: %w", err)
	}
	s.logger.Debug("camera: ffmpeg frame captured", slog.Int("device", s.device))
	return img, nil
}

// Close is a no-op; ffmpeg holds the device only for the grab itself.
func (s *FFmpegSource) Close() error {
	return nil
}

// Open returns a frame source for the configured devices, preferring direct
// device capture and falling back to ffmpeg.
func Open(devices []int, warmup, retries int, logger *slog.Logger) (Source, error) {
	src, devErr := OpenDevice(devices, warmup, retries, logger)
	if devErr == nil {
		return src, nil
	}
	logger.Warn("camera: direct capture unavailable, trying ffmpeg", slog.String("error", devErr.Error()))

	primary := 0
	if len(devices) > 0 {
		primary = devices[0]
	}
	ff, ffErr := OpenFFmpeg(primary, logger)
	if ffErr != nil {
		return nil, fmt.Errorf("%w (ffmpeg fallback: %v)", devErr, ffErr)
	}
	return ff, nil
}

package audio

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Capture wraps a PortAudio input stream and keeps a mono history of the
// latest samples for the analyser to read.
type Capture struct {
	stream     *portaudio.Stream
	sampleRate float64
	channels   int
	device     *portaudio.DeviceInfo

	mu   sync.Mutex
	ring []float32
	pos  int
}

// Config controls how a Capture instance is created.
type Config struct {
	DeviceName string
	// History is the number of mono samples retained; it bounds the largest
	// frame that can be read.
	History  int
	Channels int
}

const defaultHistory = 32768

// NewCapture opens and starts a PortAudio input stream.
func NewCapture(cfg Config) (*Capture, error) {
	if cfg.History <= 0 {
		cfg.History = defaultHistory
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}

	device, err := findDevice(cfg.DeviceName)
	if err != nil {
		return nil, err
	}
	if device.MaxInputChannels < cfg.Channels {
		cfg.Channels = device.MaxInputChannels
	}

	c := &Capture{
		sampleRate: device.DefaultSampleRate,
		channels:   cfg.Channels,
		device:     device,
		ring:       make([]float32, cfg.History),
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: cfg.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      c.sampleRate,
		FramesPerBuffer: portaudio.FramesPerBufferUnspecified,
	}, c.process)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	c.stream = stream

	if err := c.stream.Start(); err != nil {
		_ = c.stream.Close()
		return nil, fmt.Errorf("start stream: %w", err)
	}
	return c, nil
}

// Close stops and closes the underlying PortAudio stream.
func (c *Capture) Close() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil && !errorsIsInvalidStreamState(err) {
		return err
	}
	return c.stream.Close()
}

// SampleRate returns the stream sample rate.
func (c *Capture) SampleRate() float64 {
	return c.sampleRate
}

// Device returns the PortAudio device associated with the capture stream.
func (c *Capture) Device() *portaudio.DeviceInfo {
	return c.device
}

// Read copies the latest len(dst) samples into dst, oldest first. Requests
// longer than the history are left-padded with silence.
func (c *Capture) Read(dst []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	readRing(c.ring, c.pos, dst)
}

func readRing(ring []float32, pos int, dst []float32) {
	size := len(ring)
	n := len(dst)
	pad := 0
	if n > size {
		pad = n - size
		clear(dst[:pad])
		n = size
	}
	start := (pos - n + size) % size
	for i := 0; i < n; i++ {
		dst[pad+i] = ring[(start+i)%size]
	}
}

func (c *Capture) process(in []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = pushMono(c.ring, c.pos, in, c.channels)
}

// pushMono down-mixes interleaved frames into ring starting at pos and
// returns the new write position.
func pushMono(ring []float32, pos int, in []float32, channels int) int {
	if channels < 1 {
		channels = 1
	}
	size := len(ring)
	for base := 0; base+channels <= len(in); base += channels {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += in[base+ch]
		}
		ring[pos] = sum / float32(channels)
		pos++
		if pos == size {
			pos = 0
		}
	}
	return pos
}

func findDevice(name string) (*portaudio.DeviceInfo, error) {
	if name != "" {
		return findDeviceByName(name)
	}

	if dev, err := portaudio.DefaultInputDevice(); err == nil && dev != nil && dev.MaxInputChannels > 0 {
		return dev, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}
	if candidate := pickBestDevice(devices); candidate != nil {
		return candidate, nil
	}
	return nil, fmt.Errorf("no suitable audio input device found")
}

func findDeviceByName(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}

	name = strings.ToLower(name)
	for _, device := range devices {
		if device.MaxInputChannels == 0 {
			continue
		}
		if strings.Contains(strings.ToLower(device.Name), name) {
			return device, nil
		}
	}
	return nil, fmt.Errorf("audio device %q not found", name)
}

// pickBestDevice prefers devices that look like a microphone over loopback
// monitors, then more input channels.
func pickBestDevice(devices []*portaudio.DeviceInfo) *portaudio.DeviceInfo {
	type scored struct {
		dev   *portaudio.DeviceInfo
		score int
	}
	var results []scored
	for _, d := range devices {
		if d == nil || d.MaxInputChannels <= 0 {
			continue
		}
		results = append(results, scored{dev: d, score: deviceScore(d.Name, d.MaxInputChannels)})
	}
	if len(results) == 0 {
		return nil
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return strings.ToLower(results[i].dev.Name) < strings.ToLower(results[j].dev.Name)
		}
		return results[i].score > results[j].score
	})
	return results[0].dev
}

func deviceScore(name string, inputs int) int {
	score := inputs
	lower := strings.ToLower(name)
	for _, kw := range []string{"mic", "input", "capture"} {
		if strings.Contains(lower, kw) {
			score += 20
			break
		}
	}
	if strings.Contains(lower, "default") {
		score += 10
	}
	if strings.Contains(lower, "monitor") || strings.Contains(lower, "loopback") {
		score -= 15
	}
	return score
}

// errorsIsInvalidStreamState checks if the provided error stems from stopping an already stopped stream.
func errorsIsInvalidStreamState(err error) bool {
	if err == nil {
		return false
	}
	const invalidStateMsg = "PaErrorCode -9986"
	return strings.Contains(err.Error(), invalidStateMsg)
}

// AutoDetectDevice returns the best available input device PortAudio can find.
func AutoDetectDevice() (*portaudio.DeviceInfo, error) {
	return findDevice("")
}

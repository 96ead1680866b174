// ABOUTME: Confirmation chime played on the default output after a switch.
// ABOUTME: Uses malgo (miniaudio bindings) for playback, beep and go-audio for decoding.

package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	"github.com/777genius/audio-output-switcher/internal/logging"
)

// DefaultTimeout bounds how long a chime may play
const DefaultTimeout = 10 * time.Second

// pcm is decoded, interleaved 16-bit audio
type pcm struct {
	samples    []int16
	sampleRate uint32
	channels   int
}

// Player plays short sounds on the system default output
type Player struct {
	ctx     *malgo.AllocatedContext
	volume  float64
	timeout time.Duration
	mu      sync.Mutex
}

// NewPlayer creates a player; volume is 0.0-1.0
func NewPlayer(volume float64) (*Player, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init audio context: %w", err)
	}
	return &Player{
		ctx:     ctx,
		volume:  volume,
		timeout: DefaultTimeout,
	}, nil
}

// Play decodes soundPath and blocks until it has played or the timeout hits
func (p *Player) Play(soundPath string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx == nil {
		return fmt.Errorf("audio player is closed")
	}

	sound, err := decodeFile(soundPath)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", soundPath, err)
	}
	applyVolume(sound.samples, p.volume)
	data := samplesToBytes(sound.samples)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(sound.channels)
	deviceConfig.SampleRate = sound.sampleRate
	// larger periods avoid crackling on busy systems
	deviceConfig.PeriodSizeInFrames = 4096
	deviceConfig.Periods = 4
	deviceConfig.Alsa.NoMMap = 1

	var pos int
	done := make(chan struct{})
	var doneOnce sync.Once
	frameBytes := sound.channels * 2

	onData := func(out, _ []byte, frameCount uint32) {
		n := copy(out[:min(len(out), int(frameCount)*frameBytes)], data[pos:])
		pos += n
		clear(out[n:])
		if pos >= len(data) {
			doneOnce.Do(func() { close(done) })
		}
	}

	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onData})
	if err != nil {
		return fmt.Errorf("failed to init audio device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start audio device: %w", err)
	}

	select {
	case <-done:
		// let the device drain its buffer
		time.Sleep(200 * time.Millisecond)
		logging.Debug("Chime played: %s", soundPath)
	case <-time.After(p.timeout):
		logging.Warn("Chime playback timeout: %s", soundPath)
	}

	_ = device.Stop()
	return nil
}

// Close releases the audio context
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx != nil {
		_ = p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
	}
	return nil
}

// streamDecoder matches the beep format decoders
type streamDecoder func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

var streamDecoders = map[string]streamDecoder{
	".mp3":  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) },
	".wav":  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) },
	".flac": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return flac.Decode(f) },
	".ogg":  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return vorbis.Decode(f) },
	".oga":  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return vorbis.Decode(f) },
}

// SupportedFormats lists the accepted file extensions
func SupportedFormats() []string {
	return []string{".mp3", ".wav", ".flac", ".ogg", ".oga", ".aiff", ".aif"}
}

func decodeFile(soundPath string) (*pcm, error) {
	ext := strings.ToLower(filepath.Ext(soundPath))
	decode, isStream := streamDecoders[ext]
	if !isStream && ext != ".aiff" && ext != ".aif" {
		return nil, fmt.Errorf("unsupported audio format: %q", ext)
	}

	f, err := os.Open(soundPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	if !isStream {
		return decodeAIFF(f)
	}

	streamer, format, err := decode(f)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()
	return streamToPCM(streamer, format), nil
}

func decodeAIFF(f *os.File) (*pcm, error) {
	decoder := aiff.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid AIFF file")
	}
	decoder.ReadInfo()

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read AIFF data: %w", err)
	}
	return &pcm{
		samples:    intBufferToSamples(buf, int(decoder.BitDepth)),
		sampleRate: uint32(decoder.SampleRate),
		channels:   int(decoder.NumChans),
	}, nil
}

// streamToPCM drains a beep streamer into interleaved int16 samples. Mono
// sources keep only the left channel.
func streamToPCM(streamer beep.Streamer, format beep.Format) *pcm {
	channels := format.NumChannels
	if channels > 2 {
		channels = 2
	}

	var samples []int16
	buf := make([][2]float64, 512)
	for {
		n, ok := streamer.Stream(buf)
		for _, frame := range buf[:n] {
			samples = append(samples, int16(frame[0]*32767))
			if channels == 2 {
				samples = append(samples, int16(frame[1]*32767))
			}
		}
		if !ok || n == 0 {
			break
		}
	}

	return &pcm{
		samples:    samples,
		sampleRate: uint32(format.SampleRate),
		channels:   channels,
	}
}

// intBufferToSamples scales go-audio samples of the given bit depth to 16 bits
func intBufferToSamples(buf *audio.IntBuffer, bitDepth int) []int16 {
	shift := bitDepth - 16
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		switch {
		case shift > 0:
			samples[i] = int16(v >> shift)
		case shift < 0 && bitDepth > 0:
			samples[i] = int16(v << -shift)
		default:
			samples[i] = int16(v)
		}
	}
	return samples
}

func applyVolume(samples []int16, volume float64) {
	if volume >= 1.0 {
		return
	}
	for i := range samples {
		samples[i] = int16(float64(samples[i]) * volume)
	}
}

// samplesToBytes encodes samples as little-endian S16
func samplesToBytes(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		b[i*2] = byte(s)
		b[i*2+1] = byte(s >> 8)
	}
	return b
}

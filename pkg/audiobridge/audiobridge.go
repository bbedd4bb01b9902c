// SPDX-License-Identifier: BSD-3-Clause

// Package audiobridge listens on the fixed audio proxy Unix domain socket
// and decodes the length-prefixed PCM frames an external audio-proxy helper
// process streams in, turning each frame into a coarse spectrum sample fed
// to pkg/scripthost's audio-reactive intrinsic. Eruption itself never talks
// to an audio backend directly; a small helper process owns the actual
// PulseAudio/PipeWire grab and forwards raw samples over this socket, the
// same split the original audio proxy helper used.
package audiobridge

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/eruption-core/eruptiond/pkg/log"
)

// DefaultSocketPath is the fixed path the audio proxy helper connects to.
const DefaultSocketPath = "/run/eruption/audio.sock"

// DefaultBandCount is the number of spectrum bands computed per frame.
const DefaultBandCount = 16

// maxFrameBytes bounds a single incoming frame so a misbehaving or
// malicious peer cannot make the bridge allocate unbounded memory.
const maxFrameBytes = 64 * 1024

// SampleRate is the PCM sample rate the proxy helper records at (S16LE,
// stereo, 44100 Hz), matching the original audio proxy's capture format.
const SampleRate = 44100

// Bridge accepts one audio-proxy connection at a time on a Unix domain
// socket and turns each length-prefixed PCM frame into a band-energy
// spectrum sample.
type Bridge struct {
	socketPath string
	bandCount  int

	onSpectrum func(bins []float64)

	enabled atomic.Bool

	mu       sync.Mutex
	listener *net.UnixListener
}

// Option configures a Bridge.
type Option interface {
	apply(*Bridge)
}

type optionFunc func(*Bridge)

func (f optionFunc) apply(b *Bridge) { f(b) }

// WithSocketPath overrides the Unix domain socket path the bridge listens on.
func WithSocketPath(path string) Option {
	return optionFunc(func(b *Bridge) { b.socketPath = path })
}

// WithBandCount overrides the number of spectrum bands computed per frame.
func WithBandCount(n int) Option {
	return optionFunc(func(b *Bridge) { b.bandCount = n })
}

// WithOnSpectrum registers the callback invoked with each decoded spectrum
// sample, typically scripthost.Host's spectrum buffer's Update method.
func WithOnSpectrum(fn func(bins []float64)) Option {
	return optionFunc(func(b *Bridge) { b.onSpectrum = fn })
}

// New creates a Bridge with the given options. The bridge starts enabled;
// see SetEnabled for the EnableSfx=false behavior.
func New(opts ...Option) *Bridge {
	b := &Bridge{
		socketPath: DefaultSocketPath,
		bandCount:  DefaultBandCount,
	}
	b.enabled.Store(true)
	for _, opt := range opts {
		opt.apply(b)
	}
	return b
}

// SetEnabled toggles whether decoded spectrum samples are forwarded to the
// registered callback. Eruption keeps accepting and decoding frames from the
// proxy helper either way; when disabled, it instead forwards an all-zero
// buffer of the configured band count, so an audio-reactive script's
// spectrum intrinsic reads as silence rather than stale data.
func (b *Bridge) SetEnabled(enabled bool) {
	b.enabled.Store(enabled)
}

// Enabled reports the current SetEnabled state.
func (b *Bridge) Enabled() bool {
	return b.enabled.Load()
}

// Run listens on the configured socket path and serves audio-proxy
// connections, one at a time, until ctx is canceled. A peer disconnecting
// is not an error: Run simply waits for the next connection.
func (b *Bridge) Run(ctx context.Context) error {
	l := log.GetGlobalLogger().With("component", "audiobridge")

	if err := os.Remove(b.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("audiobridge: removing stale socket %s: %w", b.socketPath, err)
	}

	addr, err := net.ResolveUnixAddr("unix", b.socketPath)
	if err != nil {
		return fmt.Errorf("audiobridge: resolving %s: %w", b.socketPath, err)
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListenFailed, err)
	}
	b.mu.Lock()
	b.listener = ln
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close() //nolint:errcheck
		os.Remove(b.socketPath) //nolint:errcheck
	}()

	l.InfoContext(ctx, "Audio proxy bridge listening", "socket", b.socketPath)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("audiobridge: accept: %w", err)
		}

		l.InfoContext(ctx, "Audio proxy connected")
		b.serve(ctx, conn)
		l.InfoContext(ctx, "Audio proxy disconnected")

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// serve reads frames from a single connection until it errs out or ctx is
// canceled.
func (b *Bridge) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close() //nolint:errcheck

	go func() {
		<-ctx.Done()
		conn.Close() //nolint:errcheck
	}()

	r := bufio.NewReader(conn)
	for {
		samples, err := readFrame(r)
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				log.GetGlobalLogger().WarnContext(ctx, "audiobridge: frame read failed", "error", err)
			}
			return
		}

		bins := computeBands(samples, b.bandCount)
		if !b.enabled.Load() {
			bins = make([]float64, b.bandCount)
		}
		if b.onSpectrum != nil {
			b.onSpectrum(bins)
		}
	}
}

// readFrame reads one length-prefixed frame: a uint32 little-endian byte
// count followed by that many bytes of interleaved int16 little-endian PCM
// samples, and returns the decoded samples.
func readFrame(r io.Reader) ([]int16, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	frameLen := binary.LittleEndian.Uint32(lenBuf[:])
	if frameLen == 0 {
		return nil, nil
	}
	if frameLen > maxFrameBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, frameLen)
	}

	payload := make([]byte, frameLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	samples := make([]int16, len(payload)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(payload[i*2 : i*2+2]))
	}
	return samples, nil
}

// WriteFrame encodes samples as a length-prefixed frame and writes it to w,
// the wire format a test client or the external proxy helper uses to push a
// PCM block to the bridge.
func WriteFrame(w io.Writer, samples []int16) error {
	payload := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(payload[i*2:i*2+2], uint16(s))
	}

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// computeBands splits samples into bandCount logarithmically-spaced
// frequency bands and returns each band's magnitude, divided by the sample
// count, via the Goertzel
// algorithm, a constant-memory single-bin DFT well suited to evaluating a
// handful of known frequencies without a full FFT.
func computeBands(samples []int16, bandCount int) []float64 {
	bins := make([]float64, bandCount)
	if len(samples) == 0 || bandCount == 0 {
		return bins
	}

	floatSamples := make([]float64, len(samples))
	for i, s := range samples {
		floatSamples[i] = float64(s) / 32768.0
	}

	minFreq, maxFreq := 30.0, 16000.0
	for band := 0; band < bandCount; band++ {
		t := float64(band) / float64(bandCount-1)
		if bandCount == 1 {
			t = 0
		}
		freq := minFreq * math.Pow(maxFreq/minFreq, t)
		bins[band] = goertzelMagnitude(floatSamples, SampleRate, freq)
	}
	return bins
}

// goertzelMagnitude returns the normalized magnitude of frequency freq (Hz)
// within samples, sampled at sampleRate.
func goertzelMagnitude(samples []float64, sampleRate int, freq float64) float64 {
	n := len(samples)
	k := int(0.5 + float64(n)*freq/float64(sampleRate))
	omega := 2 * math.Pi * float64(k) / float64(n)
	coeff := 2 * math.Cos(omega)

	var s0, s1, s2 float64
	for _, x := range samples {
		s0 = x + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}

	real := s1 - s2*math.Cos(omega)
	imag := s2 * math.Sin(omega)
	magnitude := math.Sqrt(real*real + imag*imag)
	return magnitude / float64(n)
}

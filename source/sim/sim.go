package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// Component is one sinusoidal constituent of the simulated sea state.
type Component struct {
	FrequencyHz float64
	Amplitude   float64
}

// Option configures a Source.
type Option func(*Source)

// WithComponents replaces the default single-component sea state.
func WithComponents(components ...Component) Option {
	return func(s *Source) {
		if len(components) > 0 {
			s.components = append([]Component(nil), components...)
		}
	}
}

// WithNoise adds deterministic white noise of the given amplitude.
func WithNoise(amplitude float64) Option {
	return func(s *Source) {
		if amplitude >= 0 {
			s.noise = amplitude
		}
	}
}

// WithSeed sets the noise seed.
func WithSeed(seed int64) Option {
	return func(s *Source) {
		s.seed = seed
	}
}

// WithChannelPhase offsets each channel's waveform by the given radians
// multiplied by the channel id, so channels are distinguishable.
func WithChannelPhase(radians float64) Option {
	return func(s *Source) {
		s.channelPhase = radians
	}
}

// WithFailure injects read failures: fail is consulted on every read with the
// channel id and the per-channel tick counter, and any non-nil error is
// returned instead of a value. Used to exercise gap handling.
func WithFailure(fail func(channelID int, tick int64) error) Option {
	return func(s *Source) {
		s.failure = fail
	}
}

// Source is a deterministic simulated sample source: a sum of sinusoids plus
// seeded noise, advanced by one sample per read and channel. It implements
// the acquire.Source contract and is safe for concurrent use.
type Source struct {
	sampleRate   float64
	components   []Component
	noise        float64
	seed         int64
	channelPhase float64
	failure      func(channelID int, tick int64) error

	mu       sync.Mutex
	counters map[int]int64
	rng      *rand.Rand
}

// New returns a simulated source advancing at the given sample rate.
func New(sampleRate float64, opts ...Option) (*Source, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sim: sample rate must be > 0: %f", sampleRate)
	}

	s := &Source{
		sampleRate: sampleRate,
		components: []Component{{FrequencyHz: 0.2, Amplitude: 1}},
		seed:       1,
		counters:   make(map[int]int64),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.rng = rand.New(rand.NewSource(s.seed))
	return s, nil
}

// Read returns the next simulated raw value for the channel.
func (s *Source) Read(ctx context.Context, channelID int) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.counters[channelID]
	s.counters[channelID] = n + 1

	if s.failure != nil {
		if err := s.failure(channelID, n); err != nil {
			return 0, err
		}
	}

	t := float64(n) / s.sampleRate
	phase := s.channelPhase * float64(channelID)

	v := 0.0
	for _, c := range s.components {
		v += c.Amplitude * math.Sin(2*math.Pi*c.FrequencyHz*t+phase)
	}
	if s.noise > 0 {
		v += (s.rng.Float64()*2 - 1) * s.noise
	}
	return v, nil
}

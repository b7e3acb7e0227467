package sim

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestNewRejectsBadRate(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestReadIsDeterministic(t *testing.T) {
	read := func() []float64 {
		s, err := New(10, WithNoise(0.1), WithSeed(7))
		if err != nil {
			t.Fatal(err)
		}
		out := make([]float64, 50)
		for i := range out {
			out[i], err = s.Read(context.Background(), 1)
			if err != nil {
				t.Fatal(err)
			}
		}
		return out
	}

	a, b := read(), read()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d: %v != %v, same seed must reproduce", i, a[i], b[i])
		}
	}
}

func TestReadFollowsSinusoid(t *testing.T) {
	const (
		rate = 100.0
		freq = 0.5
		amp  = 2.0
	)
	s, err := New(rate, WithComponents(Component{FrequencyHz: freq, Amplitude: amp}))
	if err != nil {
		t.Fatal(err)
	}

	for i := range 200 {
		got, err := s.Read(context.Background(), 3)
		if err != nil {
			t.Fatal(err)
		}
		want := amp * math.Sin(2*math.Pi*freq*float64(i)/rate)
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("sample %d: got %v, want %v", i, got, want)
		}
	}
}

func TestChannelsAdvanceIndependently(t *testing.T) {
	s, err := New(10)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for range 5 {
		if _, err := s.Read(ctx, 1); err != nil {
			t.Fatal(err)
		}
	}

	// Channel 2 starts at tick 0 regardless of channel 1's progress.
	got, err := s.Read(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Fatalf("first sample of fresh channel = %v, want 0 (sin of t=0)", got)
	}
}

func TestFailureInjection(t *testing.T) {
	boom := errors.New("boom")
	s, err := New(10, WithFailure(func(channelID int, tick int64) error {
		if channelID == 1 && tick == 2 {
			return boom
		}
		return nil
	}))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for i := range 5 {
		_, err := s.Read(ctx, 1)
		if i == 2 && !errors.Is(err, boom) {
			t.Fatalf("tick 2: err = %v, want injected failure", err)
		}
		if i != 2 && err != nil {
			t.Fatalf("tick %d: unexpected error %v", i, err)
		}
	}

	// Other channels are untouched by the injected failure.
	if _, err := s.Read(ctx, 2); err != nil {
		t.Fatal(err)
	}
}

func TestReadHonoursContext(t *testing.T) {
	s, err := New(10)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Read(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

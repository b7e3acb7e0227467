package core

import (
	"math"
	"testing"
)

func TestEnsureLenReuse(t *testing.T) {
	buf := make([]float64, 4, 8)

	out := EnsureLen(buf, 6)
	if len(out) != 6 {
		t.Fatalf("len = %d, want 6", len(out))
	}

	if cap(out) != cap(buf) {
		t.Fatalf("cap = %d, want %d", cap(out), cap(buf))
	}
}

func TestMeanAndRMS(t *testing.T) {
	data := []float64{1, 2, 3, 4}

	if got := Mean(data); got != 2.5 {
		t.Fatalf("Mean = %v, want 2.5", got)
	}

	want := math.Sqrt((1 + 4 + 9 + 16) / 4.0)
	if got := RMS(data); math.Abs(got-want) > 1e-12 {
		t.Fatalf("RMS = %v, want %v", got, want)
	}

	if Mean(nil) != 0 || RMS(nil) != 0 {
		t.Fatalf("empty input must yield 0")
	}
}

func TestDetrendRemovesLine(t *testing.T) {
	data := make([]float64, 64)
	for i := range data {
		data[i] = 0.5*float64(i) + 3
	}

	Detrend(data)

	for i, v := range data {
		if math.Abs(v) > 1e-9 {
			t.Fatalf("index %d: residual %v after detrend", i, v)
		}
	}
}

func TestDetrendConstantSignal(t *testing.T) {
	data := []float64{7, 7, 7, 7}
	Detrend(data)

	for i, v := range data {
		if math.Abs(v) > 1e-12 {
			t.Fatalf("index %d: residual %v, want 0", i, v)
		}
	}
}

func TestNextPowerOf2(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {255, 256}, {256, 256}, {257, 512},
	}
	for _, tc := range cases {
		if got := NextPowerOf2(tc.in); got != tc.want {
			t.Fatalf("NextPowerOf2(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCalibratedExtract(t *testing.T) {
	samples := []Sample{
		{ChannelID: 1, Timestamp: 0.0, Raw: 0.1, Calibrated: 1.0},
		{ChannelID: 1, Timestamp: 0.1, Raw: 0.2, Calibrated: 2.0},
	}

	vals := Calibrated(nil, samples)
	if len(vals) != 2 || vals[0] != 1.0 || vals[1] != 2.0 {
		t.Fatalf("unexpected calibrated values: %#v", vals)
	}

	ts := Timestamps(nil, samples)
	if len(ts) != 2 || ts[1] != 0.1 {
		t.Fatalf("unexpected timestamps: %#v", ts)
	}
}

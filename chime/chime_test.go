package chime

import (
	"bytes"
	"testing"
	"time"
)

func TestBuildLength(t *testing.T) {
	s, err := build(sampleRate, melody)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	total := 0
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		total += n
		if !ok {
			break
		}
	}
	want := sampleRate.N(120*time.Millisecond) + sampleRate.N(180*time.Millisecond)
	if total != want {
		t.Fatalf("samples = %d, want %d", total, want)
	}
}

func TestBellFallback(t *testing.T) {
	var out bytes.Buffer
	Bell(&out).Ring()
	if out.String() != "\a" {
		t.Fatalf("bell = %q", out.String())
	}
}

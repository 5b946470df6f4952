package entropy

import (
	"crypto/rand"
	"testing"
)

// TestShannonEmpty tests that an empty buffer yields zero entropy.
func TestShannonEmpty(t *testing.T) {
	if h := Shannon(nil); h != 0 {
		t.Errorf("empty buffer entropy mismatch: %v != 0", h)
	}
	if h := Shannon([]byte{}); h != 0 {
		t.Errorf("empty buffer entropy mismatch: %v != 0", h)
	}
}

// TestShannonSingleByteRepeated tests that a buffer of a single repeated
// byte value yields zero entropy.
func TestShannonSingleByteRepeated(t *testing.T) {
	buffer := make([]byte, 4096)
	for i := range buffer {
		buffer[i] = 0x41
	}
	if h := Shannon(buffer); h != 0 {
		t.Errorf("repeated-byte buffer entropy mismatch: %v != 0", h)
	}
}

// TestShannonBounds tests that entropy is always within [0, 8] for a range
// of buffer shapes.
func TestShannonBounds(t *testing.T) {
	testCases := [][]byte{
		{0x00},
		{0x00, 0xFF},
		[]byte("Hello from SentinelFS\n"),
	}

	for _, buffer := range testCases {
		h := Shannon(buffer)
		if h < 0 || h > 8 {
			t.Errorf("entropy out of bounds for %v: %v", buffer, h)
		}
	}
}

// TestShannonUniformDistribution tests that a buffer with one occurrence of
// every possible byte value yields entropy of exactly 8 (up to floating
// point rounding).
func TestShannonUniformDistribution(t *testing.T) {
	buffer := make([]byte, 256)
	for i := range buffer {
		buffer[i] = byte(i)
	}
	h := Shannon(buffer)
	if h < 7.999 || h > 8.0 {
		t.Errorf("uniform distribution entropy mismatch: %v", h)
	}
}

// TestShannonRandomHighEntropy tests that a sufficiently large buffer of
// cryptographically random bytes yields entropy above 7.8, matching the
// quantified invariant for random input.
func TestShannonRandomHighEntropy(t *testing.T) {
	buffer := make([]byte, 4096)
	if _, err := rand.Read(buffer); err != nil {
		t.Fatal("unable to generate random data:", err)
	}
	if h := Shannon(buffer); h <= 7.8 {
		t.Errorf("random buffer entropy unexpectedly low: %v", h)
	}
}

// BenchmarkShannon benchmarks entropy computation over a 64 KiB buffer.
func BenchmarkShannon(b *testing.B) {
	buffer := make([]byte, 64*1024)
	if _, err := rand.Read(buffer); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Shannon(buffer)
	}
}

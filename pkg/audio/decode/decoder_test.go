// ABOUTME: Tests for payload decoders
// ABOUTME: Tests float32 and PCM16 decoding and the alignment rule
package decode

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"testing"
)

func encodeFloats(samples ...float32) string {
	data := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(s))
	}
	return base64.StdEncoding.EncodeToString(data)
}

func TestFloat32Base64(t *testing.T) {
	input := encodeFloats(0, 0.5, -0.25, 1)

	output := Float32Base64(input)
	expected := []float32{0, 0.5, -0.25, 1}

	if len(output) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(output))
	}
	for i := range expected {
		if output[i] != expected[i] {
			t.Errorf("sample %d: expected %f, got %f", i, expected[i], output[i])
		}
	}
}

func TestFloat32Base64Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"not base64", "!!!not-base64!!!"},
		{"misaligned length", base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4, 5, 6})},
		{"three bytes", base64.StdEncoding.EncodeToString([]byte{1, 2, 3})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := Float32Base64(tt.input)
			if output == nil {
				t.Fatal("expected an empty slice, got nil")
			}
			if len(output) != 0 {
				t.Errorf("expected 0 samples, got %d", len(output))
			}
		})
	}
}

func TestFloat32Base64Unpadded(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[4:], math.Float32bits(0.75))
	input := base64.RawStdEncoding.EncodeToString(data)

	output := Float32Base64(input)
	if len(output) != 2 || output[1] != 0.75 {
		t.Errorf("expected [0 0.75], got %v", output)
	}
}

func TestPCM16Base64(t *testing.T) {
	data := []byte{0x00, 0x40, 0x00, 0xC0} // 16384, -16384
	output := PCM16Base64(base64.StdEncoding.EncodeToString(data))

	if len(output) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(output))
	}
	if output[0] != 0.5 {
		t.Errorf("expected first sample 0.5, got %f", output[0])
	}
	if output[1] != -0.5 {
		t.Errorf("expected second sample -0.5, got %f", output[1])
	}
}

func TestPCM16Base64OddLength(t *testing.T) {
	output := PCM16Base64(base64.StdEncoding.EncodeToString([]byte{1, 2, 3}))
	if len(output) != 0 {
		t.Errorf("expected 0 samples, got %d", len(output))
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		encoding string
		expected string
	}{
		{"", EncodingFloat32},
		{"f32le", EncodingFloat32},
		{"s16le", EncodingPCM16},
	}

	for _, tt := range tests {
		decoder, err := New(tt.encoding)
		if err != nil {
			t.Fatalf("encoding %q: unexpected error: %v", tt.encoding, err)
		}
		if decoder.Encoding() != tt.expected {
			t.Errorf("encoding %q: expected %s decoder, got %s", tt.encoding, tt.expected, decoder.Encoding())
		}
	}
}

func TestNew_Unsupported(t *testing.T) {
	decoder, err := New("opus")
	if err == nil {
		t.Fatal("expected error for unsupported encoding, got nil")
	}
	if decoder != nil {
		t.Fatal("expected decoder to be nil for unsupported encoding")
	}

	expectedError := "unsupported encoding: opus (supported: f32le, s16le)"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

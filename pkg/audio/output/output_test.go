// ABOUTME: Audio output interface tests
// ABOUTME: Verifies backend interface conformance and volume helpers
package output

import "testing"

func TestBackendsImplementDevice(t *testing.T) {
	var _ Device = (*Oto)(nil)
	var _ Device = (*Malgo)(nil)
	var _ Device = (*Virtual)(nil)
	var _ VolumeControl = (*Oto)(nil)
	var _ VolumeControl = (*Malgo)(nil)
}

func TestContextsImplementContext(t *testing.T) {
	var _ Context = (*mixContext)(nil)
	var _ Context = (*VirtualContext)(nil)
	var _ Node = (*mixNode)(nil)
	var _ Node = (*VirtualNode)(nil)
}

func TestVolumeMultiplier(t *testing.T) {
	tests := []struct {
		volume   int
		muted    bool
		expected float32
	}{
		{100, false, 1.0},
		{50, false, 0.5},
		{0, false, 0.0},
		{80, true, 0.0}, // Muted overrides volume
	}

	for _, tt := range tests {
		result := getVolumeMultiplier(tt.volume, tt.muted)
		if result != tt.expected {
			t.Errorf("volume=%d, muted=%v: expected %f, got %f",
				tt.volume, tt.muted, tt.expected, result)
		}
	}
}

func TestClampVolume(t *testing.T) {
	if clampVolume(-5) != 0 || clampVolume(150) != 100 || clampVolume(42) != 42 {
		t.Error("clampVolume did not limit to 0-100")
	}
}

func TestNewOtoDefaults(t *testing.T) {
	o := NewOto(0, nil)
	if o.deviceRate != DefaultDeviceRate {
		t.Errorf("expected default device rate %d, got %d", DefaultDeviceRate, o.deviceRate)
	}
	if o.GetVolume() != 100 {
		t.Errorf("expected default volume 100, got %d", o.GetVolume())
	}
	o.SetVolume(120)
	if o.GetVolume() != 100 {
		t.Errorf("expected volume clamped to 100, got %d", o.GetVolume())
	}
	o.SetMuted(true)
	if !o.IsMuted() {
		t.Error("expected muted after SetMuted(true)")
	}
}

func TestOtoRejectsInvalidRate(t *testing.T) {
	if _, err := NewOto(48000, nil).Open(0); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if _, err := NewMalgo(48000, nil).Open(-1); err == nil {
		t.Error("expected error for negative sample rate")
	}
}

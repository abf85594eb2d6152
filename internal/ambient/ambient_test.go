package ambient

import "testing"

func TestResolveNilUsesDefaults(t *testing.T) {
	got := Resolve(nil)
	if got != Defaults() {
		t.Errorf("Resolve(nil) = %+v, want %+v", got, Defaults())
	}
	if got.Oxygen != 0.2 || got.Moisture != 0.5 {
		t.Errorf("unexpected defaults %+v", got)
	}
}

func TestAtmosphere(t *testing.T) {
	a := NewAtmosphere(0.4, 0.9)
	if got := Resolve(a); got.Oxygen != 0.4 || got.Moisture != 0.9 {
		t.Errorf("Levels() = %+v", got)
	}

	a.AdjustOxygen(-1)
	if got := a.Levels(); got.Oxygen != 0 {
		t.Errorf("oxygen should clamp at 0, got %f", got.Oxygen)
	}

	a.Set(2, -1)
	if got := a.Levels(); got.Oxygen != 1 || got.Moisture != 0 {
		t.Errorf("Set should clamp to [0,1], got %+v", got)
	}
}

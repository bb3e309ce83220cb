package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Southclaws/fault/ftag"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	st := Store{Path: filepath.Join(t.TempDir(), "settings.json")}
	s, err := st.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Timing.RampSteps != 20 {
		t.Fatalf("ramp steps = %d, want 20", s.Timing.RampSteps)
	}
	if s.KeyMapping["Key0"] != "z" {
		t.Fatalf("Key0 = %q, want z", s.KeyMapping["Key0"])
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadMergesSectionsKeyByKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	user := `{
		"timing_config": {"ramp_steps": 5},
		"key_mapping": {"Key0": "q"},
		"speed_presets": [300]
	}`
	if err := os.WriteFile(path, []byte(user), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Store{Path: path}.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Timing.RampSteps != 5 {
		t.Fatalf("ramp steps = %d, want 5", s.Timing.RampSteps)
	}
	if s.Timing.PauseResumeDelay != 0.6 {
		t.Fatalf("pause resume delay should keep default, got %v", s.Timing.PauseResumeDelay)
	}
	if s.KeyMapping["Key0"] != "q" || s.KeyMapping["Key1"] != "u" {
		t.Fatalf("key mapping not merged: %v", s.KeyMapping)
	}
	if len(s.SpeedPresets) != 1 || s.SpeedPresets[0] != 300 {
		t.Fatalf("speed presets should be replaced, got %v", s.SpeedPresets)
	}
}

func TestLoadRejectsBrokenJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Store{Path: path}.Load()
	if err == nil {
		t.Fatalf("expected error")
	}
	if ftag.Get(err) != KindConfiguration {
		t.Fatalf("kind = %q, want %q", ftag.Get(err), KindConfiguration)
	}
}

func TestPatchKeepsUnrelatedKeys(t *testing.T) {
	st := Store{Path: filepath.Join(t.TempDir(), "cfg", "settings.json")}
	if err := st.Patch(map[string]any{"pause_key": "p"}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if err := st.Patch(map[string]any{"timing_config": map[string]any{"speed": 1200.0}}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	s, err := st.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.PauseKey != "p" {
		t.Fatalf("pause key = %q, want p", s.PauseKey)
	}
	if s.Timing.Speed != 1200 || s.Timing.RampSteps != 20 {
		t.Fatalf("timing = %+v", s.Timing)
	}
}

func TestValidateFlagsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"empty mapping", func(s *Settings) { s.KeyMapping = nil }},
		{"negative ramp", func(s *Settings) { s.Timing.RampSteps = -1 }},
		{"zero speed", func(s *Settings) { s.Timing.Speed = 0 }},
		{"zero press", func(s *Settings) { s.Timing.PressDuration = 0 }},
		{"bad preset", func(s *Settings) { s.SpeedPresets = []float64{800, -1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			err := s.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if ftag.Get(err) != KindConfiguration {
				t.Fatalf("kind = %q", ftag.Get(err))
			}
		})
	}
}

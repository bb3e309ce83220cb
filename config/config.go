package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// KindConfiguration tags errors caused by unusable settings.
const KindConfiguration ftag.Kind = "CONFIGURATION"

// TimingConfig holds playback tunables. All durations are in seconds, the
// speeds are in notes-per-second scale where 1000 plays a sheet at its
// recorded pace.
type TimingConfig struct {
	InitialDelay     float64 `json:"initial_delay"`
	PauseResumeDelay float64 `json:"pause_resume_delay"`
	RampSteps        int     `json:"ramp_steps"`
	RampFloor        float64 `json:"ramp_floor"`
	PollInterval     float64 `json:"poll_interval"`
	TrailingDelay    float64 `json:"trailing_delay"`
	JoinTimeout      float64 `json:"join_timeout"`
	PressDuration    float64 `json:"press_duration"`
	Speed            float64 `json:"speed"`
}

// TargetConfig names the game process and window that receive keys
type TargetConfig struct {
	Process string `json:"process"`
	Window  string `json:"window"`
}

// MIDIRemoteConfig maps notes on a MIDI input to transport commands.
// An empty Port disables the remote.
type MIDIRemoteConfig struct {
	Port      string `json:"port"`
	PlayNote  uint8  `json:"play_note"`
	PauseNote uint8  `json:"pause_note"`
	StopNote  uint8  `json:"stop_note"`
}

// Settings is the main configuration structure
type Settings struct {
	KeyPressDurations []float64         `json:"key_press_durations"`
	SpeedPresets      []float64         `json:"speed_presets"`
	KeyboardLayout    string            `json:"keyboard_layout"`
	KeyMapping        map[string]string `json:"key_mapping"`
	Timing            TimingConfig      `json:"timing_config"`
	PauseKey          string            `json:"pause_key"`
	Target            TargetConfig      `json:"target"`
	SongsDir          string            `json:"songs_dir"`
	MIDIRemote        MIDIRemoteConfig  `json:"midi_remote"`
	// Palette is an optional GIMP .gpl file for the control panel colours.
	Palette string `json:"palette,omitempty"`
}

// DefaultSettings returns settings with sensible defaults
func DefaultSettings() *Settings {
	return &Settings{
		KeyPressDurations: []float64{0.2, 0.248, 0.3, 0.5, 1.0},
		SpeedPresets:      []float64{600, 800, 1000, 1200},
		KeyboardLayout:    "QWERTZ",
		KeyMapping:        BuiltinLayout("QWERTZ"),
		Timing: TimingConfig{
			InitialDelay:     1.2,
			PauseResumeDelay: 0.6,
			RampSteps:        20,
			RampFloor:        500,
			PollInterval:     0.1,
			TrailingDelay:    0.5,
			JoinTimeout:      1.0,
			PressDuration:    0.1,
			Speed:            1000,
		},
		PauseKey: "#",
		Target: TargetConfig{
			Process: "sky",
			Window:  "Sky",
		},
		SongsDir: filepath.Join("resources", "Songs"),
		MIDIRemote: MIDIRemoteConfig{
			PlayNote:  60,
			PauseNote: 62,
			StopNote:  64,
		},
	}
}

// Seconds converts a settings value in seconds to a time.Duration
func Seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-lyrica"), nil
}

// ConfigPath returns the full path to settings.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// Store reads and writes one settings file.
type Store struct {
	Path string
}

// DefaultStore returns a store at ConfigPath. When the home directory cannot
// be resolved the store points at ./settings.json.
func DefaultStore() Store {
	path, err := ConfigPath()
	if err != nil {
		path = "settings.json"
	}
	return Store{Path: path}
}

// mergedSections are merged key-by-key instead of being replaced wholesale.
var mergedSections = map[string]bool{
	"timing_config": true,
	"key_mapping":   true,
	"target":        true,
	"midi_remote":   true,
}

func merge(base, over map[string]any) {
	for k, v := range over {
		if mergedSections[k] {
			bm, bok := base[k].(map[string]any)
			om, ook := v.(map[string]any)
			if bok && ook {
				for kk, vv := range om {
					bm[kk] = vv
				}
				continue
			}
		}
		base[k] = v
	}
}

func toMap(s *Settings) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromMap(m map[string]any) (*Settings, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// readRaw returns the user's file as a generic map; a missing file is empty.
func (st Store) readRaw() (map[string]any, error) {
	data, err := os.ReadFile(st.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fault.Wrap(err,
			ftag.With(KindConfiguration),
			fmsg.WithDesc("decode settings", "The settings file "+st.Path+" is not valid JSON."))
	}
	return m, nil
}

// Load reads the settings from disk merged over defaults. A missing file
// yields defaults.
func (st Store) Load() (*Settings, error) {
	user, err := st.readRaw()
	if err != nil {
		return nil, err
	}
	base, err := toMap(DefaultSettings())
	if err != nil {
		return nil, err
	}
	merge(base, user)

	s, err := fromMap(base)
	if err != nil {
		return nil, fault.Wrap(err,
			ftag.With(KindConfiguration),
			fmsg.WithDesc("apply settings", "The settings file "+st.Path+" has a value of the wrong type."))
	}
	return s, nil
}

// Save writes the settings to disk
func (st Store) Save(s *Settings) error {
	m, err := toMap(s)
	if err != nil {
		return err
	}
	return st.write(m)
}

// Patch merges a partial update over the current file and writes it back.
func (st Store) Patch(update map[string]any) error {
	current, err := st.Load()
	if err != nil {
		return err
	}
	m, err := toMap(current)
	if err != nil {
		return err
	}
	merge(m, update)
	if _, err := fromMap(m); err != nil {
		return fault.Wrap(err, ftag.With(KindConfiguration), fmsg.With("patch settings"))
	}
	return st.write(m)
}

func (st Store) write(m map[string]any) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(st.Path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "   ")
	if err != nil {
		return err
	}

	return os.WriteFile(st.Path, data, 0644)
}

// Validate reports settings the player cannot run with.
func (s *Settings) Validate() error {
	bad := func(desc string) error {
		return fault.New("invalid settings", ftag.With(KindConfiguration), fmsg.WithDesc("validate settings", desc))
	}
	if len(s.KeyMapping) == 0 {
		return bad("key_mapping is empty; choose a keyboard layout first.")
	}
	if s.Timing.RampSteps < 0 {
		return bad("timing_config.ramp_steps must not be negative.")
	}
	if s.Timing.Speed <= 0 {
		return bad("timing_config.speed must be positive.")
	}
	if s.Timing.PressDuration <= 0 {
		return bad("timing_config.press_duration must be positive.")
	}
	if s.Timing.PollInterval <= 0 {
		return bad("timing_config.poll_interval must be positive.")
	}
	for _, v := range s.SpeedPresets {
		if v <= 0 {
			return bad("speed_presets must all be positive.")
		}
	}
	for _, v := range s.KeyPressDurations {
		if v <= 0 {
			return bad("key_press_durations must all be positive.")
		}
	}
	return nil
}

package player

import (
	"context"
	"math"
	"time"

	"github.com/Southclaws/fault/ftag"
	"go.uber.org/zap"

	"go-lyrica/config"
	"go-lyrica/debug"
	"go-lyrica/song"
)

// Keyboard sends physical key events to the target.
type Keyboard interface {
	Press(key string) error
	Release(key string) error
}

// Target is the application receiving the keys.
type Target interface {
	Running(ctx context.Context) (bool, error)
	Focus(ctx context.Context) error
}

// Chime signals a finished song.
type Chime interface {
	Ring()
}

// Deps are the engine's collaborators. Target, Chime, Clock and Log may be
// nil: no target check, silence, real timers and the debug logger.
type Deps struct {
	Keyboard Keyboard
	Target   Target
	Chime    Chime
	Clock    Clock
	Log      *zap.SugaredLogger
}

// Config holds the engine's timing and key settings.
type Config struct {
	KeyMapping    map[string]string
	AliasPrefixes []string

	Speed         float64
	PressDuration time.Duration
	RampSteps     int
	RampFloor     float64

	InitialDelay  time.Duration
	ResumeDelay   time.Duration
	PollInterval  time.Duration
	TrailingDelay time.Duration
	JoinTimeout   time.Duration
	FocusTimeout  time.Duration
}

// ConfigFromSettings converts persisted settings.
func ConfigFromSettings(s *config.Settings) Config {
	tc := s.Timing
	return Config{
		KeyMapping:    s.KeyMapping,
		AliasPrefixes: DefaultAliasPrefixes,
		Speed:         tc.Speed,
		PressDuration: config.Seconds(tc.PressDuration),
		RampSteps:     tc.RampSteps,
		RampFloor:     tc.RampFloor,
		InitialDelay:  config.Seconds(tc.InitialDelay),
		ResumeDelay:   config.Seconds(tc.PauseResumeDelay),
		PollInterval:  config.Seconds(tc.PollInterval),
		TrailingDelay: config.Seconds(tc.TrailingDelay),
		JoinTimeout:   config.Seconds(tc.JoinTimeout),
		FocusTimeout:  2 * time.Second,
	}
}

// DefaultConfig is ConfigFromSettings(config.DefaultSettings()).
func DefaultConfig() Config {
	return ConfigFromSettings(config.DefaultSettings())
}

// Engine plays note sequences. Transport owns the sessions; Engine holds
// everything that outlives one.
type Engine struct {
	cfg   Config
	keys  *KeyMap
	tempo *Tempo
	press atomicDuration

	kb     Keyboard
	target Target
	chime  Chime
	clock  Clock
	log    *zap.SugaredLogger
}

// NewEngine validates cfg and builds the key map.
func NewEngine(cfg Config, deps Deps) (*Engine, error) {
	if deps.Keyboard == nil {
		return nil, configuration("no keyboard", "No keyboard backend is available.")
	}
	keys := NewKeyMap(cfg.KeyMapping, cfg.AliasPrefixes)
	if keys.Len() == 0 {
		return nil, configuration("empty key mapping", "The key mapping has no usable entries.")
	}
	if cfg.RampSteps < 0 {
		return nil, configuration("negative ramp steps", "ramp_steps must not be negative.")
	}
	if cfg.PollInterval <= 0 {
		return nil, configuration("poll interval must be positive", "poll_interval must be greater than zero.")
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = time.Second
	}
	if cfg.FocusTimeout <= 0 {
		cfg.FocusTimeout = 2 * time.Second
	}

	e := &Engine{
		cfg:    cfg,
		keys:   keys,
		tempo:  NewTempo(1, cfg.RampSteps, cfg.RampFloor),
		kb:     deps.Keyboard,
		target: deps.Target,
		chime:  deps.Chime,
		clock:  deps.Clock,
		log:    deps.Log,
	}
	if err := e.tempo.SetSpeed(cfg.Speed); err != nil {
		return nil, configuration("invalid speed", "speed must be a positive number.")
	}
	if err := e.SetPressDuration(cfg.PressDuration); err != nil {
		return nil, configuration("invalid press duration", "press_duration must be greater than zero.")
	}
	if e.clock == nil {
		e.clock = RealClock()
	}
	if e.log == nil {
		e.log = debug.Logger()
	}
	return e, nil
}

// Keys returns the key map
func (e *Engine) Keys() *KeyMap { return e.keys }

// Tempo returns the tempo controller
func (e *Engine) Tempo() *Tempo { return e.tempo }

// SetPressDuration sets how long each key is held. Takes effect on the next
// note.
func (e *Engine) SetPressDuration(d time.Duration) error {
	if d <= 0 {
		return invalidArgument("invalid press duration "+d.String(), "Press duration must be greater than zero.")
	}
	e.press.Store(d)
	return nil
}

// PressDuration returns the current hold time
func (e *Engine) PressDuration() time.Duration {
	return e.press.Load()
}

// Check verifies that notes can be played right now.
func (e *Engine) Check(ctx context.Context, notes []song.Note) error {
	if len(notes) == 0 {
		return precondition(ErrMissingNotes, "The song has no notes.")
	}
	if e.target == nil {
		return nil
	}
	ok, err := e.target.Running(ctx)
	if err != nil {
		e.log.Warnw("target check failed", "error", err)
	}
	if !ok {
		return precondition(ErrTargetNotRunning, "The game is not running.")
	}
	return nil
}

// focus brings the target to the front. Failures are logged and ignored.
func (e *Engine) focus(ctx context.Context) {
	if e.target == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.FocusTimeout)
	defer cancel()
	if err := e.target.Focus(ctx); err != nil {
		e.log.Warnw("focus failed", "error", err)
	}
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return e.clock.Wait(ctx, d)
}

// noteWait is the pause after cur: delta/1000 * (1000/speed) seconds,
// computed in nanoseconds. Out-of-order notes wait zero.
func noteWait(cur, next song.Note, speed float64) time.Duration {
	delta := next.Time - cur.Time
	if delta <= 0 || speed <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(delta) * float64(time.Millisecond) * 1000 / speed))
}

// run plays s.notes until the end or until ctx is done.
func (e *Engine) run(ctx context.Context, s *session) error {
	notes := s.notes
	e.tempo.Retrigger()

	if err := e.sleep(ctx, e.cfg.InitialDelay); err != nil {
		return err
	}
	s.report(Event{Kind: EventStarted, Total: len(notes)})

	for i := range notes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.paused() {
			if err := e.hold(ctx, s); err != nil {
				return err
			}
		}
		if err := e.playNote(ctx, s, i, e.tempo.Next()); err != nil {
			return err
		}
	}

	if e.chime != nil {
		e.chime.Ring()
	}
	return e.sleep(ctx, e.cfg.TrailingDelay)
}

// hold blocks while the session is paused, then waits the resume delay.
func (e *Engine) hold(ctx context.Context, s *session) error {
	e.tempo.Retrigger()
	s.setState(Paused)
	s.report(Event{Kind: EventPaused, Total: len(s.notes)})
	debug.Log("player", "paused")

	for s.paused() {
		if err := e.sleep(ctx, e.cfg.PollInterval); err != nil {
			return err
		}
	}

	s.setState(Running)
	s.report(Event{Kind: EventResumed, Total: len(s.notes)})
	debug.Log("player", "resumed")
	return e.sleep(ctx, e.cfg.ResumeDelay)
}

func (e *Engine) playNote(ctx context.Context, s *session, i int, speed float64) error {
	n := s.notes[i]
	key, ok := e.keys.Resolve(n.Key)
	if ok {
		if err := s.rel.press(key, e.PressDuration()); err != nil {
			if ftag.Get(err) != KindUnmappedKey {
				return internal(err, "press "+key)
			}
			if !s.unmapped[key] {
				s.unmapped[key] = true
				e.log.Warnw("key cannot be typed on this layout, skipping", "key", key, "error", err)
			}
			key = ""
		}
	} else {
		debug.Log("player", "no key bound for %q", n.Key)
	}
	s.report(Event{Kind: EventNote, Index: i, Total: len(s.notes), Key: key, Speed: speed})
	debug.LogEvery(50, "player", "note %d/%d speed=%.0f", i+1, len(s.notes), speed)

	if i == len(s.notes)-1 {
		return nil
	}
	return e.sleep(ctx, noteWait(n, s.notes[i+1], speed))
}

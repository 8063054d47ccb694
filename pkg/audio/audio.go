// Package audio plays short tones for character transitions.
package audio

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/opd-ai/go-skijet/pkg/event"
	"github.com/opd-ai/go-skijet/pkg/logging"
)

// SampleRate is the rate every cue is generated at.
const SampleRate = beep.SampleRate(44100)

// Tone is a sine beep.
type Tone struct {
	Freq     float64
	Duration time.Duration
	Volume   float64 // linear gain in (0, 1]
}

// Cues maps transitions to tones.
type Cues map[event.Type]Tone

// DefaultCues covers the transitions worth hearing. Ground contacts and
// ski start/stop are too frequent to voice.
func DefaultCues() Cues {
	return Cues{
		event.Jumped:           {Freq: 660, Duration: 60 * time.Millisecond, Volume: 0.5},
		event.Landed:           {Freq: 220, Duration: 80 * time.Millisecond, Volume: 0.6},
		event.ThrusterIgnited:  {Freq: 330, Duration: 120 * time.Millisecond, Volume: 0.4},
		event.ThrusterDepleted: {Freq: 150, Duration: 250 * time.Millisecond, Volume: 0.7},
		event.FuelFull:         {Freq: 990, Duration: 90 * time.Millisecond, Volume: 0.3},
	}
}

// Cue builds a fresh streamer for t.
func (c Cues) Cue(t event.Type) (beep.Streamer, bool) {
	tone, ok := c[t]
	if !ok || tone.Duration <= 0 || tone.Freq <= 0 {
		return nil, false
	}
	sine, err := generators.SineTone(SampleRate, tone.Freq)
	if err != nil {
		return nil, false
	}
	return newVolume(beep.Take(SampleRate.N(tone.Duration), sine), tone.Volume), true
}

// math.Log2(0) is -Inf, so zero volume is expressed as Silent.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// Player plays streamers.
type Player interface {
	Play(s beep.Streamer)
}

// SpeakerPlayer mixes cues onto the system speaker.
type SpeakerPlayer struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
}

// NewSpeakerPlayer creates a player; call Init before use.
func NewSpeakerPlayer() *SpeakerPlayer {
	return &SpeakerPlayer{mixer: &beep.Mixer{}}
}

// Init opens the audio device.
func (p *SpeakerPlayer) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	if err := speaker.Init(SampleRate, SampleRate.N(50*time.Millisecond)); err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Play mixes s in. It is a no-op before Init.
func (p *SpeakerPlayer) Play(s beep.Streamer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// Close silences everything still playing.
func (p *SpeakerPlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
}

// Attach plays a cue for every matching event published on bus. It returns
// a function that detaches again.
func Attach(bus *event.Bus, player Player, cues Cues, logger *logging.Logger) func() {
	if logger == nil {
		logger = logging.Discard()
	}
	type sub struct {
		t  event.Type
		id event.SubscriptionID
	}
	var subs []sub
	for t := range cues {
		id := bus.Subscribe(t, func(e event.Event) {
			s, ok := cues.Cue(e.GetType())
			if !ok {
				return
			}
			logger.Debug(context.Background(), "audio cue", "event", string(e.GetType()))
			player.Play(s)
		})
		subs = append(subs, sub{t: t, id: id})
	}
	return func() {
		for _, s := range subs {
			bus.Unsubscribe(s.t, s.id)
		}
	}
}

package tts

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/tchow/agentdash/internal/logging"
)

var ttsLog = logging.ForComponent(logging.CompTTS)

// Player streams synthesized samples through the system speaker. If no
// audio device is available it drops into silent mode and playback
// calls return immediately.
type Player struct {
	initOnce sync.Once
	silent   bool

	mu      sync.Mutex
	playing bool
	finish  func()
}

func NewPlayer() *Player {
	return &Player{}
}

func (p *Player) init() {
	p.initOnce.Do(func() {
		rate := beep.SampleRate(SampleRate)
		if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
			p.silent = true
			ttsLog.Warn("audio_unavailable", slog.String("error", err.Error()))
		}
	})
}

// Play blocks until the samples finish or Stop interrupts them.
func (p *Player) Play(samples []float64, volume float64) {
	if len(samples) == 0 {
		return
	}
	p.init()
	if p.silent {
		return
	}

	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	p.mu.Lock()
	p.playing = true
	p.finish = finish
	p.mu.Unlock()

	stream := withVolume(&sampleStreamer{samples: samples}, volume)
	speaker.Play(beep.Seq(stream, beep.Callback(finish)))
	<-done

	p.mu.Lock()
	p.playing = false
	p.finish = nil
	p.mu.Unlock()
}

// Stop cuts off anything currently sounding and unblocks Play.
// speaker.Clear drops the streamer before its completion callback can
// fire, so the done channel is released here as well.
func (p *Player) Stop() {
	p.init()
	if p.silent {
		return
	}
	speaker.Clear()
	p.mu.Lock()
	p.playing = false
	finish := p.finish
	p.finish = nil
	p.mu.Unlock()
	if finish != nil {
		finish()
	}
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// withVolume wraps a streamer in a log-scale volume control. Log2 of
// zero is -Inf, so zero volume uses the silent flag instead.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// sampleStreamer plays a mono buffer on both channels.
type sampleStreamer struct {
	samples []float64
	pos     int
}

func (s *sampleStreamer) Stream(out [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := 0
	for i := range out {
		if s.pos >= len(s.samples) {
			break
		}
		v := s.samples[s.pos]
		out[i][0] = v
		out[i][1] = v
		s.pos++
		n++
	}
	return n, true
}

func (s *sampleStreamer) Err() error { return nil }

package tts

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tchow/agentdash/internal/config"
)

// pollInterval paces the worker when the queue is idle.
const pollInterval = 100 * time.Millisecond

// Service owns the speech queue and a worker goroutine that drains it.
// Speak is safe from any goroutine; the worker serializes synthesis and
// playback so utterances never overlap.
type Service struct {
	cfg    config.TTSConfig
	queue  *Queue
	player *Player

	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewService(cfg config.TTSConfig) *Service {
	s := &Service{
		cfg:    cfg,
		queue:  NewQueue(),
		player: NewPlayer(),
		stop:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

// Speak queues text using the configured voice, speed, and volume.
func (s *Service) Speak(text string) error {
	return s.queue.Enqueue(Request{
		Text:   text,
		Voice:  s.cfg.Voice,
		Speed:  s.cfg.Speed,
		Volume: s.cfg.Volume,
	})
}

// Stop cuts off the current utterance; queued requests still play.
func (s *Service) Stop() {
	s.player.Stop()
	s.queue.CompleteCurrent()
}

// Clear drops all queued requests without touching the current one.
func (s *Service) Clear() {
	s.queue.Clear()
}

func (s *Service) Status() QueueStatus {
	return s.queue.Status()
}

// Shutdown stops playback and joins the worker.
func (s *Service) Shutdown() {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.player.Stop()
	})
	s.wg.Wait()
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			req, ok := s.queue.Dequeue()
			if !ok {
				continue
			}
			s.queue.SetPlaying(true)

			samples := Synthesize(req.Text, req.Voice, req.Speed)
			ttsLog.Debug("tts_utterance",
				slog.Int("samples", len(samples)),
				slog.String("voice", req.Voice))
			s.player.Play(samples, req.Volume)

			s.queue.CompleteCurrent()
		}
	}
}

package logging

import (
	"log/slog"
	"sync"
	"time"
)

// Aggregator coalesces high-rate events into one summary record per
// flush window. The terminal pumps record every PTY read; logging those
// individually would swamp the file, so they are counted here instead.
//
// Integer attributes are summed across the window (a pty_read carrying
// bytes=512 adds to the window's byte total); everything else keeps the
// most recent value as context.
type Aggregator struct {
	logger   *slog.Logger
	interval time.Duration

	mu       sync.Mutex
	counters map[counterKey]*counter

	done chan struct{}
	wg   sync.WaitGroup
}

type counterKey struct {
	component string
	event     string
}

type counter struct {
	count   int64
	sums    map[string]int64
	context []slog.Attr
}

// NewAggregator builds an aggregator flushing every intervalSecs
// seconds. A nil logger drops everything recorded.
func NewAggregator(logger *slog.Logger, intervalSecs int) *Aggregator {
	if intervalSecs <= 0 {
		intervalSecs = 30
	}
	return &Aggregator{
		logger:   logger,
		interval: time.Duration(intervalSecs) * time.Second,
		counters: make(map[counterKey]*counter),
		done:     make(chan struct{}),
	}
}

// Start launches the background flush loop.
func (a *Aggregator) Start() {
	a.wg.Add(1)
	go a.flushLoop()
}

// Stop ends the loop and flushes whatever the final window accumulated.
func (a *Aggregator) Stop() {
	close(a.done)
	a.wg.Wait()
	a.flush()
}

// Record adds one occurrence of an event to the current window.
func (a *Aggregator) Record(component, event string, fields ...slog.Attr) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := counterKey{component: component, event: event}
	c, ok := a.counters[key]
	if !ok {
		c = &counter{sums: make(map[string]int64)}
		a.counters[key] = c
	}
	c.count++

	for _, f := range fields {
		if f.Value.Kind() == slog.KindInt64 {
			c.sums[f.Key] += f.Value.Int64()
			continue
		}
		c.context = setAttr(c.context, f)
	}
}

// setAttr replaces an existing attr with the same key rather than
// letting duplicates pile up across a long window.
func setAttr(attrs []slog.Attr, f slog.Attr) []slog.Attr {
	for i, a := range attrs {
		if a.Key == f.Key {
			attrs[i] = f
			return attrs
		}
	}
	return append(attrs, f)
}

func (a *Aggregator) flushLoop() {
	defer a.wg.Done()
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.flush()
		case <-a.done:
			return
		}
	}
}

func (a *Aggregator) flush() {
	a.mu.Lock()
	if len(a.counters) == 0 {
		a.mu.Unlock()
		return
	}
	counters := a.counters
	a.counters = make(map[counterKey]*counter)
	a.mu.Unlock()

	if a.logger == nil {
		return
	}

	for key, c := range counters {
		attrs := []any{
			slog.String("component", key.component),
			slog.String("event", key.event),
			slog.Int64("count", c.count),
			slog.Int("window_seconds", int(a.interval.Seconds())),
		}
		for k, v := range c.sums {
			attrs = append(attrs, slog.Int64("total_"+k, v))
		}
		for _, f := range c.context {
			attrs = append(attrs, f)
		}
		a.logger.Info("event_summary", attrs...)
	}
}

package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tchow/agentdash/internal/logging"
	"github.com/tchow/agentdash/internal/platform"
)

var configLog = logging.ForComponent(logging.CompConfig)

// debounceWindow absorbs the write+rename burst editors and Save()
// produce for a single logical change.
const debounceWindow = 250 * time.Millisecond

// Watcher monitors the config file and signals reloads on a buffered
// channel. Goroutine + buffered channel + Close(), like the other
// watchers in this codebase.
type Watcher struct {
	reloadCh  chan struct{}
	closeCh   chan struct{}
	closeOnce sync.Once
	fw        *fsnotify.Watcher
}

// NewWatcher starts watching the config directory. Returns nil (no
// watcher, no error) when the filesystem cannot deliver reliable events;
// the caller falls back to manual reload.
func NewWatcher() (*Watcher, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	if warn := platform.CheckFsnotifySupport(filepath.Dir(path)); warn != "" {
		configLog.Warn("config_watch_disabled", slog.String("reason", warn))
		return nil, nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// watch the directory, not the file: atomic saves replace the inode
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		reloadCh: make(chan struct{}, 1),
		closeCh:  make(chan struct{}),
		fw:       fw,
	}
	go w.loop(filepath.Base(path))
	return w, nil
}

// Reloads returns the notification channel. One signal may represent
// several coalesced file events.
func (w *Watcher) Reloads() <-chan struct{} { return w.reloadCh }

func (w *Watcher) loop(fileName string) {
	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-w.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != fileName {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerCh = timer.C
			} else {
				timer.Reset(debounceWindow)
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			configLog.Debug("config_changed")
			select {
			case w.reloadCh <- struct{}{}:
			default:
			}
		case err, ok := <-w.fw.Errors:
			if ok && err != nil {
				configLog.Warn("config_watch_error", slog.String("error", err.Error()))
			}
		}
	}
}

// Close stops the watcher. Idempotent.
func (w *Watcher) Close() {
	if w == nil {
		return
	}
	w.closeOnce.Do(func() {
		close(w.closeCh)
		_ = w.fw.Close()
	})
}

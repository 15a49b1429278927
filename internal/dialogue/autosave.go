package dialogue

import (
	"context"
	"sync"
	"time"

	"proposal-chat/internal/common/logger"
	"proposal-chat/internal/common/metrics"
)

const autosaveTimeout = 10 * time.Second

// Autosave debounces transcript persistence: every transcript mutation
// (re)starts a fixed timer, and only an uninterrupted interval triggers a
// save, so bursts of messages coalesce into one write. Failures are
// logged, never surfaced, and never block the dialogue.
type Autosave struct {
	store    TranscriptStore
	interval time.Duration
	title    func() string
	snapshot func() []Message
	log      logger.Logger

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func NewAutosave(store TranscriptStore, interval time.Duration, title func() string, snapshot func() []Message, log logger.Logger) *Autosave {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Autosave{
		store:    store,
		interval: interval,
		title:    title,
		snapshot: snapshot,
		log:      log,
	}
}

// Notify marks the transcript dirty and (re)starts the debounce timer.
func (a *Autosave) Notify() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if a.timer == nil {
		a.timer = time.AfterFunc(a.interval, a.fire)
		return
	}
	a.timer.Reset(a.interval)
}

func (a *Autosave) fire() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()

	title := a.title()
	start := time.Now()
	err := a.store.SaveTranscript(ctx, title, a.snapshot())
	metrics.ObserveCall(metrics.CallTranscript, time.Since(start).Seconds(), err)
	if err != nil {
		metrics.TranscriptAutosaves.WithLabelValues(metrics.StatusFailure).Inc()
		a.log.Warn("transcript autosave failed", map[string]interface{}{
			"title": title,
			"error": err.Error(),
		})
		return
	}
	metrics.TranscriptAutosaves.WithLabelValues(metrics.StatusSuccess).Inc()
	a.log.Debug("transcript autosaved", map[string]interface{}{
		"title": title,
	})
}

// Stop cancels any pending save. Called on session teardown so no
// persistence call dangles after destruction.
func (a *Autosave) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

package pickerdata

import (
	"log/slog"
	"sync"
	"time"
)

// scheduler decides whether a save hits the store immediately or is
// debounced, and owns the write-through cache.
//
// The mutex guards "update cache + immediate-vs-debounce decision + timer
// cancellation" as one critical section: the debounce timer fires on its
// own goroutine and must never interleave with an ordinary edit.
//
// Every save encodes the document while still holding the lock and the
// timer goroutine only ever writes that captured string, so a firing timer
// never reads the live document while the caller is mutating it.
type scheduler struct {
	mu sync.Mutex

	store  Store
	key    string
	logger *slog.Logger
	now    func() time.Time

	delay  time.Duration // debounce window
	minGap time.Duration // minimum interval between immediate writes

	cache    docCache
	timer    *time.Timer
	pending  bool
	captured string // encoded form of the most recent save
	lastSave time.Time
}

// cached returns the cached document, or nil if the cache is cold.
func (s *scheduler) cached() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cache.get()
}

// setCached populates the cache without scheduling a write.
func (s *scheduler) setCached(d *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.set(d)
}

// invalidate drops the cached document so the next read goes back to the
// store. Any pending debounced write is abandoned with it.
func (s *scheduler) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.clear()
	s.pending = false
	s.captured = ""
	s.cancelTimerLocked()
}

// save updates the cache and either persists immediately (forced, or enough
// time has passed since the last write) or arms the debounce timer.
// Write failures are logged; the cache stays authoritative and the write is
// retried on the next save or flush.
func (s *scheduler) save(d *Document, forceImmediate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.set(d)

	raw, err := encodeDocument(d)
	if err != nil {
		s.logger.Warn("failed to encode picker data", "error", err)

		return
	}

	s.captured = raw

	if forceImmediate || s.now().Sub(s.lastSave) >= s.minGap {
		err := s.persistLocked(raw)
		if err != nil {
			// Keep the write pending so the next save or flush retries it.
			s.pending = true

			s.logger.Warn("failed to save picker data", "error", err)
		}

		return
	}

	s.scheduleLocked()
}

// flush cancels any pending debounce timer and, if a write was pending,
// persists the latest captured document immediately. Safe to call with
// nothing pending.
func (s *scheduler) flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimerLocked()

	if !s.pending {
		return nil
	}

	return s.persistLocked(s.captured)
}

// setDelay adjusts the debounce window.
func (s *scheduler) setDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.delay = d
}

// persistLocked writes an already-encoded document to the store. On success
// the pending flag clears and any armed timer is cancelled, since the write
// it was scheduled for just happened.
func (s *scheduler) persistLocked(raw string) error {
	err := s.store.Set(s.key, raw)
	if err != nil {
		return err
	}

	s.lastSave = s.now()
	s.pending = false
	s.cancelTimerLocked()

	return nil
}

// scheduleLocked marks a write pending and (re)arms the debounce timer.
func (s *scheduler) scheduleLocked() {
	s.pending = true
	s.cancelTimerLocked()
	s.timer = time.AfterFunc(s.delay, s.fire)
}

// fire runs on the timer goroutine when the debounce window elapses. It
// persists the form captured by the most recent save, not the one that
// armed the timer.
func (s *scheduler) fire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending {
		return
	}

	err := s.persistLocked(s.captured)
	if err != nil {
		s.logger.Warn("failed to save picker data", "error", err)
	}
}

func (s *scheduler) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

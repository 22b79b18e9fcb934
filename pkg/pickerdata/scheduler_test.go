package pickerdata

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// countingStore wraps a MemStore and counts writes.
type countingStore struct {
	mu     sync.Mutex
	inner  *MemStore
	writes int
}

func newCountingStore() *countingStore {
	return &countingStore{inner: NewMemStore()}
}

func (s *countingStore) Get(key, fallback string) (string, error) {
	return s.inner.Get(key, fallback)
}

func (s *countingStore) Set(key, value string) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()

	return s.inner.Set(key, value)
}

func (s *countingStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writes
}

// flakyStore fails the first failures writes and getFailures reads, then
// delegates.
type flakyStore struct {
	inner       *MemStore
	failures    int
	getFailures int
}

func (s *flakyStore) Get(key, fallback string) (string, error) {
	if s.getFailures > 0 {
		s.getFailures--

		return "", errors.New("attribute unreadable")
	}

	return s.inner.Get(key, fallback)
}

func (s *flakyStore) Set(key, value string) error {
	if s.failures > 0 {
		s.failures--

		return errors.New("attribute locked")
	}

	return s.inner.Set(key, value)
}

func newTestScheduler(store Store) *scheduler {
	return &scheduler{
		store:  store,
		key:    DefaultStoreKey,
		logger: discardLogger(),
		now:    time.Now,
		delay:  20 * time.Millisecond,
		minGap: time.Hour,
	}
}

// storedMark reads the document back out of the store and returns its
// thumbnail directory, which the tests use as a content marker.
func storedMark(t *testing.T, store Store) string {
	t.Helper()

	raw, err := store.Get(DefaultStoreKey, "")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	if raw == "" {
		t.Fatal("nothing stored")
	}

	d, _, err := decodeDocument(raw, NoopRegistry{}, discardLogger())
	if err != nil {
		t.Fatalf("decode stored document: %v", err)
	}

	return d.ThumbnailDirectory
}

func waitForWrites(t *testing.T, store *countingStore, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)

	for store.writeCount() < want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d writes, have %d", want, store.writeCount())
		}

		time.Sleep(5 * time.Millisecond)
	}
}

func TestSchedulerDebounceCoalescesWrites(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	s := newTestScheduler(store)

	// Pretend a write just happened so saves fall on the debounce path.
	s.lastSave = time.Now()

	for i := 0; i < 5; i++ {
		s.save(docMarked(marks[i]), false)
	}

	if got := store.writeCount(); got != 0 {
		t.Fatalf("writes before quiet period = %d, want 0", got)
	}

	waitForWrites(t, store, 1)

	// The debounced write carries the latest cached state, not the one
	// that armed the timer.
	if got := storedMark(t, store); got != marks[4] {
		t.Fatalf("stored state = %q, want %q", got, marks[4])
	}

	// No stray second write behind it.
	time.Sleep(60 * time.Millisecond)

	if got := store.writeCount(); got != 1 {
		t.Fatalf("writes after quiet period = %d, want 1", got)
	}
}

var marks = []string{"s0", "s1", "s2", "s3", "s4"}

func TestSchedulerForceWriteCancelsPendingTimer(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	s := newTestScheduler(store)
	s.lastSave = time.Now()

	s.save(docMarked("debounced"), false)
	s.save(docMarked("forced"), true)

	if got := store.writeCount(); got != 1 {
		t.Fatalf("writes after forced save = %d, want 1", got)
	}

	if got := storedMark(t, store); got != "forced" {
		t.Fatalf("stored state = %q, want forced", got)
	}

	// The armed timer must not produce a second write.
	time.Sleep(60 * time.Millisecond)

	if got := store.writeCount(); got != 1 {
		t.Fatalf("writes after debounce window = %d, want 1", got)
	}
}

func TestSchedulerImmediateWhenIntervalElapsed(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	s := newTestScheduler(store)
	s.minGap = time.Millisecond
	s.lastSave = time.Now().Add(-time.Second)

	s.save(docMarked("hot"), false)

	if got := store.writeCount(); got != 1 {
		t.Fatalf("writes = %d, want 1 immediate write", got)
	}
}

func TestSchedulerFlushWritesPending(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	s := newTestScheduler(store)
	s.lastSave = time.Now()

	s.save(docMarked("pending"), false)

	err := s.flush()
	if err != nil {
		t.Fatalf("flush: %v", err)
	}

	if got := store.writeCount(); got != 1 {
		t.Fatalf("writes after flush = %d, want 1", got)
	}

	if got := storedMark(t, store); got != "pending" {
		t.Fatalf("stored state = %q, want pending", got)
	}

	// Second flush has nothing to do.
	err = s.flush()
	if err != nil {
		t.Fatalf("idempotent flush: %v", err)
	}

	if got := store.writeCount(); got != 1 {
		t.Fatalf("writes after second flush = %d, want 1", got)
	}
}

func TestSchedulerWriteFailureRetriedOnFlush(t *testing.T) {
	t.Parallel()

	store := &flakyStore{inner: NewMemStore(), failures: 1}
	s := newTestScheduler(store)

	// Forced save fails but the cache stays authoritative and the write
	// stays pending.
	s.save(docMarked("keep"), true)

	if d := s.cached(); d == nil || d.ThumbnailDirectory != "keep" {
		t.Fatal("cache lost the document after a failed write")
	}

	if !s.pending {
		t.Fatal("failed write not marked pending")
	}

	err := s.flush()
	if err != nil {
		t.Fatalf("flush retry: %v", err)
	}

	if got := storedMark(t, store); got != "keep" {
		t.Fatalf("stored state = %q, want keep", got)
	}
}

func TestSchedulerDebouncedWriteCapturesStateAtSave(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	s := newTestScheduler(store)
	s.lastSave = time.Now()

	d := docMarked("at-save")
	s.save(d, false)

	// Mutating the live document after the save must not leak into the
	// debounced write; the timer persists what the save captured.
	d.ThumbnailDirectory = "after-save"

	waitForWrites(t, store, 1)

	if got := storedMark(t, store); got != "at-save" {
		t.Fatalf("stored state = %q, want at-save", got)
	}
}

func TestSchedulerInvalidateDropsCacheAndPending(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	s := newTestScheduler(store)
	s.lastSave = time.Now()

	s.save(docMarked("gone"), false)
	s.invalidate()

	if s.cached() != nil {
		t.Fatal("cache survived invalidate")
	}

	err := s.flush()
	if err != nil {
		t.Fatalf("flush: %v", err)
	}

	if got := store.writeCount(); got != 0 {
		t.Fatalf("writes after invalidate = %d, want 0", got)
	}
}

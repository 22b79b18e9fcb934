package pickerdata

import (
	"fmt"
	"log/slog"
	"time"
)

// Default tuning values. They match the cadence of interactive dragging:
// drag ticks arrive every few milliseconds, quiet gaps between user actions
// are hundreds of milliseconds.
const (
	// DefaultBatchDelay is the debounce window for non-forced saves.
	DefaultBatchDelay = 200 * time.Millisecond

	// DefaultMinSaveInterval is the minimum spacing between immediate
	// (non-forced) store writes; anything faster gets debounced.
	DefaultMinSaveInterval = 100 * time.Millisecond

	// DefaultBatchThreshold is the undo coalescing window: edits recorded
	// closer together than this merge into one undo step.
	DefaultBatchThreshold = 250 * time.Millisecond

	// DefaultMaxUndoSteps bounds the undo stack; the oldest entry is
	// evicted on overflow.
	DefaultMaxUndoSteps = 128
)

// Options configures a [Manager]. The zero value of every field has a
// usable default.
type Options struct {
	// Store is the persistence substrate.
	//
	// Default: a fresh [MemStore].
	Store Store

	// Key is the attribute name the document is stored under.
	//
	// Default: [DefaultStoreKey].
	Key string

	// Registry resolves host object identifiers during legacy migration.
	//
	// Default: [NoopRegistry].
	Registry Registry

	// EditMode is the gate predicate consulted on every undo capture.
	// Recording is skipped while it reports false.
	//
	// Default: always true.
	EditMode func() bool

	// Selection supplies the currently selected element ids at undo
	// capture time, when the caller does not pass them explicitly.
	//
	// Default: no selection.
	Selection func() []string

	// Logger receives self-healing and persistence-failure messages.
	//
	// Default: slog.Default().
	Logger *slog.Logger

	// BatchDelay is the debounce window for non-forced saves.
	//
	// Default: [DefaultBatchDelay].
	BatchDelay time.Duration

	// MinSaveInterval is the minimum spacing between immediate non-forced
	// store writes.
	//
	// Default: [DefaultMinSaveInterval].
	MinSaveInterval time.Duration

	// BatchThreshold is the undo coalescing window.
	//
	// Default: [DefaultBatchThreshold].
	BatchThreshold time.Duration

	// MaxUndoSteps bounds the undo stack.
	//
	// Default: [DefaultMaxUndoSteps].
	MaxUndoSteps int
}

func (o *Options) validate() error {
	if o.BatchDelay < 0 || o.MinSaveInterval < 0 || o.BatchThreshold < 0 {
		return fmt.Errorf("pickerdata options: %w", errNegativeTime)
	}

	if o.MaxUndoSteps < 0 {
		return fmt.Errorf("pickerdata options: %w", errNegativeMax)
	}

	return nil
}

func (o *Options) defaults() {
	if o.Store == nil {
		o.Store = NewMemStore()
	}

	if o.Key == "" {
		o.Key = DefaultStoreKey
	}

	if o.Registry == nil {
		o.Registry = NoopRegistry{}
	}

	if o.EditMode == nil {
		o.EditMode = func() bool { return true }
	}

	if o.Selection == nil {
		o.Selection = func() []string { return nil }
	}

	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	if o.BatchDelay == 0 {
		o.BatchDelay = DefaultBatchDelay
	}

	if o.MinSaveInterval == 0 {
		o.MinSaveInterval = DefaultMinSaveInterval
	}

	if o.BatchThreshold == 0 {
		o.BatchThreshold = DefaultBatchThreshold
	}

	if o.MaxUndoSteps == 0 {
		o.MaxUndoSteps = DefaultMaxUndoSteps
	}
}

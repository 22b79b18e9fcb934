package pickerdata

import "time"

// Operation label pushed onto the undo stack when a redo replaces the live
// document.
const opBeforeRedo = "before_redo"

const defaultOperation = "Change"

// undoEntry is one step on the undo stack. While batch is true the entry is
// still open: further edits inside the batch window replace its state
// instead of growing the stack.
type undoEntry struct {
	state       *Document
	operation   string
	timestamp   time.Time
	selectedIDs []string
	batch       bool
	batchStart  time.Time
}

type redoEntry struct {
	state       *Document
	operation   string
	timestamp   time.Time
	selectedIDs []string
}

// history holds the undo/redo stacks and the coalescing state machine.
// It never touches the cache or the store; the manager feeds it snapshots
// and applies whatever it pops.
type history struct {
	undo []undoEntry
	redo []redoEntry

	maxSteps  int
	threshold time.Duration
	now       func() time.Time

	// recording disables capture entirely (toggled off during restores in
	// the original host; kept for parity and for ClearHistory semantics).
	recording bool

	// busy is the reentrancy guard: set while a snapshot or restore is in
	// flight so the mutation path it triggers cannot record again.
	busy bool
}

func newHistory(maxSteps int, threshold time.Duration, now func() time.Time) *history {
	return &history{
		maxSteps:  maxSteps,
		threshold: threshold,
		now:       now,
		recording: true,
	}
}

func (h *history) canUndo() bool {
	return len(h.undo) > 0
}

func (h *history) canRedo() bool {
	return len(h.redo) > 0
}

func (h *history) clear() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}

// record pushes state onto the undo stack, coalescing rapid successive
// edits into one batch entry:
//
//   - Within the batch window of the tail entry: if the tail is a plain
//     entry, a new open batch entry is pushed on top of it (the tail is the
//     pre-batch anchor and stays untouched); if the tail is already an open
//     batch, its contents are replaced in place.
//   - After a quiet gap: an open tail batch is finalized, absorbing this
//     edit as its content; otherwise a plain entry is pushed.
//
// Every committed or replaced entry clears the redo stack.
func (h *history) record(state *Document, operation string, selectedIDs []string) {
	if operation == "" {
		operation = defaultOperation
	}

	now := h.now()

	if n := len(h.undo); n > 0 && now.Sub(h.undo[n-1].timestamp) < h.threshold {
		last := &h.undo[n-1]

		if !last.batch {
			h.undo = append(h.undo, undoEntry{
				state:       state,
				operation:   operation,
				timestamp:   now,
				selectedIDs: selectedIDs,
				batch:       true,
				batchStart:  last.timestamp,
			})
			h.evictOverflow()
		} else {
			*last = undoEntry{
				state:       state,
				operation:   operation,
				timestamp:   now,
				selectedIDs: selectedIDs,
				batch:       true,
				batchStart:  last.batchStart,
			}
		}

		h.redo = h.redo[:0]

		return
	}

	if n := len(h.undo); n > 0 && h.undo[n-1].batch {
		// Quiet gap after an open batch: finalize it. The edit that
		// triggered finalization becomes the batch's content; it does not
		// open a fresh batch of its own.
		last := &h.undo[n-1]
		last.state = state
		last.operation = operation
		last.timestamp = now
		last.selectedIDs = selectedIDs
		last.batch = false

		h.redo = h.redo[:0]

		return
	}

	h.undo = append(h.undo, undoEntry{
		state:       state,
		operation:   operation,
		timestamp:   now,
		selectedIDs: selectedIDs,
	})
	h.evictOverflow()

	h.redo = h.redo[:0]
}

// popUndo moves the live state onto the redo stack and pops the undo tail.
func (h *history) popUndo(current *Document, selectedIDs []string) (undoEntry, bool) {
	if len(h.undo) == 0 {
		return undoEntry{}, false
	}

	h.redo = append(h.redo, redoEntry{
		state:       current,
		operation:   opBeforeRedo,
		timestamp:   h.now(),
		selectedIDs: selectedIDs,
	})

	entry := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]

	return entry, true
}

// popRedo moves the live state onto the undo stack and pops the redo tail.
func (h *history) popRedo(current *Document, selectedIDs []string) (redoEntry, bool) {
	if len(h.redo) == 0 {
		return redoEntry{}, false
	}

	h.undo = append(h.undo, undoEntry{
		state:       current,
		operation:   opBeforeRedo,
		timestamp:   h.now(),
		selectedIDs: selectedIDs,
	})
	h.evictOverflow()

	entry := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]

	return entry, true
}

// evictOverflow drops the oldest entries once the stack exceeds maxSteps,
// bounding how far back undo can reach.
func (h *history) evictOverflow() {
	for len(h.undo) > h.maxSteps {
		h.undo = append(h.undo[:0], h.undo[1:]...)
	}
}

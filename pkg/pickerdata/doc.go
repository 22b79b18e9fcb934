// Package pickerdata manages the persisted state of an animation picker:
// a set of named tabs, each holding an ordered list of button records,
// stored as a single string attribute on a host-provided store.
//
// The package owns undo/redo with time-windowed coalescing, a write-through
// cache, and a debounced persistence scheduler. Rendering, button semantics,
// and the storage medium itself are the host's problem.
//
// # Basic Usage
//
//	mgr, err := pickerdata.New(pickerdata.Options{
//	    Store: pickerdata.NewMemStore(),
//	})
//	if err != nil {
//	    // invalid options
//	}
//	defer mgr.Close()
//
//	mgr.AddTab("Body")
//	mgr.AddButton("Body", btn)
//	op, ids, ok := mgr.Undo()
//
// # Undo Coalescing
//
// Rapid edits (interactive dragging) are merged into a single undo step.
// A recorded edit that lands within Options.BatchThreshold of the previous
// undo entry opens (or extends) a batch entry at the stack tail; the first
// edit after a quiet gap finalizes it. Undo recording only happens while
// the Options.EditMode predicate reports true.
//
// # Persistence
//
// Every mutation synchronously updates the in-memory cache. Structural
// operations (add/delete/rename tab, delete button) write through to the
// store immediately; high-frequency operations (position updates during a
// drag) are debounced by Options.BatchDelay. [Manager.Flush] forces any
// pending write out; [Manager.Close] flushes before returning.
//
// # Error Handling
//
// Corrupt stored data never reaches callers: it is logged, the store is
// overwritten with the default document, and the defaults are returned.
// Failed store writes are logged and retried on the next save; the cache
// stays authoritative in the meantime. [Manager.Undo] and [Manager.Redo]
// on empty stacks report ok=false rather than an error.
//
// # Concurrency
//
// All document mutation is expected to happen on one goroutine (the host's
// event loop). The debounce timer fires on its own goroutine; the scheduler
// serializes cache updates, the immediate-vs-debounce decision, and timer
// cancellation behind one mutex, and every save encodes the document while
// holding that mutex. The timer only ever writes the captured encoding, so
// a firing timer can never race an in-flight edit.
package pickerdata

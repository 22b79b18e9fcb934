package pickerdata

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Button record defaults backfilled by [Manager.AddButton].
const (
	defaultButtonWidth  = 80
	defaultButtonHeight = 30
	defaultButtonMode   = "select"

	fieldWidth      = "width"
	fieldHeight     = "height"
	fieldRadius     = "radius"
	fieldMode       = "mode"
	fieldScriptData = "script_data"
	fieldPoseData   = "pose_data"
	fieldType       = "type"
	fieldPythonCode = "python_code"
	fieldCode       = "code"
)

// Point is a canvas position.
type Point struct {
	X, Y float64
}

// Manager is the single owner of the picker document: every mutation goes
// through it, sequencing "record undo, mutate cache, schedule persist".
//
// One Manager instance holds the process-wide cache and undo stacks.
// Mutations are expected to arrive from a single goroutine (the host event
// loop); only the debounce timer runs concurrently, and the scheduler's
// lock covers that.
type Manager struct {
	store    Store
	key      string
	registry Registry
	logger   *slog.Logger
	editMode func() bool
	selected func() []string

	sched *scheduler
	hist  *history
}

// New builds a Manager from opts. Zero-value option fields get defaults;
// invalid values (negative durations or stack bounds) are rejected.
func New(opts Options) (*Manager, error) {
	err := opts.validate()
	if err != nil {
		return nil, err
	}

	opts.defaults()

	m := &Manager{
		store:    opts.Store,
		key:      opts.Key,
		registry: opts.Registry,
		logger:   opts.Logger,
		editMode: opts.EditMode,
		selected: opts.Selection,
		sched: &scheduler{
			store:  opts.Store,
			key:    opts.Key,
			logger: opts.Logger,
			now:    time.Now,
			delay:  opts.BatchDelay,
			minGap: opts.MinSaveInterval,
		},
		hist: newHistory(opts.MaxUndoSteps, opts.BatchThreshold, time.Now),
	}

	return m, nil
}

// Data returns the live document, reading it from the store on first
// access. Treat the result as read-only; mutate through Manager methods.
//
// Corrupt or missing stored data self-heals: the default document is
// logged, written back to the store, and returned. A failed store read
// returns defaults without writing back, since the stored document may
// still be intact.
func (m *Manager) Data() *Document {
	if d := m.sched.cached(); d != nil {
		return d
	}

	raw, err := m.store.Get(m.key, "")
	if err != nil {
		// The stored document may be intact behind a transient read error,
		// so nothing is written back; the next read retries the store.
		m.logger.Warn("failed to read picker data, using defaults", "error", err)

		return DefaultDocument()
	}

	if raw == "" {
		d := DefaultDocument()
		m.sched.save(d, true)

		return d
	}

	d, migrated, err := decodeDocument(raw, m.registry, m.logger)
	if err != nil {
		m.logger.Warn("invalid picker data, resetting to default", "error", err)

		d = DefaultDocument()
		m.sched.save(d, true)

		return d
	}

	if migrated {
		// Persist the normalized form so migration runs once.
		m.sched.save(d, true)
	} else {
		m.sched.setCached(d)
	}

	return d
}

// Reload drops the cache and undo history and re-reads the store. Use it
// after the stored document was replaced wholesale behind the manager's
// back.
func (m *Manager) Reload() *Document {
	m.sched.invalidate()
	m.hist.clear()

	return m.Data()
}

// Flush forces any pending debounced write out to the store.
func (m *Manager) Flush() error {
	return m.sched.flush()
}

// Close flushes pending writes. Call it at shutdown; it is idempotent.
func (m *Manager) Close() error {
	return m.sched.flush()
}

// SetBatchDelay adjusts the debounce window at runtime.
func (m *Manager) SetBatchDelay(d time.Duration) {
	m.sched.setDelay(d)
}

//
// Undo / redo
//

// SaveUndoState captures the current document onto the undo stack, unless
// recording is disabled, the edit-mode gate is false, or a capture/restore
// is already in flight. Pass nil selectedIDs to use the selection provider.
//
// Captures within [Options.BatchThreshold] of the previous entry coalesce;
// see the package documentation.
func (m *Manager) SaveUndoState(operation string, selectedIDs []string) {
	h := m.hist
	if !h.recording || h.busy {
		return
	}

	if !m.editMode() {
		return
	}

	if selectedIDs == nil {
		selectedIDs = m.selected()
	}

	h.busy = true
	defer func() { h.busy = false }()

	h.record(m.Data().Clone(), operation, selectedIDs)
}

// CanUndo reports whether an undo step is available.
func (m *Manager) CanUndo() bool {
	return m.hist.canUndo()
}

// CanRedo reports whether a redo step is available.
func (m *Manager) CanRedo() bool {
	return m.hist.canRedo()
}

// Undo restores the previous document state, force-persisting it. It
// returns the label of the undone operation and the element ids that were
// selected when the state was captured, so the host can restore the visual
// selection. ok is false when there is nothing to undo.
func (m *Manager) Undo() (operation string, selectedIDs []string, ok bool) {
	if !m.hist.canUndo() {
		return "", nil, false
	}

	current := m.Data().Clone()

	entry, _ := m.hist.popUndo(current, m.selected())
	m.restore(entry.state)

	return entry.operation, entry.selectedIDs, true
}

// Redo restores the next document state after an undo, force-persisting
// it. ok is false when there is nothing to redo.
func (m *Manager) Redo() (operation string, selectedIDs []string, ok bool) {
	if !m.hist.canRedo() {
		return "", nil, false
	}

	current := m.Data().Clone()

	entry, _ := m.hist.popRedo(current, m.selected())
	m.restore(entry.state)

	return "redo", entry.selectedIDs, true
}

// ClearHistory empties both stacks.
func (m *Manager) ClearHistory() {
	m.hist.clear()
}

// restore installs a snapshot as the live document and force-persists it.
// The reentrancy guard stays up for the duration so the save path cannot
// record the restore as a fresh edit.
func (m *Manager) restore(state *Document) {
	m.hist.busy = true
	defer func() { m.hist.busy = false }()

	m.sched.save(state, true)
}

//
// Tab operations (structural, force-immediate)
//

// Tab returns the named tab, lazily creating it with defaults (and
// force-persisting) if it does not exist.
func (m *Manager) Tab(name string) *Tab {
	d := m.Data()

	t, ok := d.Tab(name)
	if ok {
		return t
	}

	t = NewTab()
	d.SetTab(name, t)
	m.sched.save(d, true)

	return t
}

// AddTab creates a tab with default settings. Adding an existing name is a
// no-op.
func (m *Manager) AddTab(name string) {
	d := m.Data()
	if _, ok := d.Tab(name); ok {
		return
	}

	m.SaveUndoState("Add Tab", nil)

	d.SetTab(name, NewTab())
	m.sched.save(d, true)
}

// DeleteTab removes a tab. Deleting a missing name is a no-op.
func (m *Manager) DeleteTab(name string) {
	d := m.Data()
	if _, ok := d.Tab(name); !ok {
		return
	}

	m.SaveUndoState("Delete Tab", nil)

	d.DeleteTab(name)
	m.sched.save(d, true)
}

// RenameTab renames a tab, keeping its position in the tab order.
func (m *Manager) RenameTab(oldName, newName string) {
	d := m.Data()
	if _, ok := d.Tab(oldName); !ok {
		return
	}

	m.SaveUndoState("Rename Tab", nil)

	if d.RenameTab(oldName, newName) {
		m.sched.save(d, true)
	}
}

// ReorderTabs rearranges tabs to match order; tabs missing from order are
// dropped.
func (m *Manager) ReorderTabs(order []string) {
	m.SaveUndoState("Reorder Tabs", nil)

	d := m.Data()
	d.Reorder(order)
	m.sched.save(d, true)
}

// ReplaceTab swaps in a whole tab record, creating the tab if needed.
func (m *Manager) ReplaceTab(name string, t *Tab) {
	m.SaveUndoState("Data Change", nil)

	d := m.Data()
	d.SetTab(name, t)
	m.sched.save(d, true)
}

//
// Button operations
//

// AddButton appends a button record to a tab, creating the tab if needed.
// Missing defaults (size, radius, mode, script and pose data) are
// backfilled, legacy assigned-object references are migrated, and an id is
// generated when the record has none.
func (m *Manager) AddButton(tabName string, button *Object) *Element {
	m.SaveUndoState("Add Button", nil)

	d := m.Data()

	t, ok := d.Tab(tabName)
	if !ok {
		t = NewTab()
		d.SetTab(tabName, t)
	}

	if button == nil {
		button = NewObject()
	}

	if button.GetString(fieldID, "") == "" {
		button.Set(fieldID, uuid.NewString())
	}

	backfillButtonDefaults(button)

	el := &Element{fields: button}
	migrateAssignedObjects(el, m.registry)

	t.Buttons = append(t.Buttons, el)
	m.sched.save(d, false)

	return el
}

// UpdateButton overlays fields onto the button with the given id
// (debounced). Unknown tab or id is a no-op.
func (m *Manager) UpdateButton(tabName, id string, fields *Object) {
	m.SaveUndoState("Update Button", nil)

	d := m.Data()

	t, ok := d.Tab(tabName)
	if !ok {
		return
	}

	b, ok := t.Button(id)
	if !ok {
		return
	}

	b.Merge(fields)
	m.sched.save(d, false)
}

// DeleteButton removes the button with the given id (force-immediate).
func (m *Manager) DeleteButton(tabName, id string) {
	m.SaveUndoState("Delete Button", nil)

	d := m.Data()

	t, ok := d.Tab(tabName)
	if !ok {
		return
	}

	kept := t.Buttons[:0]

	for _, b := range t.Buttons {
		if b.ID() != id {
			kept = append(kept, b)
		}
	}

	t.Buttons = kept
	m.sched.save(d, true)
}

// BatchUpdateButtons upserts several button records at once: existing ids
// are replaced in place, new ones are appended (debounced).
func (m *Manager) BatchUpdateButtons(tabName string, buttons []*Element) {
	m.SaveUndoState("Batch Update", nil)

	d := m.Data()

	t, ok := d.Tab(tabName)
	if !ok {
		return
	}

	index := make(map[string]int, len(t.Buttons))
	for i, b := range t.Buttons {
		index[b.ID()] = i
	}

	for _, b := range buttons {
		if i, exists := index[b.ID()]; exists {
			t.Buttons[i] = b
		} else {
			index[b.ID()] = len(t.Buttons)
			t.Buttons = append(t.Buttons, b)
		}
	}

	m.sched.save(d, false)
}

// UpdateButtonPositions moves buttons to new canvas positions (debounced;
// this is the drag hot path).
func (m *Manager) UpdateButtonPositions(tabName string, positions map[string]Point) {
	m.SaveUndoState("Move Buttons", nil)

	d := m.Data()

	t, ok := d.Tab(tabName)
	if !ok {
		return
	}

	for _, b := range t.Buttons {
		if p, moved := positions[b.ID()]; moved {
			b.SetPosition(p.X, p.Y)
		}
	}

	m.sched.save(d, false)
}

// UpdateButtonOrder rearranges a tab's buttons to match the given id
// order (force-immediate, like the other structural operations). Ids not
// present in the tab are ignored; buttons missing from the order keep
// their relative order at the end.
func (m *Manager) UpdateButtonOrder(tabName string, order []string) {
	m.SaveUndoState("Reorder Buttons", nil)

	d := m.Data()

	t, ok := d.Tab(tabName)
	if !ok {
		return
	}

	byID := make(map[string]*Element, len(t.Buttons))
	for _, b := range t.Buttons {
		byID[b.ID()] = b
	}

	listed := make(map[string]bool, len(order))
	reordered := make([]*Element, 0, len(t.Buttons))

	for _, id := range order {
		if b, exists := byID[id]; exists && !listed[id] {
			reordered = append(reordered, b)
			listed[id] = true
		}
	}

	for _, b := range t.Buttons {
		if !listed[b.ID()] {
			reordered = append(reordered, b)
		}
	}

	t.Buttons = reordered
	m.sched.save(d, true)
}

//
// Per-tab settings (debounced)
//

// UpdateImage sets a tab's background image path, opacity, and scale.
func (m *Manager) UpdateImage(tabName string, path *string, opacity, scale float64) {
	m.SaveUndoState("Update Image", nil)

	m.mutateTab(tabName, func(t *Tab) {
		t.ImagePath = path
		t.ImageOpacity = opacity
		t.ImageScale = scale
	})
}

// SetNamespace sets a tab's namespace.
func (m *Manager) SetNamespace(tabName, namespace string) {
	m.SaveUndoState("Set Namespace", nil)

	m.mutateTab(tabName, func(t *Tab) {
		t.Namespace = namespace
	})
}

// SetShowDots toggles a tab's dot display.
func (m *Manager) SetShowDots(tabName string, show bool) {
	m.SaveUndoState("Toggle Dots", nil)

	m.mutateTab(tabName, func(t *Tab) {
		t.ShowDots = show
	})
}

// SetShowAxes toggles a tab's axis display.
func (m *Manager) SetShowAxes(tabName string, show bool) {
	m.SaveUndoState("Toggle Axes", nil)

	m.mutateTab(tabName, func(t *Tab) {
		t.ShowAxes = show
	})
}

// SetShowGrid toggles a tab's grid display.
func (m *Manager) SetShowGrid(tabName string, show bool) {
	m.SaveUndoState("Toggle Grid", nil)

	m.mutateTab(tabName, func(t *Tab) {
		t.ShowGrid = show
	})
}

// SetGridSize sets a tab's grid spacing.
func (m *Manager) SetGridSize(tabName string, size float64) {
	m.SaveUndoState("Set Grid Size", nil)

	m.mutateTab(tabName, func(t *Tab) {
		t.GridSize = size
	})
}

func (m *Manager) mutateTab(tabName string, mutate func(*Tab)) {
	d := m.Data()

	t, ok := d.Tab(tabName)
	if !ok {
		return
	}

	mutate(t)
	m.sched.save(d, false)
}

//
// Document settings
//

// ThumbnailDirectory returns the thumbnail directory setting.
func (m *Manager) ThumbnailDirectory() string {
	return m.Data().ThumbnailDirectory
}

// SetThumbnailDirectory sets the thumbnail directory (force-immediate).
func (m *Manager) SetThumbnailDirectory(dir string) {
	m.SaveUndoState("Set Thumbnail Directory", nil)

	d := m.Data()
	d.ThumbnailDirectory = dir
	m.sched.save(d, true)
}

// backfillButtonDefaults fills the record fields the original tool
// guarantees on every stored button.
func backfillButtonDefaults(button *Object) {
	if !button.Has(fieldWidth) {
		button.Set(fieldWidth, float64(defaultButtonWidth))
	}

	if !button.Has(fieldHeight) {
		button.Set(fieldHeight, float64(defaultButtonHeight))
	}

	if !button.Has(fieldRadius) {
		button.Set(fieldRadius, Array{float64(3), float64(3), float64(3), float64(3)})
	}

	if !button.Has(fieldMode) {
		button.Set(fieldMode, defaultButtonMode)
	}

	if !button.Has(fieldAssignedObjects) {
		button.Set(fieldAssignedObjects, Array{})
	}

	backfillScriptData(button)

	if !button.Has(fieldPoseData) {
		button.Set(fieldPoseData, NewObject())
	}
}

// backfillScriptData normalizes script_data: a missing record gets empty
// python defaults, a bare string becomes a python record, a partial record
// gets its code fields completed.
func backfillScriptData(button *Object) {
	v, ok := button.Get(fieldScriptData)
	if !ok || v == nil {
		sd := NewObject()
		sd.Set(fieldType, "python")
		sd.Set(fieldPythonCode, "")
		sd.Set(fieldCode, "")
		button.Set(fieldScriptData, sd)

		return
	}

	sd, isObj := v.(*Object)
	if !isObj {
		code, _ := v.(string)

		rec := NewObject()
		rec.Set(fieldType, "python")
		rec.Set(fieldPythonCode, code)
		rec.Set(fieldCode, code)
		button.Set(fieldScriptData, rec)

		return
	}

	if !sd.Has(fieldType) {
		sd.Set(fieldType, "python")
	}

	if !sd.Has(fieldPythonCode) {
		sd.Set(fieldPythonCode, sd.GetString(fieldCode, ""))
	}

	if !sd.Has(fieldCode) {
		sd.Set(fieldCode, sd.GetString(fieldPythonCode, ""))
	}
}

package pickerdata

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// ConflictPolicy decides what happens when an imported tab name collides
// with an existing one.
type ConflictPolicy int

const (
	// ConflictSkip keeps the existing tab and drops the imported one.
	ConflictSkip ConflictPolicy = iota

	// ConflictRename imports the tab under a fresh name (name_1, name_2, ...).
	ConflictRename

	// ConflictOverwrite replaces the existing tab with the imported one.
	ConflictOverwrite
)

func (p ConflictPolicy) String() string {
	switch p {
	case ConflictSkip:
		return "skip"
	case ConflictRename:
		return "rename"
	case ConflictOverwrite:
		return "overwrite"
	default:
		return fmt.Sprintf("ConflictPolicy(%d)", int(p))
	}
}

// ExportFile writes the current document to path as indented JSON, written
// atomically. A missing .json extension is appended.
func (m *Manager) ExportFile(path string) error {
	if path == "" {
		return fmt.Errorf("export picker data: %w", errEmptyPath)
	}

	if !strings.HasSuffix(strings.ToLower(path), ".json") {
		path += ".json"
	}

	raw, err := encodeDocumentIndented(m.Data())
	if err != nil {
		return fmt.Errorf("export picker data: %w", err)
	}

	err = atomic.WriteFile(path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("export picker data: %w", err)
	}

	return nil
}

// ImportFile merges tabs from a previously exported file into the current
// document, applying policy to every name collision. The merge keeps the
// imported file's tab order first, then any existing tabs that were not
// part of the import, and records a single undo entry before touching
// anything.
func (m *Manager) ImportFile(path string, policy ConflictPolicy) error {
	if path == "" {
		return fmt.Errorf("import picker data: %w", errEmptyPath)
	}

	if !strings.HasSuffix(strings.ToLower(path), ".json") {
		return fmt.Errorf("import picker data: %w", errNotJSONFile)
	}

	raw, err := os.ReadFile(path) //nolint:gosec // caller-chosen import path
	if err != nil {
		return fmt.Errorf("import picker data: %w", err)
	}

	imported, _, err := decodeDocument(string(raw), m.registry, m.logger)
	if err != nil {
		return fmt.Errorf("import picker data: %w", err)
	}

	m.SaveUndoState("Import Picker Data", nil)

	current := m.Data()
	merged := NewDocument()
	merged.ThumbnailDirectory = current.ThumbnailDirectory

	for _, name := range imported.TabNames() {
		tab, _ := imported.Tab(name)

		_, exists := current.Tab(name)
		if !exists {
			merged.SetTab(name, tab)

			continue
		}

		switch policy {
		case ConflictSkip:
			existing, _ := current.Tab(name)
			merged.SetTab(name, existing)
		case ConflictRename:
			merged.SetTab(current.UniqueTabName(name), tab)
		case ConflictOverwrite:
			merged.SetTab(name, tab)
		}
	}

	for _, name := range current.TabNames() {
		if _, taken := merged.Tab(name); !taken {
			tab, _ := current.Tab(name)
			merged.SetTab(name, tab)
		}
	}

	m.sched.save(merged, true)

	return nil
}

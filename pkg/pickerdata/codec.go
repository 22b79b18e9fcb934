package pickerdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tailscale/hujson"
)

// Wire format keys.
const (
	keyTabs               = "tabs"
	keyThumbnailDirectory = "thumbnail_directory"
	keyButtons            = "buttons"
	keyImagePath          = "image_path"
	keyImageOpacity       = "image_opacity"
	keyImageScale         = "image_scale"
	keyBackgroundValue    = "background_value"
	keyNamespace          = "namespace"
	keyShowDots           = "show_dots"
	keyShowAxes           = "show_axes"
	keyShowGrid           = "show_grid"
	keyGridSize           = "grid_size"
)

// Button record fields this package touches.
const (
	fieldID              = "id"
	fieldPosition        = "position"
	fieldAssignedObjects = "assigned_objects"
	fieldUUID            = "uuid"
	fieldName            = "name"
)

// decodeDocument parses the wire string into a Document, backfilling
// missing per-tab defaults and migrating legacy button records. The
// returned migrated flag reports whether anything was normalized, in which
// case the caller should persist the result.
//
// Input is standardized with hujson first, so comments and trailing commas
// in hand-edited data are tolerated.
func decodeDocument(raw string, registry Registry, logger *slog.Logger) (*Document, bool, error) {
	std, err := hujson.Standardize([]byte(raw))
	if err != nil {
		return nil, false, fmt.Errorf("parse picker data: %w", err)
	}

	root := NewObject()

	err = json.Unmarshal(std, root)
	if err != nil {
		return nil, false, fmt.Errorf("parse picker data: %w", err)
	}

	tabsVal, ok := root.Get(keyTabs)
	if !ok {
		return nil, false, fmt.Errorf("%w: missing %q", ErrInvalidDocument, keyTabs)
	}

	tabsObj, ok := tabsVal.(*Object)
	if !ok {
		return nil, false, fmt.Errorf("%w: %q is not an object", ErrInvalidDocument, keyTabs)
	}

	doc := NewDocument()
	doc.ThumbnailDirectory = root.GetString(keyThumbnailDirectory, "")

	migrated := false

	for _, name := range tabsObj.Keys() {
		tabVal, _ := tabsObj.Get(name)

		tabObj, tabOK := tabVal.(*Object)
		if !tabOK {
			return nil, false, fmt.Errorf("%w: tab %q is not an object", ErrInvalidDocument, name)
		}

		tab, changed, tabErr := decodeTab(name, tabObj, registry, logger)
		if tabErr != nil {
			return nil, false, tabErr
		}

		if changed {
			migrated = true
		}

		doc.SetTab(name, tab)
	}

	return doc, migrated, nil
}

func decodeTab(name string, o *Object, registry Registry, logger *slog.Logger) (*Tab, bool, error) {
	tab := NewTab()
	changed := false

	if !o.Has(keyButtons) {
		changed = true
	}

	if !o.Has(keyNamespace) {
		changed = true
	}

	if v, ok := o.Get(keyImagePath); ok {
		if s, isStr := v.(string); isStr {
			tab.ImagePath = &s
		}
	}

	tab.ImageOpacity = o.GetNumber(keyImageOpacity, defaultImageOpacity)
	tab.ImageScale = o.GetNumber(keyImageScale, defaultImageScale)
	tab.BackgroundValue = o.GetNumber(keyBackgroundValue, defaultBackgroundValue)
	tab.Namespace = o.GetString(keyNamespace, defaultNamespace)
	tab.ShowDots = o.GetBool(keyShowDots, defaultShowDots)
	tab.ShowAxes = o.GetBool(keyShowAxes, defaultShowAxes)
	tab.ShowGrid = o.GetBool(keyShowGrid, defaultShowGrid)
	tab.GridSize = o.GetNumber(keyGridSize, defaultGridSize)

	buttonsVal, ok := o.Get(keyButtons)
	if !ok {
		return tab, changed, nil
	}

	buttons, isArr := buttonsVal.(Array)
	if !isArr {
		return nil, false, fmt.Errorf("%w: tab %q: %q is not an array", ErrInvalidDocument, name, keyButtons)
	}

	for _, v := range buttons {
		btnObj, isObj := v.(*Object)
		if !isObj {
			logger.Warn("dropping non-object button record", "tab", name)

			changed = true

			continue
		}

		el, elErr := elementFromObject(btnObj)
		if elErr != nil {
			logger.Warn("dropping button record without id", "tab", name)

			changed = true

			continue
		}

		if migrateAssignedObjects(el, registry) {
			changed = true
		}

		tab.Buttons = append(tab.Buttons, el)
	}

	return tab, changed, nil
}

// migrateAssignedObjects converts legacy bare-identifier assigned_objects
// entries into {uuid, name} records, resolving names against the registry.
// Unresolved identifiers degrade to an empty name; entries of unexpected
// shape are dropped rather than aborting the migration.
func migrateAssignedObjects(el *Element, registry Registry) bool {
	v, ok := el.Get(fieldAssignedObjects)
	if !ok {
		return false
	}

	arr, isArr := v.(Array)
	if !isArr || len(arr) == 0 {
		return false
	}

	// Already-structured records pass through untouched.
	if _, isObj := arr[0].(*Object); isObj {
		return false
	}

	converted := make(Array, 0, len(arr))

	for _, entry := range arr {
		id, isStr := entry.(string)
		if !isStr {
			continue
		}

		name, _ := registry.Resolve(id)

		rec := NewObject()
		rec.Set(fieldUUID, id)
		rec.Set(fieldName, name)

		converted = append(converted, rec)
	}

	el.Set(fieldAssignedObjects, converted)

	return true
}

// encodeDocument renders the canonical, order-preserving wire string.
func encodeDocument(d *Document) (string, error) {
	raw, err := json.Marshal(documentObject(d))
	if err != nil {
		return "", fmt.Errorf("encode picker data: %w", err)
	}

	return string(raw), nil
}

// encodeDocumentIndented is the file-export form of encodeDocument.
func encodeDocumentIndented(d *Document) ([]byte, error) {
	raw, err := json.Marshal(documentObject(d))
	if err != nil {
		return nil, fmt.Errorf("encode picker data: %w", err)
	}

	var buf bytes.Buffer

	err = json.Indent(&buf, raw, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode picker data: %w", err)
	}

	return buf.Bytes(), nil
}

func documentObject(d *Document) *Object {
	tabs := NewObject()

	for _, name := range d.names {
		tabs.Set(name, tabObject(d.tabs[name]))
	}

	root := NewObject()
	root.Set(keyTabs, tabs)
	root.Set(keyThumbnailDirectory, d.ThumbnailDirectory)

	return root
}

func tabObject(t *Tab) *Object {
	buttons := make(Array, len(t.Buttons))
	for i, b := range t.Buttons {
		buttons[i] = b.fields
	}

	var imagePath any
	if t.ImagePath != nil {
		imagePath = *t.ImagePath
	}

	o := NewObject()
	o.Set(keyButtons, buttons)
	o.Set(keyImagePath, imagePath)
	o.Set(keyImageOpacity, t.ImageOpacity)
	o.Set(keyImageScale, t.ImageScale)
	o.Set(keyBackgroundValue, t.BackgroundValue)
	o.Set(keyNamespace, t.Namespace)
	o.Set(keyShowDots, t.ShowDots)
	o.Set(keyShowAxes, t.ShowAxes)
	o.Set(keyShowGrid, t.ShowGrid)
	o.Set(keyGridSize, t.GridSize)

	return o
}

package pickerdata

import "fmt"

// DefaultTabName is the tab created when a document is initialized from
// scratch.
const DefaultTabName = "Tab 1"

// Tab setting defaults.
const (
	defaultImageOpacity    = 1.0
	defaultImageScale      = 1.0
	defaultBackgroundValue = 20
	defaultNamespace       = "None"
	defaultShowDots        = false
	defaultShowAxes        = true
	defaultShowGrid        = true
	defaultGridSize        = 50
)

// Element is one button record. The only field this package interprets is
// the "id" string; everything else is carried through untouched.
type Element struct {
	fields *Object
}

// NewElement returns an element with the given id and no other fields.
func NewElement(id string) *Element {
	e := &Element{fields: NewObject()}
	e.fields.Set(fieldID, id)

	return e
}

// elementFromObject wraps a decoded button object. The object must carry a
// non-empty "id" string.
func elementFromObject(o *Object) (*Element, error) {
	id := o.GetString(fieldID, "")
	if id == "" {
		return nil, ErrMissingID
	}

	return &Element{fields: o}, nil
}

// ID returns the element's unique id.
func (e *Element) ID() string {
	return e.fields.GetString(fieldID, "")
}

// Fields returns the underlying ordered record. Mutations are visible to
// the document holding the element.
func (e *Element) Fields() *Object {
	return e.fields
}

// Get returns a field value.
func (e *Element) Get(key string) (any, bool) {
	return e.fields.Get(key)
}

// Set stores a field value.
func (e *Element) Set(key string, value any) {
	e.fields.Set(key, value)
}

// Merge overlays the given fields onto the element, preserving the position
// of keys that already exist.
func (e *Element) Merge(fields *Object) {
	for _, k := range fields.Keys() {
		v, _ := fields.Get(k)
		e.fields.Set(k, cloneValue(v))
	}
}

// SetPosition stores the element's canvas position as a two-value array.
func (e *Element) SetPosition(x, y float64) {
	e.fields.Set(fieldPosition, Array{x, y})
}

// Position returns the element's canvas position, if set.
func (e *Element) Position() (x, y float64, ok bool) {
	v, found := e.fields.Get(fieldPosition)
	if !found {
		return 0, 0, false
	}

	arr, isArr := v.(Array)
	if !isArr || len(arr) != 2 {
		return 0, 0, false
	}

	x, xOK := numberValue(arr[0])
	y, yOK := numberValue(arr[1])

	return x, y, xOK && yOK
}

// Clone returns a deep copy.
func (e *Element) Clone() *Element {
	return &Element{fields: e.fields.Clone()}
}

// Tab is a named, ordered container of elements plus per-tab display
// settings. Missing settings are backfilled with defaults on decode and on
// lazy creation.
type Tab struct {
	Buttons []*Element

	ImagePath       *string
	ImageOpacity    float64
	ImageScale      float64
	BackgroundValue float64
	Namespace       string
	ShowDots        bool
	ShowAxes        bool
	ShowGrid        bool
	GridSize        float64
}

// NewTab returns an empty tab with default settings.
func NewTab() *Tab {
	return &Tab{
		Buttons:         []*Element{},
		ImageOpacity:    defaultImageOpacity,
		ImageScale:      defaultImageScale,
		BackgroundValue: defaultBackgroundValue,
		Namespace:       defaultNamespace,
		ShowDots:        defaultShowDots,
		ShowAxes:        defaultShowAxes,
		ShowGrid:        defaultShowGrid,
		GridSize:        defaultGridSize,
	}
}

// Button returns the element with the given id.
func (t *Tab) Button(id string) (*Element, bool) {
	for _, b := range t.Buttons {
		if b.ID() == id {
			return b, true
		}
	}

	return nil, false
}

// Clone returns a deep copy.
func (t *Tab) Clone() *Tab {
	out := *t

	if t.ImagePath != nil {
		p := *t.ImagePath
		out.ImagePath = &p
	}

	out.Buttons = make([]*Element, len(t.Buttons))
	for i, b := range t.Buttons {
		out.Buttons[i] = b.Clone()
	}

	return &out
}

// Document is the full persisted picker state: ordered tabs plus the
// thumbnail directory setting.
type Document struct {
	ThumbnailDirectory string

	names []string
	tabs  map[string]*Tab
}

// NewDocument returns an empty document with no tabs.
func NewDocument() *Document {
	return &Document{tabs: make(map[string]*Tab)}
}

// DefaultDocument returns the state a fresh install starts from: one
// default-named tab with default settings.
func DefaultDocument() *Document {
	d := NewDocument()
	d.SetTab(DefaultTabName, NewTab())

	return d
}

// TabNames returns tab names in display order. The slice is a copy.
func (d *Document) TabNames() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)

	return out
}

// TabCount returns the number of tabs.
func (d *Document) TabCount() int {
	return len(d.names)
}

// Tab returns the named tab.
func (d *Document) Tab(name string) (*Tab, bool) {
	t, ok := d.tabs[name]

	return t, ok
}

// SetTab inserts or replaces a tab. New names append to the end of the tab
// order; existing names keep their position.
func (d *Document) SetTab(name string, t *Tab) {
	if d.tabs == nil {
		d.tabs = make(map[string]*Tab)
	}

	if _, ok := d.tabs[name]; !ok {
		d.names = append(d.names, name)
	}

	d.tabs[name] = t
}

// DeleteTab removes the named tab, preserving the order of the rest.
func (d *Document) DeleteTab(name string) bool {
	if _, ok := d.tabs[name]; !ok {
		return false
	}

	delete(d.tabs, name)

	for i, n := range d.names {
		if n == name {
			d.names = append(d.names[:i], d.names[i+1:]...)

			break
		}
	}

	return true
}

// RenameTab renames a tab in place, keeping its position in the tab order.
// It fails if oldName does not exist or newName is already taken.
func (d *Document) RenameTab(oldName, newName string) bool {
	if oldName == newName {
		return false
	}

	t, ok := d.tabs[oldName]
	if !ok {
		return false
	}

	if _, taken := d.tabs[newName]; taken {
		return false
	}

	for i, n := range d.names {
		if n == oldName {
			d.names[i] = newName

			break
		}
	}

	delete(d.tabs, oldName)
	d.tabs[newName] = t

	return true
}

// Reorder rearranges tabs to match the given order. Names not present in
// the document are ignored; tabs missing from the order are dropped.
func (d *Document) Reorder(order []string) {
	names := make([]string, 0, len(d.names))
	tabs := make(map[string]*Tab, len(d.tabs))

	for _, name := range order {
		t, ok := d.tabs[name]
		if !ok {
			continue
		}

		if _, dup := tabs[name]; dup {
			continue
		}

		names = append(names, name)
		tabs[name] = t
	}

	d.names = names
	d.tabs = tabs
}

// UniqueTabName returns base if it is free, otherwise base_1, base_2, ...
func (d *Document) UniqueTabName(base string) string {
	if _, taken := d.tabs[base]; !taken {
		return base
	}

	for i := 1; ; i++ {
		name := fmt.Sprintf("%s_%d", base, i)
		if _, taken := d.tabs[name]; !taken {
			return name
		}
	}
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	out := NewDocument()
	out.ThumbnailDirectory = d.ThumbnailDirectory

	for _, name := range d.names {
		out.SetTab(name, d.tabs[name].Clone())
	}

	return out
}

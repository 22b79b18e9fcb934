package pickerdata

// docCache holds the last-known decoded document. Access is serialized by
// the scheduler's mutex; see scheduler.go.
type docCache struct {
	doc *Document
}

func (c *docCache) get() *Document {
	return c.doc
}

func (c *docCache) set(d *Document) {
	c.doc = d
}

func (c *docCache) clear() {
	c.doc = nil
}

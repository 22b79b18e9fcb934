package pickerdata

// Registry resolves host object identifiers to display names. It is only
// consulted while migrating legacy bare-identifier button references; a
// failed lookup is not an error, the reference just keeps an empty name.
type Registry interface {
	Resolve(id string) (name string, ok bool)
}

// NoopRegistry resolves nothing. It is the default when no host registry is
// available, keeping migration usable outside the host environment.
type NoopRegistry struct{}

// Resolve implements [Registry].
func (NoopRegistry) Resolve(string) (string, bool) {
	return "", false
}

// StaticRegistry resolves identifiers from a fixed map.
type StaticRegistry map[string]string

// Resolve implements [Registry].
func (r StaticRegistry) Resolve(id string) (string, bool) {
	name, ok := r[id]

	return name, ok
}

package driven

// ConfigStore holds flat dot-notation settings such as "chunking.size".
// Typed getters return the zero value for missing keys or values of another type.
type ConfigStore interface {
	// Get returns the raw value and whether the key is present.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64

	// Set stores one value and persists it.
	Set(key string, value any) error

	// SetAll stores several values with a single write.
	SetAll(values map[string]any) error

	// Path describes where the settings live.
	Path() string
}

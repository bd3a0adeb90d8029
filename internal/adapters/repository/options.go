package repository

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithDataFile sets the JSON file the MemStore loads on construction and
// saves on Close. Empty path disables persistence.
func WithDataFile(path string) Option {
	return func(s *MemStore) {
		s.dataFile = path
	}
}

package domain

// StateRepository defines the interface for state persistence.
// Save must replace the stored snapshot atomically: a reader never observes a partial write.
type StateRepository interface {
	// Load returns the stored state, or an empty state if nothing was stored yet
	Load() (State, error)

	// Save replaces the stored state with the given snapshot
	Save(state State) error

	// Close releases any underlying resources
	Close() error
}

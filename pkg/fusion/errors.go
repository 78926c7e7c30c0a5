package fusion

import "errors"

var (
	// ErrUnknownModality is returned when a modality name is not recognised.
	ErrUnknownModality = errors.New("fusion: unknown modality")

	// ErrInvalidConfig is returned when a configuration fails validation.
	ErrInvalidConfig = errors.New("fusion: invalid config")

	// ErrNotInitialized is returned when the engine is used before Init.
	ErrNotInitialized = errors.New("fusion: engine not initialized")
)
